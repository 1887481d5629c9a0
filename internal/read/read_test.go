package read_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rssreader/internal/config"
	"rssreader/internal/fetch"
	"rssreader/internal/read"
	"rssreader/internal/render"
)

const feed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Test feed</title>
<language>en</language>
<item>
<title>Alpha</title>
<link>https://feed.example/alpha</link>
<pubDate>Tue, 26 Oct 2021 12:02:57 +0300</pubDate>
<description><![CDATA[<p>Alpha body</p>]]></description>
</item>
<item>
<title>Beta</title>
<link>https://feed.example/beta</link>
<pubDate>Wed, 27 Oct 2021 08:00:00 +0300</pubDate>
</item>
</channel>
</rss>`

func env(t *testing.T) (config.Config, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rss" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(feed))
	}))
	t.Cleanup(server.Close)

	cfg := config.Config{
		DatabasePath: filepath.Join(t.TempDir(), "rss_cache.db"),
		Timeout:      time.Second,
	}
	return cfg, server
}

func TestParseDate(t *testing.T) {
	d, err := read.ParseDate("20211026")
	require.NoError(t, err)
	assert.Equal(t, "2021-10-26", d)

	d, err = read.ParseDate("")
	require.NoError(t, err)
	assert.Empty(t, d)

	_, err = read.ParseDate("2021-10-26")
	assert.Error(t, err)
}

func TestRunFetchThenCachedDate(t *testing.T) {
	cfg, server := env(t)
	logger, _ := test.NewNullLogger()
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, read.Run(ctx, cfg, logger, read.Options{Source: server.URL + "/rss", Out: &out}))
	assert.Contains(t, out.String(), "Title: Alpha")
	assert.Contains(t, out.String(), "Title: Beta")

	out.Reset()
	require.NoError(t, read.Run(ctx, cfg, logger, read.Options{Date: "20211027", Out: &out}))
	assert.NotContains(t, out.String(), "Title: Alpha")
	assert.Contains(t, out.String(), "Title: Beta")

	out.Reset()
	require.NoError(t, read.Run(ctx, cfg, logger, read.Options{Date: "20200101", Out: &out}))
	assert.Equal(t, render.EmptyMessage+"\n", out.String())
}

func TestRunJSONWithLimit(t *testing.T) {
	cfg, server := env(t)
	logger, _ := test.NewNullLogger()

	var out bytes.Buffer
	require.NoError(t, read.Run(context.Background(), cfg, logger, read.Options{
		Source: server.URL + "/rss",
		Limit:  1,
		JSON:   true,
		Out:    &out,
	}))

	var got []map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Alpha", got[0]["title"])
	assert.Equal(t, "2021-10-26", got[0]["filter_date"])
}

func TestRunExports(t *testing.T) {
	cfg, server := env(t)
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()

	var out bytes.Buffer
	require.NoError(t, read.Run(context.Background(), cfg, logger, read.Options{
		Source: server.URL + "/rss",
		ToHTML: dir,
		ToPDF:  dir,
		Out:    &out,
	}))

	assert.FileExists(t, filepath.Join(dir, render.HTMLFile))
	assert.FileExists(t, filepath.Join(dir, render.PDFFile))
	assert.Contains(t, out.String(), "HTML file was saved")
	assert.Contains(t, out.String(), "PDF file was saved")
	assert.Contains(t, out.String(), "Title: Alpha")
}

func TestRunErrors(t *testing.T) {
	cfg, server := env(t)
	logger, _ := test.NewNullLogger()
	ctx := context.Background()

	err := read.Run(ctx, cfg, logger, read.Options{Source: server.URL + "/missing", Out: &bytes.Buffer{}})
	assert.ErrorIs(t, err, fetch.ErrInvalidResponse)

	err = read.Run(ctx, cfg, logger, read.Options{Date: "yesterday", Out: &bytes.Buffer{}})
	assert.Error(t, err)

	err = read.Run(ctx, cfg, logger, read.Options{Limit: -1, Out: &bytes.Buffer{}})
	assert.Error(t, err)

	missing := filepath.Join(t.TempDir(), "nope")
	err = read.Run(ctx, cfg, logger, read.Options{Source: server.URL + "/rss", ToHTML: missing, Out: &bytes.Buffer{}})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
