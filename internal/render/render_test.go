package render_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rssreader/internal/record"
	"rssreader/internal/render"
)

var normalizer = record.Normalizer{Now: func() time.Time {
	return time.Date(2021, time.November, 1, 0, 0, 0, 0, time.UTC)
}}

func sample() []record.Record {
	return []record.Record{
		normalizer.New(record.Fields{
			GUID:            "g1",
			Link:            "https://news.example/1",
			Source:          "https://news.example/rss",
			Title:           "First <news>",
			Language:        "en",
			PubDate:         "Tue, 26 Oct 2021 12:02:57 +0300",
			Description:     "Body text",
			HTMLDescription: `<p>Body <b>text</b></p><img src="https://img.example/inline.png"><script>alert(1)</script>`,
			Category:        []string{"tech", "home"},
			Links:           []string{"https://other.example/x"},
			ImageLinks:      []string{"https://img.example/inline.png", "https://img.example/extra.png"},
		}),
		normalizer.New(record.Fields{
			GUID:  "g2",
			Link:  "https://news.example/2",
			Title: "Second",
		}),
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Console(&buf, sample()))

	out := buf.String()
	assert.Contains(t, out, "Source: https://news.example/rss\n")
	assert.Contains(t, out, "Category: home; tech\n")
	assert.Contains(t, out, "Title: First <news>\n")
	assert.Contains(t, out, "Item Link: https://news.example/2\n")
	assert.Contains(t, out, "Images: https://img.example/extra.png; https://img.example/inline.png\n")
	assert.Equal(t, 2, strings.Count(out, "****************************"))
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.JSON(&buf, sample()))

	var got []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "g1", got[0]["guid"])
	assert.Equal(t, "home;tech", got[0]["category"])
	assert.Equal(t, "", got[1]["links"])
	assert.Contains(t, buf.String(), "First <news>", "html is not escaped")
}

func TestColorizedPlainWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Colorized(&buf, sample()))

	out := buf.String()
	assert.Contains(t, out, "Item (en): https://news.example/rss")
	assert.Contains(t, out, "Publication date: Tue, 26 Oct 2021 12:02:57 +0300")
	assert.Contains(t, out, "[1]: https://img.example/extra.png")
	assert.Contains(t, out, "Description links:")
	assert.NotContains(t, out, "\x1b[", "no escape codes outside a terminal")
}

func TestCheckDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, render.CheckDir(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file removed")

	err = render.CheckDir(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, render.CheckDir(file))
}

func TestCheckDirReadOnly(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	assert.ErrorIs(t, render.CheckDir(dir), render.ErrPermission)
}

func TestHTML(t *testing.T) {
	dir := t.TempDir()

	path, err := render.HTML(dir, sample())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, render.HTMLFile), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	page := string(b)
	assert.Contains(t, page, `<html lang="en">`)
	assert.Contains(t, page, "First &lt;news&gt;")
	assert.Contains(t, page, "<b>text</b>")
	assert.NotContains(t, page, "<script>")
	assert.Contains(t, page, `Image: <img src="https://img.example/extra.png"`)
	assert.NotContains(t, page, `Image: <img src="https://img.example/inline.png"`)
	assert.Contains(t, page, `<a href="https://news.example/2">Link to item</a>`)
}

func TestHTMLEmpty(t *testing.T) {
	dir := t.TempDir()
	path, err := render.HTML(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.NoFileExists(t, filepath.Join(dir, render.HTMLFile))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := range 4 {
		for y := range 4 {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPDF(t *testing.T) {
	var hits atomic.Int32
	data := pngBytes(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
		case "/broken.png":
			_, _ = w.Write([]byte("not a png"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	recs := sample()
	recs[0].ImageLinks = record.NewSet(
		server.URL+"/ok.png",
		server.URL+"/broken.png",
		server.URL+"/missing.png",
		server.URL+"/vector.svg",
	)

	logger, hook := test.NewNullLogger()
	dir := t.TempDir()
	path, err := render.PDF(context.Background(), dir, recs, render.PDFOptions{Logger: logger})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, render.PDFFile), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))

	assert.EqualValues(t, 3, hits.Load(), "svg is never downloaded")
	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Message == "skip image" || e.Message == "skip undecodable image" {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestPDFMissingDirectory(t *testing.T) {
	_, err := render.PDF(context.Background(), filepath.Join(t.TempDir(), "nope"), sample(), render.PDFOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPDFMissingFont(t *testing.T) {
	_, err := render.PDF(context.Background(), t.TempDir(), sample(), render.PDFOptions{FontPath: "/nonexistent/font.ttf"})
	assert.Error(t, err)
}
