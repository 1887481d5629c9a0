package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rssreader/internal/logging"
)

func TestLevels(t *testing.T) {
	var quiet bytes.Buffer
	logger, closeLog, err := logging.New(logging.Options{Console: &quiet})
	require.NoError(t, err)
	defer closeLog()

	logger.Info("hidden")
	assert.Empty(t, quiet.String())
	logger.Error("broken")
	assert.Contains(t, quiet.String(), "broken")

	var loud bytes.Buffer
	logger, closeLog, err = logging.New(logging.Options{Verbose: true, Console: &loud})
	require.NoError(t, err)
	defer closeLog()

	logger.Debug("shown")
	assert.Contains(t, loud.String(), "shown")
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rss-reader.log")
	var console bytes.Buffer

	logger, closeLog, err := logging.New(logging.Options{Verbose: true, File: path, Console: &console})
	require.NoError(t, err)
	logger.WithField("source", "https://example.com/rss").Info("make request")
	require.NoError(t, closeLog())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "make request")
	assert.Contains(t, string(b), "source=")
	assert.Contains(t, console.String(), "make request")
}

func TestFileSinkKeepsDebugWhenQuiet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rss-reader.log")
	var console bytes.Buffer

	logger, closeLog, err := logging.New(logging.Options{File: path, Console: &console})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	logger.Debug("parsing feed")
	logger.Error("request failed")
	require.NoError(t, closeLog())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "parsing feed")
	assert.Contains(t, string(b), "request failed")
	assert.NotContains(t, console.String(), "parsing feed")
	assert.Contains(t, console.String(), "request failed")
}
