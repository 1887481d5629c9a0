package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Write renders cfg as config.yaml at path, creating the directory.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Rendered by hand so every key carries a comment
	var sb strings.Builder
	sb.WriteString("# rss-reader configuration\n")

	sb.WriteString("database:\n")
	sb.WriteString("  # SQLite cache file\n")
	sb.WriteString(fmt.Sprintf("  path: %q\n", cfg.DatabasePath))

	timeout := int(cfg.Timeout / time.Second)
	if timeout <= 0 {
		timeout = int(defaultTimeout / time.Second)
	}
	sb.WriteString("http:\n")
	sb.WriteString("  # seconds to wait for a feed or image\n")
	sb.WriteString(fmt.Sprintf("  timeout: %d\n", timeout))

	sb.WriteString("log:\n")
	if strings.TrimSpace(cfg.LogFile) != "" {
		sb.WriteString(fmt.Sprintf("  file: %q\n", cfg.LogFile))
	} else {
		sb.WriteString("  # file: \"~/.local/state/rss-reader/rss-reader.log\"\n")
	}
	sb.WriteString(fmt.Sprintf("  verbose: %t\n", cfg.Verbose))

	sb.WriteString("pdf:\n")
	if strings.TrimSpace(cfg.PDFFont) != "" {
		sb.WriteString(fmt.Sprintf("  font: %q\n", cfg.PDFFont))
	} else {
		sb.WriteString("  # TrueType font with Cyrillic glyphs, e.g. DejaVuSansCondensed.ttf\n")
		sb.WriteString("  # font: \"/usr/share/fonts/truetype/dejavu/DejaVuSansCondensed.ttf\"\n")
	}

	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// BackupFile creates a backup of the specified file with a timestamp
func BackupFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	ts := time.Now().Format("20060102-150405")
	bak := path + ".bak-" + ts
	return bak, os.WriteFile(bak, b, 0o644)
}
