// Package read implements the default command: resolve records and hand
// them to the requested renderers.
package read

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"rssreader/internal/config"
	"rssreader/internal/httpclient"
	"rssreader/internal/render"
	"rssreader/internal/resolver"
)

const dateFlagLayout = "20060102"

// Options allow overriding config values from CLI flags.
type Options struct {
	Source   string
	Date     string // YYYYMMDD
	Limit    int
	JSON     bool
	Colorize bool
	ToHTML   string
	ToPDF    string
	Out      io.Writer
}

// ParseDate turns a YYYYMMDD flag value into the YYYY-MM-DD cache date.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	d, err := time.Parse(dateFlagLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYYMMDD", s)
	}
	return d.Format("2006-01-02"), nil
}

// Run resolves the request and renders the result.
func Run(ctx context.Context, cfg config.Config, logger *logrus.Logger, opts Options) error {
	date, err := ParseDate(opts.Date)
	if err != nil {
		return err
	}
	if opts.Limit < 0 {
		return fmt.Errorf("invalid limit %d", opts.Limit)
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	records, err := resolver.FromConfig(cfg, logger).Resolve(ctx, resolver.Request{
		Source: strings.TrimSpace(opts.Source),
		Date:   date,
		Limit:  opts.Limit,
	})
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(out, render.EmptyMessage)
		return nil
	}

	if opts.ToPDF != "" {
		path, err := render.PDF(ctx, config.ExpandPath(opts.ToPDF), records, render.PDFOptions{
			FontPath: cfg.PDFFont,
			Client:   httpclient.New(cfg.Timeout),
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "PDF file was saved: %s\n", path)
	}
	if opts.ToHTML != "" {
		path, err := render.HTML(config.ExpandPath(opts.ToHTML), records)
		if err != nil {
			return err
		}
		logger.WithField("path", path).Info("html file was saved")
		fmt.Fprintf(out, "HTML file was saved: %s\n", path)
	}

	switch {
	case opts.JSON:
		return render.JSON(out, records)
	case opts.Colorize:
		return render.Colorized(out, records)
	default:
		return render.Console(out, records)
	}
}
