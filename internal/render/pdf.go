package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"rssreader/internal/httpclient"
	"rssreader/internal/record"
)

// PDFFile is the name of the exported PDF document.
const PDFFile = "RSS_ITEMS.pdf"

const (
	unicodeFamily = "DejaVu"
	coreFamily    = "Helvetica"
	lineHeight    = 10
)

// PDFOptions configure PDF export.
type PDFOptions struct {
	// FontPath is a TrueType font used for all text. Without it the core
	// Helvetica font is used and characters outside Windows-1252 are lost.
	FontPath string
	Client   *httpclient.Client
	Logger   *logrus.Logger
}

type pdfWriter struct {
	pdf       *fpdf.Fpdf
	family    string
	translate func(string) string
	client    *httpclient.Client
	logger    *logrus.Logger
}

// PDF writes RSS_ITEMS.pdf into dir, one page per record, and returns its
// path. Images are downloaded and embedded; an image that cannot be fetched
// or decoded is skipped. Nothing is written for an empty record list.
func PDF(ctx context.Context, dir string, recs []record.Record, opts PDFOptions) (string, error) {
	if len(recs) == 0 {
		return "", nil
	}
	if err := CheckDir(dir); err != nil {
		return "", err
	}

	w := &pdfWriter{
		pdf:    fpdf.New("P", "mm", "A4", ""),
		client: opts.Client,
		logger: opts.Logger,
	}
	if w.client == nil {
		w.client = httpclient.New(httpclient.DefaultTimeout)
	}
	if w.logger == nil {
		w.logger = logrus.StandardLogger()
	}
	w.pdf.SetMargins(5, 13.5, 5)

	if opts.FontPath != "" {
		font, err := os.ReadFile(opts.FontPath)
		if err != nil {
			return "", fmt.Errorf("load font: %w", err)
		}
		w.pdf.AddUTF8FontFromBytes(unicodeFamily, "", font)
		if err := w.pdf.Error(); err != nil {
			return "", fmt.Errorf("load font %s: %w", opts.FontPath, err)
		}
		w.family = unicodeFamily
		w.translate = func(s string) string { return s }
	} else {
		w.family = coreFamily
		enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
		w.translate = func(s string) string {
			out, err := enc.String(s)
			if err != nil {
				return s
			}
			return out
		}
	}

	w.logger.Info("creating pdf file with news")
	for _, r := range recs {
		w.addRecord(ctx, r)
		if err := w.pdf.Error(); err != nil {
			return "", fmt.Errorf("render pdf: %w", err)
		}
	}

	out := filepath.Join(dir, PDFFile)
	if err := w.pdf.OutputFileAndClose(out); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	w.logger.WithField("path", out).Info("pdf file was saved")
	return out, nil
}

func (w *pdfWriter) addRecord(ctx context.Context, r record.Record) {
	w.pdf.AddPage()

	w.pdf.SetFont(w.family, "", 12)
	w.label("[ News title:] ")
	w.cell(r.Title, 0, 0, 0)
	if len(r.Category) > 0 {
		w.label("[ Category:] ")
		w.cell(r.Category.String(), 0, 0, 0)
	}

	w.pdf.SetFont(w.family, "", 9)
	w.label("[ Pub. date:] ")
	w.cell(r.PubDate, 0, 0, 0)
	if r.Description != "" {
		w.label("[ Description:] ")
		w.cell(r.Description, 0, 0, 0)
	}
	w.label("[ News link:] ")
	w.cell(r.Link, 0, 0, 255)

	if len(r.ImageLinks) > 0 {
		w.label("[ Images:] ")
		for _, link := range r.ImageLinks {
			w.addImage(ctx, link)
		}
	}
}

func (w *pdfWriter) label(text string) {
	w.pdf.SetTextColor(0, 0, 0)
	w.pdf.Write(lineHeight, w.translate(text))
}

func (w *pdfWriter) cell(text string, r, g, b int) {
	w.pdf.SetTextColor(r, g, b)
	w.pdf.MultiCell(0, lineHeight, w.translate(text), "", "L", false)
}

func (w *pdfWriter) addImage(ctx context.Context, link string) {
	log := w.logger.WithField("image", link)

	imageType, ok := imageTypeOf(link)
	if !ok {
		log.Debug("skip unsupported image type")
		return
	}

	data, err := w.download(ctx, link)
	if err != nil {
		log.WithError(err).Warn("skip image")
		return
	}

	opts := fpdf.ImageOptions{ImageType: imageType}
	w.pdf.RegisterImageOptionsReader(link, opts, bytes.NewReader(data))
	if !w.pdf.Ok() {
		log.WithError(w.pdf.Error()).Warn("skip undecodable image")
		w.pdf.ClearError()
		return
	}
	w.pdf.ImageOptions(link, 30, w.pdf.GetY(), 0, 60, true, opts, 0, link)
	w.pdf.Ln(lineHeight)
}

func (w *pdfWriter) download(ctx context.Context, link string) ([]byte, error) {
	resp, err := w.client.Get(ctx, link, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// imageTypeOf maps the file extension of an image URL to an fpdf image type.
// A name without an extension is treated as JPEG.
func imageTypeOf(link string) (string, bool) {
	p := link
	if u, err := url.Parse(link); err == nil {
		p = u.Path
	}
	switch strings.ToLower(strings.TrimPrefix(path.Ext(p), ".")) {
	case "", "jpg", "jpeg":
		return "JPG", true
	case "png":
		return "PNG", true
	case "gif":
		return "GIF", true
	}
	return "", false
}
