package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rssreader/internal/record"
)

func black() lipgloss.Color {
	return lipgloss.Color("0")
}

func white() lipgloss.Color {
	return lipgloss.Color("15")
}

func yellow() lipgloss.Color {
	return lipgloss.Color("11")
}

// Colorized prints records with terminal styling. Styling is dropped when w
// is not a terminal.
func Colorized(w io.Writer, recs []record.Record) error {
	r := lipgloss.NewRenderer(w)
	banner := r.NewStyle().Background(white()).Foreground(black())
	bright := r.NewStyle().Bold(true).Foreground(white())
	body := r.NewStyle().Bold(true).Foreground(yellow())

	for _, rec := range recs {
		var sb strings.Builder
		sb.WriteString("\n")
		sb.WriteString(banner.Render(fmt.Sprintf("Item (%s): %s", rec.Language, rec.Source)) + "\n")
		sb.WriteString(banner.Render("Title: "+rec.Title) + "\n")
		if rec.PubDate != "" {
			sb.WriteString(bright.Render("Publication date: "+rec.PubDate) + "\n")
		}
		if len(rec.Category) > 0 {
			sb.WriteString(bright.Render("Category: "+strings.Join(rec.Category, ", ")) + "\n")
		}
		if rec.Link != "" {
			sb.WriteString(bright.Render("Link: "+rec.Link) + "\n")
		}
		sb.WriteString("\n" + body.Render(rec.Description) + "\n\n")

		if len(rec.ImageLinks) > 0 {
			sb.WriteString(bright.Render("Description images:") + "\n")
			for i, img := range rec.ImageLinks {
				fmt.Fprintf(&sb, "[%d]: %s\n", i+1, img)
			}
		}
		if len(rec.Links) > 0 {
			sb.WriteString(bright.Render("Description links:") + "\n")
			for i, link := range rec.Links {
				fmt.Fprintf(&sb, "[%d]: %s\n", i+1, link)
			}
		}
		sb.WriteString("\n\n")

		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}
