// Package render turns records into console text, JSON, colorized console
// text, an HTML page or a PDF document.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"

	"rssreader/internal/record"
)

const separator = "****************************"

// EmptyMessage is printed when a request selects nothing.
const EmptyMessage = "The news list is empty"

// Console prints one block per record.
func Console(w io.Writer, recs []record.Record) error {
	for _, r := range recs {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Source: %s\n", r.Source)
		fmt.Fprintf(&sb, "Language: %s\n", r.Language)
		if len(r.Category) > 0 {
			fmt.Fprintf(&sb, "Category: %s\n", strings.Join(r.Category, "; "))
		}
		fmt.Fprintf(&sb, "Title: %s\n", r.Title)
		fmt.Fprintf(&sb, "Description: %s\n", r.Description)
		fmt.Fprintf(&sb, "Date: %s\n", r.PubDate)
		fmt.Fprintf(&sb, "Item Link: %s\n", r.Link)
		if len(r.Links) > 0 {
			fmt.Fprintf(&sb, "Links: %s\n", strings.Join(r.Links, "; "))
		}
		if len(r.ImageLinks) > 0 {
			fmt.Fprintf(&sb, "Images: %s\n", strings.Join(r.ImageLinks, "; "))
		}
		sb.WriteString(separator + "\n")

		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

// JSON writes the serialized records as one indented JSON array.
func JSON(w io.Writer, recs []record.Record) error {
	out := lo.Map(recs, func(r record.Record, _ int) map[string]string { return r.Serialize() })
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(out)
}
