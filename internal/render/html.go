package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"rssreader/internal/record"
)

// HTMLFile is the name of the exported HTML page.
const HTMLFile = "RSS_ITEMS.html"

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="UTF-8">
<title>News feed</title>
</head>
<body>
<h1 style="color: #4485b8;">NEWS <span style="background-color: #4485b8; color: #ffffff; padding: 0 5px;">FEED</span></h1>
{{range .Items}}
<table class="ItemTable" style="vertical-align: top;">
  <thead>
    <tr><td colspan="3"><strong>{{.Title}}</strong></td></tr>
    <tr><td colspan="3"><p><a href="{{.Link}}">Link to item</a></p></td></tr>
  </thead>
  <tbody>
    <tr>
      <td style="width: 690px;" colspan="3">
        <h4>{{.Description}}</h4>
        {{range .Images}}Image: <img src="{{.}}" width="255" height="189" alt=""><br>
        {{end}}
      </td>
    </tr>
  </tbody>
</table>
<hr/>
{{end}}
</body>
</html>
`))

type htmlItem struct {
	Title       string
	Link        string
	Description template.HTML
	Images      []string
}

// HTML writes RSS_ITEMS.html into dir and returns its path. Nothing is
// written for an empty record list.
func HTML(dir string, recs []record.Record) (string, error) {
	if len(recs) == 0 {
		return "", nil
	}
	if err := CheckDir(dir); err != nil {
		return "", err
	}

	policy := bluemonday.UGCPolicy()
	data := struct {
		Lang  string
		Items []htmlItem
	}{Lang: recs[0].Language}

	for _, r := range recs {
		item := htmlItem{
			Title:       r.Title,
			Link:        r.Link,
			Description: template.HTML(policy.Sanitize(r.HTMLDescription)),
		}
		// images already embedded in the description are not repeated
		for _, img := range r.ImageLinks {
			if !strings.Contains(r.HTMLDescription, img) {
				item.Images = append(item.Images, img)
			}
		}
		data.Items = append(data.Items, item)
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}

	path := filepath.Join(dir, HTMLFile)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
