package fetch

import (
	"bytes"
	"strings"

	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/net/html/charset"
)

// itemTitles walks the raw document and reports, for every <item> in
// document order, whether it has a <title> child element, empty or not.
func itemTitles(data []byte) ([]bool, error) {
	p := xpp.NewXMLPullParser(bytes.NewReader(data), false, charset.NewReaderLabel)

	var out []bool
	depth, itemDepth := 0, -1
	for {
		ev, err := p.Next()
		if err != nil {
			return nil, err
		}
		switch ev {
		case xpp.EndDocument:
			return out, nil
		case xpp.StartTag:
			depth++
			name := strings.ToLower(p.Name)
			switch {
			case itemDepth < 0 && name == "item":
				itemDepth = depth
				out = append(out, false)
			case depth == itemDepth+1 && name == "title" && p.Space == "":
				out[len(out)-1] = true
			}
		case xpp.EndTag:
			if depth == itemDepth {
				itemDepth = -1
			}
			depth--
		}
	}
}
