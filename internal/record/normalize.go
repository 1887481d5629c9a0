package record

import (
	"strings"
	"time"

	"rssreader/internal/fetch"
)

const dateLayout = "2006-01-02"

var months = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04", "may": "05", "jun": "06",
	"jul": "07", "aug": "08", "sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

// FilterDate derives the YYYY-MM-DD date used for filtering from a raw
// publication date.
//
// Six whitespace separated tokens are read as an RFC 822 date
// ("Tue, 26 Oct 2021 12:02:57 +0300"), two tokens as "YYYY-MM-DD HH:MM:SS".
// Anything else, including an unknown month name, yields the date of now.
func FilterDate(pubdate string, now time.Time) string {
	tokens := strings.Fields(pubdate)
	switch len(tokens) {
	case 6:
		if month, ok := months[strings.ToLower(tokens[2])]; ok {
			return tokens[3] + "-" + month + "-" + tokens[1]
		}
	case 2:
		return tokens[0]
	}
	return now.Format(dateLayout)
}

// Fields are the raw values a Record is built from.
type Fields struct {
	GUID            string
	Link            string
	Source          string
	Title           string
	Language        string
	PubDate         string
	Description     string
	HTMLDescription string
	Category        []string
	Links           []string
	ImageLinks      []string
}

// Normalizer builds Records. The zero value uses the wall clock.
type Normalizer struct {
	Now func() time.Time
}

func (n Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

// New applies the normalization rules to f.
func (n Normalizer) New(f Fields) Record {
	guid := f.GUID
	if guid == "" {
		guid = f.Link
	}
	r := Record{
		GUID:            guid,
		Link:            f.Link,
		Source:          strings.ToLower(f.Source),
		Title:           f.Title,
		Language:        f.Language,
		Category:        NewSet(f.Category...),
		Description:     stripLineBreaks(f.Description),
		HTMLDescription: f.HTMLDescription,
		Links:           NewSet(f.Links...),
		ImageLinks:      NewSet(f.ImageLinks...),
	}
	r.SetPubDate(f.PubDate, n.now())
	return r
}

// FromEntry builds the Record of a fetched feed entry.
func (n Normalizer) FromEntry(e fetch.Entry, h *fetch.Header, sourceURL string) Record {
	f := Fields{
		GUID:            e.GUID,
		Link:            e.Link,
		Source:          sourceURL,
		Title:           e.Title,
		PubDate:         e.PubDate,
		Description:     e.Description,
		HTMLDescription: e.HTMLDescription,
		Category:        e.Categories,
		Links:           e.Links,
		ImageLinks:      e.ImageLinks,
	}
	if h != nil {
		f.Language = h.Language
	}
	return n.New(f)
}

// FromRow rebuilds a Record from a cache row. Only non-empty columns are
// expected in row; set columns hold ";"-joined values.
//
// An absent description falls back to the title and an absent HTML
// description to the description. A row without a publication date keeps its
// stored filter date.
func (n Normalizer) FromRow(row map[string]string) Record {
	description, ok := row["description"]
	if !ok {
		description = row["title"]
	}
	htmlDescription, ok := row["html_description"]
	if !ok {
		htmlDescription = description
	}
	r := n.New(Fields{
		GUID:            row["guid"],
		Link:            row["link"],
		Source:          row["source"],
		Title:           row["title"],
		Language:        row["language"],
		PubDate:         row["pubdate"],
		Description:     description,
		HTMLDescription: htmlDescription,
		Category:        []string{row["category"]},
		Links:           []string{row["links"]},
		ImageLinks:      []string{row["image_links"]},
	})
	if stored := row["filter_date"]; r.PubDate == "" && stored != "" {
		r.FilterDate = stored
	}
	return r
}

func stripLineBreaks(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}
