// Package fetch downloads an RSS 2.0 document and splits it into a feed
// header and raw entries. It never touches the cache.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"
	"github.com/samber/lo"

	"rssreader/internal/httpclient"
)

const supportedVersion = "2.0"

var (
	// ErrNetwork is returned when the feed host cannot be reached.
	ErrNetwork = errors.New("network error")
	// ErrInvalidResponse is returned when the feed host answers with a status other than 200.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrInvalidFeed is returned when the document is not a well-formed RSS 2.0 feed.
	ErrInvalidFeed = errors.New("invalid feed")
)

// StatusError carries the unexpected HTTP status of a feed response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wrong answer %d from %s", e.Code, e.URL)
}

func (e *StatusError) Unwrap() error {
	return ErrInvalidResponse
}

// Header describes the feed channel.
type Header struct {
	Title       string
	Version     string
	Language    string
	Description string
}

// Entry is a feed item as found in the document, with the HTML description
// already broken down into text, links and images.
type Entry struct {
	Link            string
	GUID            string
	Title           string
	PubDate         string
	Categories      []string
	HTMLDescription string
	Description     string
	Links           []string
	ImageLinks      []string
}

// Fetcher retrieves feeds over HTTP.
type Fetcher struct {
	client *httpclient.Client
}

// New returns a Fetcher that issues requests through client.
func New(client *httpclient.Client) *Fetcher {
	if client == nil {
		client = httpclient.New(httpclient.DefaultTimeout)
	}
	return &Fetcher{client: client}
}

// Fetch downloads sourceURL and parses it. The whole document is validated
// before anything is returned, so a bad item fails the entire feed.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL string) (*Header, []Entry, error) {
	resp, err := f.client.Get(ctx, sourceURL, map[string]string{
		"Accept": "application/rss+xml, application/xml;q=0.9, */*;q=0.8",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrNetwork, sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &StatusError{URL: sourceURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading %s: %v", ErrNetwork, sourceURL, err)
	}

	return Parse(body)
}

// Parse validates an RSS 2.0 document and extracts its header and entries.
func Parse(data []byte) (*Header, []Entry, error) {
	if gofeed.DetectFeedType(bytes.NewReader(data)) != gofeed.FeedTypeRSS {
		return nil, nil, fmt.Errorf("%w: no <rss> root element", ErrInvalidFeed)
	}

	parser := &rss.Parser{}
	feed, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFeed, err)
	}
	if feed.Version != supportedVersion {
		return nil, nil, fmt.Errorf("%w: unsupported RSS version %q", ErrInvalidFeed, feed.Version)
	}

	header := &Header{
		Title:       feed.Title,
		Version:     feed.Version,
		Language:    feed.Language,
		Description: feed.Description,
	}

	// gofeed reports an absent <title> and an empty one the same way
	var titled []bool
	if lo.ContainsBy(feed.Items, func(it *rss.Item) bool { return it != nil && it.Title == "" }) {
		if titled, err = itemTitles(data); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFeed, err)
		}
	}

	entries := make([]Entry, 0, len(feed.Items))
	for i, item := range feed.Items {
		hasTitle := item != nil && item.Title != "" || i < len(titled) && titled[i]
		entry, err := parseItem(item, hasTitle)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: item %d: %v", ErrInvalidFeed, i, err)
		}
		entries = append(entries, entry)
	}
	return header, entries, nil
}

func parseItem(item *rss.Item, hasTitle bool) (Entry, error) {
	if item == nil {
		return Entry{}, errors.New("empty item")
	}
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return Entry{}, errors.New("missing <link>")
	}
	if !hasTitle {
		return Entry{}, errors.New("missing <title>")
	}

	entry := Entry{
		Link:            link,
		GUID:            link,
		Title:           item.Title,
		PubDate:         item.PubDate,
		HTMLDescription: item.Description,
	}
	if item.GUID != nil && strings.TrimSpace(item.GUID.Value) != "" {
		entry.GUID = strings.TrimSpace(item.GUID.Value)
	}
	for _, c := range item.Categories {
		if c != nil && c.Value != "" {
			entry.Categories = append(entry.Categories, c.Value)
		}
	}

	if entry.HTMLDescription != "" {
		if err := extractHTML(&entry); err != nil {
			return Entry{}, err
		}
	}
	return entry, nil
}

// extractHTML fills the visible text, outbound links and image sources of
// the entry's HTML description.
func extractHTML(entry *Entry) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(entry.HTMLDescription))
	if err != nil {
		return fmt.Errorf("parse description: %w", err)
	}

	entry.Description = doc.Text()
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href := s.AttrOr("href", ""); href != "" && href != entry.Link {
			entry.Links = append(entry.Links, href)
		}
	})
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		if src := s.AttrOr("src", ""); src != "" {
			entry.ImageLinks = append(entry.ImageLinks, src)
		}
	})
	entry.Links = lo.Uniq(entry.Links)
	entry.ImageLinks = lo.Uniq(entry.ImageLinks)
	return nil
}
