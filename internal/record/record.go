// Package record holds the canonical normalized feed entry and the rules
// that build it from a fetched entry or from a stored cache row.
package record

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Columns lists the serialized fields in storage order.
var Columns = []string{
	"link",
	"guid",
	"pubdate",
	"filter_date",
	"language",
	"title",
	"description",
	"html_description",
	"source",
	"category",
	"image_links",
	"links",
}

// IsColumn reports whether name is one of Columns.
func IsColumn(name string) bool {
	return slices.Contains(Columns, name)
}

const setSeparator = ";"

// Set is an unordered collection of strings kept sorted, unique and free of
// empty elements.
type Set []string

// NewSet splits every value on ";" and collects the non-empty parts.
func NewSet(values ...string) Set {
	var parts []string
	for _, v := range values {
		parts = append(parts, strings.Split(v, setSeparator)...)
	}
	parts = lo.Uniq(lo.Compact(parts))
	if len(parts) == 0 {
		return nil
	}
	slices.Sort(parts)
	return Set(parts)
}

// Contains reports whether v is an element of s.
func (s Set) Contains(v string) bool {
	_, found := slices.BinarySearch(s, v)
	return found
}

// String joins the elements with ";". The empty set yields "".
func (s Set) String() string {
	return strings.Join(s, setSeparator)
}

// Record is a normalized feed entry. Two records are the same entry when
// their GUIDs match.
type Record struct {
	GUID            string
	Link            string
	Source          string
	Title           string
	Language        string
	Category        Set
	PubDate         string
	FilterDate      string
	Description     string
	HTMLDescription string
	Links           Set
	ImageLinks      Set
}

// Key identifies the record in maps and the cache.
func (r Record) Key() string {
	return r.GUID
}

// Equal compares records by GUID only.
func (r Record) Equal(other Record) bool {
	return r.GUID == other.GUID
}

// SetPubDate replaces the publication date and recomputes FilterDate.
func (r *Record) SetPubDate(pubdate string, now time.Time) {
	r.PubDate = pubdate
	r.FilterDate = FilterDate(pubdate, now)
}

// Serialize flattens the record into column/value pairs. Sets are joined
// with ";".
func (r Record) Serialize() map[string]string {
	return map[string]string{
		"link":             r.Link,
		"guid":             r.GUID,
		"pubdate":          r.PubDate,
		"filter_date":      r.FilterDate,
		"language":         r.Language,
		"title":            r.Title,
		"description":      r.Description,
		"html_description": r.HTMLDescription,
		"source":           r.Source,
		"category":         r.Category.String(),
		"image_links":      r.ImageLinks.String(),
		"links":            r.Links.String(),
	}
}

// Values returns the serialized fields ordered like Columns.
func (r Record) Values() []string {
	m := r.Serialize()
	return lo.Map(Columns, func(c string, _ int) string { return m[c] })
}

func (r Record) String() string {
	return fmt.Sprintf("Item %s: %s", r.Title, r.FilterDate)
}
