package models

import (
	"fmt"
	"strconv"
)

// Hymn is a catalog entry fetched from the hymn repository.
//
// ID is the repository page id. Properties holds the plain-text value of every property on the page,
// keyed by property name, for display of fields the catalog schema adds beyond the typed ones.
type Hymn struct {
	ID            string            `json:"id"`
	Number        *int              `json:"number"`
	Title         string            `json:"title"`
	ScriptureTags []string          `json:"scripture_tags"`
	Link          string            `json:"link"`
	Properties    map[string]string `json:"properties"`
}

// HasNumber reports whether the hymn has a hymnal number.
func (h Hymn) HasNumber() bool {
	return h.Number != nil
}

// NumberOr returns the hymn number, or fallback when it has none.
func (h Hymn) NumberOr(fallback int) int {
	if h.Number == nil {
		return fallback
	}
	return *h.Number
}

// Label renders "Title (#N)" or just the title for unnumbered hymns.
func (h Hymn) Label() string {
	if h.Number == nil {
		return h.Title
	}
	return fmt.Sprintf("%s (#%d)", h.Title, *h.Number)
}

// NumberString returns the number as text, or "" when absent.
func (h Hymn) NumberString() string {
	if h.Number == nil {
		return ""
	}
	return strconv.Itoa(*h.Number)
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}
