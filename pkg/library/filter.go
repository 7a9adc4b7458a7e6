package library

import (
	"slices"
	"strings"
)

// Availability filters books by whether they can be borrowed.
type Availability string

const (
	AvailabilityAll         Availability = "all"
	AvailabilityAvailable   Availability = "available"
	AvailabilityUnavailable Availability = "unavailable"
)

// BookFilter narrows the catalogue.
type BookFilter struct {
	Search       string // matched case-insensitively against title and author
	Category     string // exact match; empty matches all
	Availability Availability
}

// Match reports whether b passes the filter.
func (f BookFilter) Match(b Book) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(b.Title), q) && !strings.Contains(strings.ToLower(b.Author), q) {
			return false
		}
	}
	if f.Category != "" && b.Category != f.Category {
		return false
	}
	switch f.Availability {
	case AvailabilityAvailable:
		return b.Availability
	case AvailabilityUnavailable:
		return !b.Availability
	default:
		return true
	}
}

// Filter returns the books that pass f, keeping their order.
func Filter(books []Book, f BookFilter) []Book {
	out := make([]Book, 0, len(books))
	for _, b := range books {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func Categories(books []Book) []string {
	var out []string
	for _, b := range books {
		if b.Category != "" && !slices.Contains(out, b.Category) {
			out = append(out, b.Category)
		}
	}
	return out
}
