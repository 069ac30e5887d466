package todo

import (
	"sort"
	"strings"
)

// FilterKind selects todos by completion state.
type FilterKind string

const (
	FilterAll       FilterKind = "all"
	FilterActive    FilterKind = "active"
	FilterCompleted FilterKind = "completed"
)

// ParseFilterKind maps a query value to a kind. Unknown values fall back to all.
func ParseFilterKind(s string) FilterKind {
	switch FilterKind(strings.ToLower(strings.TrimSpace(s))) {
	case FilterActive:
		return FilterActive
	case FilterCompleted:
		return FilterCompleted
	default:
		return FilterAll
	}
}

// Filter is the search box plus status tabs of the list view.
type Filter struct {
	Search string
	Kind   FilterKind
}

// Match reports whether t passes the filter. Search is case-insensitive over
// title and description.
func (f Filter) Match(t Todo) bool {
	switch f.Kind {
	case FilterActive:
		if t.Completed {
			return false
		}
	case FilterCompleted:
		if !t.Completed {
			return false
		}
	}

	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Title), term) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), term)
}

// Apply returns the todos matching f in their original order. The input is
// not modified.
func Apply(todos []Todo, f Filter) []Todo {
	out := make([]Todo, 0, len(todos))
	for _, t := range todos {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// SortNewestFirst orders todos by creation time, newest first. Ties keep
// their relative order.
func SortNewestFirst(todos []Todo) {
	sort.SliceStable(todos, func(i, j int) bool {
		return todos[i].CreatedAt.After(todos[j].CreatedAt)
	})
}

// Stats are the counters shown under the list.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Active    int `json:"active"`
}

// Count tallies todos by completion state.
func Count(todos []Todo) Stats {
	var s Stats
	for _, t := range todos {
		s.Total++
		if t.Completed {
			s.Completed++
		}
	}
	s.Active = s.Total - s.Completed
	return s
}
