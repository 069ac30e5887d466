package activity

import (
	"sync"
	"time"
)

// DefaultCapacity is how many entries are kept per owner.
const DefaultCapacity = 50

// Entry is one item of an owner's activity feed.
type Entry struct {
	TodoID  string    `json:"todo_id"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Feed keeps the most recent entries per owner. Oldest entries are dropped
// once an owner reaches capacity.
type Feed struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string][]Entry
}

// NewFeed creates a feed. A non-positive capacity uses DefaultCapacity.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		capacity: capacity,
		entries:  make(map[string][]Entry),
	}
}

// Add appends an entry for owner.
func (f *Feed) Add(owner string, e Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	list := append(f.entries[owner], e)
	if over := len(list) - f.capacity; over > 0 {
		list = append([]Entry(nil), list[over:]...)
	}
	f.entries[owner] = list
}

// Recent returns up to limit entries for owner, newest first. A
// non-positive limit returns everything kept.
func (f *Feed) Recent(owner string, limit int) []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	list := f.entries[owner]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]Entry, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out
}

// Owners returns how many owners have entries.
func (f *Feed) Owners() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}
