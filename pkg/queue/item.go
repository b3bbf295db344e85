// Package queue models the remote scheduling queue: the content items it
// holds and the HTTP client used to read and mutate them.
package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Platform identifies the destination network for a queue item. It only
// affects presentation; scheduling logic never branches on it.
type Platform string

const (
	Bluesky   Platform = "bluesky"
	Instagram Platform = "instagram"
	Threads   Platform = "threads"
	Twitter   Platform = "twitter"
	Reddit    Platform = "reddit"
	Medium    Platform = "medium"
)

// Platforms returns the supported platforms in display order. The first
// entry is the default for newly created items.
func Platforms() []Platform {
	return []Platform{Bluesky, Instagram, Threads, Twitter, Reddit, Medium}
}

// Valid reports whether p is a member of the supported set.
func (p Platform) Valid() bool {
	for _, known := range Platforms() {
		if p == known {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a queue item.
type Status string

const (
	// StatusDraft marks an item that has not been published yet. Draft
	// items may or may not carry a scheduled timestamp.
	StatusDraft Status = "draft"
	// StatusPosted marks an item that already went out. Posted items are
	// immutable for scheduling purposes.
	StatusPosted Status = "posted"
)

// Source records where an item originated.
type Source string

const (
	// SourceQueue marks an item authored through the scheduling queue.
	SourceQueue Source = "queue"
	// SourcePosted marks an item back-filled from an already-published
	// record. These must never be rescheduled.
	SourcePosted Source = "posted"
)

// Item is one schedulable content unit as the remote queue represents it.
// ScheduledFor is optional; nil means the item sits in the unscheduled
// bucket. The timestamp is absolute; calendar-day grouping happens on the
// client in local time.
type Item struct {
	ID           string     `json:"id"`
	Platform     Platform   `json:"platform"`
	Content      string     `json:"content,omitempty"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
	Status       Status     `json:"status"`
	Source       Source     `json:"source,omitempty"`
}

// Posted reports whether the item is immutable for scheduling purposes.
func (i Item) Posted() bool {
	return i.Status == StatusPosted || i.Source == SourcePosted
}

// Scheduled reports whether the item carries a scheduled timestamp.
func (i Item) Scheduled() bool {
	return i.ScheduledFor != nil
}

// Clone returns a deep copy. Item is mostly a value type, but the
// ScheduledFor pointer must not be shared across projection snapshots.
func (i Item) Clone() Item {
	out := i
	if i.ScheduledFor != nil {
		ts := *i.ScheduledFor
		out.ScheduledFor = &ts
	}
	return out
}

// ErrInvalidItem is returned when an ingress payload fails validation.
var ErrInvalidItem = errors.New("queue: invalid item")

// Normalize validates and canonicalizes an item arriving from the wire.
// The remote payload is not trusted at point of use; every field is pinned
// down here instead.
func Normalize(i Item) (Item, error) {
	i.ID = strings.TrimSpace(i.ID)
	if i.ID == "" {
		return Item{}, fmt.Errorf("%w: missing id", ErrInvalidItem)
	}
	i.Platform = Platform(strings.ToLower(strings.TrimSpace(string(i.Platform))))
	if i.Platform == "" {
		i.Platform = Platforms()[0]
	}
	if !i.Platform.Valid() {
		return Item{}, fmt.Errorf("%w: unknown platform %q", ErrInvalidItem, i.Platform)
	}
	switch i.Status {
	case StatusDraft, StatusPosted:
	case "", "scheduled":
		// Older servers report "scheduled" (or nothing) for drafts.
		i.Status = StatusDraft
	default:
		return Item{}, fmt.Errorf("%w: unknown status %q", ErrInvalidItem, i.Status)
	}
	if i.Source == "" {
		if i.Status == StatusPosted {
			i.Source = SourcePosted
		} else {
			i.Source = SourceQueue
		}
	}
	return i.Clone(), nil
}

// NormalizeAll validates a batch, dropping items that fail and reporting
// the first failure so callers can log it.
func NormalizeAll(items []Item) ([]Item, error) {
	out := make([]Item, 0, len(items))
	var firstErr error
	for _, raw := range items {
		item, err := Normalize(raw)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = append(out, item)
	}
	return out, firstErr
}
