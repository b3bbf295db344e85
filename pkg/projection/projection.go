// Package projection holds the client-side read model of the remote
// queue: items grouped under local-calendar day keys plus an unscheduled
// bucket. A Projection is an immutable value: every transform returns a
// fresh copy and never mutates shared state, so any reader always sees a
// complete, consistent snapshot.
package projection

import (
	"sort"

	"time"

	"tableflip.dev/slate/pkg/queue"
	"tableflip.dev/slate/pkg/timeutil"
)

// Projection partitions queue items by local calendar day. An item lives
// in exactly one place: under one day key when it has a scheduled
// timestamp, otherwise in Unscheduled.
type Projection struct {
	ByDate      map[string][]queue.Item
	Unscheduled []queue.Item
}

// Empty returns a projection with no items.
func Empty() Projection {
	return Projection{ByDate: map[string][]queue.Item{}}
}

// Build groups items on the local-date component of their scheduled
// timestamp. Duplicate ids are dropped (first occurrence wins) so the
// partition invariant holds even against a misbehaving server.
func Build(items []queue.Item, loc *time.Location) Projection {
	p := Empty()
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		p = p.place(item.Clone(), loc)
	}
	return p
}

// Clone returns a deep copy the caller may hand out as a snapshot.
func (p Projection) Clone() Projection {
	out := Projection{
		ByDate:      make(map[string][]queue.Item, len(p.ByDate)),
		Unscheduled: cloneItems(p.Unscheduled),
	}
	for key, items := range p.ByDate {
		out.ByDate[key] = cloneItems(items)
	}
	return out
}

// Find locates an item anywhere in the projection.
func (p Projection) Find(id string) (queue.Item, bool) {
	for _, items := range p.ByDate {
		for _, item := range items {
			if item.ID == id {
				return item.Clone(), true
			}
		}
	}
	for _, item := range p.Unscheduled {
		if item.ID == id {
			return item.Clone(), true
		}
	}
	return queue.Item{}, false
}

// Remove returns a projection without the identified item. Removing an
// absent id is a no-op.
func (p Projection) Remove(id string) Projection {
	out := p.Clone()
	for key, items := range out.ByDate {
		if filtered, changed := dropID(items, id); changed {
			if len(filtered) == 0 {
				delete(out.ByDate, key)
			} else {
				out.ByDate[key] = filtered
			}
			return out
		}
	}
	if filtered, changed := dropID(out.Unscheduled, id); changed {
		out.Unscheduled = filtered
	}
	return out
}

// Insert returns a projection with the item placed under its day key (or
// the unscheduled bucket), preserving the per-day sort order. Any
// previous occurrence of the same id is removed first, keeping the
// one-place invariant.
func (p Projection) Insert(item queue.Item, loc *time.Location) Projection {
	return p.Remove(item.ID).place(item.Clone(), loc)
}

// place assumes p is already an owned copy and id-free.
func (p Projection) place(item queue.Item, loc *time.Location) Projection {
	if item.ScheduledFor == nil {
		p.Unscheduled = insertSorted(p.Unscheduled, item)
		return p
	}
	key := timeutil.DateKey(*item.ScheduledFor, loc)
	if p.ByDate == nil {
		p.ByDate = map[string][]queue.Item{}
	}
	p.ByDate[key] = insertSorted(p.ByDate[key], item)
	return p
}

// Day returns the ordered items for a day key.
func (p Projection) Day(key string) []queue.Item {
	return p.ByDate[key]
}

// Len counts every item in the projection.
func (p Projection) Len() int {
	n := len(p.Unscheduled)
	for _, items := range p.ByDate {
		n += len(items)
	}
	return n
}

// Items flattens the projection back into a single slice (scheduled days
// in key order, then the unscheduled bucket).
func (p Projection) Items() []queue.Item {
	keys := make([]string, 0, len(p.ByDate))
	for key := range p.ByDate {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]queue.Item, 0, p.Len())
	for _, key := range keys {
		out = append(out, cloneItems(p.ByDate[key])...)
	}
	out = append(out, cloneItems(p.Unscheduled)...)
	return out
}

// insertSorted keeps each bucket ascending by scheduled time; items
// without a time sort after timed ones, and ties fall back to id so the
// order is deterministic.
func insertSorted(items []queue.Item, item queue.Item) []queue.Item {
	idx := sort.Search(len(items), func(i int) bool {
		return itemLess(item, items[i])
	})
	items = append(items, queue.Item{})
	copy(items[idx+1:], items[idx:])
	items[idx] = item
	return items
}

func itemLess(a, b queue.Item) bool {
	switch {
	case a.ScheduledFor == nil && b.ScheduledFor == nil:
		return a.ID < b.ID
	case a.ScheduledFor == nil:
		return false
	case b.ScheduledFor == nil:
		return true
	case a.ScheduledFor.Equal(*b.ScheduledFor):
		return a.ID < b.ID
	default:
		return a.ScheduledFor.Before(*b.ScheduledFor)
	}
}

func dropID(items []queue.Item, id string) ([]queue.Item, bool) {
	for i, item := range items {
		if item.ID == id {
			return append(items[:i], items[i+1:]...), true
		}
	}
	return items, false
}

func cloneItems(items []queue.Item) []queue.Item {
	if len(items) == 0 {
		return nil
	}
	out := make([]queue.Item, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}
