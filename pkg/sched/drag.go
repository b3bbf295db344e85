package sched

import (
	"errors"
	"fmt"
	"time"

	"tableflip.dev/slate/pkg/queue"
	"tableflip.dev/slate/pkg/timeutil"
)

var (
	// ErrNoDrag means a drop was attempted with nothing picked up.
	ErrNoDrag = errors.New("sched: no item is being dragged")
	// ErrDragBusy enforces the single-pointer assumption: one item may be
	// carried at a time.
	ErrDragBusy = errors.New("sched: another item is already being dragged")
)

// Drag tracks the item the operator is carrying across the calendar.
// State machine: idle → dragging → (drop | cancel) → idle. The controller
// never touches the projection; a successful drop only produces a
// reschedule intent for the engine.
type Drag struct {
	item     queue.Item
	dragging bool
}

// Begin picks up an item. Posted items are refused at entry; they are
// immutable for scheduling and must never enter the dragging state.
func (d *Drag) Begin(item queue.Item) error {
	if d.dragging {
		return ErrDragBusy
	}
	if item.Posted() {
		return fmt.Errorf("%w: %s", ErrPostedImmutable, item.ID)
	}
	if item.ID == "" {
		return ErrMissingTarget
	}
	d.item = item.Clone()
	d.dragging = true
	return nil
}

// Active reports whether an item is currently being carried.
func (d *Drag) Active() bool {
	return d.dragging
}

// Item returns the carried item, if any.
func (d *Drag) Item() (queue.Item, bool) {
	if !d.dragging {
		return queue.Item{}, false
	}
	return d.item.Clone(), true
}

// Cancel releases the carried item without producing a mutation (the
// drop landed outside any valid day target).
func (d *Drag) Cancel() {
	d.item = queue.Item{}
	d.dragging = false
}

// Drop releases the carried item onto a day. The new timestamp combines
// the day with the item's existing time-of-day, or the default morning
// slot when it had none. The controller returns to idle either way.
func (d *Drag) Drop(dayKey string, loc *time.Location) (Intent, error) {
	if !d.dragging {
		return Intent{}, ErrNoDrag
	}
	day, err := timeutil.ParseDateKey(dayKey, loc)
	if err != nil {
		d.Cancel()
		return Intent{}, err
	}
	at := timeutil.CombineDayTime(day, d.item.ScheduledFor)
	intent := Reschedule(d.item, at)
	d.Cancel()
	return intent, nil
}
