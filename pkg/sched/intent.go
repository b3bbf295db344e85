// Package sched owns scheduling state: the optimistic mutation engine
// that keeps the local projection honest against the remote queue, and
// the pick-up/drop controller that turns calendar gestures into
// mutation intents.
package sched

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tableflip.dev/slate/pkg/queue"
)

// Op enumerates the mutation kinds the engine understands.
type Op string

const (
	OpReschedule  Op = "reschedule"
	OpEditContent Op = "edit-content"
	OpDelete      Op = "delete"
	OpMarkPosted  Op = "mark-posted"
	OpCreate      Op = "create"
)

var (
	// ErrEmptyContent rejects a create with nothing to post.
	ErrEmptyContent = errors.New("sched: content is required")
	// ErrMissingTarget rejects an intent that names no item.
	ErrMissingTarget = errors.New("sched: intent has no target item")
)

// Intent describes one desired change before it is applied. Intents are
// produced by the grid, the modals, and the CLI; the engine is the only
// component that turns them into state.
type Intent struct {
	Op     Op
	ItemID string

	// Reschedule fields. A nil timestamp with Unschedule set moves the
	// item to the unscheduled bucket (explicit null on the wire).
	ScheduledFor *time.Time
	Unschedule   bool

	// EditContent field.
	Content string

	// Create field.
	Draft queue.Draft
}

// Reschedule moves an item to a new absolute timestamp.
func Reschedule(item queue.Item, at time.Time) Intent {
	return Intent{Op: OpReschedule, ItemID: item.ID, ScheduledFor: &at}
}

// Unschedule moves an item back to the unscheduled bucket.
func Unschedule(item queue.Item) Intent {
	return Intent{Op: OpReschedule, ItemID: item.ID, Unschedule: true}
}

// EditContent replaces an item's text body.
func EditContent(item queue.Item, content string) Intent {
	return Intent{Op: OpEditContent, ItemID: item.ID, Content: content}
}

// Delete removes an item from the queue. Terminal.
func Delete(item queue.Item) Intent {
	return Intent{Op: OpDelete, ItemID: item.ID}
}

// MarkPosted flags an item as published. Terminal: the item becomes
// immutable for scheduling afterwards.
func MarkPosted(item queue.Item) Intent {
	return Intent{Op: OpMarkPosted, ItemID: item.ID}
}

// Create adds a new item to the queue.
func Create(draft queue.Draft) Intent {
	return Intent{Op: OpCreate, Draft: draft}
}

// Validate applies the pre-flight checks that must fail before any
// optimistic state is touched.
func (i Intent) Validate() error {
	switch i.Op {
	case OpCreate:
		if strings.TrimSpace(i.Draft.Content) == "" {
			return ErrEmptyContent
		}
		if i.Draft.Platform != "" && !i.Draft.Platform.Valid() {
			return fmt.Errorf("%w: %q", queue.ErrInvalidItem, i.Draft.Platform)
		}
		return nil
	case OpReschedule, OpEditContent, OpDelete, OpMarkPosted:
		if i.ItemID == "" {
			return ErrMissingTarget
		}
		if i.Op == OpReschedule && i.ScheduledFor == nil && !i.Unschedule {
			return fmt.Errorf("sched: reschedule of %s has no timestamp", i.ItemID)
		}
		return nil
	default:
		return fmt.Errorf("sched: unknown op %q", i.Op)
	}
}

// Describe renders the intent in a human-friendly format for logs and
// status lines.
func (i Intent) Describe() string {
	switch i.Op {
	case OpReschedule:
		if i.Unschedule {
			return fmt.Sprintf(`op:%q item:%q target:"unscheduled"`, i.Op, i.ItemID)
		}
		return fmt.Sprintf(`op:%q item:%q at:%q`, i.Op, i.ItemID, i.ScheduledFor.Format(time.RFC3339))
	case OpEditContent:
		return fmt.Sprintf(`op:%q item:%q chars:%d`, i.Op, i.ItemID, len(i.Content))
	case OpCreate:
		return fmt.Sprintf(`op:%q platform:%q`, i.Op, i.Draft.Platform)
	default:
		return fmt.Sprintf(`op:%q item:%q`, i.Op, i.ItemID)
	}
}
