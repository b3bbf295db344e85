package sched

import (
	"fmt"

	"tableflip.dev/slate/pkg/queue"
	"tableflip.dev/slate/pkg/timeutil"
)

// Event is the engine's notification contract. Consumers (the TUI, the
// CLI) read a consistent snapshot after each event; events carry context,
// never mutable state.
type Event interface {
	Describe() string
}

// ChangedEvent announces that the projection was replaced with a new
// snapshot (optimistic apply, commit, rollback, or reload).
type ChangedEvent struct {
	Reason string
}

// Describe implements the logging helper.
func (e ChangedEvent) Describe() string {
	return fmt.Sprintf(`reason:%q`, e.Reason)
}

// CommittedEvent announces that the server accepted a mutation.
type CommittedEvent struct {
	Intent Intent
	Item   queue.Item
}

// Describe implements the logging helper.
func (e CommittedEvent) Describe() string {
	return fmt.Sprintf(`intent:{%s} item:%q`, e.Intent.Describe(), e.Item.ID)
}

// FailedEvent announces a rejected or unreachable write. The projection
// has already been rolled back to its pre-mutation snapshot; the failure
// is user-visible but non-blocking.
type FailedEvent struct {
	Intent Intent
	Err    error
}

// Describe implements the logging helper.
func (e FailedEvent) Describe() string {
	return fmt.Sprintf(`intent:{%s} err:%q`, e.Intent.Describe(), e.Err)
}

// LoadedEvent announces a completed window fetch.
type LoadedEvent struct {
	Window timeutil.Window
	Count  int
}

// Describe implements the logging helper.
func (e LoadedEvent) Describe() string {
	return fmt.Sprintf(`window:%q items:%d`, e.Window.Key(), e.Count)
}

// RefreshNeededEvent asks the owner to revalidate the active window
// (after a commit, or once deferred navigation can proceed).
type RefreshNeededEvent struct{}

// Describe implements the logging helper.
func (e RefreshNeededEvent) Describe() string {
	return "refresh requested"
}
