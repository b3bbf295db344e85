package sched

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"tableflip.dev/slate/pkg/projection"
	"tableflip.dev/slate/pkg/queue"
	"tableflip.dev/slate/pkg/timeutil"
)

// Remote is the slice of the queue client the engine needs. Accepting the
// interface keeps the engine testable against a fake collaborator.
type Remote interface {
	List(ctx context.Context, start, end time.Time) ([]queue.Item, error)
	Update(ctx context.Context, id string, patch queue.Patch) (queue.Item, error)
	Delete(ctx context.Context, id string) error
	MarkPosted(ctx context.Context, id string) (queue.Item, error)
	Create(ctx context.Context, draft queue.Draft) (queue.Item, error)
}

var _ Remote = (*queue.Client)(nil)

var (
	// ErrNotFound means the intent's target is not in the projection.
	ErrNotFound = errors.New("sched: item not found")
	// ErrPostedImmutable rejects scheduling mutations on published items.
	ErrPostedImmutable = errors.New("sched: item already posted")
	// ErrMutationInFlight rejects a second mutation on an item whose
	// first mutation has not reconciled yet.
	ErrMutationInFlight = errors.New("sched: mutation already in flight for item")
)

// Engine is the single writer of the projection. It applies mutation
// intents optimistically, issues the corresponding remote write, and
// reconciles: commits adopt the server's representation, failures restore
// the exact pre-mutation snapshot. One mutation per item may be in flight
// at a time; a second is rejected until the first settles.
type Engine struct {
	mu sync.Mutex

	remote Remote
	loc    *time.Location

	window     timeutil.Window
	proj       projection.Projection
	generation uint64

	pending    map[string]uint64 // item id -> staged token
	nextToken  uint64
	wantReload bool

	eventCh chan Event
}

// Staged is the handle for a mutation that has been applied optimistically
// but not yet confirmed by the server.
type Staged struct {
	Intent Intent

	token  uint64
	itemID string
	temp   queue.Item // optimistic placeholder for creates
	before projection.Projection
}

// New creates an engine over the remote queue. Day keys are derived in
// loc, which should be the operator's local timezone.
func New(remote Remote, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		remote:  remote,
		loc:     loc,
		proj:    projection.Empty(),
		pending: map[string]uint64{},
		eventCh: make(chan Event, 64),
	}
}

// Events exposes the engine's event stream for subscriptions.
func (e *Engine) Events() <-chan Event {
	return e.eventCh
}

// Location returns the timezone used for day-key derivation.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Snapshot returns a consistent copy of the current projection. The
// returned value is owned by the caller.
func (e *Engine) Snapshot() projection.Projection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.proj.Clone()
}

// Window returns the active calendar window.
func (e *Engine) Window() timeutil.Window {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.window
}

// InFlight reports whether a mutation for the item is awaiting its
// server response.
func (e *Engine) InFlight(itemID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[itemID]
	return ok
}

// Seed installs cached items as the initial projection so the view can
// paint before the first fetch resolves. It is a no-op once any live
// state exists.
func (e *Engine) Seed(items []queue.Item) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.proj.Len() > 0 || len(e.pending) > 0 {
		return
	}
	e.proj = projection.Build(items, e.loc)
	e.emit(ChangedEvent{Reason: "seed"})
}

// LoadWindow fetches the given window and replaces the projection with a
// fresh build. A load superseded by navigation is discarded silently; a
// load that lands while mutations are unreconciled is deferred (the
// engine emits RefreshNeededEvent once they settle).
func (e *Engine) LoadWindow(ctx context.Context, w timeutil.Window) error {
	e.mu.Lock()
	e.window = w
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	// The wire range is inclusive of the window's last day.
	end := w.End.AddDate(0, 0, 1).Add(-time.Second)
	items, err := e.remote.List(ctx, w.Start, end)
	if errors.Is(err, queue.ErrInvalidItem) {
		// Bad rows were dropped; the surviving items are still a
		// complete, usable window.
		err = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		// Stale: the operator navigated on. No error, no event.
		return nil
	}
	if err != nil {
		return fmt.Errorf("load window %s: %w", w.Key(), err)
	}
	if len(e.pending) > 0 {
		// Don't clobber optimistic state; refetch once mutations settle.
		e.wantReload = true
		return nil
	}
	e.proj = projection.Build(items, e.loc)
	e.emit(LoadedEvent{Window: w, Count: e.proj.Len()})
	e.emit(ChangedEvent{Reason: "load"})
	return nil
}

// Stage validates an intent and applies it to the projection
// synchronously, so the view reflects the change with zero perceived
// latency. The returned handle must be passed to Commit to issue the
// remote write and reconcile.
func (e *Engine) Stage(intent Intent) (Staged, error) {
	if err := intent.Validate(); err != nil {
		return Staged{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st := Staged{Intent: intent, itemID: intent.ItemID}

	if intent.Op == OpCreate {
		st.temp = optimisticItem(intent.Draft)
		st.itemID = st.temp.ID
	}

	if _, busy := e.pending[st.itemID]; busy {
		return Staged{}, fmt.Errorf("%w: %s", ErrMutationInFlight, st.itemID)
	}

	st.before = e.proj.Clone()

	switch intent.Op {
	case OpCreate:
		e.proj = e.proj.Insert(st.temp, e.loc)
	default:
		current, ok := e.proj.Find(intent.ItemID)
		if !ok {
			return Staged{}, fmt.Errorf("%w: %s", ErrNotFound, intent.ItemID)
		}
		if current.Posted() {
			return Staged{}, fmt.Errorf("%w: %s", ErrPostedImmutable, intent.ItemID)
		}
		switch intent.Op {
		case OpReschedule:
			if intent.Unschedule {
				current.ScheduledFor = nil
			} else {
				ts := *intent.ScheduledFor
				current.ScheduledFor = &ts
			}
			e.proj = e.proj.Insert(current, e.loc)
		case OpEditContent:
			current.Content = intent.Content
			e.proj = e.proj.Insert(current, e.loc)
		case OpDelete:
			e.proj = e.proj.Remove(intent.ItemID)
		case OpMarkPosted:
			current.Status = queue.StatusPosted
			current.Source = queue.SourcePosted
			e.proj = e.proj.Insert(current, e.loc)
		}
	}

	e.nextToken++
	st.token = e.nextToken
	e.pending[st.itemID] = st.token
	e.emit(ChangedEvent{Reason: string(intent.Op)})
	return st, nil
}

// Commit issues the staged mutation's remote write and reconciles the
// result. It blocks on the network call, so run it off the UI loop (a
// tea.Cmd, a goroutine, or directly from a CLI). On failure the
// projection is restored to the exact pre-mutation snapshot and the
// remote error is returned; nothing is retried automatically.
func (e *Engine) Commit(ctx context.Context, st Staged) error {
	var (
		updated queue.Item
		hasItem bool
		err     error
	)

	switch st.Intent.Op {
	case OpReschedule:
		patch := queue.Patch{Unschedule: st.Intent.Unschedule}
		if !st.Intent.Unschedule {
			patch.ScheduledFor = st.Intent.ScheduledFor
		}
		updated, err = e.remote.Update(ctx, st.Intent.ItemID, patch)
		hasItem = err == nil
	case OpEditContent:
		content := st.Intent.Content
		updated, err = e.remote.Update(ctx, st.Intent.ItemID, queue.Patch{Content: &content})
		hasItem = err == nil
	case OpDelete:
		err = e.remote.Delete(ctx, st.Intent.ItemID)
	case OpMarkPosted:
		updated, err = e.remote.MarkPosted(ctx, st.Intent.ItemID)
		hasItem = err == nil
	case OpCreate:
		updated, err = e.remote.Create(ctx, st.Intent.Draft)
		hasItem = err == nil
	default:
		err = fmt.Errorf("sched: unknown op %q", st.Intent.Op)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if token, ok := e.pending[st.itemID]; !ok || token != st.token {
		// The staging was superseded; nothing left to reconcile.
		return err
	}
	delete(e.pending, st.itemID)

	if err != nil {
		// Hard rollback, not a merge: the pre-mutation snapshot is
		// restored field for field.
		e.proj = st.before
		e.emit(ChangedEvent{Reason: "rollback"})
		e.emit(FailedEvent{Intent: st.Intent, Err: err})
		if len(e.pending) == 0 {
			// A failed reconciliation leaves the projection just as
			// suspect as a successful one; revalidate either way.
			e.wantReload = false
			e.emit(RefreshNeededEvent{})
		}
		return err
	}

	if hasItem && updated.ID != "" {
		// Trust the server's representation over the optimistic guess.
		e.proj = e.proj.Remove(st.itemID).Insert(updated, e.loc)
	}
	e.emit(ChangedEvent{Reason: "commit"})
	e.emit(CommittedEvent{Intent: st.Intent, Item: updated})
	if len(e.pending) == 0 {
		e.wantReload = false
		e.emit(RefreshNeededEvent{})
	}
	return nil
}

// Apply stages and commits an intent in one blocking call. CLI surfaces
// use this; the TUI stages first so the grid repaints before the network
// round-trip.
func (e *Engine) Apply(ctx context.Context, intent Intent) error {
	st, err := e.Stage(intent)
	if err != nil {
		return err
	}
	return e.Commit(ctx, st)
}

func (e *Engine) emit(ev Event) {
	select {
	case e.eventCh <- ev:
	default:
	}
}

// optimisticItem builds the local placeholder shown until the server
// assigns the real id.
func optimisticItem(draft queue.Draft) queue.Item {
	platform := draft.Platform
	if platform == "" {
		platform = queue.Platforms()[0]
	}
	item := queue.Item{
		ID:       "tmp-" + uuid.NewString(),
		Platform: platform,
		Content:  draft.Content,
		Status:   queue.StatusDraft,
		Source:   queue.SourceQueue,
	}
	if draft.ScheduledFor != nil {
		ts := *draft.ScheduledFor
		item.ScheduledFor = &ts
	}
	return item
}
