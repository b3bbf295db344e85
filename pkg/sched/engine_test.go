package sched_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tableflip.dev/slate/pkg/queue"
	"tableflip.dev/slate/pkg/sched"
	"tableflip.dev/slate/pkg/timeutil"
)

var loc = time.FixedZone("EST", -5*60*60)

// fakeRemote lets each test script the server's behavior per operation.
type fakeRemote struct {
	listFn       func(ctx context.Context, start, end time.Time) ([]queue.Item, error)
	updateFn     func(ctx context.Context, id string, patch queue.Patch) (queue.Item, error)
	deleteFn     func(ctx context.Context, id string) error
	markPostedFn func(ctx context.Context, id string) (queue.Item, error)
	createFn     func(ctx context.Context, draft queue.Draft) (queue.Item, error)
}

func (f *fakeRemote) List(ctx context.Context, start, end time.Time) ([]queue.Item, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, start, end)
}

func (f *fakeRemote) Update(ctx context.Context, id string, patch queue.Patch) (queue.Item, error) {
	if f.updateFn == nil {
		return queue.Item{}, errors.New("unexpected Update")
	}
	return f.updateFn(ctx, id, patch)
}

func (f *fakeRemote) Delete(ctx context.Context, id string) error {
	if f.deleteFn == nil {
		return errors.New("unexpected Delete")
	}
	return f.deleteFn(ctx, id)
}

func (f *fakeRemote) MarkPosted(ctx context.Context, id string) (queue.Item, error) {
	if f.markPostedFn == nil {
		return queue.Item{}, errors.New("unexpected MarkPosted")
	}
	return f.markPostedFn(ctx, id)
}

func (f *fakeRemote) Create(ctx context.Context, draft queue.Draft) (queue.Item, error) {
	if f.createFn == nil {
		return queue.Item{}, errors.New("unexpected Create")
	}
	return f.createFn(ctx, draft)
}

func at(day, hour int) *time.Time {
	t := time.Date(2024, time.June, day, hour, 0, 0, 0, loc)
	return &t
}

func seedItem(id string, scheduled *time.Time) queue.Item {
	return queue.Item{
		ID:           id,
		Platform:     queue.Bluesky,
		Content:      "post " + id,
		ScheduledFor: scheduled,
		Status:       queue.StatusDraft,
		Source:       queue.SourceQueue,
	}
}

func newEngine(t *testing.T, remote sched.Remote, items ...queue.Item) *sched.Engine {
	t.Helper()
	e := sched.New(remote, loc)
	e.Seed(items)
	return e
}

func TestStageAppliesOptimistically(t *testing.T) {
	e := newEngine(t, &fakeRemote{}, seedItem("a", at(3, 14)))

	target := time.Date(2024, time.June, 5, 14, 0, 0, 0, loc)
	item, _ := e.Snapshot().Find("a")
	_, err := e.Stage(sched.Reschedule(item, target))
	require.NoError(t, err)

	snap := e.Snapshot()
	require.Empty(t, snap.Day("2024-06-03"))
	require.Len(t, snap.Day("2024-06-05"), 1)
	require.True(t, snap.Day("2024-06-05")[0].ScheduledFor.Equal(target))
	require.True(t, e.InFlight("a"))
}

func TestCommitFailureRestoresExactSnapshot(t *testing.T) {
	remote := &fakeRemote{
		updateFn: func(ctx context.Context, id string, patch queue.Patch) (queue.Item, error) {
			return queue.Item{}, errors.New("503 service unavailable")
		},
	}
	e := newEngine(t, remote, seedItem("a", at(3, 14)), seedItem("b", nil))

	before := e.Snapshot()
	item, _ := before.Find("a")
	st, err := e.Stage(sched.Reschedule(item, time.Date(2024, time.June, 5, 14, 0, 0, 0, loc)))
	require.NoError(t, err)

	err = e.Commit(context.Background(), st)
	require.Error(t, err)

	// Field-for-field equality with the pre-mutation projection, not an
	// approximation.
	require.Equal(t, before, e.Snapshot())
	require.False(t, e.InFlight("a"))
}

func TestCommitAdoptsServerRepresentation(t *testing.T) {
	serverTime := time.Date(2024, time.June, 5, 14, 0, 0, 0, loc)
	remote := &fakeRemote{
		updateFn: func(ctx context.Context, id string, patch queue.Patch) (queue.Item, error) {
			require.Equal(t, "a", id)
			require.NotNil(t, patch.ScheduledFor)
			return queue.Item{
				ID:           "a",
				Platform:     queue.Bluesky,
				Content:      "server-canonical text",
				ScheduledFor: &serverTime,
				Status:       queue.StatusDraft,
			}, nil
		},
	}
	e := newEngine(t, remote, seedItem("a", at(3, 14)))

	item, _ := e.Snapshot().Find("a")
	st, err := e.Stage(sched.Reschedule(item, serverTime))
	require.NoError(t, err)
	require.NoError(t, e.Commit(context.Background(), st))

	got, ok := e.Snapshot().Find("a")
	require.True(t, ok)
	require.Equal(t, "server-canonical text", got.Content)
	require.False(t, e.InFlight("a"))
}

func TestSecondMutationOnSameItemRejected(t *testing.T) {
	e := newEngine(t, &fakeRemote{}, seedItem("a", at(3, 14)))

	item, _ := e.Snapshot().Find("a")
	_, err := e.Stage(sched.EditContent(item, "first"))
	require.NoError(t, err)

	_, err = e.Stage(sched.EditContent(item, "second"))
	require.ErrorIs(t, err, sched.ErrMutationInFlight)

	// A different item is not blocked.
	e2 := newEngine(t, &fakeRemote{}, seedItem("a", at(3, 14)), seedItem("b", at(3, 15)))
	itemA, _ := e2.Snapshot().Find("a")
	itemB, _ := e2.Snapshot().Find("b")
	_, err = e2.Stage(sched.EditContent(itemA, "x"))
	require.NoError(t, err)
	_, err = e2.Stage(sched.EditContent(itemB, "y"))
	require.NoError(t, err)
}

func TestPostedItemsAreImmutable(t *testing.T) {
	posted := seedItem("p", at(3, 10))
	posted.Status = queue.StatusPosted
	posted.Source = queue.SourcePosted
	e := newEngine(t, &fakeRemote{}, posted)

	item, _ := e.Snapshot().Find("p")
	_, err := e.Stage(sched.Reschedule(item, time.Date(2024, time.June, 6, 10, 0, 0, 0, loc)))
	require.ErrorIs(t, err, sched.ErrPostedImmutable)

	_, err = e.Stage(sched.EditContent(item, "rewrite history"))
	require.ErrorIs(t, err, sched.ErrPostedImmutable)

	_, err = e.Stage(sched.Delete(item))
	require.ErrorIs(t, err, sched.ErrPostedImmutable)
}

func TestMarkPostedIsTerminal(t *testing.T) {
	remote := &fakeRemote{
		markPostedFn: func(ctx context.Context, id string) (queue.Item, error) {
			item := seedItem(id, at(3, 14))
			item.Status = queue.StatusPosted
			item.Source = queue.SourcePosted
			return item, nil
		},
	}
	e := newEngine(t, remote, seedItem("d", at(3, 14)))

	item, _ := e.Snapshot().Find("d")
	require.NoError(t, e.Apply(context.Background(), sched.MarkPosted(item)))

	got, ok := e.Snapshot().Find("d")
	require.True(t, ok)
	require.True(t, got.Posted())

	_, err := e.Stage(sched.Reschedule(got, time.Date(2024, time.June, 7, 9, 0, 0, 0, loc)))
	require.ErrorIs(t, err, sched.ErrPostedImmutable)
}

func TestDeleteRemovesItem(t *testing.T) {
	remote := &fakeRemote{
		deleteFn: func(ctx context.Context, id string) error { return nil },
	}
	e := newEngine(t, remote, seedItem("a", at(3, 14)))

	item, _ := e.Snapshot().Find("a")
	require.NoError(t, e.Apply(context.Background(), sched.Delete(item)))

	_, ok := e.Snapshot().Find("a")
	require.False(t, ok)

	_, err := e.Stage(sched.Reschedule(item, time.Date(2024, time.June, 7, 9, 0, 0, 0, loc)))
	require.ErrorIs(t, err, sched.ErrNotFound)
}

func TestCreateReplacesTempWithServerID(t *testing.T) {
	remote := &fakeRemote{
		createFn: func(ctx context.Context, draft queue.Draft) (queue.Item, error) {
			return queue.Item{
				ID:           "srv-1",
				Platform:     draft.Platform,
				Content:      draft.Content,
				ScheduledFor: draft.ScheduledFor,
				Status:       queue.StatusDraft,
			}, nil
		},
	}
	e := sched.New(remote, loc)

	draft := queue.Draft{Platform: queue.Bluesky, Content: "hello", ScheduledFor: at(5, 9)}
	st, err := e.Stage(sched.Create(draft))
	require.NoError(t, err)

	// Optimistic placeholder is visible immediately.
	require.Equal(t, 1, e.Snapshot().Len())

	require.NoError(t, e.Commit(context.Background(), st))
	got, ok := e.Snapshot().Find("srv-1")
	require.True(t, ok)
	require.Equal(t, "hello", got.Content)
	require.Equal(t, 1, e.Snapshot().Len())
}

func TestCreateValidationRejectedBeforeApply(t *testing.T) {
	e := sched.New(&fakeRemote{}, loc)
	_, err := e.Stage(sched.Create(queue.Draft{Platform: queue.Bluesky, Content: "   "}))
	require.ErrorIs(t, err, sched.ErrEmptyContent)
	require.Equal(t, 0, e.Snapshot().Len())
}

func TestStaleWindowLoadDiscardedSilently(t *testing.T) {
	release := make(chan struct{})
	remote := &fakeRemote{
		listFn: func(ctx context.Context, start, end time.Time) ([]queue.Item, error) {
			if start.Day() == 2 { // the first (stale) window
				<-release
				return []queue.Item{seedItem("stale", at(3, 9))}, nil
			}
			return []queue.Item{seedItem("fresh", at(10, 9))}, nil
		},
	}
	e := sched.New(remote, loc)

	w1 := timeutil.ComputeWindow(time.Date(2024, time.June, 5, 0, 0, 0, 0, loc), timeutil.ModeWeek)
	w2 := w1.Next()

	done := make(chan error, 1)
	go func() { done <- e.LoadWindow(context.Background(), w1) }()

	// Navigation supersedes the first load before it resolves.
	require.NoError(t, e.LoadWindow(context.Background(), w2))
	close(release)
	require.NoError(t, <-done)

	_, staleFound := e.Snapshot().Find("stale")
	require.False(t, staleFound, "superseded window leaked into the projection")
	_, freshFound := e.Snapshot().Find("fresh")
	require.True(t, freshFound)
	require.Equal(t, w2.Key(), e.Window().Key())
}

func TestLoadDeferredWhileMutationInFlight(t *testing.T) {
	remote := &fakeRemote{
		listFn: func(ctx context.Context, start, end time.Time) ([]queue.Item, error) {
			return nil, nil // server no longer knows the optimistic item
		},
		updateFn: func(ctx context.Context, id string, patch queue.Patch) (queue.Item, error) {
			return seedItem(id, at(5, 14)), nil
		},
	}
	e := newEngine(t, remote, seedItem("a", at(3, 14)))

	item, _ := e.Snapshot().Find("a")
	st, err := e.Stage(sched.Reschedule(item, time.Date(2024, time.June, 5, 14, 0, 0, 0, loc)))
	require.NoError(t, err)

	w := timeutil.ComputeWindow(time.Date(2024, time.June, 5, 0, 0, 0, 0, loc), timeutil.ModeWeek)
	require.NoError(t, e.LoadWindow(context.Background(), w))

	// The load must not clobber the unreconciled optimistic state.
	_, ok := e.Snapshot().Find("a")
	require.True(t, ok)

	require.NoError(t, e.Commit(context.Background(), st))
	drainFor(t, e, func(ev sched.Event) bool {
		_, isRefresh := ev.(sched.RefreshNeededEvent)
		return isRefresh
	})
}

func TestFailedCommitStillRequestsRefresh(t *testing.T) {
	remote := &fakeRemote{
		updateFn: func(ctx context.Context, id string, patch queue.Patch) (queue.Item, error) {
			return queue.Item{}, errors.New("503 service unavailable")
		},
	}
	e := newEngine(t, remote, seedItem("a", at(3, 14)))

	item, _ := e.Snapshot().Find("a")
	st, err := e.Stage(sched.Reschedule(item, time.Date(2024, time.June, 5, 14, 0, 0, 0, loc)))
	require.NoError(t, err)
	require.Error(t, e.Commit(context.Background(), st))

	// The rollback snapshot may be stale against the server; the engine
	// must ask for a revalidation just like after a successful commit.
	drainFor(t, e, func(ev sched.Event) bool {
		_, isRefresh := ev.(sched.RefreshNeededEvent)
		return isRefresh
	})
}

// drainFor consumes buffered engine events until match succeeds.
func drainFor(t *testing.T, e *sched.Engine, match func(sched.Event) bool) {
	t.Helper()
	for {
		select {
		case ev := <-e.Events():
			if match(ev) {
				return
			}
		case <-time.After(time.Second):
			t.Fatalf("expected event not observed")
		}
	}
}
