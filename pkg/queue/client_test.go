package queue_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tableflip.dev/slate/pkg/queue"
)

func TestListSendsRangeAndNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/queue", r.URL.Path)
		require.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		require.NotEmpty(t, r.URL.Query().Get("start"))
		require.NotEmpty(t, r.URL.Query().Get("end"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"a","platform":"bluesky","content":"hi","scheduledFor":"2024-06-03T14:00:00Z","status":"scheduled"},
			{"id":"b","platform":"TWITTER","content":"","status":"draft"},
			{"id":"","platform":"bluesky","status":"draft"}
		]`))
	}))
	defer srv.Close()

	c := queue.NewClient(srv.URL, "sekrit")
	start := time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC)
	items, err := c.List(context.Background(), start, start.AddDate(0, 0, 7))

	// The row with no id is dropped and reported; the good rows survive.
	require.Error(t, err)
	require.ErrorIs(t, err, queue.ErrInvalidItem)
	require.Len(t, items, 2)
	require.Equal(t, queue.StatusDraft, items[0].Status)
	require.Equal(t, queue.Twitter, items[1].Platform)
	require.Nil(t, items[1].ScheduledFor)
}

func TestUpdatePatchesPartialFields(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/queue/a", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"a","platform":"bluesky","content":"hi","scheduledFor":"2024-06-05T14:00:00Z","status":"draft"}`))
	}))
	defer srv.Close()

	c := queue.NewClient(srv.URL, "")
	at := time.Date(2024, time.June, 5, 14, 0, 0, 0, time.UTC)
	item, err := c.Update(context.Background(), "a", queue.Patch{ScheduledFor: &at})
	require.NoError(t, err)

	require.Equal(t, "2024-06-05T14:00:00Z", body["scheduledFor"])
	_, hasContent := body["content"]
	require.False(t, hasContent, "omitted fields must not appear in the patch")
	require.NotNil(t, item.ScheduledFor)
}

func TestUpdateUnscheduleSendsExplicitNull(t *testing.T) {
	var raw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"a","platform":"bluesky","status":"draft"}`))
	}))
	defer srv.Close()

	c := queue.NewClient(srv.URL, "")
	item, err := c.Update(context.Background(), "a", queue.Patch{Unschedule: true})
	require.NoError(t, err)
	require.JSONEq(t, `{"scheduledFor":null}`, string(raw))
	require.Nil(t, item.ScheduledFor)
}

func TestDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/queue/gone", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := queue.NewClient(srv.URL, "")
	require.NoError(t, c.Delete(context.Background(), "gone"))
}

func TestMarkPosted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/queue/a/posted", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"a","platform":"bluesky","content":"hi","status":"posted"}`))
	}))
	defer srv.Close()

	c := queue.NewClient(srv.URL, "")
	item, err := c.MarkPosted(context.Background(), "a")
	require.NoError(t, err)
	require.True(t, item.Posted())
	require.Equal(t, queue.SourcePosted, item.Source)
}

func TestCreateReturnsServerAssignedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/queue", r.URL.Path)

		var draft queue.Draft
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))
		require.Equal(t, queue.Bluesky, draft.Platform)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(queue.Item{
			ID:           "srv-9",
			Platform:     draft.Platform,
			Content:      draft.Content,
			ScheduledFor: draft.ScheduledFor,
			Status:       queue.StatusDraft,
		})
	}))
	defer srv.Close()

	c := queue.NewClient(srv.URL, "")
	at := time.Date(2024, time.June, 5, 9, 0, 0, 0, time.UTC)
	item, err := c.Create(context.Background(), queue.Draft{
		Platform:     queue.Bluesky,
		Content:      "hello",
		ScheduledFor: &at,
	})
	require.NoError(t, err)
	require.Equal(t, "srv-9", item.ID)
	require.Equal(t, queue.SourceQueue, item.Source)
}

func TestErrorStatusSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "queue is read-only during maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := queue.NewClient(srv.URL, "")
	_, err := c.Update(context.Background(), "a", queue.Patch{Unschedule: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
	require.Contains(t, err.Error(), "read-only")
}

func TestNormalizeRejectsUnknownShapes(t *testing.T) {
	_, err := queue.Normalize(queue.Item{ID: "a", Platform: "myspace"})
	require.ErrorIs(t, err, queue.ErrInvalidItem)

	_, err = queue.Normalize(queue.Item{ID: "a", Platform: queue.Bluesky, Status: "exploded"})
	require.ErrorIs(t, err, queue.ErrInvalidItem)

	item, err := queue.Normalize(queue.Item{ID: " a ", Platform: "Bluesky"})
	require.NoError(t, err)
	require.Equal(t, "a", item.ID)
	require.Equal(t, queue.Bluesky, item.Platform)
	require.Equal(t, queue.StatusDraft, item.Status)
}
