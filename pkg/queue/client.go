package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a reusable HTTP client for the remote scheduling queue.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// NewClient creates a client rooted at the given base URL. The token is
// optional and sent as a bearer credential when present.
func NewClient(base, token string) *Client {
	return &Client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Patch describes a partial update to a queue item. Nil fields are
// omitted from the request. Unschedule sends an explicit null for
// scheduledFor, which the server treats as "move to the unscheduled
// bucket", distinct from omitting the field.
type Patch struct {
	Content      *string
	ScheduledFor *time.Time
	Unschedule   bool
}

// MarshalJSON renders the patch with the omit/null distinction intact.
func (p Patch) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, 2)
	if p.Content != nil {
		fields["content"] = *p.Content
	}
	if p.Unschedule {
		fields["scheduledFor"] = nil
	} else if p.ScheduledFor != nil {
		fields["scheduledFor"] = p.ScheduledFor.Format(time.RFC3339)
	}
	return json.Marshal(fields)
}

// Draft is the payload for creating a new queue item.
type Draft struct {
	Platform     Platform   `json:"platform"`
	Content      string     `json:"content"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
}

// List fetches items whose scheduled timestamp falls inside [start, end],
// plus every unscheduled item. Timestamps cross the wire as RFC 3339.
func (c *Client) List(ctx context.Context, start, end time.Time) ([]Item, error) {
	q := url.Values{}
	q.Set("start", start.Format(time.RFC3339))
	q.Set("end", end.Format(time.RFC3339))

	var items []Item
	if err := c.do(ctx, http.MethodGet, "/queue?"+q.Encode(), nil, &items); err != nil {
		return nil, err
	}
	normalized, err := NormalizeAll(items)
	if err != nil {
		// A malformed row is dropped rather than poisoning the whole
		// window; the first offender is reported for visibility.
		return normalized, fmt.Errorf("list queue: %w", err)
	}
	return normalized, nil
}

// Update applies a partial edit to the item and returns the server's
// representation.
func (c *Client) Update(ctx context.Context, id string, patch Patch) (Item, error) {
	var updated Item
	if err := c.do(ctx, http.MethodPatch, "/queue/"+url.PathEscape(id), patch, &updated); err != nil {
		return Item{}, err
	}
	return Normalize(updated)
}

// Delete removes the item from the queue.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/queue/"+url.PathEscape(id), nil, nil)
}

// MarkPosted flags the item as published and returns the updated record.
func (c *Client) MarkPosted(ctx context.Context, id string) (Item, error) {
	var updated Item
	if err := c.do(ctx, http.MethodPost, "/queue/"+url.PathEscape(id)+"/posted", nil, &updated); err != nil {
		return Item{}, err
	}
	return Normalize(updated)
}

// Create inserts a new item and returns it with the server-assigned id.
func (c *Client) Create(ctx context.Context, draft Draft) (Item, error) {
	var created Item
	if err := c.do(ctx, http.MethodPost, "/queue", draft, &created); err != nil {
		return Item{}, err
	}
	return Normalize(created)
}

func (c *Client) do(ctx context.Context, method, path string, payload, v any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: unexpected status %s: %s",
			method, path, resp.Status, strings.TrimSpace(string(detail)))
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
