package store

import (
	"encoding/json"
	"fmt"

	"github.com/peterbourgon/diskv/v3"

	"tableflip.dev/slate/pkg/queue"
	"tableflip.dev/slate/pkg/timeutil"
)

// WindowCache keeps the last good fetch for each calendar window on disk
// so the view can paint instantly before the first network round-trip
// resolves. It is read-through only: mutations never write here, and a
// stale paint is always replaced by the next live load.
type WindowCache struct {
	d *diskv.Diskv
}

// OpenCache creates or reopens the cache rooted at basePath.
func OpenCache(basePath string) (*WindowCache, error) {
	if basePath == "" {
		return nil, fmt.Errorf("store: cache path is empty")
	}
	return &WindowCache{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		CacheSizeMax: 1024 * 1024, // 1MB
	})}, nil
}

// Put records the items fetched for a window.
func (c *WindowCache) Put(w timeutil.Window, items []queue.Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("store: encode window %s: %w", w.Key(), err)
	}
	if err := c.d.Write(w.Key(), raw); err != nil {
		return fmt.Errorf("store: write window %s: %w", w.Key(), err)
	}
	return nil
}

// Get returns the cached items for a window, if any survive validation.
func (c *WindowCache) Get(w timeutil.Window) ([]queue.Item, bool) {
	raw, err := c.d.Read(w.Key())
	if err != nil {
		return nil, false
	}
	var items []queue.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	normalized, _ := queue.NormalizeAll(items)
	if len(normalized) == 0 {
		return nil, false
	}
	return normalized, true
}
