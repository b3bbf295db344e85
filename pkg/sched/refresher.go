package sched

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher fires a callback on a fixed cadence so the projection is
// revalidated even when the operator is idle. Other operators may be
// editing the same queue.
type Refresher struct {
	c *cron.Cron
}

// NewRefresher schedules fn every interval. The callback runs on the
// cron goroutine; callers should post into their own event loop rather
// than doing work inline.
func NewRefresher(interval time.Duration, fn func()) (*Refresher, error) {
	if interval < 10*time.Second {
		return nil, fmt.Errorf("sched: refresh interval %s too aggressive", interval)
	}
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), fn); err != nil {
		return nil, fmt.Errorf("sched: schedule refresh: %w", err)
	}
	return &Refresher{c: c}, nil
}

// Start begins the cadence.
func (r *Refresher) Start() {
	r.c.Start()
}

// Stop halts future ticks; a tick already running completes.
func (r *Refresher) Stop() {
	r.c.Stop()
}
