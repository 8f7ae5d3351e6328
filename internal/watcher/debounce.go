package watcher

import (
	"sync"
	"time"
)

// Debouncer fires once after a burst of triggers has been quiet for delay
type Debouncer struct {
	delay time.Duration
	c     chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates an idle debouncer
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, c: make(chan struct{}, 1)}
}

// C delivers one value per quiet period
func (d *Debouncer) C() <-chan struct{} {
	return d.c
}

// Trigger starts or restarts the quiet period
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// Stop cancels a pending fire
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire() {
	select {
	case d.c <- struct{}{}:
	default:
	}
}
