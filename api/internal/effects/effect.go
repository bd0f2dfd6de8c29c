// Package effects runs decorative, time-bounded animations detached from the
// request that triggered them.
package effects

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultDuration is how long the "fake" snowfall runs.
const DefaultDuration = 6000 * time.Millisecond

type Effect struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start runs fn on its own goroutine with a fresh context that expires after d.
// The context is not derived from any request: cancelling a request never stops
// the effect and the effect never holds up the request.
func Start(name string, d time.Duration, fn func(ctx context.Context)) *Effect {
	if d <= 0 {
		d = DefaultDuration
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	e := &Effect{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(e.done)
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				log.WithFields(log.Fields{"effect": name, "panic": p}).
					Errorf("effect crashed\n%s", debug.Stack())
			}
		}()
		fn(ctx)
	}()
	return e
}

// Stop cancels the effect early. Safe to call more than once.
func (e *Effect) Stop() {
	e.once.Do(e.cancel)
}

func (e *Effect) Done() <-chan struct{} { return e.done }

// Ticker calls frame every interval until ctx ends, then calls cleanup once.
// frame receives the tick number starting at 0.
func Ticker(ctx context.Context, interval time.Duration, frame func(tick int), cleanup func()) {
	if cleanup != nil {
		defer cleanup()
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	frame(0)
	for tick := 1; ; tick++ {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			frame(tick)
		}
	}
}
