// Package inflight refuses a second submission from the same user while the
// first one is still being analyzed.
package inflight

import (
	"sync"
	"time"
)

type Gate struct {
	busy sync.Map // key -> time.Time (start of the in-flight analysis)
}

func New() *Gate { return &Gate{} }

// TryEnter marks key as busy. ok=false means an analysis for key is already
// running; release must be called exactly when the analysis ends.
func (g *Gate) TryEnter(key any) (release func(), ok bool) {
	if _, loaded := g.busy.LoadOrStore(key, time.Now()); loaded {
		return func() {}, false
	}
	var once sync.Once
	return func() { once.Do(func() { g.busy.Delete(key) }) }, true
}

// Since reports when the in-flight analysis for key started.
func (g *Gate) Since(key any) (time.Time, bool) {
	v, ok := g.busy.Load(key)
	if !ok {
		return time.Time{}, false
	}
	return v.(time.Time), true
}
