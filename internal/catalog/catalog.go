// Package catalog coordinates remote list fetches so that only the latest request updates state.
package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// ErrSuperseded is returned to callers whose request was overtaken by a newer one.
var ErrSuperseded = errors.New("request superseded by a newer one")

// Generation hands out monotonically increasing tickets. Only the holder of the
// most recent ticket is current.
type Generation struct {
	n atomic.Uint64
}

// Next issues a new ticket, invalidating all earlier ones.
func (g *Generation) Next() uint64 {
	return g.n.Add(1)
}

// Current reports whether ticket is still the latest one issued.
func (g *Generation) Current(ticket uint64) bool {
	return g.n.Load() == ticket
}

// Snapshot is a point-in-time view of a fetcher for rendering.
type Snapshot[T any] struct {
	Loading bool
	Err     error
	Data    T
	HasData bool
}

// Fetcher runs one request at a time per catalog. Starting a new fetch cancels
// the previous request and its result is never applied.
type Fetcher[T any] struct {
	name string
	gen  Generation

	mu     sync.Mutex
	cancel context.CancelFunc
	state  Snapshot[T]
}

func NewFetcher[T any](name string) *Fetcher[T] {
	return &Fetcher[T]{name: name}
}

// Fetch runs fn and stores its result. It blocks until fn returns.
func (f *Fetcher[T]) Fetch(ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	ticket := f.gen.Next()
	f.cancel = cancel
	f.state.Loading = true
	f.state.Err = nil
	f.mu.Unlock()

	data, err := fn(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.gen.Current(ticket) {
		log.Debug().Str("catalog", f.name).Uint64("ticket", ticket).Msg("Discarding superseded result")
		var zero T
		return zero, ErrSuperseded
	}

	f.cancel = nil
	f.state.Loading = false
	if err != nil {
		log.Error().Err(err).Str("catalog", f.name).Msg("Fetch failed")
		f.state.Err = err
		var zero T
		return zero, err
	}

	f.state.Data = data
	f.state.HasData = true
	return data, nil
}

// Snapshot returns the current state of the fetcher.
func (f *Fetcher[T]) Snapshot() Snapshot[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Data returns the last successfully fetched value.
func (f *Fetcher[T]) Data() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Data, f.state.HasData
}
