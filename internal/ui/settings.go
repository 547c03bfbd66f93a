package ui

import (
	"sync"

	"github.com/noor-alrahman/noor-cli/internal/config"
	"github.com/rs/zerolog/log"
)

// configWriter saves settings from a single goroutine. Requests made while a
// write is pending collapse into one, and every write takes the newest snapshot.
type configWriter struct {
	snapshot func() *config.Config
	save     func(*config.Config) error

	mu      sync.Mutex
	pending chan struct{}
}

func newConfigWriter(snapshot func() *config.Config) *configWriter {
	return &configWriter{
		snapshot: snapshot,
		save:     (*config.Config).Save,
		pending:  make(chan struct{}, 1),
	}
}

// request schedules a save. It never blocks.
func (w *configWriter) request() {
	select {
	case w.pending <- struct{}{}:
	default:
	}
}

func (w *configWriter) run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-w.pending:
			w.flush()
		}
	}
}

// flush writes the current settings now.
func (w *configWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.save(w.snapshot()); err != nil {
		log.Error().Err(err).Msg("Failed to save config")
	}
}
