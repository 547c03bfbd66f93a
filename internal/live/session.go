package live

import (
	"context"
	"fmt"
	"sync"

	"github.com/noor-alrahman/noor-cli/internal/catalog"
	"github.com/noor-alrahman/noor-cli/internal/config"
	"github.com/rs/zerolog/log"
)

// Session plays one channel at a time through a Player.
type Session struct {
	resolver  *Resolver
	player    Player
	nativeHLS bool
	gen       catalog.Generation

	mu            sync.Mutex
	resolveCancel context.CancelFunc
	current       *Channel
	target        string
}

// NewSession builds a session from the live settings.
func NewSession(cfg config.Live, player Player, userAgent string) *Session {
	return &Session{
		resolver: NewResolver(ResolverOptions{
			MaxBandwidth:  cfg.MaxBandwidth,
			MaxRecoveries: cfg.MaxRecoveries,
			UserAgent:     userAgent,
		}),
		player:    player,
		nativeHLS: cfg.NativeHLS,
	}
}

// Open resolves the channel stream and starts the player. It returns the URL handed to the player.
// Opening another channel, or closing the session, supersedes a pending Open: it then returns
// catalog.ErrSuperseded without touching the player. When resolving fails after all recoveries
// the session is torn down.
func (s *Session) Open(ctx context.Context, ch Channel) (string, error) {
	resolveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.resolveCancel != nil {
		s.resolveCancel()
	}
	s.resolveCancel = cancel
	ticket := s.gen.Next()
	s.mu.Unlock()

	target := ch.URL
	kind := DetectKind(ch.URL)

	var resolveErr error
	if kind == KindHLS && !s.nativeHLS {
		target, resolveErr = s.resolver.Resolve(resolveCtx, ch.URL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gen.Current(ticket) {
		log.Debug().Str("channel", ch.Name).Msg("Discarding superseded channel open")
		return "", catalog.ErrSuperseded
	}
	s.resolveCancel = nil

	if resolveErr != nil {
		if cerr := s.closeLocked(); cerr != nil {
			log.Debug().Err(cerr).Msg("Failed to tear down live session")
		}
		return "", fmt.Errorf("failed to open %s: %w", ch.Name, resolveErr)
	}

	log.Debug().Str("channel", ch.Name).Str("kind", kind.String()).Str("target", target).Msg("Opening channel")

	if err := s.player.Play(ctx, target, ch.Name); err != nil {
		return "", fmt.Errorf("failed to play %s: %w", ch.Name, err)
	}

	c := ch
	s.current = &c
	s.target = target

	return target, nil
}

// Current returns the channel being played, or nil.
func (s *Session) Current() *Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	c := *s.current
	return &c
}

// Done is closed when the player process exits.
func (s *Session) Done() <-chan struct{} {
	return s.player.Wait()
}

// Err returns the exit error of the last player run, if any.
func (s *Session) Err() error {
	return s.player.Err()
}

// Close stops the player and supersedes any pending Open.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Session) closeLocked() error {
	s.gen.Next()
	if s.resolveCancel != nil {
		s.resolveCancel()
		s.resolveCancel = nil
	}
	s.current = nil
	s.target = ""
	return s.player.Close()
}
