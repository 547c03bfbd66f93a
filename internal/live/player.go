package live

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	ErrPlayerNotFound = errors.New("external player not found")
	ErrInvalidTarget  = errors.New("invalid media target")
)

// Player plays a stream URL in a separate process.
type Player interface {
	Play(ctx context.Context, target, title string) error
	// Wait returns a channel closed when the current playback ends.
	Wait() <-chan struct{}
	// Err returns the exit error of the last run, if any.
	Err() error
	Close() error
}

// ExternalPlayer runs a media player binary such as mpv on a stream URL.
type ExternalPlayer struct {
	Command string
	Args    []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	exited chan struct{}
	err    error
}

func NewExternalPlayer(command string, args []string) *ExternalPlayer {
	exited := make(chan struct{})
	close(exited)
	return &ExternalPlayer{Command: command, Args: args, exited: exited}
}

// sanitizeTarget rejects anything the player could read as a flag.
func sanitizeTarget(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" || strings.HasPrefix(target, "-") {
		return "", fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}
	return target, nil
}

func (p *ExternalPlayer) args(target, title string) []string {
	var args []string
	if strings.TrimSuffix(filepath.Base(p.Command), ".exe") == "mpv" {
		safeTitle := strings.NewReplacer("\n", " ", "\r", " ").Replace(title)
		args = append(args,
			"--no-terminal",
			"--really-quiet",
			"--force-window=yes",
			fmt.Sprintf("--force-media-title=%s", safeTitle),
		)
	}
	args = append(args, p.Args...)
	return append(args, target)
}

// Play starts the player, stopping any previous instance first.
func (p *ExternalPlayer) Play(ctx context.Context, target, title string) error {
	safe, err := sanitizeTarget(target)
	if err != nil {
		return err
	}

	bin, err := exec.LookPath(p.Command)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, p.Command)
	}

	if err := p.Close(); err != nil {
		log.Debug().Err(err).Msg("Failed to stop previous player")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	cmd := exec.CommandContext(ctx, bin, p.args(safe, title)...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.Command, err)
	}

	exited := make(chan struct{})
	p.cmd = cmd
	p.exited = exited
	p.err = nil
	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		if p.cmd == cmd {
			p.err = err
		}
		p.mu.Unlock()
		log.Debug().Err(err).Str("player", p.Command).Msg("Player exited")
		close(exited)
	}()

	log.Info().Str("player", p.Command).Str("url", safe).Msg("Player started")
	return nil
}

func (p *ExternalPlayer) Wait() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exited
}

// Err returns the exit error of the last player run, if any.
func (p *ExternalPlayer) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Close kills the running player and waits for it to exit.
func (p *ExternalPlayer) Close() error {
	p.mu.Lock()
	cmd, exited := p.cmd, p.exited
	p.cmd = nil
	p.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	select {
	case <-exited:
		return nil
	default:
	}
	err := cmd.Process.Kill()
	<-exited
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
