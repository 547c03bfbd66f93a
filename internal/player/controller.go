package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/noor-alrahman/noor-cli/internal/catalog"
	"github.com/noor-alrahman/noor-cli/internal/config"
	"github.com/noor-alrahman/noor-cli/internal/quran"
	"github.com/rs/zerolog/log"
)

// Item is one entry of the play queue.
type Item struct {
	ID      int
	Title   string
	Artist  string
	URL     string
	Edition *quran.Moshaf
}

// Source returns the playable URL of the item.
func (i Item) Source() (string, error) {
	if i.URL != "" {
		return i.URL, nil
	}
	if i.Edition != nil {
		return i.Edition.AudioURL(i.ID), nil
	}
	return "", fmt.Errorf("item %d has no source: %w", i.ID, ErrNoSource)
}

// Status is a snapshot of the controller for rendering.
type Status struct {
	State    State
	Item     *Item
	Index    int
	Total    int
	Progress float64
	Position time.Duration
	Duration time.Duration
	Volume   float64
	Muted    bool
	Repeat   int
	Counter  int
	Err      error
}

type Options struct {
	Volume      float64
	Repeat      int
	EndBehavior config.EndBehavior
}

// Controller is the playback state machine over a single Media element.
type Controller struct {
	media Media
	gen   catalog.Generation

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu          sync.Mutex
	state       State
	queue       []Item
	index       int
	current     *Item
	progress    float64
	volume      float64
	prevVolume  float64
	repeat      int
	counter     int
	endBehavior config.EndBehavior
	lastErr     error
	loadCancel  context.CancelFunc

	listenersMu sync.Mutex
	listeners   []func(Status)
}

func NewController(media Media, opts Options) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		media:       media,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		index:       -1,
		volume:      config.ClampVolume(opts.Volume),
		repeat:      config.ClampRepeat(opts.Repeat),
		endBehavior: opts.EndBehavior,
	}
	if c.endBehavior == "" {
		c.endBehavior = config.EndAdvance
	}
	media.SetVolume(c.volume)

	go c.run()
	return c
}

func (c *Controller) run() {
	defer close(c.done)
	events := c.media.Events()
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case EventTimeUpdate:
				c.HandleTimeUpdate(ev.Position, ev.Duration)
			case EventEnded:
				c.HandleEnded()
			case EventError:
				c.fail(ev.Err)
			}
		}
	}
}

// OnChange registers fn to be called after every state change.
func (c *Controller) OnChange(fn func(Status)) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, fn)
	c.listenersMu.Unlock()
}

func (c *Controller) notify() {
	st := c.Status()
	c.listenersMu.Lock()
	listeners := append([]func(Status){}, c.listeners...)
	c.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		State:    c.state,
		Index:    c.index,
		Total:    len(c.queue),
		Progress: c.progress,
		Volume:   c.volume,
		Muted:    c.volume == 0,
		Repeat:   c.repeat,
		Counter:  c.counter,
		Err:      c.lastErr,
	}
	if c.current != nil {
		item := *c.current
		st.Item = &item
		st.Position = c.media.Position()
		st.Duration, _ = c.media.Duration()
	}
	return st
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// SetQueue replaces the ordered list used by Next and Previous.
func (c *Controller) SetQueue(items []Item) {
	c.mu.Lock()
	c.queue = append([]Item(nil), items...)
	c.index = c.indexOfLocked(c.current)
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) indexOfLocked(item *Item) int {
	if item == nil {
		return -1
	}
	for i, q := range c.queue {
		if q.ID == item.ID {
			return i
		}
	}
	return -1
}

// Load makes item current and starts playing it. A newer Load supersedes this one,
// in which case catalog.ErrSuperseded is returned and nothing is applied.
func (c *Controller) Load(ctx context.Context, item Item) error {
	src, err := item.Source()
	if err != nil {
		return err
	}

	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.loadCancel != nil {
		c.loadCancel()
	}
	c.loadCancel = cancel
	ticket := c.gen.Next()
	c.current = &item
	c.index = c.indexOfLocked(&item)
	c.progress = 0
	c.counter = 0
	c.lastErr = nil
	c.state = StateLoading
	c.mu.Unlock()
	c.notify()

	log.Debug().Int("id", item.ID).Str("src", src).Msg("Loading item")
	err = c.media.Load(loadCtx, src)

	c.mu.Lock()
	if !c.gen.Current(ticket) {
		c.mu.Unlock()
		log.Debug().Int("id", item.ID).Msg("Load superseded")
		return catalog.ErrSuperseded
	}
	c.loadCancel = nil

	if err != nil {
		c.state = StateError
		c.lastErr = err
		c.mu.Unlock()
		c.notify()
		return fmt.Errorf("failed to load %q: %w", item.Title, err)
	}

	c.media.SetVolume(c.volume)
	err = c.playLocked()
	c.mu.Unlock()
	c.notify()

	if errors.Is(err, ErrPlaybackBlocked) {
		log.Debug().Err(err).Msg("Playback blocked, waiting for user")
		return nil
	}
	return err
}

// playLocked starts the media. A blocked start leaves the controller idle.
func (c *Controller) playLocked() error {
	err := c.media.Play()
	switch {
	case err == nil:
		c.state = StatePlaying
	case errors.Is(err, ErrPlaybackBlocked):
		c.media.Pause()
		c.state = StateIdle
	default:
		c.state = StateError
		c.lastErr = err
	}
	return err
}

// TogglePlay switches between playing and paused. It does nothing without a loaded item.
func (c *Controller) TogglePlay() error {
	c.mu.Lock()
	if c.current == nil || c.state == StateLoading {
		c.mu.Unlock()
		return nil
	}

	var err error
	switch c.state {
	case StatePlaying:
		c.media.Pause()
		c.state = StatePaused
	case StateEnded:
		if err = c.media.SetPosition(0); err == nil {
			c.progress = 0
			err = c.playLocked()
		}
	case StateError:
		c.mu.Unlock()
		return c.Load(c.ctx, *c.current)
	default:
		err = c.playLocked()
	}
	c.mu.Unlock()
	c.notify()

	if errors.Is(err, ErrPlaybackBlocked) {
		return nil
	}
	return err
}

// Stop pauses and rewinds to the start.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) stopLocked() {
	if c.loadCancel != nil {
		c.loadCancel()
		c.loadCancel = nil
		c.gen.Next()
	}
	c.media.Pause()
	if c.current != nil {
		if err := c.media.SetPosition(0); err != nil {
			log.Debug().Err(err).Msg("Rewind on stop failed")
		}
	}
	c.progress = 0
	c.counter = 0
	c.state = StateIdle
}

// Seek moves to percent (0-100) of the item. It is a no-op while the duration is unknown.
func (c *Controller) Seek(percent float64) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return nil
	}
	dur, ok := c.media.Duration()
	if !ok || dur <= 0 {
		c.mu.Unlock()
		return nil
	}

	pos := time.Duration(float64(dur) * percent / 100)
	if err := c.media.SetPosition(pos); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("seek failed: %w", err)
	}
	c.progress = percent
	c.mu.Unlock()
	c.notify()
	return nil
}

// SeekBy moves relative to the current position.
func (c *Controller) SeekBy(delta time.Duration) error {
	c.mu.Lock()
	dur, ok := c.media.Duration()
	pos := c.media.Position()
	c.mu.Unlock()
	if !ok || dur <= 0 {
		return nil
	}
	return c.Seek(float64(pos+delta) / float64(dur) * 100)
}

func (c *Controller) SetVolume(v float64) {
	c.mu.Lock()
	c.volume = config.ClampVolume(v)
	c.media.SetVolume(c.volume)
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// ToggleMute silences playback or restores the last non-zero volume (1.0 if none).
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	if c.volume > 0 {
		c.prevVolume = c.volume
		c.volume = 0
	} else {
		c.volume = c.prevVolume
		if c.volume <= 0 {
			c.volume = config.MaxVolume
		}
	}
	c.media.SetVolume(c.volume)
	c.mu.Unlock()
	c.notify()
}

// SetRepeat sets how many times each item plays before the end behavior applies.
func (c *Controller) SetRepeat(n int) {
	c.mu.Lock()
	c.repeat = config.ClampRepeat(n)
	if c.counter >= c.repeat {
		c.counter = 0
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) SetEndBehavior(b config.EndBehavior) {
	c.mu.Lock()
	c.endBehavior = b
	c.mu.Unlock()
}

// HandleTimeUpdate derives progress from the element position.
func (c *Controller) HandleTimeUpdate(pos, dur time.Duration) {
	c.mu.Lock()
	if c.current == nil || dur <= 0 || c.state == StateLoading {
		c.mu.Unlock()
		return
	}
	p := float64(pos) / float64(dur) * 100
	if p > 100 {
		p = 100
	}
	c.progress = p
	c.mu.Unlock()
	c.notify()
}

// HandleEnded replays the item until the repeat count is reached, then advances or stops.
func (c *Controller) HandleEnded() {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return
	}

	if c.counter < c.repeat-1 {
		c.counter++
		log.Debug().Int("repeat", c.counter).Int("of", c.repeat).Msg("Replaying item")
		if err := c.media.SetPosition(0); err != nil {
			log.Error().Err(err).Msg("Rewind for repeat failed")
		}
		c.progress = 0
		_ = c.playLocked()
		c.mu.Unlock()
		c.notify()
		return
	}

	c.counter = 0
	if c.endBehavior == config.EndStop {
		c.state = StateEnded
		c.progress = 100
		c.mu.Unlock()
		c.notify()
		return
	}
	c.mu.Unlock()

	if err := c.Next(); err != nil && !errors.Is(err, catalog.ErrSuperseded) {
		log.Error().Err(err).Msg("Advance after end failed")
	}
}

// Next loads the following queue item. On the last item it stops playback.
func (c *Controller) Next() error {
	c.mu.Lock()
	if c.index < 0 || c.index+1 >= len(c.queue) {
		c.stopLocked()
		c.mu.Unlock()
		c.notify()
		return nil
	}
	item := c.queue[c.index+1]
	c.mu.Unlock()

	return c.Load(c.ctx, item)
}

// Previous loads the preceding queue item. On the first item it does nothing.
func (c *Controller) Previous() error {
	c.mu.Lock()
	if c.index <= 0 {
		c.mu.Unlock()
		return nil
	}
	item := c.queue[c.index-1]
	c.mu.Unlock()

	return c.Load(c.ctx, item)
}

func (c *Controller) fail(err error) {
	if err == nil {
		return
	}
	log.Error().Err(err).Msg("Media error")
	c.mu.Lock()
	c.state = StateError
	c.lastErr = err
	c.mu.Unlock()
	c.notify()
}

// Close stops the event loop and releases the media element.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.loadCancel != nil {
		c.loadCancel()
	}
	c.mu.Unlock()

	c.cancel()
	<-c.done
	return c.media.Close()
}
