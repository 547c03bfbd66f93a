package player

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog/log"
)

const (
	SpeakerBufferSize   = time.Millisecond * 250
	TimeUpdateInterval  = 250 * time.Millisecond
	VolumeCurveExponent = 0.5
	MinVolumeDB         = -10.0
	EventBufferSize     = 16
)

// Fetcher resolves a remote source to a local, seekable file.
type Fetcher interface {
	FetchAudio(ctx context.Context, url string) (string, error)
}

// AudioElement plays mp3 files through the system speaker.
type AudioElement struct {
	fetcher Fetcher

	mu          sync.Mutex
	loadGen     atomic.Uint64
	loadCancel  context.CancelFunc
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	level       float64
	speakerRate beep.SampleRate
	speakerInit bool
	attached    atomic.Bool
	playing     atomic.Bool

	events    chan Event
	stop      chan struct{}
	closeOnce sync.Once
}

func NewAudioElement(fetcher Fetcher) *AudioElement {
	e := &AudioElement{
		fetcher: fetcher,
		level:   1,
		events:  make(chan Event, EventBufferSize),
		stop:    make(chan struct{}),
	}
	go e.tick()
	return e
}

func (e *AudioElement) Events() <-chan Event {
	return e.events
}

// emit never blocks; it may run under the speaker lock.
func (e *AudioElement) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		if ev.Kind != EventTimeUpdate {
			log.Debug().Str("event", ev.Kind.String()).Msg("Event channel full, dropping")
		}
	}
}

func (e *AudioElement) tick() {
	ticker := time.NewTicker(TimeUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			if !e.playing.Load() {
				continue
			}
			dur, ok := e.Duration()
			if !ok {
				continue
			}
			e.emit(Event{Kind: EventTimeUpdate, Position: e.Position(), Duration: dur})
		}
	}
}

// Load downloads and decodes src, replacing the current source. Playback starts paused.
func (e *AudioElement) Load(ctx context.Context, src string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	if e.loadCancel != nil {
		e.loadCancel()
	}
	e.loadCancel = cancel
	ticket := e.loadGen.Add(1)
	e.detachLocked()
	e.mu.Unlock()

	path, err := e.fetcher.FetchAudio(ctx, src)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to decode MP3: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loadGen.Load() != ticket {
		streamer.Close()
		return context.Canceled
	}
	e.loadCancel = nil

	e.streamer = streamer
	e.format = format
	e.ctrl = &beep.Ctrl{Streamer: streamer, Paused: true}
	e.volume = &effects.Volume{
		Streamer: e.ctrl,
		Base:     2,
		Volume:   levelToExponent(e.level),
		Silent:   e.level <= 0,
	}

	log.Debug().
		Int("sample_rate", int(format.SampleRate)).
		Dur("duration", format.SampleRate.D(streamer.Len())).
		Msg("Audio loaded")

	return nil
}

// detachLocked removes the current source from the speaker and closes it.
func (e *AudioElement) detachLocked() {
	e.playing.Store(false)
	if e.streamer == nil {
		return
	}
	speaker.Clear()
	e.attached.Store(false)
	if err := e.streamer.Close(); err != nil {
		log.Debug().Err(err).Msg("Failed to close previous stream")
	}
	e.streamer = nil
	e.ctrl = nil
	e.volume = nil
}

func (e *AudioElement) initSpeakerLocked(rate beep.SampleRate) error {
	if e.speakerInit && rate == e.speakerRate {
		return nil
	}
	if err := speaker.Init(rate, rate.N(SpeakerBufferSize)); err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackBlocked, err)
	}
	e.speakerRate = rate
	e.speakerInit = true
	log.Debug().Msgf("Speaker initialized with sample rate: %d Hz, buffer: %v", rate, SpeakerBufferSize)
	return nil
}

func (e *AudioElement) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return ErrNoSource
	}
	if err := e.initSpeakerLocked(e.format.SampleRate); err != nil {
		return err
	}

	if !e.attached.Load() {
		ticket := e.loadGen.Load()
		e.attached.Store(true)
		speaker.Play(beep.Seq(e.volume, beep.Callback(func() {
			if e.loadGen.Load() != ticket {
				return
			}
			e.attached.Store(false)
			e.playing.Store(false)
			e.emit(Event{Kind: EventEnded})
		})))
	}

	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
	e.playing.Store(true)
	return nil
}

func (e *AudioElement) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.playing.Store(false)
	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
}

func (e *AudioElement) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := e.streamer.Position()
	speaker.Unlock()
	return e.format.SampleRate.D(pos)
}

func (e *AudioElement) Duration() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return 0, false
	}
	n := e.streamer.Len()
	if n <= 0 {
		return 0, false
	}
	return e.format.SampleRate.D(n), true
}

func (e *AudioElement) SetPosition(d time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return ErrNoSource
	}

	n := e.format.SampleRate.N(d)
	if n < 0 {
		n = 0
	}
	if last := e.streamer.Len() - 1; n > last && last >= 0 {
		n = last
	}

	speaker.Lock()
	err := e.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	return nil
}

func (e *AudioElement) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.level = v
	if e.volume == nil {
		return
	}

	speaker.Lock()
	e.volume.Volume = levelToExponent(v)
	e.volume.Silent = v <= 0
	speaker.Unlock()

	log.Debug().Msgf("Volume set to %.0f%% (%.2f dB)", v*100, levelToExponent(v))
}

func (e *AudioElement) Close() error {
	e.closeOnce.Do(func() {
		close(e.stop)
		e.mu.Lock()
		if e.loadCancel != nil {
			e.loadCancel()
		}
		e.loadGen.Add(1)
		e.detachLocked()
		e.mu.Unlock()
	})
	return nil
}

// levelToExponent maps a linear 0..1 level onto the effects.Volume exponent.
func levelToExponent(v float64) float64 {
	if v <= 0 {
		return MinVolumeDB
	}
	if v >= 1 {
		return 0
	}

	adjusted := math.Pow(v, VolumeCurveExponent)
	return (1.0 - adjusted) * MinVolumeDB
}
