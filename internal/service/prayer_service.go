package service

import (
	"context"
	"fmt"
	"time"

	"github.com/noor-alrahman/noor-cli/internal/catalog"
	"github.com/noor-alrahman/noor-cli/internal/geo"
	"github.com/noor-alrahman/noor-cli/internal/prayer"
	"github.com/rs/zerolog/log"
)

type TimingsAPI interface {
	GetTimings(ctx context.Context, lat, lon float64, method int) (*prayer.Day, error)
}

type ReverseGeocoder interface {
	Reverse(ctx context.Context, at geo.Coordinate) (string, error)
}

// PrayerTimes is today's schedule at the user's position.
type PrayerTimes struct {
	Position geo.Position
	Day      *prayer.Day
}

// Label names the place the timings are for.
func (p *PrayerTimes) Label() string {
	if p.Position.Label != "" {
		return p.Position.Label
	}
	return p.Position.Coordinate.String()
}

// Next returns the upcoming prayer and the time left until it.
func (p *PrayerTimes) Next(now time.Time) (prayer.Prayer, time.Duration, error) {
	return p.Day.Next(now)
}

type PrayerService struct {
	locator geo.Locator
	api     TimingsAPI
	reverse ReverseGeocoder
	method  int
	fetcher *catalog.Fetcher[*PrayerTimes]
}

// NewPrayerService creates the service. reverse may be nil.
func NewPrayerService(locator geo.Locator, api TimingsAPI, reverse ReverseGeocoder, method int) *PrayerService {
	return &PrayerService{
		locator: locator,
		api:     api,
		reverse: reverse,
		method:  method,
		fetcher: catalog.NewFetcher[*PrayerTimes]("prayer-times"),
	}
}

// Load locates the user once and fetches today's timings.
func (s *PrayerService) Load(ctx context.Context) (*PrayerTimes, error) {
	return s.fetcher.Fetch(ctx, func(ctx context.Context) (*PrayerTimes, error) {
		pos, err := s.locator.Locate(ctx)
		if err != nil {
			return nil, err
		}

		day, err := s.api.GetTimings(ctx, pos.Latitude, pos.Longitude, s.method)
		if err != nil {
			return nil, fmt.Errorf("failed to get prayer times: %w", err)
		}

		if pos.Label == "" && s.reverse != nil {
			if label, err := s.reverse.Reverse(ctx, pos.Coordinate); err != nil {
				log.Warn().Err(err).Msg("Reverse geocoding failed")
			} else {
				pos.Label = label
			}
		}

		return &PrayerTimes{Position: pos, Day: day}, nil
	})
}

func (s *PrayerService) State() catalog.Snapshot[*PrayerTimes] {
	return s.fetcher.Snapshot()
}
