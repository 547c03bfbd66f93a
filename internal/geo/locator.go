package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrLocationUnavailable is returned when no locator could determine a position.
var ErrLocationUnavailable = errors.New("unable to determine your location; set --lat/--lon or a city in the config")

// Position is a resolved user location with an optional human label.
type Position struct {
	Coordinate
	Label string
}

// Locator resolves the user's position.
type Locator interface {
	Locate(ctx context.Context) (Position, error)
}

// Geocoder turns a free-form place name into a position.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Position, error)
}

// StaticLocator returns fixed coordinates, typically from flags or settings.
type StaticLocator struct {
	Lat   *float64
	Lon   *float64
	Label string
}

func (s StaticLocator) Locate(_ context.Context) (Position, error) {
	if s.Lat == nil || s.Lon == nil {
		return Position{}, ErrLocationUnavailable
	}
	c := Coordinate{Latitude: *s.Lat, Longitude: *s.Lon}
	if !c.Valid() {
		return Position{}, fmt.Errorf("coordinates %s out of range: %w", c, ErrLocationUnavailable)
	}
	return Position{Coordinate: c, Label: s.Label}, nil
}

// CityLocator geocodes a configured city name.
type CityLocator struct {
	City     string
	Geocoder Geocoder
}

func (l CityLocator) Locate(ctx context.Context) (Position, error) {
	city := strings.TrimSpace(l.City)
	if city == "" || l.Geocoder == nil {
		return Position{}, ErrLocationUnavailable
	}
	pos, err := l.Geocoder.Geocode(ctx, city)
	if err != nil {
		return Position{}, fmt.Errorf("geocoding %q: %w", city, errors.Join(ErrLocationUnavailable, err))
	}
	if pos.Label == "" {
		pos.Label = city
	}
	return pos, nil
}

// Chain tries each locator in order and returns the first position found.
type Chain []Locator

func (c Chain) Locate(ctx context.Context) (Position, error) {
	var lastErr error
	for _, l := range c {
		pos, err := l.Locate(ctx)
		if err == nil {
			return pos, nil
		}
		if ctx.Err() != nil {
			return Position{}, ctx.Err()
		}
		log.Debug().Err(err).Msg("Locator failed, trying next")
		lastErr = err
	}
	if lastErr == nil || !errors.Is(lastErr, ErrLocationUnavailable) {
		return Position{}, errors.Join(ErrLocationUnavailable, lastErr)
	}
	return Position{}, lastErr
}
