package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/noor-alrahman/noor-cli/internal/api"
	"github.com/noor-alrahman/noor-cli/internal/catalog"
	"github.com/noor-alrahman/noor-cli/internal/geo"
	"github.com/samber/lo"
)

const (
	DefaultMosqueName    = "Mosque"
	UnknownAddress       = "Unknown address"
	UnknownDistanceLabel = "unknown"
)

type MosqueFinder interface {
	FindMosques(ctx context.Context, at geo.Coordinate, radius int) ([]api.OverpassElement, error)
}

// Mosque is a place of worship near the user. Distance is nil when the element had no coordinates.
type Mosque struct {
	ID         int64
	Name       string
	Address    string
	Coordinate *geo.Coordinate
	Distance   *float64
}

func (m Mosque) DistanceLabel() string {
	if m.Distance == nil {
		return UnknownDistanceLabel
	}
	return geo.FormatDistance(*m.Distance)
}

// MapURL links to the mosque on OpenStreetMap.
func (m Mosque) MapURL() string {
	if m.Coordinate == nil {
		return ""
	}
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%.6f&mlon=%.6f#map=18/%.6f/%.6f",
		m.Coordinate.Latitude, m.Coordinate.Longitude, m.Coordinate.Latitude, m.Coordinate.Longitude)
}

type NearbyMosques struct {
	Origin  geo.Position
	Radius  int
	Mosques []Mosque
}

type MosqueService struct {
	locator geo.Locator
	finder  MosqueFinder
	radius  int
	fetcher *catalog.Fetcher[*NearbyMosques]
}

func NewMosqueService(locator geo.Locator, finder MosqueFinder, radius int) *MosqueService {
	return &MosqueService{
		locator: locator,
		finder:  finder,
		radius:  radius,
		fetcher: catalog.NewFetcher[*NearbyMosques]("mosques"),
	}
}

// Load locates the user once and lists mosques within the radius, nearest first.
func (s *MosqueService) Load(ctx context.Context) (*NearbyMosques, error) {
	return s.fetcher.Fetch(ctx, func(ctx context.Context) (*NearbyMosques, error) {
		pos, err := s.locator.Locate(ctx)
		if err != nil {
			return nil, err
		}

		elements, err := s.finder.FindMosques(ctx, pos.Coordinate, s.radius)
		if err != nil {
			return nil, fmt.Errorf("failed to find mosques: %w", err)
		}

		return &NearbyMosques{
			Origin:  pos,
			Radius:  s.radius,
			Mosques: ToMosques(pos.Coordinate, elements),
		}, nil
	})
}

func (s *MosqueService) State() catalog.Snapshot[*NearbyMosques] {
	return s.fetcher.Snapshot()
}

// ToMosques converts Overpass elements and sorts them by distance, unknown distances last.
func ToMosques(origin geo.Coordinate, elements []api.OverpassElement) []Mosque {
	mosques := lo.Map(elements, func(e api.OverpassElement, _ int) Mosque {
		m := Mosque{
			ID:      e.ID,
			Name:    mosqueName(e.Tags),
			Address: mosqueAddress(e.Tags),
		}
		if c, ok := e.Coordinate(); ok {
			d := geo.Haversine(origin, c)
			m.Coordinate = &c
			m.Distance = &d
		}
		return m
	})

	sort.SliceStable(mosques, func(i, j int) bool {
		a, b := mosques[i].Distance, mosques[j].Distance
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a < *b
	})
	return mosques
}

func mosqueName(tags map[string]string) string {
	for _, key := range []string{"name", "name:ar", "name:en"} {
		if v := strings.TrimSpace(tags[key]); v != "" {
			return v
		}
	}
	return DefaultMosqueName
}

func mosqueAddress(tags map[string]string) string {
	street := strings.TrimSpace(tags["addr:street"])
	if street == "" {
		return UnknownAddress
	}
	if n := strings.TrimSpace(tags["addr:housenumber"]); n != "" {
		street = n + " " + street
	}
	if city := strings.TrimSpace(tags["addr:city"]); city != "" {
		street += ", " + city
	}
	return street
}
