package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/noor-alrahman/noor-cli/internal/config"
	"github.com/noor-alrahman/noor-cli/internal/geo"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org"

// NominatimClient geocodes place names and labels coordinates via OpenStreetMap Nominatim.
// Nominatim's usage policy requires an identifying User-Agent on every request.
type NominatimClient struct {
	client *resty.Client
}

func NewNominatimClient() *NominatimClient {
	return &NominatimClient{
		client: newNominatimResty(nominatimBaseURL),
	}
}

func newNominatimResty(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader("User-Agent", UserAgent()).
		SetHeader("Accept-Language", "ar,en")
}

// UserAgent identifies the app to third-party services.
func UserAgent() string {
	return fmt.Sprintf("noor-cli/%s (+%s)", config.AppVersion, config.AppProjectURL)
}

type nominatimAddress struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	State   string `json:"state"`
	Country string `json:"country"`
}

func (a nominatimAddress) locality() string {
	for _, s := range []string{a.City, a.Town, a.Village, a.State} {
		if s != "" {
			return s
		}
	}
	return ""
}

type nominatimPlace struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

// Geocode resolves a free-form query to the best matching position.
func (c *NominatimClient) Geocode(ctx context.Context, query string) (geo.Position, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      query,
			"format": "json",
			"limit":  "1",
		}).
		Get("/search")
	if err != nil {
		return geo.Position{}, fmt.Errorf("failed to geocode %q: %w", query, err)
	}

	if err := checkResponse("nominatim", resp); err != nil {
		return geo.Position{}, err
	}

	var places []nominatimPlace
	if err := decode("geocoding", resp.Body(), &places); err != nil {
		return geo.Position{}, err
	}
	if len(places) == 0 {
		return geo.Position{}, fmt.Errorf("no place found for %q", query)
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return geo.Position{}, fmt.Errorf("bad coordinates for %q: %w", query, ErrMalformedResponse)
	}

	return geo.Position{
		Coordinate: geo.Coordinate{Latitude: lat, Longitude: lon},
		Label:      places[0].DisplayName,
	}, nil
}

// Reverse returns a short "locality, country" label for a coordinate.
func (c *NominatimClient) Reverse(ctx context.Context, at geo.Coordinate) (string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":    strconv.FormatFloat(at.Latitude, 'f', -1, 64),
			"lon":    strconv.FormatFloat(at.Longitude, 'f', -1, 64),
			"format": "json",
		}).
		Get("/reverse")
	if err != nil {
		return "", fmt.Errorf("failed to reverse geocode %s: %w", at, err)
	}

	if err := checkResponse("nominatim", resp); err != nil {
		return "", err
	}

	var place nominatimPlace
	if err := decode("reverse geocoding", resp.Body(), &place); err != nil {
		return "", err
	}

	locality := place.Address.locality()
	switch {
	case locality != "" && place.Address.Country != "":
		return locality + ", " + place.Address.Country, nil
	case locality != "":
		return locality, nil
	default:
		return place.DisplayName, nil
	}
}
