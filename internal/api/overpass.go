package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/noor-alrahman/noor-cli/internal/geo"
)

const overpassBaseURL = "https://overpass-api.de/api"

// OverpassClient runs Overpass QL queries against the public interpreter.
type OverpassClient struct {
	client *resty.Client
}

func NewOverpassClient() *OverpassClient {
	return &OverpassClient{
		client: resty.New().
			SetBaseURL(overpassBaseURL).
			SetTimeout(requestTimeout),
	}
}

type OverpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// OverpassElement is a node, way or relation. Ways and relations carry a center.
type OverpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat,omitempty"`
	Lon    *float64          `json:"lon,omitempty"`
	Center *OverpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// Coordinate returns the node position or the way/relation center.
func (e OverpassElement) Coordinate() (geo.Coordinate, bool) {
	if e.Lat != nil && e.Lon != nil {
		return geo.Coordinate{Latitude: *e.Lat, Longitude: *e.Lon}, true
	}
	if e.Center != nil {
		return geo.Coordinate{Latitude: e.Center.Lat, Longitude: e.Center.Lon}, true
	}
	return geo.Coordinate{}, false
}

// MosqueQuery builds the Overpass QL query for Muslim places of worship within radius metres.
func MosqueQuery(c geo.Coordinate, radius int) string {
	around := fmt.Sprintf("(around:%d,%s,%s)", radius,
		strconv.FormatFloat(c.Latitude, 'f', -1, 64),
		strconv.FormatFloat(c.Longitude, 'f', -1, 64))
	filter := `["amenity"="place_of_worship"]["religion"="muslim"]`

	return "[out:json];(" +
		"node" + filter + around + ";" +
		"way" + filter + around + ";" +
		"relation" + filter + around + ";" +
		");out center;"
}

// Query posts an Overpass QL query and returns the matching elements.
func (c *OverpassClient) Query(ctx context.Context, query string) ([]OverpassElement, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"data": query}).
		Post("/interpreter")
	if err != nil {
		return nil, fmt.Errorf("failed to query overpass: %w", err)
	}

	if err := checkResponse("overpass", resp); err != nil {
		return nil, err
	}

	var response struct {
		Elements []OverpassElement `json:"elements"`
	}
	if err := decode("overpass", resp.Body(), &response); err != nil {
		return nil, err
	}

	return response.Elements, nil
}

// FindMosques returns the mosques around c within radius metres.
func (c *OverpassClient) FindMosques(ctx context.Context, at geo.Coordinate, radius int) ([]OverpassElement, error) {
	return c.Query(ctx, MosqueQuery(at, radius))
}
