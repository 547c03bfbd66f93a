package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/noor-alrahman/noor-cli/internal/prayer"
)

const aladhanBaseURL = "https://api.aladhan.com/v1"

// AladhanClient fetches prayer timings from api.aladhan.com.
type AladhanClient struct {
	client *resty.Client
}

func NewAladhanClient() *AladhanClient {
	return &AladhanClient{
		client: resty.New().
			SetBaseURL(aladhanBaseURL).
			SetTimeout(requestTimeout),
	}
}

// GetTimings fetches today's timings for a coordinate using the given calculation method.
func (c *AladhanClient) GetTimings(ctx context.Context, lat, lon float64, method int) (*prayer.Day, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":  strconv.FormatFloat(lat, 'f', -1, 64),
			"longitude": strconv.FormatFloat(lon, 'f', -1, 64),
			"method":    strconv.Itoa(method),
		}).
		Get("/timings")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prayer times: %w", err)
	}

	if err := checkResponse("aladhan", resp); err != nil {
		return nil, err
	}

	var response struct {
		Code int         `json:"code"`
		Data *prayer.Day `json:"data"`
	}
	if err := decode("prayer times", resp.Body(), &response); err != nil {
		return nil, err
	}

	if response.Data == nil || response.Data.Timings.Fajr == "" {
		return nil, fmt.Errorf("prayer times response has no timings: %w", ErrMalformedResponse)
	}

	return response.Data, nil
}
