package api

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/noor-alrahman/noor-cli/internal/quran"
)

const (
	mp3QuranBaseURL = "https://mp3quran.net/api/v3"
	requestTimeout  = 30 * time.Second
)

// MP3QuranClient is the HTTP client for the mp3quran.net v3 API.
type MP3QuranClient struct {
	client *resty.Client
}

// NewMP3QuranClient creates a new mp3quran.net API client with sensible defaults.
func NewMP3QuranClient() *MP3QuranClient {
	return &MP3QuranClient{
		client: resty.New().
			SetBaseURL(mp3QuranBaseURL).
			SetTimeout(requestTimeout),
	}
}

// GetReciters fetches every reciter with their editions.
func (c *MP3QuranClient) GetReciters(ctx context.Context, language string) ([]quran.Reciter, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("language", language).
		Get("/reciters")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reciters: %w", err)
	}

	if err := checkResponse("mp3quran", resp); err != nil {
		return nil, err
	}

	var response struct {
		Reciters *[]quran.Reciter `json:"reciters"`
	}
	if err := decode("reciters", resp.Body(), &response); err != nil {
		return nil, err
	}
	if response.Reciters == nil {
		return nil, fmt.Errorf("reciters response has no reciters list: %w", ErrMalformedResponse)
	}

	return *response.Reciters, nil
}

// GetReciter fetches a single reciter by ID.
func (c *MP3QuranClient) GetReciter(ctx context.Context, id int, language string) (*quran.Reciter, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"language": language,
			"reciter":  strconv.Itoa(id),
		}).
		Get("/reciters")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reciter %d: %w", id, err)
	}

	if err := checkResponse("mp3quran", resp); err != nil {
		return nil, err
	}

	var response struct {
		Reciters *[]quran.Reciter `json:"reciters"`
	}
	if err := decode("reciter", resp.Body(), &response); err != nil {
		return nil, err
	}
	if response.Reciters == nil || len(*response.Reciters) == 0 {
		return nil, fmt.Errorf("reciter %d not found: %w", id, ErrMalformedResponse)
	}

	return &(*response.Reciters)[0], nil
}

// GetSurahs fetches the master surah catalog.
func (c *MP3QuranClient) GetSurahs(ctx context.Context, language string) ([]quran.Surah, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("language", language).
		Get("/suwar")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch surahs: %w", err)
	}

	if err := checkResponse("mp3quran", resp); err != nil {
		return nil, err
	}

	var response struct {
		Suwar *[]quran.Surah `json:"suwar"`
	}
	if err := decode("surahs", resp.Body(), &response); err != nil {
		return nil, err
	}
	if response.Suwar == nil {
		return nil, fmt.Errorf("surahs response has no suwar list: %w", ErrMalformedResponse)
	}

	return *response.Suwar, nil
}
