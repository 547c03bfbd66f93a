package service

import (
	"context"
	"image"
	"time"

	"github.com/noor-alrahman/noor-cli/internal/azkar"
	"github.com/noor-alrahman/noor-cli/internal/catalog"
	"github.com/noor-alrahman/noor-cli/internal/live"
	"github.com/rs/zerolog/log"
)

const imageLoadTimeout = 15 * time.Second

type AzkarSource interface {
	Categories() ([]azkar.Category, error)
	Azkar(kind string) ([]azkar.Zikr, error)
}

type ChannelSource interface {
	Channels() ([]live.Channel, error)
}

type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) (image.Image, error)
}

// AzkarService serves the azkar categories and the texts of the open category.
type AzkarService struct {
	source     AzkarSource
	categories *catalog.Fetcher[[]azkar.Category]
	texts      *catalog.Fetcher[[]azkar.Zikr]
}

func NewAzkarService(source AzkarSource) *AzkarService {
	return &AzkarService{
		source:     source,
		categories: catalog.NewFetcher[[]azkar.Category]("azkar-categories"),
		texts:      catalog.NewFetcher[[]azkar.Zikr]("azkar"),
	}
}

func (s *AzkarService) LoadCategories(ctx context.Context) ([]azkar.Category, error) {
	return s.categories.Fetch(ctx, func(context.Context) ([]azkar.Category, error) {
		return s.source.Categories()
	})
}

// LoadAzkar reads the texts of one category. Opening another category supersedes it.
func (s *AzkarService) LoadAzkar(ctx context.Context, kind string) ([]azkar.Zikr, error) {
	return s.texts.Fetch(ctx, func(context.Context) ([]azkar.Zikr, error) {
		return s.source.Azkar(kind)
	})
}

func (s *AzkarService) CategoriesState() catalog.Snapshot[[]azkar.Category] {
	return s.categories.Snapshot()
}

func (s *AzkarService) AzkarState() catalog.Snapshot[[]azkar.Zikr] {
	return s.texts.Snapshot()
}

// ChannelService lists live TV channels and their logos.
type ChannelService struct {
	source   ChannelSource
	images   ImageFetcher
	channels *catalog.Fetcher[[]live.Channel]
}

// NewChannelService creates the service. images may be nil, in which case logos are not shown.
func NewChannelService(source ChannelSource, images ImageFetcher) *ChannelService {
	return &ChannelService{
		source:   source,
		images:   images,
		channels: catalog.NewFetcher[[]live.Channel]("channels"),
	}
}

// Load reads the channel list with every category filled in.
func (s *ChannelService) Load(ctx context.Context) ([]live.Channel, error) {
	return s.channels.Fetch(ctx, func(context.Context) ([]live.Channel, error) {
		channels, err := s.source.Channels()
		if err != nil {
			return nil, err
		}
		return live.Categorize(channels), nil
	})
}

func (s *ChannelService) State() catalog.Snapshot[[]live.Channel] {
	return s.channels.Snapshot()
}

// LoadLogo returns the channel logo, or nil when it has none or it cannot be fetched.
func (s *ChannelService) LoadLogo(ctx context.Context, ch live.Channel) image.Image {
	if s.images == nil || ch.Logo == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, imageLoadTimeout)
	defer cancel()

	img, err := s.images.FetchImage(ctx, ch.Logo)
	if err != nil {
		log.Debug().Err(err).Str("url", ch.Logo).Msg("Failed to load channel logo")
		return nil
	}
	return img
}
