// Package service provides the business logic layer between the remote catalogs and the UI.
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/noor-alrahman/noor-cli/internal/catalog"
	"github.com/noor-alrahman/noor-cli/internal/player"
	"github.com/noor-alrahman/noor-cli/internal/quran"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// QuranAPI is the subset of the mp3quran client the service needs.
type QuranAPI interface {
	GetReciters(ctx context.Context, language string) ([]quran.Reciter, error)
	GetReciter(ctx context.Context, id int, language string) (*quran.Reciter, error)
	GetSurahs(ctx context.Context, language string) ([]quran.Surah, error)
}

// QuranService manages reciters, the surah catalog and the selected reciter.
type QuranService struct {
	api      QuranAPI
	language string

	reciters *catalog.Fetcher[[]quran.Reciter]
	surahs   *catalog.Fetcher[[]quran.Surah]
	reciter  *catalog.Fetcher[*quran.Reciter]
}

func NewQuranService(api QuranAPI, language string) *QuranService {
	return &QuranService{
		api:      api,
		language: language,
		reciters: catalog.NewFetcher[[]quran.Reciter]("reciters"),
		surahs:   catalog.NewFetcher[[]quran.Surah]("surahs"),
		reciter:  catalog.NewFetcher[*quran.Reciter]("reciter"),
	}
}

func (s *QuranService) LoadReciters(ctx context.Context) ([]quran.Reciter, error) {
	return s.reciters.Fetch(ctx, func(ctx context.Context) ([]quran.Reciter, error) {
		reciters, err := s.api.GetReciters(ctx, s.language)
		if err != nil {
			return nil, err
		}
		log.Debug().Int("count", len(reciters)).Msg("Reciters loaded")
		return reciters, nil
	})
}

func (s *QuranService) LoadSurahs(ctx context.Context) ([]quran.Surah, error) {
	return s.surahs.Fetch(ctx, func(ctx context.Context) ([]quran.Surah, error) {
		return s.api.GetSurahs(ctx, s.language)
	})
}

// LoadReciter fetches one reciter with its editions. Selecting another reciter while
// this request is in flight supersedes it.
func (s *QuranService) LoadReciter(ctx context.Context, id int) (*quran.Reciter, error) {
	return s.reciter.Fetch(ctx, func(ctx context.Context) (*quran.Reciter, error) {
		return s.api.GetReciter(ctx, id, s.language)
	})
}

func (s *QuranService) RecitersState() catalog.Snapshot[[]quran.Reciter] {
	return s.reciters.Snapshot()
}

func (s *QuranService) SurahsState() catalog.Snapshot[[]quran.Surah] {
	return s.surahs.Snapshot()
}

func (s *QuranService) ReciterState() catalog.Snapshot[*quran.Reciter] {
	return s.reciter.Snapshot()
}

// Reciters returns a copy of the last loaded reciter list.
func (s *QuranService) Reciters() []quran.Reciter {
	data, _ := s.reciters.Data()
	result := make([]quran.Reciter, len(data))
	copy(result, data)
	return result
}

// Surahs returns a copy of the master surah catalog.
func (s *QuranService) Surahs() []quran.Surah {
	data, _ := s.surahs.Data()
	result := make([]quran.Surah, len(data))
	copy(result, data)
	return result
}

// SurahsFor returns the surahs an edition actually contains, in master catalog order.
func (s *QuranService) SurahsFor(m quran.Moshaf) []quran.Surah {
	master, _ := s.surahs.Data()
	return quran.FilterSurahs(master, m)
}

// ValidSurahIDs returns the ids of the master catalog, for pruning stale favorites.
func (s *QuranService) ValidSurahIDs() map[int]bool {
	master, _ := s.surahs.Data()
	return lo.SliceToMap(master, func(su quran.Surah) (int, bool) {
		return su.ID, true
	})
}

// SurahName returns the catalog name of a surah, or its padded number when unknown.
func (s *QuranService) SurahName(id int) string {
	master, _ := s.surahs.Data()
	if su, ok := lo.Find(master, func(su quran.Surah) bool { return su.ID == id }); ok {
		return su.Name
	}
	return quran.PadSurahID(id)
}

func (s *QuranService) FindReciterIndex(id int) int {
	data, _ := s.reciters.Data()
	_, idx, ok := lo.FindIndexOf(data, func(r quran.Reciter) bool { return r.ID == id })
	if !ok {
		return -1
	}
	return idx
}

// SearchReciters returns the reciters whose name fuzzily matches query.
func (s *QuranService) SearchReciters(query string) []quran.Reciter {
	return FilterReciters(s.Reciters(), query)
}

func FilterReciters(reciters []quran.Reciter, query string) []quran.Reciter {
	query = strings.TrimSpace(query)
	if query == "" {
		return reciters
	}
	return lo.Filter(reciters, func(r quran.Reciter, _ int) bool {
		return fuzzy.MatchNormalizedFold(query, r.Name)
	})
}

// FilterSurahs matches a surah by fuzzy name or by its number.
func FilterSurahs(surahs []quran.Surah, query string) []quran.Surah {
	query = strings.TrimSpace(query)
	if query == "" {
		return surahs
	}
	if n, err := strconv.Atoi(query); err == nil {
		return lo.Filter(surahs, func(su quran.Surah, _ int) bool { return su.ID == n })
	}
	return lo.Filter(surahs, func(su quran.Surah, _ int) bool {
		return fuzzy.MatchNormalizedFold(query, su.Name)
	})
}

// Queue builds the play queue for an edition.
func Queue(reciter quran.Reciter, m quran.Moshaf, surahs []quran.Surah) []player.Item {
	edition := m
	return lo.Map(surahs, func(su quran.Surah, _ int) player.Item {
		return player.Item{
			ID:      su.ID,
			Title:   su.Name,
			Artist:  fmt.Sprintf("%s · %s", reciter.Name, m.Name),
			Edition: &edition,
		}
	})
}
