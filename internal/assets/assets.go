// Package assets serves the bundled azkar and live TV JSON files. A directory from
// the settings may shadow any of them file by file.
package assets

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"github.com/noor-alrahman/noor-cli/internal/azkar"
	"github.com/noor-alrahman/noor-cli/internal/live"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	AzkarFile    = "azkar.json"
	ChannelsFile = "livetv.json"
)

var (
	ErrMalformed = errors.New("invalid data")
	ErrNotFound  = errors.New("not found")
)

//go:embed data/*.json
var embedded embed.FS

var categoryType = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Store reads assets from an afero filesystem.
type Store struct {
	fs afero.Fs
}

// NewStore returns a store over the embedded assets, layered under overrideDir when set.
func NewStore(overrideDir string) *Store {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err)
	}
	base := afero.FromIOFS{FS: sub}

	if overrideDir == "" {
		return NewStoreFs(base)
	}

	log.Debug().Str("dir", overrideDir).Msg("Using asset override directory")
	layer := afero.NewBasePathFs(afero.NewOsFs(), overrideDir)
	return NewStoreFs(afero.NewCopyOnWriteFs(base, layer))
}

// NewStoreFs returns a store over an arbitrary filesystem.
func NewStoreFs(fsys afero.Fs) *Store {
	return &Store{fs: fsys}
}

func (s *Store) read(name string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// azkarIndex is the object form of azkar.json. Texts may be inlined under the category type.
type azkarIndex struct {
	Categories []azkar.Category
	Inline     map[string]json.RawMessage
}

func (s *Store) loadIndex() (*azkarIndex, error) {
	data, err := s.read(AzkarFile)
	if err != nil {
		return nil, err
	}

	var list []azkar.Category
	if err := json.Unmarshal(data, &list); err == nil {
		return &azkarIndex{Categories: list}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%s: %w", AzkarFile, errors.Join(ErrMalformed, err))
	}

	idx := &azkarIndex{Inline: obj}
	if raw, ok := obj["categories"]; ok {
		if err := json.Unmarshal(raw, &idx.Categories); err != nil {
			return nil, fmt.Errorf("%s categories: %w", AzkarFile, errors.Join(ErrMalformed, err))
		}
	}
	return idx, nil
}

// Categories returns the azkar categories.
func (s *Store) Categories() ([]azkar.Category, error) {
	idx, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	if idx.Categories == nil {
		return nil, fmt.Errorf("%s has no categories: %w", AzkarFile, ErrMalformed)
	}
	return idx.Categories, nil
}

// Azkar returns the texts of one category from azkar-<type>.json, or from the
// <type> key of azkar.json when that file does not exist.
func (s *Store) Azkar(kind string) ([]azkar.Zikr, error) {
	if !categoryType.MatchString(kind) {
		return nil, fmt.Errorf("azkar category %q: %w", kind, ErrNotFound)
	}

	name := "azkar-" + kind + ".json"
	data, err := s.read(name)
	if err == nil {
		var items []azkar.Zikr
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%s: %w", name, errors.Join(ErrMalformed, err))
		}
		return items, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	idx, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	raw, ok := idx.Inline[kind]
	if !ok {
		return nil, fmt.Errorf("azkar category %q: %w", kind, ErrNotFound)
	}

	var items []azkar.Zikr
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%s[%s]: %w", AzkarFile, kind, errors.Join(ErrMalformed, err))
	}
	return items, nil
}

// Channels returns the live TV channel list.
func (s *Store) Channels() ([]live.Channel, error) {
	data, err := s.read(ChannelsFile)
	if err != nil {
		return nil, err
	}

	var response struct {
		LiveTV *[]live.Channel `json:"livetv"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%s: %w", ChannelsFile, errors.Join(ErrMalformed, err))
	}
	if response.LiveTV == nil {
		return nil, fmt.Errorf("%s has no livetv array: %w", ChannelsFile, ErrMalformed)
	}

	return *response.LiveTV, nil
}
