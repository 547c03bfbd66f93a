package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memStore(t *testing.T, files map[string]string) *Store {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0644))
	}
	return NewStoreFs(fs)
}

func TestEmbeddedCategories(t *testing.T) {
	store := NewStore("")

	cats, err := store.Categories()
	require.NoError(t, err)
	require.NotEmpty(t, cats)
	assert.Equal(t, "morning", cats[0].Type)

	for _, c := range cats {
		items, err := store.Azkar(c.Type)
		require.NoError(t, err, "category %s", c.Type)
		assert.NotEmpty(t, items, "category %s", c.Type)
	}
}

func TestEmbeddedChannels(t *testing.T) {
	channels, err := NewStore("").Channels()
	require.NoError(t, err)
	require.NotEmpty(t, channels)
	for _, ch := range channels {
		assert.NotEmpty(t, ch.Name)
		assert.NotEmpty(t, ch.URL)
	}
}

func TestCategoriesShapes(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		store := memStore(t, map[string]string{
			AzkarFile: `[{"type":"morning","title":"الصباح","color":"#fff"}]`,
		})
		cats, err := store.Categories()
		require.NoError(t, err)
		require.Len(t, cats, 1)
		assert.Equal(t, "#fff", cats[0].Color)
	})

	t.Run("object with categories", func(t *testing.T) {
		store := memStore(t, map[string]string{
			AzkarFile: `{"categories":[{"type":"a","title":"A"},{"type":"b","title":"B"}]}`,
		})
		cats, err := store.Categories()
		require.NoError(t, err)
		assert.Len(t, cats, 2)
	})

	t.Run("object without categories", func(t *testing.T) {
		store := memStore(t, map[string]string{AzkarFile: `{"morning":[]}`})
		_, err := store.Categories()
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("invalid json", func(t *testing.T) {
		store := memStore(t, map[string]string{AzkarFile: `not json`})
		_, err := store.Categories()
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := memStore(t, nil).Categories()
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAzkarLookup(t *testing.T) {
	store := memStore(t, map[string]string{
		AzkarFile: `{"categories":[{"type":"morning"},{"type":"sleep"}],
			"sleep":[{"id":1,"title":"t","text":"بِاسْمِكَ اللَّهُمَّ أَمُوتُ وَأَحْيَا"}],
			"morning":[{"id":9,"text":"inline should lose"}]}`,
		"azkar-morning.json": `[{"id":1,"title":"a","text":"x","repetition":3},{"id":2,"title":"b","text":"y"}]`,
	})

	t.Run("per-type file wins", func(t *testing.T) {
		items, err := store.Azkar("morning")
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, 3, items[0].Count())
		assert.Equal(t, 1, items[1].Count())
	})

	t.Run("falls back to inline key", func(t *testing.T) {
		items, err := store.Azkar("sleep")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "t", items[0].Title)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := store.Azkar("travel")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("path traversal rejected", func(t *testing.T) {
		_, err := store.Azkar("../secret")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAzkarMalformedFile(t *testing.T) {
	store := memStore(t, map[string]string{
		AzkarFile:            `[]`,
		"azkar-evening.json": `{"oops":true}`,
	})
	_, err := store.Azkar("evening")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestChannels(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantLen int
		wantErr error
	}{
		{"valid", `{"livetv":[{"id":1,"name":"a","url":"http://x/a.m3u8"},{"id":2,"name":"b","url":"http://x/b"}]}`, 2, nil},
		{"empty list", `{"livetv":[]}`, 0, nil},
		{"missing key", `{"channels":[]}`, 0, ErrMalformed},
		{"not an array", `{"livetv":{"id":1}}`, 0, ErrMalformed},
		{"bare array", `[{"id":1}]`, 0, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memStore(t, map[string]string{ChannelsFile: tt.content})
			channels, err := store.Channels()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, channels, tt.wantLen)
		})
	}
}

func TestOverrideDirShadowsEmbedded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ChannelsFile),
		[]byte(`{"livetv":[{"id":42,"name":"local","url":"http://localhost/live.m3u8"}]}`), 0644))

	store := NewStore(dir)

	channels, err := store.Channels()
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, 42, channels[0].ID)

	// Files absent from the override directory still come from the bundle.
	cats, err := store.Categories()
	require.NoError(t, err)
	assert.NotEmpty(t, cats)
}
