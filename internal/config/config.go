package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"gopkg.in/yaml.v3"
)

const (
	AppName           = "Noor Al-Rahman"
	AppTagline        = "Quran, azkar and prayer times in your terminal"
	AppDescription    = "A terminal companion for Quran recitations, daily azkar, prayer times, nearby mosques and live Islamic TV"
	AppProjectURL     = "https://github.com/noor-alrahman/noor-cli"
	AppProjectShort   = "github.com/noor-alrahman/noor-cli"
	AppQuranSourceURL = "https://mp3quran.net"

	ConfigDir      = ".config/noor"
	ConfigFileName = "config.yml"

	DefaultVolume       = 1.0
	MinVolume           = 0.0
	MaxVolume           = 1.0
	DefaultLanguage     = "ar"
	DefaultRepeatCount  = 1
	MaxRepeatCount      = 99
	DefaultPrayerMethod = 5
	DefaultMosqueRadius = 5000
	MaxMosqueRadius     = 50000
	DefaultLivePlayer   = "mpv"
	DefaultRecoveries   = 3
)

// EndBehavior decides what the player does once a surah has finished all of its repeats.
type EndBehavior string

const (
	EndAdvance EndBehavior = "advance"
	EndStop    EndBehavior = "stop"
)

// ClampVolume ensures volume is within the valid range [0, 1].
func ClampVolume(volume float64) float64 {
	if volume < MinVolume {
		return MinVolume
	}
	if volume > MaxVolume {
		return MaxVolume
	}
	return volume
}

// ClampRepeat keeps the repeat count within [1, MaxRepeatCount].
func ClampRepeat(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxRepeatCount {
		return MaxRepeatCount
	}
	return n
}

// AppVersion can be overridden at build time using ldflags:
// go build -ldflags "-X github.com/noor-alrahman/noor-cli/internal/config.AppVersion=1.0.0"
var AppVersion = "dev"

type Theme struct {
	Background       string `yaml:"background"`
	Foreground       string `yaml:"foreground"`
	Borders          string `yaml:"borders"`
	Highlight        string `yaml:"highlight"`
	MutedVolume      string `yaml:"muted_volume"`
	HeaderBackground string `yaml:"header_background"`
	ListHeaderBg     string `yaml:"list_header_background"`
	ListHeaderFg     string `yaml:"list_header_foreground"`
	HelpBackground   string `yaml:"help_background"`
	HelpForeground   string `yaml:"help_foreground"`
	HelpHotkey       string `yaml:"help_hotkey"`
	TagBackground    string `yaml:"tag_background"`
	ModalBackground  string `yaml:"modal_background"`
}

type Themes struct {
	Dark  Theme `yaml:"dark"`
	Light Theme `yaml:"light"`
}

// Favorite is a surah the user starred. Favorites have set semantics keyed by ID.
type Favorite struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

// Selection remembers the last reciter, moshaf and surah the user played.
type Selection struct {
	ReciterID int `yaml:"reciter_id"`
	MoshafID  int `yaml:"moshaf_id"`
	SurahID   int `yaml:"surah_id"`
}

type Location struct {
	Latitude  *float64 `yaml:"latitude,omitempty"`
	Longitude *float64 `yaml:"longitude,omitempty"`
	City      string   `yaml:"city,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

type Live struct {
	Player        string   `yaml:"player"`
	PlayerArgs    []string `yaml:"player_args,omitempty"`
	NativeHLS     bool     `yaml:"native_hls"`
	MaxBandwidth  int      `yaml:"max_bandwidth"`
	MaxRecoveries int      `yaml:"max_recoveries"`
}

// Config is the single persisted settings record. It is loaded once at startup
// and written back through Save.
type Config struct {
	Volume        float64     `yaml:"volume"`
	Language      string      `yaml:"language"`
	RepeatCount   int         `yaml:"repeat_count"`
	EndBehavior   EndBehavior `yaml:"end_behavior"`
	LastSelection Selection   `yaml:"last_selection"`
	Favorites     []Favorite  `yaml:"favorites"`
	DarkMode      bool        `yaml:"dark_mode"`
	Location      Location    `yaml:"location"`
	PrayerMethod  int         `yaml:"prayer_method"`
	MosqueRadius  int         `yaml:"mosque_radius"`
	AssetsDir     string      `yaml:"assets_dir,omitempty"`
	Live          Live        `yaml:"live"`
	Themes        Themes      `yaml:"themes"`
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(home, ConfigDir, ConfigFileName)
	return configPath, nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.normalize()

	return cfg, nil
}

func (c *Config) normalize() {
	c.Volume = ClampVolume(c.Volume)
	c.RepeatCount = ClampRepeat(c.RepeatCount)

	if c.EndBehavior != EndStop {
		c.EndBehavior = EndAdvance
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.PrayerMethod < 0 {
		c.PrayerMethod = DefaultPrayerMethod
	}
	if c.MosqueRadius <= 0 {
		c.MosqueRadius = DefaultMosqueRadius
	}
	if c.MosqueRadius > MaxMosqueRadius {
		c.MosqueRadius = MaxMosqueRadius
	}
	if c.Live.Player == "" {
		c.Live.Player = DefaultLivePlayer
	}
	if c.Live.MaxRecoveries < 0 {
		c.Live.MaxRecoveries = 0
	}
	if c.Favorites == nil {
		c.Favorites = []Favorite{}
	}
}

// Save writes the configuration to disk atomically using temp file + rename.
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpFile, err := os.CreateTemp(configDir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, configPath); err != nil {
		return fmt.Errorf("failed to rename config file: %w", err)
	}

	tmpPath = "" // Prevent defer from removing the final file
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Volume:       DefaultVolume,
		Language:     DefaultLanguage,
		RepeatCount:  DefaultRepeatCount,
		EndBehavior:  EndAdvance,
		Favorites:    []Favorite{},
		DarkMode:     true,
		PrayerMethod: DefaultPrayerMethod,
		MosqueRadius: DefaultMosqueRadius,
		Live: Live{
			Player:        DefaultLivePlayer,
			MaxRecoveries: DefaultRecoveries,
		},
		Themes: Themes{
			Dark: Theme{
				Background:       "#0f1424",
				Foreground:       "#c9d1e8",
				Borders:          "#2f3a5c",
				Highlight:        "#2dd4bf",
				MutedVolume:      "#fe0702",
				HeaderBackground: "#3b0a3a",
				ListHeaderBg:     "#1f2940",
				ListHeaderFg:     "#d6def2",
				HelpBackground:   "#1c2236",
				HelpForeground:   "#9aa3c6",
				HelpHotkey:       "#2dd4bf",
				TagBackground:    "#1f2940",
				ModalBackground:  "#161b2e",
			},
			Light: Theme{
				Background:       "#f5f5f5",
				Foreground:       "#1f2933",
				Borders:          "#b8bec8",
				Highlight:        "#0d9488",
				MutedVolume:      "#c81e1e",
				HeaderBackground: "#d4d4d4",
				ListHeaderBg:     "#e4e7eb",
				ListHeaderFg:     "#323f4b",
				HelpBackground:   "#eaeaea",
				HelpForeground:   "#52606d",
				HelpHotkey:       "#0d9488",
				TagBackground:    "#e4e7eb",
				ModalBackground:  "#ffffff",
			},
		},
	}
}

// ActiveTheme returns the palette matching the dark mode flag.
func (c *Config) ActiveTheme() Theme {
	if c.DarkMode {
		return c.Themes.Dark
	}
	return c.Themes.Light
}

func (c *Config) IsFavorite(surahID int) bool {
	for _, f := range c.Favorites {
		if f.ID == surahID {
			return true
		}
	}
	return false
}

// ToggleFavorite removes the favorite with the same ID or appends it.
// It returns true when the item is a favorite after the call.
func (c *Config) ToggleFavorite(item Favorite) bool {
	for i, f := range c.Favorites {
		if f.ID == item.ID {
			c.Favorites = append(c.Favorites[:i:i], c.Favorites[i+1:]...)
			return false
		}
	}
	c.Favorites = append(c.Favorites, item)
	return true
}

// CleanupFavorites drops favorites missing from the catalog. An empty catalog leaves them untouched.
func (c *Config) CleanupFavorites(validSurahIDs map[int]bool) {
	if len(validSurahIDs) == 0 {
		return
	}
	cleaned := []Favorite{}
	for _, f := range c.Favorites {
		if validSurahIDs[f.ID] {
			cleaned = append(cleaned, f)
		}
	}
	c.Favorites = cleaned
}

func GetColor(colorStr string) tcell.Color {
	if colorStr == "" || colorStr == "default" {
		return tcell.ColorDefault
	}
	return tcell.GetColor(colorStr)
}
