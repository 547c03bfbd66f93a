// Package cache keeps downloaded recitations and channel logos on disk.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultExpiry is how long cached logos are valid (7 days).
	DefaultExpiry = 7 * 24 * time.Hour
	// AudioExpiry is how long downloaded recitations are kept (30 days).
	AudioExpiry = 30 * 24 * time.Hour

	ImageSubdir = "images"
	AudioSubdir = "audio"

	// AppName is used for the cache directory name.
	AppName = "noor"

	downloadTimeout = 10 * time.Minute
)

// Cache manages the on-disk audio and image caches.
type Cache struct {
	baseDir     string
	expiry      time.Duration
	audioExpiry time.Duration
	http        *resty.Client
}

// NewCache creates a new Cache rooted at the user cache directory.
func NewCache() (*Cache, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return nil, err
	}
	return New(cacheDir), nil
}

// New creates a Cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{
		baseDir:     dir,
		expiry:      DefaultExpiry,
		audioExpiry: AudioExpiry,
		http: resty.New().
			SetTimeout(downloadTimeout).
			SetHeader("User-Agent", "noor-cli"),
	}
}

// GetCacheDir returns the platform-specific cache directory for the application.
func GetCacheDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}

	return filepath.Join(userCacheDir, AppName), nil
}

func hashURL(url string) string {
	hash := md5.Sum([]byte(url))
	return hex.EncodeToString(hash[:])
}

func (c *Cache) imagePath(url string) string {
	return filepath.Join(c.baseDir, ImageSubdir, hashURL(url)+".png")
}

// AudioPath returns where the audio at url is stored. The file may not exist yet.
func (c *Cache) AudioPath(url string) string {
	ext := strings.ToLower(path.Ext(strings.SplitN(url, "?", 2)[0]))
	if ext == "" || len(ext) > 5 {
		ext = ".mp3"
	}
	return filepath.Join(c.baseDir, AudioSubdir, hashURL(url)+ext)
}

func fresh(p string, expiry time.Duration) bool {
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) > expiry {
		if err := os.Remove(p); err != nil {
			log.Debug().Err(err).Str("file", p).Msg("Failed to remove expired cache file")
		}
		return false
	}
	return info.Size() > 0
}

// FetchAudio returns a local path holding the audio at url, downloading it on a miss.
// Partial downloads never replace a complete file.
func (c *Cache) FetchAudio(ctx context.Context, url string) (string, error) {
	dest := c.AudioPath(url)
	if fresh(dest, c.audioExpiry) {
		log.Debug().Str("url", url).Msg("Audio cache hit")
		return dest, nil
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetOutput(tmpPath).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to download audio: %w", err)
	}
	if !resp.IsSuccess() {
		return "", &DownloadError{URL: url, Code: resp.StatusCode()}
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("failed to store audio: %w", err)
	}
	tmpPath = ""

	ev := log.Debug().Str("url", url).Dur("took", time.Since(start))
	if info, err := os.Stat(dest); err == nil {
		ev = ev.Int64("bytes", info.Size())
	}
	ev.Msg("Audio downloaded")

	return dest, nil
}

// DownloadError reports a non-2xx answer for a media download.
type DownloadError struct {
	URL  string
	Code int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download of %s returned status %d", e.URL, e.Code)
}

// GetImage retrieves a cached image by URL. Returns nil if not found or expired.
func (c *Cache) GetImage(url string) image.Image {
	imagePath := c.imagePath(url)
	if !fresh(imagePath, c.expiry) {
		return nil
	}

	file, err := os.Open(imagePath)
	if err != nil {
		return nil
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		log.Debug().Err(err).Str("file", imagePath).Msg("Failed to decode cached image")
		return nil
	}

	return img
}

// SaveImage stores an image in the cache, keyed by its URL.
func (c *Cache) SaveImage(url string, img image.Image) error {
	imagePath := c.imagePath(url)

	if err := os.MkdirAll(filepath.Dir(imagePath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	file, err := os.Create(imagePath)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	return nil
}

// FetchImage returns the logo at url, from the cache when possible.
func (c *Cache) FetchImage(ctx context.Context, url string) (image.Image, error) {
	if img := c.GetImage(url); img != nil {
		return img, nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		return nil, &DownloadError{URL: url, Code: resp.StatusCode()}
	}

	img, _, err := image.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if err := c.SaveImage(url, img); err != nil {
		log.Debug().Err(err).Str("url", url).Msg("Failed to cache image")
	}

	return img, nil
}

// CleanExpired removes cache files older than their expiry.
func (c *Cache) CleanExpired() error {
	if err := c.cleanDir(filepath.Join(c.baseDir, ImageSubdir), c.expiry); err != nil {
		return err
	}
	return c.cleanDir(filepath.Join(c.baseDir, AudioSubdir), c.audioExpiry)
}

func (c *Cache) cleanDir(dir string, expiry time.Duration) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	now := time.Now()
	var removed, failed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.Debug().Err(err).Str("file", entry.Name()).Msg("Failed to get file info")
			continue
		}

		// Partial downloads older than an hour are abandoned.
		stale := strings.HasPrefix(entry.Name(), ".download-") && now.Sub(info.ModTime()) > time.Hour
		if stale || now.Sub(info.ModTime()) > expiry {
			filePath := filepath.Join(dir, entry.Name())
			if err := os.Remove(filePath); err != nil {
				log.Debug().Err(err).Str("file", filePath).Msg("Failed to remove expired cache file")
				failed++
			} else {
				removed++
			}
		}
	}

	if removed > 0 || failed > 0 {
		log.Debug().Str("dir", dir).Int("removed", removed).Int("failed", failed).Msg("Cache cleanup completed")
	}

	return nil
}
