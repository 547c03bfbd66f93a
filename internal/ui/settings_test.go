package ui

import (
	"sync"
	"testing"
	"time"

	"github.com/noor-alrahman/noor-cli/internal/config"
)

func TestConfigWriterSavesNewest(t *testing.T) {
	var mu sync.Mutex
	volume := 0.0
	var saved []float64

	w := newConfigWriter(func() *config.Config {
		mu.Lock()
		defer mu.Unlock()
		return &config.Config{Volume: volume}
	})
	w.save = func(c *config.Config) error {
		mu.Lock()
		saved = append(saved, c.Volume)
		mu.Unlock()
		time.Sleep(time.Millisecond)
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		w.run(stop)
		close(done)
	}()

	for i := 1; i <= 50; i++ {
		mu.Lock()
		volume = float64(i) / 100
		mu.Unlock()
		w.request()
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		last := -1.0
		if len(saved) > 0 {
			last = saved[len(saved)-1]
		}
		mu.Unlock()
		if last == 0.5 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("last saved volume = %v, want 0.5", last)
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(stop)
	<-done

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(saved); i++ {
		if saved[i] < saved[i-1] {
			t.Errorf("save %d wrote %v after %v", i, saved[i], saved[i-1])
		}
	}
}

func TestConfigWriterFlush(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := config.DefaultConfig()
	cfg.Volume = 0.35
	cfg.Favorites = []config.Favorite{{ID: 18, Name: "Al-Kahf"}}

	newConfigWriter(func() *config.Config { return cfg }).flush()

	loaded, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Volume != 0.35 {
		t.Errorf("Volume = %v, want 0.35", loaded.Volume)
	}
	if !loaded.IsFavorite(18) {
		t.Error("favorite 18 was not saved")
	}
}
