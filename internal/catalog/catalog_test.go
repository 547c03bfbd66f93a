package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneration(t *testing.T) {
	var g Generation

	first := g.Next()
	assert.True(t, g.Current(first))

	second := g.Next()
	assert.False(t, g.Current(first))
	assert.True(t, g.Current(second))
}

func TestFetchStoresResult(t *testing.T) {
	f := NewFetcher[[]string]("reciters")

	data, err := f.Fetch(context.Background(), func(context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, data)

	snap := f.Snapshot()
	assert.False(t, snap.Loading)
	assert.NoError(t, snap.Err)
	assert.True(t, snap.HasData)
	assert.Equal(t, []string{"a", "b"}, snap.Data)
}

func TestFetchErrorKeepsPreviousData(t *testing.T) {
	f := NewFetcher[int]("surahs")
	boom := errors.New("boom")

	_, err := f.Fetch(context.Background(), func(context.Context) (int, error) { return 114, nil })
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	snap := f.Snapshot()
	assert.False(t, snap.Loading)
	assert.ErrorIs(t, snap.Err, boom)
	assert.Equal(t, 114, snap.Data)
}

func TestLatestRequestWins(t *testing.T) {
	f := NewFetcher[string]("reciter")

	slowStarted := make(chan struct{})
	var wg sync.WaitGroup
	var slowErr error
	var slowCtxErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, slowErr = f.Fetch(context.Background(), func(ctx context.Context) (string, error) {
			close(slowStarted)
			<-ctx.Done()
			slowCtxErr = ctx.Err()
			// A late answer arrives even though the request was cancelled.
			return "slow", nil
		})
	}()

	<-slowStarted
	data, err := f.Fetch(context.Background(), func(context.Context) (string, error) {
		return "fast", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fast", data)

	wg.Wait()
	assert.ErrorIs(t, slowErr, ErrSuperseded)
	assert.ErrorIs(t, slowCtxErr, context.Canceled)
	assert.Equal(t, "fast", f.Snapshot().Data)
}

func TestSupersededErrorNotApplied(t *testing.T) {
	f := NewFetcher[string]("times")

	release := make(chan struct{})
	done := make(chan error, 1)
	started := make(chan struct{})

	go func() {
		_, err := f.Fetch(context.Background(), func(context.Context) (string, error) {
			close(started)
			<-release
			return "", errors.New("stale failure")
		})
		done <- err
	}()

	<-started
	_, err := f.Fetch(context.Background(), func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)

	close(release)
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("stale fetch did not return")
	}

	snap := f.Snapshot()
	assert.NoError(t, snap.Err)
	assert.Equal(t, "ok", snap.Data)
}

func TestLoadingFlag(t *testing.T) {
	f := NewFetcher[int]("mosques")

	inFlight := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = f.Fetch(context.Background(), func(context.Context) (int, error) {
			close(inFlight)
			<-release
			return 1, nil
		})
	}()

	<-inFlight
	assert.True(t, f.Snapshot().Loading)
	close(release)

	assert.Eventually(t, func() bool { return !f.Snapshot().Loading }, time.Second, 5*time.Millisecond)
}
