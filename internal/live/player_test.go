package live

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTarget(t *testing.T) {
	_, err := sanitizeTarget("--script=evil.lua")
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = sanitizeTarget("   ")
	assert.ErrorIs(t, err, ErrInvalidTarget)

	got, err := sanitizeTarget(" https://a/b.m3u8 ")
	require.NoError(t, err)
	assert.Equal(t, "https://a/b.m3u8", got)
}

func TestExternalPlayerArgs(t *testing.T) {
	mpv := NewExternalPlayer("mpv", []string{"--volume=50"})
	args := mpv.args("https://a/b.m3u8", "Quran\nTV")
	assert.Contains(t, args, "--no-terminal")
	assert.Contains(t, args, "--force-media-title=Quran TV")
	assert.Equal(t, "--volume=50", args[len(args)-2])
	assert.Equal(t, "https://a/b.m3u8", args[len(args)-1])

	vlc := NewExternalPlayer("/usr/bin/vlc", nil)
	assert.Equal(t, []string{"https://a/b.m3u8"}, vlc.args("https://a/b.m3u8", "Quran"))
}

func TestExternalPlayerNotFound(t *testing.T) {
	p := NewExternalPlayer("noor-no-such-player-binary", nil)
	err := p.Play(context.Background(), "https://a/b.m3u8", "x")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestExternalPlayerWaitBeforePlay(t *testing.T) {
	p := NewExternalPlayer("mpv", nil)
	select {
	case <-p.Wait():
	default:
		t.Fatal("Wait() should be closed before anything was played")
	}
	assert.NoError(t, p.Close())
}

func TestExternalPlayerRunsAndCloses(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}

	p := NewExternalPlayer("sleep", nil)
	// sleep takes the target as its duration.
	require.NoError(t, p.Play(context.Background(), "30", "x"))

	select {
	case <-p.Wait():
		t.Fatal("player exited too early")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, p.Close())
	select {
	case <-p.Wait():
	case <-time.After(2 * time.Second):
		t.Fatal("player did not exit after Close")
	}
}
