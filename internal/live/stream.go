package live

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/grafov/m3u8"
	"github.com/rs/zerolog/log"
)

const (
	manifestTimeout      = 15 * time.Second
	DefaultRecoveryDelay = time.Second
)

var (
	// ErrNetwork is a fatal transport failure or non-2xx answer while fetching a manifest.
	ErrNetwork = errors.New("stream unreachable")
	// ErrMedia is a fatal manifest problem: unparseable, empty, or without playable variants.
	ErrMedia = errors.New("stream manifest unusable")
)

// Kind is how a channel URL has to be played.
type Kind int

const (
	KindDirect Kind = iota
	KindHLS
)

func (k Kind) String() string {
	if k == KindHLS {
		return "hls"
	}
	return "direct"
}

// DetectKind reports KindHLS when the URL path or query mentions an .m3u8 playlist.
func DetectKind(raw string) Kind {
	u, err := url.Parse(raw)
	if err != nil {
		if strings.Contains(strings.ToLower(raw), ".m3u8") {
			return KindHLS
		}
		return KindDirect
	}
	if strings.Contains(strings.ToLower(u.Path), ".m3u8") || strings.Contains(strings.ToLower(u.RawQuery), ".m3u8") {
		return KindHLS
	}
	return KindDirect
}

// Resolver turns an HLS manifest URL into the media playlist URL to hand to a player.
type Resolver struct {
	client        *resty.Client
	maxBandwidth  int
	maxRecoveries int
	delay         time.Duration
}

type ResolverOptions struct {
	// MaxBandwidth caps variant selection in bits per second. Zero means unlimited.
	MaxBandwidth  int
	MaxRecoveries int
	Delay         time.Duration
	UserAgent     string
}

func NewResolver(opts ResolverOptions) *Resolver {
	if opts.Delay <= 0 {
		opts.Delay = DefaultRecoveryDelay
	}
	if opts.MaxRecoveries < 0 {
		opts.MaxRecoveries = 0
	}
	client := resty.New().SetTimeout(manifestTimeout)
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	return &Resolver{
		client:        client,
		maxBandwidth:  opts.MaxBandwidth,
		maxRecoveries: opts.MaxRecoveries,
		delay:         opts.Delay,
	}
}

// recoveries counts what is left of each recovery kind for one Resolve call.
type recoveries struct {
	network int
	media   int
}

type variant struct {
	url       string
	bandwidth int
}

// Resolve fetches the manifest at manifestURL and returns a playable media playlist URL.
// Network failures re-fetch after a delay; media failures re-parse leniently and then
// fall back to the next variant. Each kind is attempted at most MaxRecoveries times.
func (r *Resolver) Resolve(ctx context.Context, manifestURL string) (string, error) {
	rec := &recoveries{network: r.maxRecoveries, media: r.maxRecoveries}

	playlist, kind, err := r.load(ctx, manifestURL, rec)
	if err != nil {
		return "", err
	}
	if kind == m3u8.MEDIA {
		return manifestURL, nil
	}

	master, ok := playlist.(*m3u8.MasterPlaylist)
	if !ok {
		return "", fmt.Errorf("%w: unexpected playlist type", ErrMedia)
	}
	variants := r.rankVariants(master, manifestURL)
	if len(variants) == 0 {
		return "", fmt.Errorf("%w: no playable variant in %s", ErrMedia, manifestURL)
	}

	var lastErr error
	for i, v := range variants {
		_, kind, err := r.load(ctx, v.url, rec)
		if err == nil && kind == m3u8.MEDIA {
			log.Debug().Str("variant", v.url).Int("bandwidth", v.bandwidth).Msg("Selected HLS variant")
			return v.url, nil
		}
		if err == nil {
			err = fmt.Errorf("%w: variant %s is not a media playlist", ErrMedia, v.url)
		}
		if !errors.Is(err, ErrMedia) {
			return "", err
		}
		lastErr = err
		if i == len(variants)-1 || rec.media == 0 {
			break
		}
		rec.media--
		log.Warn().Err(err).Str("variant", v.url).Msg("Variant unusable, trying next")
	}
	return "", lastErr
}

// load fetches and decodes one playlist, applying network and lenient-parse recovery.
func (r *Resolver) load(ctx context.Context, target string, rec *recoveries) (m3u8.Playlist, m3u8.ListType, error) {
	for {
		body, err := r.fetch(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return nil, 0, ctx.Err()
			}
			if rec.network == 0 {
				return nil, 0, err
			}
			rec.network--
			log.Warn().Err(err).Str("url", target).Int("left", rec.network).Msg("Manifest fetch failed, retrying")
			if err := sleep(ctx, r.delay); err != nil {
				return nil, 0, err
			}
			continue
		}

		playlist, kind, err := decodePlaylist(body, true)
		if err != nil {
			if rec.media == 0 {
				return nil, 0, err
			}
			rec.media--
			log.Warn().Err(err).Str("url", target).Msg("Strict manifest parse failed, retrying leniently")
			playlist, kind, err = decodePlaylist(body, false)
			if err != nil {
				return nil, 0, err
			}
		}
		return playlist, kind, nil
	}
}

func (r *Resolver) fetch(ctx context.Context, target string) ([]byte, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrNetwork, target, resp.StatusCode())
	}
	return resp.Body(), nil
}

func decodePlaylist(body []byte, strict bool) (m3u8.Playlist, m3u8.ListType, error) {
	playlist, kind, err := m3u8.DecodeFrom(bytes.NewReader(body), strict)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMedia, err)
	}
	if playlist == nil {
		return nil, 0, fmt.Errorf("%w: empty manifest", ErrMedia)
	}
	switch kind {
	case m3u8.MEDIA:
		media, ok := playlist.(*m3u8.MediaPlaylist)
		if !ok || media.Count() == 0 {
			return nil, 0, fmt.Errorf("%w: media playlist has no segments", ErrMedia)
		}
	case m3u8.MASTER:
		master, ok := playlist.(*m3u8.MasterPlaylist)
		if !ok || len(master.Variants) == 0 {
			return nil, 0, fmt.Errorf("%w: master playlist has no variants", ErrMedia)
		}
	default:
		return nil, 0, fmt.Errorf("%w: unknown playlist type", ErrMedia)
	}
	return playlist, kind, nil
}

// rankVariants resolves variant URIs and orders them: the highest bandwidth within the cap
// first, then the variants above the cap from the lowest up. Bad URIs are skipped.
func (r *Resolver) rankVariants(master *m3u8.MasterPlaylist, manifestURL string) []variant {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return nil
	}

	var within, above []variant
	for _, v := range master.Variants {
		if v == nil || strings.TrimSpace(v.URI) == "" {
			log.Warn().Str("manifest", manifestURL).Msg("Skipping variant without URI")
			continue
		}
		ref, err := url.Parse(strings.TrimSpace(v.URI))
		if err != nil {
			log.Warn().Err(err).Str("uri", v.URI).Msg("Skipping variant with malformed URI")
			continue
		}
		candidate := variant{url: base.ResolveReference(ref).String(), bandwidth: int(v.Bandwidth)}
		if r.maxBandwidth > 0 && candidate.bandwidth > r.maxBandwidth {
			above = append(above, candidate)
		} else {
			within = append(within, candidate)
		}
	}

	sort.SliceStable(within, func(i, j int) bool { return within[i].bandwidth > within[j].bandwidth })
	sort.SliceStable(above, func(i, j int) bool { return above[i].bandwidth < above[j].bandwidth })
	return append(within, above...)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
