package service

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/noor-alrahman/noor-cli/internal/api"
	"github.com/noor-alrahman/noor-cli/internal/assets"
	"github.com/noor-alrahman/noor-cli/internal/cache"
	"github.com/noor-alrahman/noor-cli/internal/catalog"
	"github.com/noor-alrahman/noor-cli/internal/geo"
	"github.com/noor-alrahman/noor-cli/internal/live"
	"github.com/noor-alrahman/noor-cli/internal/prayer"
	"github.com/noor-alrahman/noor-cli/internal/quran"
)

type fakeQuranAPI struct {
	reciters []quran.Reciter
	surahs   []quran.Surah
	err      error
	block    chan struct{}
}

func (f *fakeQuranAPI) GetReciters(ctx context.Context, _ string) ([]quran.Reciter, error) {
	return f.reciters, f.err
}

func (f *fakeQuranAPI) GetReciter(ctx context.Context, id int, _ string) (*quran.Reciter, error) {
	if f.block != nil && id == 1 {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	for _, r := range f.reciters {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, api.ErrMalformedResponse
}

func (f *fakeQuranAPI) GetSurahs(ctx context.Context, _ string) ([]quran.Surah, error) {
	return f.surahs, f.err
}

func testCatalog() *fakeQuranAPI {
	return &fakeQuranAPI{
		reciters: []quran.Reciter{
			{ID: 1, Name: "Mishary Alafasy", Moshaf: []quran.Moshaf{{ID: 10, Name: "Hafs", Server: "https://s/a/", SurahList: "1,2,114"}}},
			{ID: 2, Name: "Abdul Basit", Moshaf: []quran.Moshaf{{ID: 20, Name: "Mujawwad", Server: "https://s/b", SurahList: "2,1"}}},
			{ID: 3, Name: "Saad Al-Ghamdi"},
		},
		surahs: []quran.Surah{
			{ID: 1, Name: "Al-Fatiha"},
			{ID: 2, Name: "Al-Baqarah"},
			{ID: 3, Name: "Aal-Imran"},
			{ID: 114, Name: "An-Nas"},
		},
	}
}

func TestQuranServiceLoad(t *testing.T) {
	s := NewQuranService(testCatalog(), "eng")

	if _, err := s.LoadReciters(context.Background()); err != nil {
		t.Fatalf("LoadReciters() error = %v", err)
	}
	if _, err := s.LoadSurahs(context.Background()); err != nil {
		t.Fatalf("LoadSurahs() error = %v", err)
	}

	if got := len(s.Reciters()); got != 3 {
		t.Errorf("Reciters() returned %d, want 3", got)
	}
	if st := s.RecitersState(); st.Loading || st.Err != nil || !st.HasData {
		t.Errorf("RecitersState() = %+v", st)
	}

	tests := []struct {
		id       int
		expected int
	}{
		{1, 0},
		{3, 2},
		{99, -1},
	}
	for _, tt := range tests {
		if got := s.FindReciterIndex(tt.id); got != tt.expected {
			t.Errorf("FindReciterIndex(%d) = %d, want %d", tt.id, got, tt.expected)
		}
	}

	valid := s.ValidSurahIDs()
	if len(valid) != 4 || !valid[114] || valid[5] {
		t.Errorf("ValidSurahIDs() = %v", valid)
	}

	if got := s.SurahName(2); got != "Al-Baqarah" {
		t.Errorf("SurahName(2) = %q", got)
	}
	if got := s.SurahName(50); got != "050" {
		t.Errorf("SurahName(50) = %q, want 050", got)
	}
}

func TestQuranServiceLoadError(t *testing.T) {
	fake := testCatalog()
	fake.err = &api.StatusError{Service: "mp3quran", Code: 500, Status: "500 Internal Server Error"}
	s := NewQuranService(fake, "eng")

	_, err := s.LoadReciters(context.Background())
	var statusErr *api.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("LoadReciters() error = %v, want StatusError", err)
	}
	st := s.RecitersState()
	if st.Loading || st.Err == nil {
		t.Errorf("RecitersState() = %+v, want stopped loading with error", st)
	}
	if len(s.Reciters()) != 0 {
		t.Error("Reciters() should be empty after a failed first load")
	}
}

func TestSurahsForFollowsMasterOrder(t *testing.T) {
	s := NewQuranService(testCatalog(), "eng")
	_, _ = s.LoadSurahs(context.Background())

	got := s.SurahsFor(quran.Moshaf{SurahList: "114,2,1"})
	want := []int{1, 2, 114}
	if len(got) != len(want) {
		t.Fatalf("SurahsFor() returned %d surahs, want %d", len(got), len(want))
	}
	for i, su := range got {
		if su.ID != want[i] {
			t.Errorf("SurahsFor()[%d].ID = %d, want %d", i, su.ID, want[i])
		}
	}
}

func TestLoadReciterSuperseded(t *testing.T) {
	fake := testCatalog()
	fake.block = make(chan struct{})
	s := NewQuranService(fake, "eng")

	slow := make(chan error, 1)
	go func() {
		_, err := s.LoadReciter(context.Background(), 1)
		slow <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !s.ReciterState().Loading {
		if time.Now().After(deadline) {
			t.Fatal("slow request never started")
		}
		time.Sleep(time.Millisecond)
	}

	r, err := s.LoadReciter(context.Background(), 2)
	if err != nil {
		t.Fatalf("LoadReciter(2) error = %v", err)
	}
	close(fake.block)

	if err := <-slow; !errors.Is(err, catalog.ErrSuperseded) {
		t.Errorf("slow LoadReciter() error = %v, want ErrSuperseded", err)
	}
	if got := s.ReciterState().Data; got == nil || got.ID != r.ID {
		t.Errorf("ReciterState().Data = %+v, want reciter 2", got)
	}
}

func TestFilterReciters(t *testing.T) {
	reciters := testCatalog().reciters

	tests := []struct {
		query    string
		expected []int
	}{
		{"", []int{1, 2, 3}},
		{"  ", []int{1, 2, 3}},
		{"mishary", []int{1}},
		{"BASIT", []int{2}},
		{"al", []int{1, 2, 3}},
		{"xyz", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := FilterReciters(reciters, tt.query)
			if len(got) != len(tt.expected) {
				t.Fatalf("FilterReciters(%q) returned %d, want %d", tt.query, len(got), len(tt.expected))
			}
			for i, r := range got {
				if r.ID != tt.expected[i] {
					t.Errorf("FilterReciters(%q)[%d].ID = %d, want %d", tt.query, i, r.ID, tt.expected[i])
				}
			}
		})
	}
}

func TestFilterSurahs(t *testing.T) {
	surahs := testCatalog().surahs

	if got := FilterSurahs(surahs, "114"); len(got) != 1 || got[0].ID != 114 {
		t.Errorf("FilterSurahs(114) = %+v", got)
	}
	if got := FilterSurahs(surahs, "baqara"); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("FilterSurahs(baqara) = %+v", got)
	}
	if got := FilterSurahs(surahs, ""); len(got) != len(surahs) {
		t.Errorf("FilterSurahs(\"\") returned %d, want all", len(got))
	}
}

func TestQueue(t *testing.T) {
	reciter := quran.Reciter{Name: "Mishary"}
	m := quran.Moshaf{Name: "Hafs", Server: "https://s/a"}
	queue := Queue(reciter, m, []quran.Surah{{ID: 1, Name: "Al-Fatiha"}, {ID: 36, Name: "Ya-Sin"}})

	if len(queue) != 2 {
		t.Fatalf("Queue() returned %d items, want 2", len(queue))
	}
	src, err := queue[1].Source()
	if err != nil {
		t.Fatalf("Source() error = %v", err)
	}
	if src != "https://s/a/036.mp3" {
		t.Errorf("Source() = %q, want https://s/a/036.mp3", src)
	}
	if queue[0].Artist != "Mishary · Hafs" {
		t.Errorf("Artist = %q", queue[0].Artist)
	}
}

type fakeLocator struct {
	pos geo.Position
	err error
}

func (f fakeLocator) Locate(context.Context) (geo.Position, error) { return f.pos, f.err }

type fakeTimings struct {
	day       *prayer.Day
	err       error
	lat, lon  float64
	gotMethod int
}

func (f *fakeTimings) GetTimings(_ context.Context, lat, lon float64, method int) (*prayer.Day, error) {
	f.lat, f.lon, f.gotMethod = lat, lon, method
	return f.day, f.err
}

type fakeReverse struct {
	label string
	err   error
	calls int
}

func (f *fakeReverse) Reverse(context.Context, geo.Coordinate) (string, error) {
	f.calls++
	return f.label, f.err
}

func TestPrayerServiceLoad(t *testing.T) {
	day := &prayer.Day{Timings: prayer.Timings{Fajr: "04:30", Sunrise: "06:00", Dhuhr: "12:10", Asr: "15:30", Maghrib: "18:20", Isha: "19:45"}}
	timings := &fakeTimings{day: day}
	reverse := &fakeReverse{label: "Cairo, Egypt"}
	loc := fakeLocator{pos: geo.Position{Coordinate: geo.Coordinate{Latitude: 30.04, Longitude: 31.24}}}

	s := NewPrayerService(loc, timings, reverse, 5)
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if timings.lat != 30.04 || timings.lon != 31.24 || timings.gotMethod != 5 {
		t.Errorf("GetTimings called with %v,%v method %d", timings.lat, timings.lon, timings.gotMethod)
	}
	if got.Label() != "Cairo, Egypt" {
		t.Errorf("Label() = %q, want Cairo, Egypt", got.Label())
	}
	if got.Day != day {
		t.Error("Load() did not return the fetched day")
	}
}

func TestPrayerServiceReverseFailureIsNonFatal(t *testing.T) {
	day := &prayer.Day{Timings: prayer.Timings{Fajr: "04:30"}}
	reverse := &fakeReverse{err: errors.New("rate limited")}
	loc := fakeLocator{pos: geo.Position{Coordinate: geo.Coordinate{Latitude: 21.42, Longitude: 39.83}}}

	s := NewPrayerService(loc, &fakeTimings{day: day}, reverse, 4)
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Label() != "21.4200, 39.8300" {
		t.Errorf("Label() = %q, want coordinates", got.Label())
	}
}

func TestPrayerServiceSkipsReverseWithLabel(t *testing.T) {
	reverse := &fakeReverse{label: "ignored"}
	loc := fakeLocator{pos: geo.Position{Label: "Istanbul"}}

	s := NewPrayerService(loc, &fakeTimings{day: &prayer.Day{}}, reverse, 13)
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reverse.calls != 0 {
		t.Errorf("Reverse called %d times, want 0", reverse.calls)
	}
	if got.Label() != "Istanbul" {
		t.Errorf("Label() = %q", got.Label())
	}
}

func TestPrayerServiceLocationUnavailable(t *testing.T) {
	timings := &fakeTimings{}
	s := NewPrayerService(fakeLocator{err: geo.ErrLocationUnavailable}, timings, nil, 5)

	_, err := s.Load(context.Background())
	if !errors.Is(err, geo.ErrLocationUnavailable) {
		t.Fatalf("Load() error = %v, want ErrLocationUnavailable", err)
	}
	if timings.gotMethod != 0 {
		t.Error("timings must not be requested without a location")
	}
	if st := s.State(); st.Loading || st.Err == nil {
		t.Errorf("State() = %+v", st)
	}
}

func fp(f float64) *float64 { return &f }

func TestToMosques(t *testing.T) {
	origin := geo.Coordinate{Latitude: 30.0444, Longitude: 31.2357}
	elements := []api.OverpassElement{
		{Type: "way", ID: 1, Tags: map[string]string{"name": "Far"}, Center: &api.OverpassCenter{Lat: 30.10, Lon: 31.30}},
		{Type: "relation", ID: 2, Tags: map[string]string{}},
		{Type: "node", ID: 3, Lat: fp(30.045), Lon: fp(31.236), Tags: map[string]string{
			"name:ar": "مسجد قريب", "addr:street": "Tahrir St", "addr:housenumber": "5", "addr:city": "Cairo",
		}},
	}

	got := ToMosques(origin, elements)
	if len(got) != 3 {
		t.Fatalf("ToMosques() returned %d, want 3", len(got))
	}

	wantOrder := []int64{3, 1, 2}
	for i, m := range got {
		if m.ID != wantOrder[i] {
			t.Errorf("ToMosques()[%d].ID = %d, want %d", i, m.ID, wantOrder[i])
		}
	}

	if got[0].Name != "مسجد قريب" || got[0].Address != "5 Tahrir St, Cairo" {
		t.Errorf("nearest mosque = %+v", got[0])
	}
	if got[2].Name != DefaultMosqueName || got[2].Address != UnknownAddress {
		t.Errorf("untagged mosque = %+v", got[2])
	}
	if got[2].Distance != nil || got[2].DistanceLabel() != UnknownDistanceLabel {
		t.Errorf("mosque without coordinates distance label = %q", got[2].DistanceLabel())
	}
	if got[2].MapURL() != "" {
		t.Error("MapURL() should be empty without coordinates")
	}
	if *got[0].Distance >= *got[1].Distance {
		t.Error("mosques should be sorted by distance ascending")
	}
	if label := got[1].DistanceLabel(); len(label) < 4 || label[len(label)-3:] != " km" {
		t.Errorf("DistanceLabel() = %q, want km suffix", label)
	}
}

type fakeFinder struct {
	elements []api.OverpassElement
	radius   int
}

func (f *fakeFinder) FindMosques(_ context.Context, _ geo.Coordinate, radius int) ([]api.OverpassElement, error) {
	f.radius = radius
	return f.elements, nil
}

func TestMosqueServiceLoad(t *testing.T) {
	finder := &fakeFinder{}
	loc := fakeLocator{pos: geo.Position{Coordinate: geo.Coordinate{Latitude: 1, Longitude: 1}}}
	s := NewMosqueService(loc, finder, 5000)

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if finder.radius != 5000 {
		t.Errorf("radius = %d, want 5000", finder.radius)
	}
	if len(got.Mosques) != 0 {
		t.Errorf("Mosques = %v, want empty", got.Mosques)
	}
}

func TestAzkarService(t *testing.T) {
	s := NewAzkarService(assets.NewStore(""))

	categories, err := s.LoadCategories(context.Background())
	if err != nil {
		t.Fatalf("LoadCategories() error = %v", err)
	}
	if len(categories) == 0 {
		t.Fatal("LoadCategories() returned no categories")
	}

	texts, err := s.LoadAzkar(context.Background(), categories[0].Type)
	if err != nil {
		t.Fatalf("LoadAzkar(%q) error = %v", categories[0].Type, err)
	}
	if len(texts) == 0 {
		t.Errorf("LoadAzkar(%q) returned no texts", categories[0].Type)
	}

	if _, err := s.LoadAzkar(context.Background(), "does-not-exist"); !errors.Is(err, assets.ErrNotFound) {
		t.Errorf("LoadAzkar(unknown) error = %v, want ErrNotFound", err)
	}
	if st := s.AzkarState(); st.Err == nil || !st.HasData {
		t.Errorf("AzkarState() = %+v, want error with previous data kept", st)
	}
}

func TestChannelServiceLoad(t *testing.T) {
	s := NewChannelService(assets.NewStore(""), nil)

	channels, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(channels) == 0 {
		t.Fatal("Load() returned no channels")
	}
	for _, ch := range channels {
		if ch.Category == "" {
			t.Errorf("channel %q has no category", ch.Name)
		}
	}

	if s.LoadLogo(context.Background(), channels[0]) != nil {
		t.Error("LoadLogo() without an image fetcher should return nil")
	}
}

func TestChannelServiceLoadLogo(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: 0, G: 128, B: 0, A: 255})
		}
	}

	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requestCount++
		w.Header().Set("Content-Type", "image/png")
		_ = png.Encode(w, img)
	}))
	defer server.Close()

	s := NewChannelService(nil, cache.New(t.TempDir()))
	ch := live.Channel{Name: "Quran", Logo: server.URL + "/logo.png"}

	first := s.LoadLogo(context.Background(), ch)
	if first == nil {
		t.Fatal("LoadLogo() returned nil")
	}
	if b := first.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Errorf("LoadLogo() size = %dx%d, want 20x20", b.Dx(), b.Dy())
	}

	if second := s.LoadLogo(context.Background(), ch); second == nil {
		t.Fatal("second LoadLogo() returned nil")
	}
	if requestCount != 1 {
		t.Errorf("logo requested %d times, want 1 (second from cache)", requestCount)
	}

	if s.LoadLogo(context.Background(), live.Channel{Name: "No logo"}) != nil {
		t.Error("LoadLogo() for a channel without logo should be nil")
	}
}

func TestChannelServiceLoadLogoFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := NewChannelService(nil, cache.New(t.TempDir()))
	if img := s.LoadLogo(context.Background(), live.Channel{Logo: server.URL + "/x.png"}); img != nil {
		t.Error("LoadLogo() should return nil on failure")
	}
}
