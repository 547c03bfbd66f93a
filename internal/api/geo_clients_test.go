package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/noor-alrahman/noor-cli/internal/geo"
)

func TestGetTimings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/timings" {
			t.Errorf("Expected path /timings, got %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("latitude") != "21.4225" || q.Get("longitude") != "39.8262" || q.Get("method") != "5" {
			t.Errorf("unexpected query %v", q)
		}
		_, _ = w.Write([]byte(`{"code":200,"status":"OK","data":{
			"timings":{"Fajr":"04:55","Sunrise":"06:12","Dhuhr":"12:00","Asr":"15:22","Maghrib":"17:48","Isha":"19:18"},
			"date":{"readable":"15 Oct 2026","hijri":{"date":"04-05-1448","day":"04","month":{"number":5,"en":"Jumādá al-ūlá","ar":"جمادى الأولى"},"year":"1448"}},
			"meta":{"latitude":21.4225,"longitude":39.8262,"timezone":"Asia/Riyadh","method":{"id":5,"name":"Egyptian General Authority of Survey"}}}}`))
	}))
	defer server.Close()

	client := &AladhanClient{client: resty.New().SetBaseURL(server.URL)}

	day, err := client.GetTimings(context.Background(), 21.4225, 39.8262, 5)
	if err != nil {
		t.Fatalf("GetTimings() error = %v", err)
	}
	if day.Timings.Fajr != "04:55" || day.Timings.Isha != "19:18" {
		t.Errorf("GetTimings().Timings = %+v", day.Timings)
	}
	if day.Meta.Timezone != "Asia/Riyadh" {
		t.Errorf("GetTimings().Meta.Timezone = %q", day.Meta.Timezone)
	}
	if day.Date.Hijri.Year != "1448" {
		t.Errorf("GetTimings().Date.Hijri.Year = %q", day.Date.Hijri.Year)
	}
}

func TestGetTimingsMissingData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":200,"data":null}`))
	}))
	defer server.Close()

	client := &AladhanClient{client: resty.New().SetBaseURL(server.URL)}

	if _, err := client.GetTimings(context.Background(), 0, 0, 5); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("GetTimings() error = %v, want ErrMalformedResponse", err)
	}
}

func TestMosqueQuery(t *testing.T) {
	q := MosqueQuery(geo.Coordinate{Latitude: 30.0444, Longitude: 31.2357}, 5000)

	for _, want := range []string{
		"[out:json]",
		`node["amenity"="place_of_worship"]["religion"="muslim"](around:5000,30.0444,31.2357);`,
		`way["amenity"="place_of_worship"]["religion"="muslim"](around:5000,30.0444,31.2357);`,
		`relation["amenity"="place_of_worship"]["religion"="muslim"](around:5000,30.0444,31.2357);`,
		"out center;",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("MosqueQuery() = %q, missing %q", q, want)
		}
	}
}

func TestFindMosques(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/interpreter" {
			t.Errorf("Expected path /interpreter, got %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if !strings.Contains(r.PostForm.Get("data"), "(around:1000,") {
			t.Errorf("data = %q", r.PostForm.Get("data"))
		}
		_, _ = w.Write([]byte(`{"elements":[
			{"type":"node","id":1,"lat":30.05,"lon":31.24,"tags":{"name":"مسجد الحسين","addr:street":"شارع الأزهر"}},
			{"type":"way","id":2,"center":{"lat":30.06,"lon":31.25},"tags":{"name":"Al-Azhar"}},
			{"type":"relation","id":3,"tags":{}}]}`))
	}))
	defer server.Close()

	client := &OverpassClient{client: resty.New().SetBaseURL(server.URL)}

	elements, err := client.FindMosques(context.Background(), geo.Coordinate{Latitude: 30.0444, Longitude: 31.2357}, 1000)
	if err != nil {
		t.Fatalf("FindMosques() error = %v", err)
	}
	if len(elements) != 3 {
		t.Fatalf("FindMosques() returned %d elements, want 3", len(elements))
	}

	if c, ok := elements[0].Coordinate(); !ok || c.Latitude != 30.05 {
		t.Errorf("node coordinate = %v, %v", c, ok)
	}
	if c, ok := elements[1].Coordinate(); !ok || c.Longitude != 31.25 {
		t.Errorf("way center coordinate = %v, %v", c, ok)
	}
	if _, ok := elements[2].Coordinate(); ok {
		t.Error("relation without center should have no coordinate")
	}
}

func TestNominatimGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("Expected path /search, got %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "noor-cli/") {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		if r.URL.Query().Get("q") == "nowhere" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"lat":"30.0444","lon":"31.2357","display_name":"القاهرة، مصر"}]`))
	}))
	defer server.Close()

	client := &NominatimClient{client: newNominatimResty(server.URL)}

	pos, err := client.Geocode(context.Background(), "Cairo")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if pos.Latitude != 30.0444 || pos.Longitude != 31.2357 {
		t.Errorf("Geocode() = %+v", pos)
	}
	if pos.Label != "القاهرة، مصر" {
		t.Errorf("Geocode().Label = %q", pos.Label)
	}

	if _, err := client.Geocode(context.Background(), "nowhere"); err == nil {
		t.Error("Geocode() should fail for empty results")
	}
}

func TestNominatimReverse(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"city and country", `{"display_name":"long","address":{"city":"Cairo","country":"Egypt"}}`, "Cairo, Egypt"},
		{"town only", `{"display_name":"long","address":{"town":"Siwa"}}`, "Siwa"},
		{"display name fallback", `{"display_name":"Somewhere","address":{}}`, "Somewhere"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/reverse" {
					t.Errorf("Expected path /reverse, got %s", r.URL.Path)
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := &NominatimClient{client: newNominatimResty(server.URL)}
			label, err := client.Reverse(context.Background(), geo.Coordinate{Latitude: 1, Longitude: 2})
			if err != nil {
				t.Fatalf("Reverse() error = %v", err)
			}
			if label != tt.expected {
				t.Errorf("Reverse() = %q, want %q", label, tt.expected)
			}
		})
	}
}
