package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
)

func setupMP3QuranServer(handler http.HandlerFunc) (*httptest.Server, *MP3QuranClient) {
	server := httptest.NewServer(handler)
	client := &MP3QuranClient{
		client: resty.New().SetBaseURL(server.URL),
	}
	return server, client
}

const recitersJSON = `{"reciters":[
 {"id":1,"name":"إبراهيم الأخضر","letter":"إ","date":"2020-01-01","moshaf":[
  {"id":1,"name":"حفص عن عاصم - مرتل","server":"https://server6.mp3quran.net/akdr/","surah_total":114,"moshaf_type":11,"surah_list":"1,2,3"}]},
 {"id":2,"name":"أحمد العجمي","letter":"أ","moshaf":[]}
]}`

func TestGetReciters(t *testing.T) {
	server, client := setupMP3QuranServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reciters" {
			t.Errorf("Expected path /reciters, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("language"); got != "ar" {
			t.Errorf("language = %q, want ar", got)
		}
		if r.URL.Query().Has("reciter") {
			t.Error("reciter query param should not be set")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(recitersJSON))
	})
	defer server.Close()

	reciters, err := client.GetReciters(context.Background(), "ar")
	if err != nil {
		t.Fatalf("GetReciters() error = %v", err)
	}

	if len(reciters) != 2 {
		t.Fatalf("GetReciters() returned %d reciters, want 2", len(reciters))
	}
	if reciters[0].Name != "إبراهيم الأخضر" {
		t.Errorf("reciters[0].Name = %q", reciters[0].Name)
	}
	if len(reciters[0].Moshaf) != 1 || reciters[0].Moshaf[0].SurahList != "1,2,3" {
		t.Errorf("reciters[0].Moshaf = %+v", reciters[0].Moshaf)
	}
}

func TestGetReciter(t *testing.T) {
	server, client := setupMP3QuranServer(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("reciter"); got != "1" {
			t.Errorf("reciter = %q, want 1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(recitersJSON))
	})
	defer server.Close()

	reciter, err := client.GetReciter(context.Background(), 1, "ar")
	if err != nil {
		t.Fatalf("GetReciter() error = %v", err)
	}
	if reciter.ID != 1 {
		t.Errorf("GetReciter().ID = %d, want 1", reciter.ID)
	}
}

func TestGetReciterNotFound(t *testing.T) {
	server, client := setupMP3QuranServer(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"reciters":[]}`))
	})
	defer server.Close()

	_, err := client.GetReciter(context.Background(), 99, "ar")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("GetReciter() error = %v, want ErrMalformedResponse", err)
	}
}

func TestGetSurahs(t *testing.T) {
	server, client := setupMP3QuranServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/suwar" {
			t.Errorf("Expected path /suwar, got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"suwar":[
			{"id":1,"name":"الفاتحة","start_page":1,"end_page":1,"makkia":1,"type":0},
			{"id":2,"name":"البقرة","start_page":2,"end_page":49,"makkia":0,"type":1}]}`))
	})
	defer server.Close()

	surahs, err := client.GetSurahs(context.Background(), "ar")
	if err != nil {
		t.Fatalf("GetSurahs() error = %v", err)
	}
	if len(surahs) != 2 {
		t.Fatalf("GetSurahs() returned %d surahs, want 2", len(surahs))
	}
	if !surahs[0].IsMeccan() || surahs[1].IsMeccan() {
		t.Errorf("makkia flags not decoded: %+v", surahs)
	}
	if surahs[1].EndPage != 49 {
		t.Errorf("surahs[1].EndPage = %d, want 49", surahs[1].EndPage)
	}
}

func TestMP3QuranErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  int
		malformed bool
	}{
		{"server error", http.StatusInternalServerError, "oops", 500, false},
		{"not found", http.StatusNotFound, "", 404, false},
		{"invalid json", http.StatusOK, "not valid json", 0, true},
		{"error object", http.StatusOK, `{"error":"maintenance"}`, 0, true},
		{"null list", http.StatusOK, `{"suwar":null}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, client := setupMP3QuranServer(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			defer server.Close()

			_, err := client.GetSurahs(context.Background(), "ar")
			if err == nil {
				t.Fatal("GetSurahs() should return error")
			}

			var statusErr *StatusError
			if tt.wantCode != 0 {
				if !errors.As(err, &statusErr) {
					t.Fatalf("error %v is not a StatusError", err)
				}
				if statusErr.Code != tt.wantCode {
					t.Errorf("StatusError.Code = %d, want %d", statusErr.Code, tt.wantCode)
				}
			}
			if tt.malformed && !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("error %v is not ErrMalformedResponse", err)
			}
		})
	}
}

func TestGetRecitersMissingList(t *testing.T) {
	server, client := setupMP3QuranServer(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"maintenance"}`))
	})
	defer server.Close()

	reciters, err := client.GetReciters(context.Background(), "ar")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("GetReciters() error = %v, want ErrMalformedResponse", err)
	}
	if reciters != nil {
		t.Errorf("GetReciters() = %v, want nil", reciters)
	}
}

func TestGetSurahsEmptyList(t *testing.T) {
	server, client := setupMP3QuranServer(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"suwar":[]}`))
	})
	defer server.Close()

	surahs, err := client.GetSurahs(context.Background(), "ar")
	if err != nil {
		t.Fatalf("GetSurahs() error = %v", err)
	}
	if len(surahs) != 0 {
		t.Errorf("len(surahs) = %d, want 0", len(surahs))
	}
}

func TestGetRecitersCancelled(t *testing.T) {
	server, client := setupMP3QuranServer(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(recitersJSON))
	})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.GetReciters(ctx, "ar"); !errors.Is(err, context.Canceled) {
		t.Errorf("GetReciters() error = %v, want context.Canceled", err)
	}
}

func TestNewMP3QuranClient(t *testing.T) {
	client := NewMP3QuranClient()

	if client == nil {
		t.Fatal("NewMP3QuranClient() returned nil")
	}
	if client.client == nil {
		t.Error("NewMP3QuranClient() client.client is nil")
	}
}
