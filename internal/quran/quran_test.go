package quran

import (
	"reflect"
	"testing"
)

func masterCatalog() []Surah {
	surahs := make([]Surah, 0, LastSurah)
	for id := FirstSurah; id <= LastSurah; id++ {
		surahs = append(surahs, Surah{ID: id, Name: PadSurahID(id)})
	}
	return surahs
}

func TestSurahIDs(t *testing.T) {
	tests := []struct {
		name     string
		list     string
		expected []int
	}{
		{"simple list", "1,2,3", []int{1, 2, 3}},
		{"keeps order", "114,1,18", []int{114, 1, 18}},
		{"blank entries", "1,,2, ,3,", []int{1, 2, 3}},
		{"non-numeric entries", "1,abc,2", []int{1, 2}},
		{"spaces around ids", " 5 , 6 ", []int{5, 6}},
		{"empty list", "", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Moshaf{SurahList: tt.list}
			got := m.SurahIDs()
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("SurahIDs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAudioURL(t *testing.T) {
	tests := []struct {
		name     string
		server   string
		surahID  int
		expected string
	}{
		{"single digit", "https://server6.mp3quran.net/akdr/", 1, "https://server6.mp3quran.net/akdr/001.mp3"},
		{"two digits", "https://server6.mp3quran.net/akdr/", 18, "https://server6.mp3quran.net/akdr/018.mp3"},
		{"three digits", "https://server6.mp3quran.net/akdr/", 114, "https://server6.mp3quran.net/akdr/114.mp3"},
		{"missing trailing slash", "https://server6.mp3quran.net/akdr", 2, "https://server6.mp3quran.net/akdr/002.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Moshaf{Server: tt.server}
			if got := m.AudioURL(tt.surahID); got != tt.expected {
				t.Errorf("AudioURL(%d) = %q, want %q", tt.surahID, got, tt.expected)
			}
		})
	}
}

func TestFilterSurahs(t *testing.T) {
	master := masterCatalog()

	tests := []struct {
		name     string
		list     string
		expected []int
	}{
		{"full edition", "", nil},
		{"partial edition in master order", "36,1,18,67", []int{1, 18, 36, 67}},
		{"unknown ids dropped", "1,200,2", []int{1, 2}},
		{"empty edition", ",,", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := tt.list
			expected := tt.expected
			if expected == nil {
				ids := make([]int, 0, LastSurah)
				for id := FirstSurah; id <= LastSurah; id++ {
					ids = append(ids, id)
					if list != "" {
						list += ","
					}
					list += PadSurahID(id)
				}
				expected = ids
			}

			got := FilterSurahs(master, Moshaf{SurahList: list})
			if len(got) != len(expected) {
				t.Fatalf("FilterSurahs() returned %d surahs, want %d", len(got), len(expected))
			}
			for i, s := range got {
				if s.ID != expected[i] {
					t.Errorf("FilterSurahs()[%d].ID = %d, want %d", i, s.ID, expected[i])
				}
			}
		})
	}
}

func TestFilterSurahsLengthMatchesEdition(t *testing.T) {
	m := Moshaf{SurahList: "2,3,4,5,6,7,8,9,10"}
	got := FilterSurahs(masterCatalog(), m)
	if len(got) != len(m.SurahIDs()) {
		t.Errorf("len(FilterSurahs()) = %d, want %d", len(got), len(m.SurahIDs()))
	}
}

func TestFindMoshaf(t *testing.T) {
	r := Reciter{
		ID:   5,
		Name: "reciter",
		Moshaf: []Moshaf{
			{ID: 1, Name: "حفص عن عاصم - مرتل"},
			{ID: 2, Name: "ورش عن نافع - مرتل"},
		},
	}

	m, ok := r.FindMoshaf(2)
	if !ok {
		t.Fatal("FindMoshaf(2) returned false")
	}
	if m.Name != "ورش عن نافع - مرتل" {
		t.Errorf("FindMoshaf(2).Name = %q", m.Name)
	}

	if _, ok := r.FindMoshaf(99); ok {
		t.Error("FindMoshaf(99) returned true, want false")
	}
}

func TestHas(t *testing.T) {
	m := Moshaf{SurahList: "1,2,114"}
	if !m.Has(114) {
		t.Error("Has(114) = false, want true")
	}
	if m.Has(3) {
		t.Error("Has(3) = true, want false")
	}
}

func TestRevelation(t *testing.T) {
	if got := (Surah{Makkia: 1}).Revelation(); got != "Meccan" {
		t.Errorf("Revelation() = %q, want Meccan", got)
	}
	if got := (Surah{Makkia: 0}).Revelation(); got != "Medinan" {
		t.Errorf("Revelation() = %q, want Medinan", got)
	}
}
