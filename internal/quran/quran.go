// Package quran defines the reciter, edition and surah records served by mp3quran.net.
package quran

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Reciter is a Quran reciter with one or more recorded editions.
type Reciter struct {
	ID     int      `json:"id"`
	Name   string   `json:"name"`
	Letter string   `json:"letter"`
	Date   string   `json:"date"`
	Moshaf []Moshaf `json:"moshaf"`
}

// Moshaf is a single recorded edition of a reciter.
type Moshaf struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Server     string `json:"server"`      // Base URL prefix for audio files
	SurahTotal int    `json:"surah_total"` // Number of surahs recorded
	MoshafType int    `json:"moshaf_type"`
	SurahList  string `json:"surah_list"` // Comma-separated ordered surah IDs
}

// Surah is a chapter of the Quran from the master catalog.
type Surah struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
	Makkia    int    `json:"makkia"` // 1 = Meccan, 0 = Medinan
	Type      int    `json:"type"`
}

const (
	FirstSurah = 1
	LastSurah  = 114
)

// IsMeccan reports whether the surah was revealed in Mecca.
func (s Surah) IsMeccan() bool {
	return s.Makkia == 1
}

// Revelation returns a short label for where the surah was revealed.
func (s Surah) Revelation() string {
	if s.IsMeccan() {
		return "Meccan"
	}
	return "Medinan"
}

// SurahIDs parses the surah list, skipping blank and non-numeric entries.
func (m *Moshaf) SurahIDs() []int {
	parts := strings.Split(m.SurahList, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Has reports whether the edition contains the given surah.
func (m *Moshaf) Has(surahID int) bool {
	return lo.Contains(m.SurahIDs(), surahID)
}

// AudioURL builds the mp3 URL of a surah in this edition.
func (m *Moshaf) AudioURL(surahID int) string {
	server := m.Server
	if server != "" && !strings.HasSuffix(server, "/") {
		server += "/"
	}
	return server + PadSurahID(surahID) + ".mp3"
}

// PadSurahID zero-pads a surah ID to three digits.
func PadSurahID(id int) string {
	return fmt.Sprintf("%03d", id)
}

// FindMoshaf returns the edition with the given ID.
func (r *Reciter) FindMoshaf(id int) (Moshaf, bool) {
	return lo.Find(r.Moshaf, func(m Moshaf) bool { return m.ID == id })
}

// FilterSurahs returns the master surahs present in the edition, in master order.
// Entries of the edition's list that are missing from the master catalog are dropped.
func FilterSurahs(master []Surah, m Moshaf) []Surah {
	wanted := lo.SliceToMap(m.SurahIDs(), func(id int) (int, struct{}) {
		return id, struct{}{}
	})
	return lo.Filter(master, func(s Surah, _ int) bool {
		_, ok := wanted[s.ID]
		return ok
	})
}
