// Package prayer models daily prayer timings as returned by the Aladhan API.
package prayer

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidTime = errors.New("invalid prayer time")

// Timings holds the raw "HH:MM" (optionally suffixed with a zone) strings per prayer.
type Timings struct {
	Fajr    string `json:"Fajr"`
	Sunrise string `json:"Sunrise"`
	Dhuhr   string `json:"Dhuhr"`
	Asr     string `json:"Asr"`
	Maghrib string `json:"Maghrib"`
	Isha    string `json:"Isha"`
}

type HijriMonth struct {
	Number int    `json:"number"`
	En     string `json:"en"`
	Ar     string `json:"ar"`
}

type HijriDate struct {
	Date  string     `json:"date"`
	Day   string     `json:"day"`
	Month HijriMonth `json:"month"`
	Year  string     `json:"year"`
}

type Date struct {
	Readable string    `json:"readable"`
	Hijri    HijriDate `json:"hijri"`
}

type Method struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Meta struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Method    Method  `json:"method"`
}

// Day is one day of timings for a location.
type Day struct {
	Timings Timings `json:"timings"`
	Date    Date    `json:"date"`
	Meta    Meta    `json:"meta"`
}

// Prayer is a named prayer at a concrete instant.
type Prayer struct {
	Name string
	Time time.Time
}

// Names lists the five daily prayers in order.
var Names = []string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}

// TimingNames are the displayed timings, sunrise included.
var TimingNames = []string{"Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha"}

// ArabicNames maps prayer names to their Arabic labels.
var ArabicNames = map[string]string{
	"Fajr":    "الفجر",
	"Sunrise": "الشروق",
	"Dhuhr":   "الظهر",
	"Asr":     "العصر",
	"Maghrib": "المغرب",
	"Isha":    "العشاء",
}

// Get returns the raw time string for the named prayer.
func (t Timings) Get(name string) string {
	switch name {
	case "Fajr":
		return t.Fajr
	case "Sunrise":
		return t.Sunrise
	case "Dhuhr":
		return t.Dhuhr
	case "Asr":
		return t.Asr
	case "Maghrib":
		return t.Maghrib
	case "Isha":
		return t.Isha
	}
	return ""
}

// Clock strips an optional zone suffix, "04:32 (AST)" becomes "04:32".
func Clock(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, ' '); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

// ParseClock parses an "HH:MM" time on the date of day, in day's location.
func ParseClock(raw string, day time.Time) (time.Time, error) {
	clock := Clock(raw)
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return time.Time{}, fmt.Errorf("%w %q", ErrInvalidTime, raw)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return time.Time{}, fmt.Errorf("%w %q", ErrInvalidTime, raw)
	}
	y, mo, d := day.Date()
	return time.Date(y, mo, d, h, m, 0, 0, day.Location()), nil
}

// Location returns the day's time zone, falling back to fallback when unknown.
func (d *Day) Location(fallback *time.Location) *time.Location {
	if d.Meta.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(d.Meta.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// Schedule returns the five prayers of the day containing now, in order.
func (d *Day) Schedule(now time.Time) ([]Prayer, error) {
	prayers := make([]Prayer, 0, len(Names))
	for _, name := range Names {
		at, err := ParseClock(d.Timings.Get(name), now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		prayers = append(prayers, Prayer{Name: name, Time: at})
	}
	return prayers, nil
}

// Next returns the first prayer strictly after now and the time remaining until it.
// After Isha it returns tomorrow's Fajr using today's Fajr clock time.
func (d *Day) Next(now time.Time) (Prayer, time.Duration, error) {
	prayers, err := d.Schedule(now)
	if err != nil {
		return Prayer{}, 0, err
	}
	for _, p := range prayers {
		if p.Time.After(now) {
			return p, p.Time.Sub(now), nil
		}
	}
	fajr := prayers[0]
	fajr.Time = fajr.Time.AddDate(0, 0, 1)
	return fajr, fajr.Time.Sub(now), nil
}

// FormatRemaining renders a countdown such as "2h 05m".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}

// HijriLabel renders the Hijri date as "day month year".
func (d *Day) HijriLabel() string {
	h := d.Date.Hijri
	if h.Day == "" {
		return h.Date
	}
	month := h.Month.Ar
	if month == "" {
		month = h.Month.En
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", h.Day, month, h.Year))
}
