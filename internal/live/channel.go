// Package live lists live TV channels and hands their streams to an external player.
package live

import (
	"strings"

	"github.com/samber/lo"
)

const (
	CategoryQuran   = "quran"
	CategorySunnah  = "sunnah"
	CategoryGeneral = "general"
)

// Channel is a live TV channel from the channel list.
type Channel struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Logo     string `json:"logo,omitempty"`
	Category string `json:"category,omitempty"`
}

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{CategoryQuran, []string{"قرآن", "القرآن", "quran", "koran"}},
	{CategorySunnah, []string{"سنة", "السنة", "sunnah", "sunna", "hadith"}},
}

// CategoryOf returns the channel's category, inferring it from the name when unset.
func CategoryOf(ch Channel) string {
	if c := strings.TrimSpace(strings.ToLower(ch.Category)); c != "" {
		return c
	}
	name := strings.ToLower(ch.Name)
	for _, kw := range categoryKeywords {
		for _, w := range kw.words {
			if strings.Contains(name, w) {
				return kw.category
			}
		}
	}
	return CategoryGeneral
}

// Categorize returns a copy of channels with every Category filled in.
func Categorize(channels []Channel) []Channel {
	return lo.Map(channels, func(ch Channel, _ int) Channel {
		ch.Category = CategoryOf(ch)
		return ch
	})
}

// Categories returns the distinct categories of channels in first-seen order.
func Categories(channels []Channel) []string {
	return lo.Uniq(lo.Map(channels, func(ch Channel, _ int) string {
		return CategoryOf(ch)
	}))
}

// Filter returns the channels in category. An empty category matches all.
func Filter(channels []Channel, category string) []Channel {
	if category == "" {
		return channels
	}
	return lo.Filter(channels, func(ch Channel, _ int) bool {
		return CategoryOf(ch) == category
	})
}

// CategoryTitle returns a display label for a category.
func CategoryTitle(category string) string {
	switch category {
	case CategoryQuran:
		return "القرآن الكريم"
	case CategorySunnah:
		return "السنة النبوية"
	case CategoryGeneral:
		return "عام"
	}
	return category
}
