// Package azkar holds remembrance categories, their texts and a repetition tally.
package azkar

import (
	"strings"
	"sync"
)

// Category is one group of azkar, such as morning or evening remembrances.
type Category struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Color string `json:"color,omitempty"`
}

// Zikr is a single remembrance text.
type Zikr struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	Reference  string `json:"reference,omitempty"`
	Repetition int    `json:"repetition,omitempty"`
}

// Count returns how many times the zikr is recited, at least once.
func (z Zikr) Count() int {
	if z.Repetition < 1 {
		return 1
	}
	return z.Repetition
}

// ShareText formats the zikr for the clipboard.
func (z Zikr) ShareText() string {
	var b strings.Builder
	if z.Title != "" {
		b.WriteString(z.Title)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimSpace(z.Text))
	if z.Reference != "" {
		b.WriteString("\n\n")
		b.WriteString(z.Reference)
	}
	return b.String()
}

// Tally counts down the remaining repetitions of each zikr in a list.
type Tally struct {
	mu        sync.Mutex
	remaining map[int]int
	totals    map[int]int
}

func NewTally(items []Zikr) *Tally {
	t := &Tally{
		remaining: make(map[int]int, len(items)),
		totals:    make(map[int]int, len(items)),
	}
	for _, z := range items {
		t.totals[z.ID] = z.Count()
		t.remaining[z.ID] = z.Count()
	}
	return t
}

// Press records one recitation and returns the repetitions left.
func (t *Tally) Press(id int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	left, ok := t.remaining[id]
	if !ok {
		return 0
	}
	if left > 0 {
		left--
		t.remaining[id] = left
	}
	return left
}

func (t *Tally) Remaining(id int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining[id]
}

func (t *Tally) Done(id int) bool {
	return t.Remaining(id) == 0
}

// Progress returns completed and total zikr counts.
func (t *Tally) Progress() (done, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range t.totals {
		if t.remaining[id] == 0 {
			done++
		}
	}
	return done, len(t.totals)
}

// Reset restores the full count of a zikr.
func (t *Tally) Reset(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if total, ok := t.totals[id]; ok {
		t.remaining[id] = total
	}
}
