package azkar

import (
	"strings"
	"testing"
)

func TestZikrCount(t *testing.T) {
	tests := []struct {
		repetition int
		expected   int
	}{
		{0, 1},
		{-1, 1},
		{1, 1},
		{3, 3},
		{100, 100},
	}

	for _, tt := range tests {
		if got := (Zikr{Repetition: tt.repetition}).Count(); got != tt.expected {
			t.Errorf("Zikr{Repetition: %d}.Count() = %d, want %d", tt.repetition, got, tt.expected)
		}
	}
}

func TestShareText(t *testing.T) {
	z := Zikr{Title: "آية الكرسي", Text: " اللَّهُ لَا إِلَٰهَ إِلَّا هُوَ ", Reference: "البقرة 255"}
	got := z.ShareText()

	if !strings.HasPrefix(got, "آية الكرسي\n\n") {
		t.Errorf("ShareText() = %q, want title first", got)
	}
	if !strings.HasSuffix(got, "\n\nالبقرة 255") {
		t.Errorf("ShareText() = %q, want reference last", got)
	}
	if strings.Contains(got, "  ") {
		t.Errorf("ShareText() = %q, text should be trimmed", got)
	}

	if got := (Zikr{Text: "سبحان الله"}).ShareText(); got != "سبحان الله" {
		t.Errorf("ShareText() without title = %q", got)
	}
}

func TestTally(t *testing.T) {
	items := []Zikr{
		{ID: 1, Text: "a", Repetition: 3},
		{ID: 2, Text: "b"},
	}
	tally := NewTally(items)

	if got := tally.Remaining(1); got != 3 {
		t.Fatalf("Remaining(1) = %d, want 3", got)
	}

	if got := tally.Press(1); got != 2 {
		t.Errorf("Press(1) = %d, want 2", got)
	}
	tally.Press(1)
	if got := tally.Press(1); got != 0 {
		t.Errorf("third Press(1) = %d, want 0", got)
	}
	if got := tally.Press(1); got != 0 {
		t.Errorf("Press(1) past zero = %d, want 0", got)
	}
	if !tally.Done(1) {
		t.Error("Done(1) = false after all repetitions")
	}

	done, total := tally.Progress()
	if done != 1 || total != 2 {
		t.Errorf("Progress() = %d/%d, want 1/2", done, total)
	}

	tally.Press(2)
	if done, _ := tally.Progress(); done != 2 {
		t.Errorf("Progress() done = %d, want 2", done)
	}

	tally.Reset(1)
	if got := tally.Remaining(1); got != 3 {
		t.Errorf("Remaining(1) after Reset = %d, want 3", got)
	}
}

func TestTallyUnknownID(t *testing.T) {
	tally := NewTally(nil)
	if got := tally.Press(42); got != 0 {
		t.Errorf("Press(42) = %d, want 0", got)
	}
	tally.Reset(42)
	if _, total := tally.Progress(); total != 0 {
		t.Errorf("Progress() total = %d, want 0", total)
	}
}
