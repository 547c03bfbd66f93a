package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/noor-alrahman/noor-cli/internal/player"
	"github.com/rivo/tview"
)

type StatusRenderer struct {
	animFrame     int
	maxAnimFrame  int
	tickCount     int
	ticksPerFrame int

	primaryColor string
	mutedColor   string
}

func NewStatusRenderer() *StatusRenderer {
	return &StatusRenderer{
		maxAnimFrame:  4,
		ticksPerFrame: 2, // Two ticks per frame at TickInterval
	}
}

func (s *StatusRenderer) SetPrimaryColor(color string) {
	s.primaryColor = color
}

func (s *StatusRenderer) SetMutedColor(color string) {
	s.mutedColor = color
}

func (s *StatusRenderer) AdvanceAnimation() {
	s.tickCount++
	if s.tickCount >= s.ticksPerFrame {
		s.tickCount = 0
		s.animFrame = (s.animFrame + 1) % s.maxAnimFrame
	}
}

// Render describes the playback status in one line.
func (s *StatusRenderer) Render(st player.Status) string {
	switch st.State {
	case player.StateLoading:
		return s.renderLoading(st)
	case player.StatePlaying:
		return s.renderPlaying(st)
	case player.StatePaused:
		return s.renderPaused(st)
	case player.StateEnded:
		return s.renderEnded(st)
	case player.StateError:
		return s.renderError(st)
	default:
		return s.renderIdle(st)
	}
}

func (s *StatusRenderer) muted() string {
	color := s.mutedColor
	if color == "" {
		color = "red"
	}
	return fmt.Sprintf("[%s]MUTED[-]", color)
}

func (s *StatusRenderer) renderIdle(st player.Status) string {
	parts := []string{"○ IDLE"}
	if st.Muted {
		parts = append(parts, s.muted())
	}
	if st.Item == nil {
		parts = append(parts, "Select a surah")
	} else {
		parts = append(parts, st.Item.Title)
	}
	return joinParts(parts)
}

func (s *StatusRenderer) renderLoading(st player.Status) string {
	circles := []string{"◐", "◓", "◑", "◒"}
	parts := []string{circles[s.animFrame] + " LOADING"}
	if st.Item != nil {
		parts = append(parts, st.Item.Title)
	}
	return joinParts(parts)
}

func (s *StatusRenderer) renderPlaying(st player.Status) string {
	dots := []string{"●", "◉", "○", "◉"}
	dot := dots[s.animFrame]

	if s.primaryColor != "" {
		dot = fmt.Sprintf("[%s]%s[-]", s.primaryColor, dot)
	}

	parts := []string{dot + " PLAYING"}
	if st.Muted {
		parts = append(parts, s.muted())
	}
	return joinParts(append(parts, trackParts(st)...))
}

func (s *StatusRenderer) renderPaused(st player.Status) string {
	parts := []string{PauseIcon + " PAUSED"}
	if st.Muted {
		parts = append(parts, s.muted())
	}
	return joinParts(append(parts, trackParts(st)...))
}

func (s *StatusRenderer) renderEnded(st player.Status) string {
	parts := []string{"■ ENDED"}
	if st.Item != nil {
		parts = append(parts, st.Item.Title)
	}
	return joinParts(parts)
}

func (s *StatusRenderer) renderError(st player.Status) string {
	msg := "ERROR"
	if st.Err != nil {
		msg = firstLine(friendlyErrorMessage(st.Err))
	}
	return fmt.Sprintf("✗ %s", msg)
}

// trackParts renders the clock and repeat counter of the current item.
func trackParts(st player.Status) []string {
	var parts []string
	if st.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%s / %s", formatClock(st.Position), formatClock(st.Duration)))
	}
	if st.Repeat > 1 {
		parts = append(parts, fmt.Sprintf("↻ %d/%d", st.Counter+1, st.Repeat))
	}
	if st.Total > 0 && st.Index >= 0 {
		parts = append(parts, fmt.Sprintf("%d/%d", st.Index+1, st.Total))
	}
	return parts
}

// formatClock renders a duration as mm:ss, or h:mm:ss past an hour.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	h, m, sec := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}

// renderProgress draws a width-cell bar for percent (0-100).
func renderProgress(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent * float64(width) / 100)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func joinParts(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	result := parts[0]
	for i := 1; i < len(parts); i++ {
		result += " │ " + parts[i]
	}
	return result
}

func playbackHint(state player.State, keyColor string) string {
	switch state {
	case player.StatePaused:
		return fmt.Sprintf("[%s]Space[-] resume", keyColor)
	case player.StatePlaying, player.StateLoading:
		return fmt.Sprintf("[%s]Space[-] pause  [%s]</>[-] prev/next", keyColor, keyColor)
	case player.StateError:
		return fmt.Sprintf("[%s]Space[-] retry", keyColor)
	default:
		return fmt.Sprintf("[%s]Enter[-] play", keyColor)
	}
}

func (ui *UI) getHelpText(st player.Status) string {
	keyColor := ui.colors.helpHotkey.String()

	muteText := "mute"
	if st.Muted {
		muteText = "unmute"
	}

	return fmt.Sprintf(" %s  [%s]+/-[-] vol  [%s]m[-] %s  [%s]1-7[-] pages  [%s]?[-] help  [%s]q[-] quit ",
		playbackHint(st.State, keyColor), keyColor, keyColor, muteText, keyColor, keyColor, keyColor)
}

func (ui *UI) handleFooterResize(width int) {
	isWide := width >= FooterBreakpoint
	wasWide := ui.lastFooterWidth >= FooterBreakpoint

	if ui.lastFooterWidth > 0 && isWide != wasWide && ui.contentLayout != nil {
		newHeight := FooterHeightWide
		if !isWide {
			newHeight = FooterHeightNarrow
		}
		ui.contentLayout.ResizeItem(ui.helpPanel, newHeight, 0)
	}
	ui.lastFooterWidth = width
}

func (ui *UI) drawWideFooter(screen tcell.Screen, x, y, width, height int, helpText, statusText string) {
	helpWidth := width / 2
	statusWidth := width - helpWidth

	for row := y; row < y+height; row++ {
		for col := x; col < x+helpWidth; col++ {
			screen.SetContent(col, row, ' ', nil, tcell.StyleDefault.Background(ui.colors.helpBackground))
		}
	}

	for row := y; row < y+height; row++ {
		for col := x + helpWidth; col < x+width; col++ {
			screen.SetContent(col, row, ' ', nil, tcell.StyleDefault.Background(ui.colors.background))
		}
	}

	centerY := y + height/2
	tview.Print(screen, helpText, x, centerY, helpWidth, tview.AlignCenter, ui.colors.helpForeground)
	tview.Print(screen, statusText, x+helpWidth, centerY, statusWidth-2, tview.AlignRight, ui.colors.foreground)
}

func (ui *UI) drawNarrowFooter(screen tcell.Screen, x, y, width, height int, helpText, statusText string) {
	helpHeight := height / 2
	if helpHeight < 1 {
		helpHeight = 1
	}
	statusHeight := height - helpHeight
	helpBoxEnd := y + helpHeight

	for row := y; row < helpBoxEnd; row++ {
		for col := x; col < x+width; col++ {
			screen.SetContent(col, row, ' ', nil, tcell.StyleDefault.Background(ui.colors.helpBackground))
		}
	}

	for row := helpBoxEnd; row < y+height; row++ {
		for col := x; col < x+width; col++ {
			screen.SetContent(col, row, ' ', nil, tcell.StyleDefault.Background(ui.colors.background))
		}
	}

	helpTextY := y + helpHeight/2
	tview.Print(screen, helpText, x, helpTextY, width, tview.AlignCenter, ui.colors.helpForeground)

	if statusHeight > 0 {
		statusTextY := helpBoxEnd + statusHeight/2
		tview.Print(screen, statusText, x, statusTextY, width-2, tview.AlignRight, ui.colors.foreground)
	}
}

func (ui *UI) createFooter() *tview.Box {
	box := tview.NewBox().SetBackgroundColor(ui.colors.background)

	box.SetDrawFunc(func(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
		ui.handleFooterResize(width)

		st := ui.ctrl.Status()
		helpText := ui.getHelpText(st)
		statusText := " " + ui.statusRenderer.Render(st) + " "
		if msg := ui.flashMessage(); msg != "" {
			statusText = " " + msg + " "
		}

		isWide := width >= FooterBreakpoint
		usedHeight := height
		if isWide && height > FooterHeightWide {
			usedHeight = FooterHeightWide
		}

		if isWide {
			ui.drawWideFooter(screen, x, y, width, usedHeight, helpText, statusText)
		} else {
			ui.drawNarrowFooter(screen, x, y, width, height, helpText, statusText)
		}

		return x, y, width, height
	})

	return box
}
