package ui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/noor-alrahman/noor-cli/internal/api"
	"github.com/noor-alrahman/noor-cli/internal/assets"
	"github.com/noor-alrahman/noor-cli/internal/cache"
	"github.com/noor-alrahman/noor-cli/internal/config"
	"github.com/noor-alrahman/noor-cli/internal/geo"
	"github.com/noor-alrahman/noor-cli/internal/live"
	"github.com/noor-alrahman/noor-cli/internal/player"
	"github.com/rivo/tview"
)

// friendlyErrorMessage turns an error into a short message fit for a modal or status line.
func friendlyErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var statusErr *api.StatusError
	var downloadErr *cache.DownloadError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Connection timed out.\nPlease check your internet connection."
	case errors.Is(err, geo.ErrLocationUnavailable):
		return "Unable to determine your location.\nSet --lat/--lon or a city in the config."
	case errors.Is(err, player.ErrPlaybackBlocked):
		return "Audio output is unavailable.\nPress Space to try again."
	case errors.Is(err, live.ErrPlayerNotFound):
		return "No external video player found.\nInstall mpv or set live.player in the config."
	case errors.Is(err, live.ErrMedia):
		return "The channel stream is not playable right now."
	case errors.Is(err, api.ErrMalformedResponse), errors.Is(err, assets.ErrMalformed):
		return "Received data in an unexpected format."
	case errors.Is(err, assets.ErrNotFound):
		return "Bundled content is missing.\nCheck assets_dir in the config."
	case errors.As(err, &statusErr):
		return statusMessage(statusErr.Service, statusErr.Code)
	case errors.As(err, &downloadErr):
		return statusMessage("Download", downloadErr.Code)
	}
	return networkMessage(err.Error())
}

func statusMessage(service string, code int) string {
	switch {
	case code == http.StatusNotFound:
		return fmt.Sprintf("%s: not found (404).", service)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Sprintf("%s: access denied (%d).", service, code)
	case code == http.StatusTooManyRequests:
		return fmt.Sprintf("%s: too many requests.\nPlease wait and press r to retry.", service)
	case code >= 500:
		return fmt.Sprintf("%s is temporarily unavailable (%d).", service, code)
	default:
		return fmt.Sprintf("%s returned status %d.", service, code)
	}
}

func networkMessage(errStr string) string {
	if strings.Contains(errStr, "no such host") {
		return "Unable to connect to server.\nPlease check your internet connection."
	}
	if strings.Contains(errStr, "connection refused") {
		return "Connection refused by server.\nThe service may be temporarily unavailable."
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "Connection timed out.\nPlease check your internet connection."
	}
	if strings.Contains(errStr, "network is unreachable") {
		return "Network is unreachable.\nPlease check your internet connection."
	}

	if idx := strings.Index(errStr, ": dial"); idx > 0 {
		return errStr[:idx]
	}
	if len(errStr) > 100 {
		return errStr[:100] + "..."
	}
	return errStr
}

func (ui *UI) showError(title string, err error, onRetry func()) {
	ui.showErrorModal(title, friendlyErrorMessage(err), onRetry)
}

func (ui *UI) showErrorModal(title, message string, onRetry func()) {
	doDismiss := func() {
		ui.pages.RemovePage("error-modal")
		ui.restoreFocus()
	}

	hint := "[::d]Press [::b]Esc[::d] to dismiss[::-]"
	if onRetry != nil {
		hint = "[::d]Press [::b]R[::d] to retry  •  Press [::b]Esc[::d] to dismiss[::-]"
	}

	messageView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetText(fmt.Sprintf("\n[::b]%s[::-]\n\n%s", title, tview.Escape(message)))
	messageView.SetTextColor(ui.colors.foreground)
	messageView.SetBackgroundColor(ui.colors.modalBackground)

	hintView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetText(hint)
	hintView.SetTextColor(tcell.ColorDarkGray)
	hintView.SetBackgroundColor(ui.colors.modalBackground)

	content := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(messageView, 0, 1, false).
		AddItem(hintView, 1, 0, false).
		AddItem(nil, 1, 0, false)
	content.SetBackgroundColor(ui.colors.modalBackground)

	frame := tview.NewFrame(content).
		SetBorders(0, 0, 1, 1, 1, 1)
	frame.SetBorder(true).
		SetBorderColor(ui.colors.highlight).
		SetBackgroundColor(ui.colors.modalBackground).
		SetTitle(" Error ").
		SetTitleColor(ui.colors.highlight).
		SetTitleAlign(tview.AlignCenter)

	modalWidth := 54
	modalHeight := 10

	lines := strings.Count(message, "\n") + 1
	if lines > 2 {
		modalHeight += lines - 2
	}
	if modalHeight > 15 {
		modalHeight = 15
	}

	modal := centered(frame, modalWidth, modalHeight)
	modal.SetBackgroundColor(ui.colors.background)

	modal.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEscape, tcell.KeyEnter:
			doDismiss()
			return nil
		case tcell.KeyRune:
			if onRetry != nil && (event.Rune() == 'r' || event.Rune() == 'R') {
				doDismiss()
				onRetry()
				return nil
			}
		}
		return event
	})

	ui.pages.AddPage("error-modal", modal, true, true)
	ui.app.SetFocus(modal)
}

func (ui *UI) showHelpModal() {
	keyColor := ui.colors.helpHotkey.String()

	configPath, _ := config.GetConfigPath()

	helpText := fmt.Sprintf(`[::b]KEYBOARD SHORTCUTS[::-]

[%[1]s]PAGES[-]
  [%[1]s]1[-]-[%[1]s]7[-]        Home, Quran, Azkar, Times,
             Mosques, Live TV, About
  [%[1]s]r[-]          Reload current page
  [%[1]s]d[-]          Dark / light theme

[%[1]s]QURAN[-]
  [%[1]s]Enter[-]      Open / play selection
  [%[1]s]Backspace[-]  Back one level
  [%[1]s]/[-]          Search
  [%[1]s]f[-]          Toggle favorite surah
  [%[1]s]v[-]          Favorites only

[%[1]s]PLAYBACK[-]
  [%[1]s]Space[-]      Pause / Resume
  [%[1]s]<[-] / [%[1]s]>[-]      Previous / Next surah
  [%[1]s]←[-] / [%[1]s]→[-]      Seek 10 seconds
  [%[1]s]s[-]          Stop
  [%[1]s][[-] / [%[1]s]][-]      Repeat count
  [%[1]s]e[-]          Advance / stop at end
  [%[1]s]+[-] / [%[1]s]-[-]      Volume up / down
  [%[1]s]m[-]          Mute / Unmute

[%[1]s]AZKAR[-]
  [%[1]s]Enter[-]      Count one recitation
  [%[1]s]c[-]          Copy text
  [%[1]s]x[-]          Reset counter

[%[1]s]APPLICATION[-]
  [%[1]s]?[-]          Show this help
  [%[1]s]q[-] / [%[1]s]Esc[-]    Quit

[%[1]s]CONFIG[-]: %[2]s`, keyColor, configPath)

	ui.showInfoModal("Help", helpText)
}

func (ui *UI) showInfoModal(title, message string) {
	doDismiss := func() {
		ui.pages.RemovePage("modal")
		ui.restoreFocus()
	}

	messageView := tview.NewTextView().
		SetTextAlign(tview.AlignLeft).
		SetDynamicColors(true).
		SetWordWrap(true).
		SetText("\n" + message)
	messageView.SetTextColor(ui.colors.foreground)
	messageView.SetBackgroundColor(ui.colors.modalBackground)

	hintView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetText("[::d]Press any key to close[::-]")
	hintView.SetTextColor(tcell.ColorDarkGray)
	hintView.SetBackgroundColor(ui.colors.modalBackground)

	content := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(messageView, 0, 1, false).
		AddItem(nil, 2, 0, false).
		AddItem(hintView, 1, 0, false).
		AddItem(nil, 1, 0, false)
	content.SetBackgroundColor(ui.colors.modalBackground)

	frame := tview.NewFrame(content).
		SetBorders(1, 0, 1, 1, 2, 2)
	frame.SetBorder(true).
		SetBorderColor(ui.colors.borders).
		SetBackgroundColor(ui.colors.modalBackground).
		SetTitle(" " + title + " ").
		SetTitleColor(ui.colors.highlight).
		SetTitleAlign(tview.AlignCenter)

	lines := strings.Count(message, "\n") + 1
	modalWidth := 50
	modalHeight := lines + 10
	if modalHeight > 46 {
		modalHeight = 46
	}

	modal := centered(frame, modalWidth, modalHeight)
	modal.SetBackgroundColor(ui.colors.background)

	modal.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		doDismiss()
		return nil
	})

	ui.pages.AddPage("modal", modal, true, true)
	ui.app.SetFocus(modal)
}

func centered(p tview.Primitive, width, height int) *tview.Flex {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false),
			width, 0, true).
		AddItem(nil, 0, 1, false)
}
