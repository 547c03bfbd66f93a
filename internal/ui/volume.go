package ui

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/noor-alrahman/noor-cli/internal/config"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const volumeBarHeight = 6

// volumeLines splits the bar into empty and filled rows for a 0..1 volume.
func volumeLines(volume float64, height int) (filled, empty int) {
	filled = int(math.Round(config.ClampVolume(volume) * float64(height)))
	return filled, height - filled
}

func percent(volume float64) int {
	return int(math.Round(config.ClampVolume(volume) * 100))
}

func (ui *UI) buildVolumeBar(container *tview.Flex) {
	volume := ui.ctrl.Volume()
	isMuted := volume <= 0

	ui.mu.Lock()
	displayVolume := volume
	if isMuted {
		displayVolume = ui.config.Volume
	}
	mutedColor := config.GetColor(ui.config.ActiveTheme().MutedVolume)
	ui.mu.Unlock()

	filledLines, emptyLines := volumeLines(displayVolume, volumeBarHeight)

	createText := func(text string, color tcell.Color) *tview.TextView {
		tv := tview.NewTextView()
		tv.SetText(text)
		tv.SetTextAlign(tview.AlignRight)
		tv.SetTextColor(color)
		tv.SetBackgroundColor(ui.colors.background)
		return tv
	}

	createBarLine := func(barText string, barColor tcell.Color, showPercent bool) *tview.Flex {
		line := tview.NewFlex().SetDirection(tview.FlexColumn)
		line.SetBackgroundColor(ui.colors.background)

		if showPercent {
			percentColor := ui.colors.highlight
			if isMuted {
				percentColor = mutedColor
			}

			percentView := createText(fmt.Sprintf("%d%%", percent(displayVolume)), percentColor)
			if isMuted {
				percentView.SetTextStyle(tcell.StyleDefault.
					Foreground(percentColor).
					Background(ui.colors.background).
					Attributes(tcell.AttrStrikeThrough))
			}

			line.AddItem(percentView, 4, 0, false)
		} else {
			line.AddItem(createText("    ", ui.colors.foreground), 4, 0, false)
		}

		line.AddItem(createText(barText, barColor), 0, 1, false)

		return line
	}

	container.AddItem(createText("   max", ui.colors.foreground), 1, 0, false)

	for i := 0; i < emptyLines; i++ {
		container.AddItem(createBarLine(" ░░", ui.colors.foreground, false), 1, 0, false)
	}

	barColor := ui.colors.highlight
	if isMuted {
		barColor = mutedColor
	}
	for i := 0; i < filledLines; i++ {
		container.AddItem(createBarLine(" ██", barColor, i == 0), 1, 0, false)
	}

	container.AddItem(createText("   min", ui.colors.foreground), 1, 0, false)
	container.AddItem(nil, 0, 1, false)
}

func (ui *UI) createGraphicalVolumeBar() *tview.Flex {
	volumeContainer := tview.NewFlex().SetDirection(tview.FlexRow)
	volumeContainer.SetBackgroundColor(ui.colors.background)
	ui.buildVolumeBar(volumeContainer)
	return volumeContainer
}

func (ui *UI) updateVolumeDisplay() {
	if ui.volumeView != nil {
		ui.volumeView.Clear()
		ui.buildVolumeBar(ui.volumeView)
	}
}

// adjustVolume changes the volume by delta. Adjusting while muted restores the saved level first.
func (ui *UI) adjustVolume(delta float64) {
	current := ui.ctrl.Volume()
	if current <= 0 {
		ui.ctrl.ToggleMute()
		ui.updateVolumeDisplay()
		log.Debug().Msgf("Auto-unmuted, restored volume to %d%%", percent(ui.ctrl.Volume()))
		return
	}

	next := config.ClampVolume(math.Round((current+delta)*100) / 100)
	ui.ctrl.SetVolume(next)

	if next > 0 {
		ui.mu.Lock()
		ui.config.Volume = next
		ui.mu.Unlock()
		ui.saveConfigAsync()
	}
	ui.updateVolumeDisplay()
	log.Debug().Msgf("Volume adjusted to %d%%", percent(next))
}

func (ui *UI) toggleMute() {
	ui.ctrl.ToggleMute()
	ui.updateVolumeDisplay()
	log.Debug().Msgf("Mute toggled, volume now %d%%", percent(ui.ctrl.Volume()))
}
