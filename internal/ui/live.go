package ui

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/gdamore/tcell/v2"
	"github.com/noor-alrahman/noor-cli/internal/catalog"
	"github.com/noor-alrahman/noor-cli/internal/live"
	"github.com/noor-alrahman/noor-cli/internal/player"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	LogoWidth  = 26
	LogoHeight = 12
)

var channelColumns = []column{
	{title: " ", maxWidth: 2},
	{title: "Channel", expansion: 3},
	{title: "Category", expansion: 2},
	{title: "Stream", align: tview.AlignRight},
}

type liveView struct {
	ui *UI

	layout *tview.Flex
	side   *tview.Flex
	table  *tview.Table
	logo   *tview.Image
	info   *tview.TextView

	category string
	channels []live.Channel
	status   string
	// openGen tells apart the player runs of successive opens.
	openGen int
	logoFor int
}

func newLiveView(ui *UI) *liveView {
	return &liveView{ui: ui}
}

func (v *liveView) build() tview.Primitive {
	ui := v.ui

	v.table = ui.createListTable("Live TV", channelColumns)
	v.table.SetSelectedFunc(func(row, _ int) {
		if index := row - 1; index >= 0 && index < len(v.channels) {
			v.open(v.channels[index])
		}
	})
	v.table.SetSelectionChangedFunc(func(row, _ int) {
		if index := row - 1; index >= 0 && index < len(v.channels) {
			v.showChannel(v.channels[index])
		}
	})

	v.logo = tview.NewImage()
	v.logo.SetBackgroundColor(ui.colors.background)
	v.logo.SetAlign(tview.AlignTop, tview.AlignCenter)

	v.info = tview.NewTextView().SetDynamicColors(true).SetWordWrap(true)
	v.info.SetTextColor(ui.colors.foreground).
		SetBackgroundColor(ui.colors.background)

	v.side = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.logo, 0, 0, false).
		AddItem(v.info, 0, 1, false)
	v.side.SetBackgroundColor(ui.colors.background)
	v.side.SetBorder(true).
		SetBorderColor(ui.colors.borders).
		SetBorderPadding(1, 0, 1, 1)

	v.layout = tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(v.table, 0, 2, true).
		AddItem(v.side, LogoWidth+4, 0, false)
	v.layout.SetBackgroundColor(ui.colors.background)
	v.logoFor = 0
	return v.layout
}

func (v *liveView) focus() tview.Primitive {
	return v.table
}

func (v *liveView) load() {
	ui := v.ui
	ui.goFetch("channels", func(ctx context.Context) error {
		_, err := ui.channels.Load(ctx)
		return err
	}, func(error) { v.refresh() })
}

func (v *liveView) refresh() {
	if v.table == nil {
		return
	}
	ui := v.ui
	row, _ := v.table.GetSelection()
	v.table.Clear()
	ui.setTableHeader(v.table, channelColumns)

	state := ui.channels.State()
	if msg := snapshotMessage(state, "channels"); msg != "" {
		v.channels = nil
		v.table.SetTitle("Live TV")
		ui.setMessageRow(v.table, msg)
		v.renderInfo(nil)
		return
	}

	v.channels = live.Filter(state.Data, v.category)
	title := fmt.Sprintf("Live TV (%d)", len(v.channels))
	if v.category != "" {
		title = fmt.Sprintf("Live TV · %s (%d)", live.CategoryTitle(v.category), len(v.channels))
	}
	v.table.SetTitle(title)

	current := ui.session.Current()
	for i, ch := range v.channels {
		icon := " "
		if current != nil && current.ID == ch.ID {
			icon = "➤"
		}
		v.table.SetCell(i+1, 0, ui.textCell(icon).SetMaxWidth(2))
		v.table.SetCell(i+1, 1, ui.textCell(ch.Name).SetExpansion(3))
		v.table.SetCell(i+1, 2, ui.textCell(live.CategoryTitle(ch.Category)).SetExpansion(2))
		v.table.SetCell(i+1, 3, ui.textCell(live.DetectKind(ch.URL).String()).SetAlign(tview.AlignRight))
	}

	if len(v.channels) == 0 {
		ui.setMessageRow(v.table, "No channels in this category")
		v.renderInfo(nil)
		return
	}
	selectIndex(v.table, row-1, len(v.channels))
	if index := selectedIndex(v.table, len(v.channels)); index >= 0 {
		v.showChannel(v.channels[index])
	}
}

func (v *liveView) renderInfo(ch *live.Channel) {
	keyColor := v.ui.colors.helpHotkey.String()
	var text string
	if ch != nil {
		text = fmt.Sprintf("[::b]%s[::-]\n%s\n\n", tview.Escape(ch.Name), live.CategoryTitle(ch.Category))
	}
	if v.status != "" {
		text += tview.Escape(v.status) + "\n\n"
	}
	text += fmt.Sprintf("[%s]Enter[-] watch\n[%s]c[-] category\n[%s]x[-] stop player", keyColor, keyColor, keyColor)
	v.info.SetText(text)
}

func (v *liveView) showChannel(ch live.Channel) {
	v.renderInfo(&ch)
	if v.logoFor == ch.ID {
		return
	}
	v.logoFor = ch.ID
	v.side.ResizeItem(v.logo, 0, 0)

	go func() {
		img := v.ui.channels.LoadLogo(v.ui.ctx, ch)
		v.ui.app.QueueUpdateDraw(func() {
			v.setLogo(ch.ID, img)
		})
	}()
}

func (v *liveView) setLogo(channelID int, img image.Image) {
	if v.logoFor != channelID || img == nil {
		return
	}
	v.logo.SetImage(img)
	v.side.ResizeItem(v.logo, LogoHeight, 0)
}

// open hands the channel to the external player. Quran playback is paused first.
func (v *liveView) open(ch live.Channel) {
	ui := v.ui
	if ui.ctrl.State() == player.StatePlaying {
		if err := ui.ctrl.TogglePlay(); err != nil {
			log.Debug().Err(err).Msg("Failed to pause recitation")
		}
	}

	v.openGen++
	gen := v.openGen
	v.status = fmt.Sprintf("Opening %s...", ch.Name)
	v.renderInfo(&ch)

	go func() {
		target, err := ui.session.Open(ui.ctx, ch)
		if errors.Is(err, catalog.ErrSuperseded) {
			return
		}
		ui.app.QueueUpdateDraw(func() {
			if gen != v.openGen {
				return
			}
			if err != nil {
				v.status = ""
				v.refresh()
				ui.showError("Live TV Error", err, func() { v.open(ch) })
				return
			}
			log.Info().Str("channel", ch.Name).Str("target", target).Msg("Live channel opened")
			v.status = "Playing in external player"
			ui.setFlash(fmt.Sprintf("Watching %s", ch.Name))
			v.refresh()
		})
		if err != nil {
			return
		}

		<-ui.session.Done()
		ui.app.QueueUpdateDraw(func() {
			if gen != v.openGen {
				return
			}
			v.status = playerExitStatus(ui.session.Err())
			if err := ui.session.Close(); err != nil {
				log.Debug().Err(err).Msg("Failed to release live session")
			}
			v.refresh()
		})
	}()
}

// playerExitStatus describes how the external player ended.
func playerExitStatus(err error) string {
	if err == nil {
		return "Player closed"
	}
	return fmt.Sprintf("Player exited: %s", firstLine(err.Error()))
}

func (v *liveView) stop() {
	v.openGen++
	if err := v.ui.session.Close(); err != nil {
		log.Debug().Err(err).Msg("Failed to stop live player")
	}
	v.status = "Player stopped"
	v.refresh()
}

// nextCategory cycles through all channels and then each category.
func (v *liveView) nextCategory() {
	data := v.ui.channels.State().Data
	categories := append([]string{""}, live.Categories(data)...)
	for i, c := range categories {
		if c == v.category {
			v.category = categories[(i+1)%len(categories)]
			break
		}
	}
	v.refresh()
	selectIndex(v.table, 0, len(v.channels))
}

func (v *liveView) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() != tcell.KeyRune {
		return event
	}
	switch event.Rune() {
	case 'c', 'C':
		v.nextCategory()
		return nil
	case 'x', 'X':
		v.stop()
		return nil
	}
	return event
}
