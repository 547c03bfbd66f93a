package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/noor-alrahman/noor-cli/internal/prayer"
	"github.com/noor-alrahman/noor-cli/internal/service"
	"github.com/rivo/tview"
)

var timingColumns = []column{
	{title: " ", maxWidth: 2},
	{title: "Prayer", expansion: 1},
	{title: "", expansion: 1, align: tview.AlignRight},
	{title: "Time", align: tview.AlignRight},
}

type timesView struct {
	ui *UI

	layout *tview.Flex
	info   *tview.TextView
	table  *tview.Table

	// now is replaced in tests.
	now func() time.Time
}

func newTimesView(ui *UI) *timesView {
	return &timesView{ui: ui, now: time.Now}
}

func (v *timesView) build() tview.Primitive {
	ui := v.ui

	v.info = tview.NewTextView().SetDynamicColors(true)
	v.info.SetTextColor(ui.colors.foreground).
		SetBackgroundColor(ui.colors.background)
	v.info.SetBorder(true).
		SetBorderColor(ui.colors.borders).
		SetTitle(" Prayer Times ").
		SetTitleColor(ui.colors.foreground).
		SetBorderPadding(0, 0, 1, 1)

	v.table = ui.createListTable("Today", timingColumns)
	v.table.SetSelectable(false, false)

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.info, 7, 0, false).
		AddItem(v.table, 0, 1, true)
	v.layout.SetBackgroundColor(ui.colors.background)
	return v.layout
}

func (v *timesView) focus() tview.Primitive {
	return v.table
}

func (v *timesView) load() {
	ui := v.ui
	ui.goFetch("prayer times", func(ctx context.Context) error {
		_, err := ui.prayer.Load(ctx)
		return err
	}, func(error) { v.refresh() })
}

func (v *timesView) tick() {
	v.refresh()
}

func (v *timesView) refresh() {
	if v.table == nil {
		return
	}
	ui := v.ui
	v.table.Clear()
	ui.setTableHeader(v.table, timingColumns)

	state := ui.prayer.State()
	if msg := snapshotMessage(state, "prayer times"); msg != "" {
		v.info.SetText("\n" + msg)
		ui.setMessageRow(v.table, "")
		return
	}

	pt := state.Data
	now := v.now().In(pt.Day.Location(time.Local))
	next, remaining, err := pt.Next(now)
	v.info.SetText(v.renderInfo(pt, next, remaining, err))
	if state.Err != nil && !state.Loading {
		v.info.SetText(v.info.GetText(false) + "\n" + failedMessage(state.Err))
	}

	highlight := ui.colors.highlight
	for i, name := range prayer.TimingNames {
		mark := " "
		color := ui.colors.foreground
		if err == nil && name == next.Name {
			mark = "➤"
			color = highlight
		}
		v.table.SetCell(i+1, 0, ui.textCell(mark).SetTextColor(color).SetMaxWidth(2))
		v.table.SetCell(i+1, 1, ui.textCell(name).SetTextColor(color).SetExpansion(1))
		v.table.SetCell(i+1, 2, ui.textCell(prayer.ArabicNames[name]).SetTextColor(color).
			SetExpansion(1).SetAlign(tview.AlignRight))
		v.table.SetCell(i+1, 3, ui.textCell(prayer.Clock(pt.Day.Timings.Get(name))).SetTextColor(color).
			SetAlign(tview.AlignRight))
	}
}

func (v *timesView) renderInfo(pt *service.PrayerTimes, next prayer.Prayer, remaining time.Duration, err error) string {
	highlight := v.ui.colors.highlight.String()
	var b strings.Builder

	fmt.Fprintf(&b, "Location: [::b]%s[::-]\n", tview.Escape(pt.Label()))
	date := pt.Day.Date.Readable
	if hijri := pt.Day.HijriLabel(); hijri != "" {
		date += "  ·  " + hijri
	}
	fmt.Fprintf(&b, "Date:     %s\n", tview.Escape(date))
	if pt.Day.Meta.Method.Name != "" {
		fmt.Fprintf(&b, "Method:   %s\n", tview.Escape(pt.Day.Meta.Method.Name))
	}

	if err != nil {
		fmt.Fprintf(&b, "\n✗ %s", tview.Escape(err.Error()))
		return b.String()
	}
	fmt.Fprintf(&b, "\nNext: [%s::b]%s (%s)[-::-] at %s, in [%s::b]%s[-::-]",
		highlight, next.Name, prayer.ArabicNames[next.Name], next.Time.Format("15:04"),
		highlight, prayer.FormatRemaining(remaining))
	return b.String()
}

func (v *timesView) handleKey(event *tcell.EventKey) *tcell.EventKey {
	return event
}
