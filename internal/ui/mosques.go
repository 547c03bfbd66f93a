package ui

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/gdamore/tcell/v2"
	"github.com/noor-alrahman/noor-cli/internal/geo"
	"github.com/noor-alrahman/noor-cli/internal/service"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

var mosqueColumns = []column{
	{title: "Name", expansion: 2, maxWidth: 40},
	{title: "Address", expansion: 3, maxWidth: 50},
	{title: "Distance", align: tview.AlignRight},
}

type mosquesView struct {
	ui *UI

	table   *tview.Table
	mosques []service.Mosque
}

func newMosquesView(ui *UI) *mosquesView {
	return &mosquesView{ui: ui}
}

func (v *mosquesView) build() tview.Primitive {
	v.table = v.ui.createListTable("Nearby Mosques", mosqueColumns)
	v.table.SetSelectedFunc(func(row, _ int) {
		v.copyLink(row - 1)
	})
	return v.table
}

func (v *mosquesView) focus() tview.Primitive {
	return v.table
}

func (v *mosquesView) load() {
	ui := v.ui
	ui.goFetch("mosques", func(ctx context.Context) error {
		_, err := ui.mosques.Load(ctx)
		return err
	}, func(error) { v.refresh() })
}

func (v *mosquesView) refresh() {
	if v.table == nil {
		return
	}
	ui := v.ui
	row, _ := v.table.GetSelection()
	v.table.Clear()
	ui.setTableHeader(v.table, mosqueColumns)

	state := ui.mosques.State()
	if msg := snapshotMessage(state, "nearby mosques"); msg != "" {
		v.mosques = nil
		v.table.SetTitle("Nearby Mosques")
		ui.setMessageRow(v.table, msg)
		return
	}

	nearby := state.Data
	v.mosques = nearby.Mosques
	v.table.SetTitle(fmt.Sprintf("Mosques within %s of %s (%d)",
		geo.FormatDistance(float64(nearby.Radius)/1000), originLabel(nearby.Origin), len(v.mosques)))

	if len(v.mosques) == 0 {
		ui.setMessageRow(v.table, fmt.Sprintf("No mosques found within %s.",
			geo.FormatDistance(float64(nearby.Radius)/1000)))
		return
	}
	for i, m := range v.mosques {
		v.table.SetCell(i+1, 0, ui.textCell(m.Name).SetExpansion(2).SetMaxWidth(40))
		v.table.SetCell(i+1, 1, ui.textCell(m.Address).SetExpansion(3).SetMaxWidth(50))
		v.table.SetCell(i+1, 2, ui.textCell(m.DistanceLabel()).SetAlign(tview.AlignRight))
	}
	selectIndex(v.table, row-1, len(v.mosques))
}

func originLabel(pos geo.Position) string {
	if pos.Label != "" {
		return pos.Label
	}
	return pos.Coordinate.String()
}

// copyLink puts the map link of a mosque on the clipboard.
func (v *mosquesView) copyLink(index int) {
	if index < 0 || index >= len(v.mosques) {
		return
	}
	link := v.mosques[index].MapURL()
	if link == "" {
		v.ui.setFlash("No location for this mosque")
		return
	}
	if err := clipboard.WriteAll(link); err != nil {
		log.Warn().Err(err).Msg("Clipboard write failed")
		v.ui.setFlash("✗ Clipboard unavailable")
		return
	}
	v.ui.setFlash("Map link copied to clipboard")
}

func (v *mosquesView) handleKey(event *tcell.EventKey) *tcell.EventKey {
	return event
}
