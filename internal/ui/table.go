package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/noor-alrahman/noor-cli/internal/catalog"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

// column describes one header cell of a list table.
type column struct {
	title     string
	maxWidth  int
	expansion int
	align     int
}

func (ui *UI) createListTable(title string, columns []column) *tview.Table {
	table := tview.NewTable().
		SetBorders(false).
		SetSeparator(' ').
		SetSelectable(true, false).
		SetFixed(1, 0)

	table.SetBorder(true).
		SetTitle(title).
		SetBorderColor(ui.colors.borders).
		SetTitleColor(ui.colors.foreground).
		SetBackgroundColor(ui.colors.background).
		SetBorderPadding(1, 0, 1, 1)

	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(ui.colors.background).
		Background(ui.colors.highlight))

	ui.setTableHeader(table, columns)
	return table
}

func (ui *UI) setTableHeader(table *tview.Table, columns []column) {
	for i, col := range columns {
		cell := tview.NewTableCell(col.title).
			SetTextColor(ui.colors.listHeaderForeground).
			SetBackgroundColor(ui.colors.listHeaderBackground).
			SetAlign(col.align).
			SetSelectable(false)
		if col.maxWidth > 0 {
			cell.SetMaxWidth(col.maxWidth)
		}
		if col.expansion > 0 {
			cell.SetExpansion(col.expansion)
		}
		table.SetCell(0, i, cell)
	}
}

// resetRows drops every row but the header.
func resetRows(table *tview.Table) {
	for table.GetRowCount() > 1 {
		table.RemoveRow(table.GetRowCount() - 1)
	}
}

func (ui *UI) textCell(text string) *tview.TableCell {
	return tview.NewTableCell(text).SetTextColor(ui.colors.foreground)
}

// setMessageRow shows a single unselectable line in place of data.
func (ui *UI) setMessageRow(table *tview.Table, message string) {
	resetRows(table)
	table.SetCell(1, 0, tview.NewTableCell(message).
		SetTextColor(ui.colors.helpForeground).
		SetSelectable(false).
		SetExpansion(1))
}

// selectedIndex maps the table selection onto a zero-based data index.
func selectedIndex(table *tview.Table, count int) int {
	row, _ := table.GetSelection()
	if row < 1 || row > count {
		return -1
	}
	return row - 1
}

// selectIndex selects the data row at index, clamped to the list.
func selectIndex(table *tview.Table, index, count int) {
	if count == 0 {
		return
	}
	if index < 0 {
		index = 0
	}
	if index >= count {
		index = count - 1
	}
	table.Select(index+1, 0)
}

// snapshotMessage describes a fetch that has nothing to show yet.
// It returns "" when there is data to render.
func snapshotMessage[T any](s catalog.Snapshot[T], what string) string {
	switch {
	case s.HasData:
		return ""
	case s.Err != nil:
		return failedMessage(s.Err)
	default:
		return fmt.Sprintf("Loading %s...", what)
	}
}

func failedMessage(err error) string {
	return fmt.Sprintf("✗ %s  (press r to retry)", firstLine(friendlyErrorMessage(err)))
}

// goFetch runs fetch off the UI goroutine and then calls done on it.
// Superseded and cancelled fetches are dropped.
func (ui *UI) goFetch(what string, fetch func(ctx context.Context) error, done func(err error)) {
	go func() {
		err := fetch(ui.ctx)
		if errors.Is(err, catalog.ErrSuperseded) || errors.Is(err, context.Canceled) {
			log.Debug().Str("what", what).Msg("Fetch dropped")
			return
		}
		if err != nil {
			log.Warn().Err(err).Str("what", what).Msg("Fetch failed")
		}
		ui.app.QueueUpdateDraw(func() {
			done(err)
		})
	}()
}

const flashDuration = 3 * time.Second

// setFlash shows msg in the status line for a few seconds.
func (ui *UI) setFlash(msg string) {
	ui.mu.Lock()
	ui.flash = msg
	ui.flashUntil = time.Now().Add(flashDuration)
	ui.mu.Unlock()
}

func (ui *UI) flashMessage() string {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	if ui.flash == "" || time.Now().After(ui.flashUntil) {
		return ""
	}
	return ui.flash
}
