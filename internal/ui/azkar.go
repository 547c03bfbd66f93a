package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/gdamore/tcell/v2"
	"github.com/noor-alrahman/noor-cli/internal/azkar"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const zikrPreviewWidth = 70

var (
	categoryColumns = []column{
		{title: "Category", expansion: 3},
		{title: "Type", expansion: 1},
	}
	zikrColumns = []column{
		{title: "Left", align: tview.AlignRight},
		{title: "Zikr", expansion: 4},
	}
)

type azkarView struct {
	ui *UI

	layout *tview.Flex
	table  *tview.Table
	detail *tview.TextView

	kind  string
	title string
	items []azkar.Zikr
	tally *azkar.Tally
}

func newAzkarView(ui *UI) *azkarView {
	return &azkarView{ui: ui}
}

func (v *azkarView) build() tview.Primitive {
	ui := v.ui

	v.table = ui.createListTable("Azkar", categoryColumns)
	v.table.SetSelectedFunc(func(row, _ int) {
		v.activate(row - 1)
	})
	v.table.SetSelectionChangedFunc(func(row, _ int) {
		v.showDetail(row - 1)
	})

	v.detail = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	v.detail.SetTextColor(ui.colors.foreground).
		SetBackgroundColor(ui.colors.background)
	v.detail.SetBorder(true).
		SetBorderColor(ui.colors.borders).
		SetBorderPadding(1, 0, 2, 2)

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.table, 0, 1, true).
		AddItem(v.detail, 0, 1, false)
	v.layout.SetBackgroundColor(ui.colors.background)
	return v.layout
}

func (v *azkarView) focus() tview.Primitive {
	return v.table
}

func (v *azkarView) load() {
	ui := v.ui
	ui.goFetch("azkar categories", func(ctx context.Context) error {
		_, err := ui.azkar.LoadCategories(ctx)
		return err
	}, func(error) { v.refresh() })

	if v.kind != "" {
		v.openCategory(v.kind, v.title)
	}
}

func (v *azkarView) refresh() {
	if v.table == nil {
		return
	}
	row, _ := v.table.GetSelection()
	v.table.Clear()

	var count int
	if v.kind == "" {
		count = v.renderCategories()
	} else {
		count = v.renderItems()
	}
	if count > 0 {
		selectIndex(v.table, row-1, count)
	}
	v.showDetail(selectedIndex(v.table, count))
}

func (v *azkarView) renderCategories() int {
	ui := v.ui
	ui.setTableHeader(v.table, categoryColumns)
	v.table.SetTitle("Azkar")

	state := ui.azkar.CategoriesState()
	if msg := snapshotMessage(state, "azkar"); msg != "" {
		ui.setMessageRow(v.table, msg)
		return 0
	}
	for i, c := range state.Data {
		v.table.SetCell(i+1, 0, ui.textCell(c.Title).SetExpansion(3))
		v.table.SetCell(i+1, 1, ui.textCell(c.Type).SetExpansion(1))
	}
	return len(state.Data)
}

func (v *azkarView) renderItems() int {
	ui := v.ui
	ui.setTableHeader(v.table, zikrColumns)

	if v.tally == nil {
		msg := "Loading azkar..."
		if state := ui.azkar.AzkarState(); !state.Loading && state.Err != nil {
			msg = failedMessage(state.Err)
		}
		v.table.SetTitle(v.title)
		ui.setMessageRow(v.table, msg)
		return 0
	}

	done, total := v.tally.Progress()
	v.table.SetTitle(fmt.Sprintf("%s (%d/%d done)", v.title, done, total))
	for i, z := range v.items {
		v.setItemRow(i+1, z)
	}
	return len(v.items)
}

func (v *azkarView) setItemRow(row int, z azkar.Zikr) {
	ui := v.ui
	left := v.tally.Remaining(z.ID)

	counter := ui.textCell(fmt.Sprintf("%d/%d", left, z.Count())).SetAlign(tview.AlignRight)
	if left == 0 {
		counter = ui.textCell("✓").SetAlign(tview.AlignRight).SetTextColor(ui.colors.highlight)
	}
	v.table.SetCell(row, 0, counter)
	v.table.SetCell(row, 1, ui.textCell(zikrPreview(z)).SetExpansion(4))
}

// zikrPreview is the title, or the start of the text when there is none.
func zikrPreview(z azkar.Zikr) string {
	text := strings.TrimSpace(z.Title)
	if text == "" {
		text = strings.Join(strings.Fields(z.Text), " ")
	}
	runes := []rune(text)
	if len(runes) > zikrPreviewWidth {
		return string(runes[:zikrPreviewWidth-1]) + "…"
	}
	return text
}

func (v *azkarView) showDetail(index int) {
	if v.detail == nil {
		return
	}
	keyColor := v.ui.colors.helpHotkey.String()

	if v.kind == "" || index < 0 || index >= len(v.items) {
		v.detail.SetTitle("")
		v.detail.SetText(fmt.Sprintf("Choose a category and press [%s]Enter[-].", keyColor))
		return
	}

	z := v.items[index]
	left := v.tally.Remaining(z.ID)
	v.detail.SetTitle(fmt.Sprintf(" %d of %d ", index+1, len(v.items)))

	var b strings.Builder
	b.WriteString(tview.Escape(strings.TrimSpace(z.Text)))
	if z.Reference != "" {
		fmt.Fprintf(&b, "\n\n[%s]%s[-]", v.ui.colors.helpForeground.String(), tview.Escape(z.Reference))
	}
	fmt.Fprintf(&b, "\n\nRemaining: [%s::b]%d[-::-] of %d   [%s]Enter[-] count  [%s]c[-] copy  [%s]x[-] reset",
		v.ui.colors.highlight.String(), left, z.Count(), keyColor, keyColor, keyColor)
	v.detail.SetText(b.String())
	v.detail.ScrollToBeginning()
}

func (v *azkarView) activate(index int) {
	if v.kind == "" {
		state := v.ui.azkar.CategoriesState()
		if index < 0 || index >= len(state.Data) {
			return
		}
		c := state.Data[index]
		v.openCategory(c.Type, c.Title)
		return
	}
	v.press(index)
}

func (v *azkarView) openCategory(kind, title string) {
	ui := v.ui
	v.kind = kind
	v.title = title
	v.tally = nil
	v.items = nil
	v.refresh()

	ui.goFetch("azkar "+kind, func(ctx context.Context) error {
		_, err := ui.azkar.LoadAzkar(ctx, kind)
		return err
	}, func(err error) {
		if v.kind != kind {
			return
		}
		if err == nil {
			v.items = ui.azkar.AzkarState().Data
			v.tally = azkar.NewTally(v.items)
		}
		v.refresh()
		selectIndex(v.table, 0, len(v.items))
	})
}

// press counts one recitation and moves on once the zikr is complete.
func (v *azkarView) press(index int) {
	if v.tally == nil || index < 0 || index >= len(v.items) {
		return
	}
	z := v.items[index]
	left := v.tally.Press(z.ID)
	v.setItemRow(index+1, z)

	if left == 0 {
		done, total := v.tally.Progress()
		v.table.SetTitle(fmt.Sprintf("%s (%d/%d done)", v.title, done, total))
		if done == total {
			v.ui.setFlash("✓ All azkar completed")
		} else if index+1 < len(v.items) {
			v.table.Select(index+2, 0)
			return
		}
	}
	v.showDetail(index)
}

func (v *azkarView) copySelected() {
	index := selectedIndex(v.table, len(v.items))
	if v.kind == "" || index < 0 {
		return
	}
	if err := clipboard.WriteAll(v.items[index].ShareText()); err != nil {
		log.Warn().Err(err).Msg("Clipboard write failed")
		v.ui.setFlash("✗ Clipboard unavailable")
		return
	}
	v.ui.setFlash("Copied to clipboard")
}

func (v *azkarView) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyBackspace, tcell.KeyBackspace2, tcell.KeyEscape:
		if v.kind != "" {
			v.kind = ""
			v.items = nil
			v.tally = nil
			v.refresh()
			return nil
		}
	case tcell.KeyRune:
		switch event.Rune() {
		case 'c', 'C':
			v.copySelected()
			return nil
		case 'x', 'X':
			if index := selectedIndex(v.table, len(v.items)); v.tally != nil && index >= 0 {
				v.tally.Reset(v.items[index].ID)
				v.refresh()
				return nil
			}
		}
	}
	return event
}
