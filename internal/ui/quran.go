package ui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/noor-alrahman/noor-cli/internal/config"
	"github.com/noor-alrahman/noor-cli/internal/player"
	"github.com/noor-alrahman/noor-cli/internal/quran"
	"github.com/noor-alrahman/noor-cli/internal/service"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type quranLevel int

const (
	levelReciters quranLevel = iota
	levelEditions
	levelSurahs
)

var (
	reciterColumns = []column{
		{title: "Name", expansion: 3},
		{title: "Editions", align: tview.AlignRight},
	}
	editionColumns = []column{
		{title: "Edition", expansion: 3},
		{title: "Surahs", align: tview.AlignRight},
	}
	surahColumns = []column{
		{title: " ", maxWidth: 2},
		{title: " ", maxWidth: 2},
		{title: "#", align: tview.AlignRight},
		{title: "Surah", expansion: 3},
		{title: "Revelation", expansion: 1},
	}
)

// quranView walks reciters, then editions, then surahs.
type quranView struct {
	ui *UI

	layout *tview.Flex
	search *tview.InputField
	table  *tview.Table

	level         quranLevel
	query         string
	favoritesOnly bool

	reciterID int
	reciter   *quran.Reciter
	moshaf    *quran.Moshaf

	reciters []quran.Reciter
	surahs   []quran.Surah

	// selectSurah is selected once the surah list is shown.
	selectSurah int
}

func newQuranView(ui *UI) *quranView {
	return &quranView{ui: ui}
}

func (v *quranView) build() tview.Primitive {
	ui := v.ui

	v.search = tview.NewInputField().
		SetLabel(" Search: ").
		SetText(v.query).
		SetPlaceholder("name or surah number, press / to focus")
	v.search.SetLabelColor(ui.colors.foreground).
		SetFieldTextColor(ui.colors.foreground).
		SetFieldBackgroundColor(ui.colors.tagBackground).
		SetPlaceholderTextColor(ui.colors.helpForeground).
		SetBackgroundColor(ui.colors.background)
	v.search.SetChangedFunc(func(text string) {
		if text == v.query {
			return
		}
		v.query = text
		v.refresh()
		selectIndex(v.table, 0, v.rowCount())
	})
	v.search.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEscape {
			v.search.SetText("")
		}
		ui.app.SetFocus(v.table)
	})

	v.table = ui.createListTable("Reciters", reciterColumns)
	v.table.SetSelectedFunc(func(row, _ int) {
		v.activate(row - 1)
	})

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.search, 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(v.table, 0, 1, true)
	v.layout.SetBackgroundColor(ui.colors.background)
	return v.layout
}

func (v *quranView) focus() tview.Primitive {
	return v.table
}

func (v *quranView) load() {
	ui := v.ui
	switch {
	case v.level == levelEditions && v.reciter == nil && v.reciterID != 0:
		v.openReciter(v.reciterID, 0, 0)
	default:
		if !ui.quran.SurahsState().HasData {
			ui.goFetch("surahs", func(ctx context.Context) error {
				_, err := ui.quran.LoadSurahs(ctx)
				return err
			}, func(error) { v.refresh() })
		}
		ui.goFetch("reciters", func(ctx context.Context) error {
			_, err := ui.quran.LoadReciters(ctx)
			return err
		}, func(error) { v.refresh() })
	}
}

func (v *quranView) rowCount() int {
	switch v.level {
	case levelEditions:
		if v.reciter == nil {
			return 0
		}
		return len(v.reciter.Moshaf)
	case levelSurahs:
		return len(v.surahs)
	default:
		return len(v.reciters)
	}
}

func (v *quranView) refresh() {
	if v.table == nil {
		return
	}
	row, _ := v.table.GetSelection()
	v.table.Clear()

	switch v.level {
	case levelEditions:
		v.renderEditions()
	case levelSurahs:
		v.renderSurahs()
	default:
		v.renderReciters()
	}

	if count := v.rowCount(); count > 0 {
		selectIndex(v.table, row-1, count)
	}
}

func (v *quranView) renderReciters() {
	ui := v.ui
	ui.setTableHeader(v.table, reciterColumns)

	state := ui.quran.RecitersState()
	if msg := snapshotMessage(state, "reciters"); msg != "" {
		v.reciters = nil
		v.table.SetTitle("Reciters")
		ui.setMessageRow(v.table, msg)
		return
	}

	v.reciters = service.FilterReciters(state.Data, v.query)
	v.table.SetTitle(fmt.Sprintf("Reciters (%d)", len(v.reciters)))
	if len(v.reciters) == 0 {
		ui.setMessageRow(v.table, fmt.Sprintf("No reciter matches %q", v.query))
		return
	}
	for i, r := range v.reciters {
		v.table.SetCell(i+1, 0, ui.textCell(r.Name).SetExpansion(3))
		v.table.SetCell(i+1, 1, ui.textCell(fmt.Sprint(len(r.Moshaf))).SetAlign(tview.AlignRight))
	}
}

func (v *quranView) renderEditions() {
	ui := v.ui
	ui.setTableHeader(v.table, editionColumns)

	if v.reciter == nil {
		v.table.SetTitle("Editions")
		msg := "Loading reciter..."
		if state := ui.quran.ReciterState(); !state.Loading && state.Err != nil {
			msg = failedMessage(state.Err)
		}
		ui.setMessageRow(v.table, msg)
		return
	}

	v.table.SetTitle(fmt.Sprintf("%s · Editions", v.reciter.Name))
	for i, m := range v.reciter.Moshaf {
		v.table.SetCell(i+1, 0, ui.textCell(m.Name).SetExpansion(3))
		v.table.SetCell(i+1, 1, ui.textCell(fmt.Sprint(m.SurahTotal)).SetAlign(tview.AlignRight))
	}
}

// editionSurahs is the edition's surah list, narrowed to favorites when asked.
func (v *quranView) editionSurahs() []quran.Surah {
	if v.moshaf == nil {
		return nil
	}
	surahs := v.ui.quran.SurahsFor(*v.moshaf)
	if v.favoritesOnly {
		v.ui.mu.Lock()
		surahs = lo.Filter(surahs, func(su quran.Surah, _ int) bool {
			return v.ui.config.IsFavorite(su.ID)
		})
		v.ui.mu.Unlock()
	}
	return surahs
}

func (v *quranView) renderSurahs() {
	ui := v.ui
	ui.setTableHeader(v.table, surahColumns)

	if msg := snapshotMessage(ui.quran.SurahsState(), "surahs"); msg != "" {
		v.surahs = nil
		ui.setMessageRow(v.table, msg)
		return
	}

	v.surahs = service.FilterSurahs(v.editionSurahs(), v.query)
	title := fmt.Sprintf("%s · %s (%d)", v.reciter.Name, v.moshaf.Name, len(v.surahs))
	if v.favoritesOnly {
		title += " ★"
	}
	v.table.SetTitle(title)

	if len(v.surahs) == 0 {
		msg := "No surah matches"
		if v.favoritesOnly && v.query == "" {
			msg = "No favorite surahs in this edition (press f on a surah)"
		}
		ui.setMessageRow(v.table, msg)
		return
	}

	st := ui.ctrl.Status()
	for i := range v.surahs {
		v.setSurahRow(i+1, v.surahs[i], st)
	}

	if v.selectSurah != 0 {
		if _, idx, ok := lo.FindIndexOf(v.surahs, func(su quran.Surah) bool { return su.ID == v.selectSurah }); ok {
			v.table.Select(idx+1, 0)
		}
		v.selectSurah = 0
	}
}

func (v *quranView) setSurahRow(row int, su quran.Surah, st player.Status) {
	ui := v.ui

	ui.mu.Lock()
	favIcon := " "
	if ui.config.IsFavorite(su.ID) {
		favIcon = "★"
	}
	ui.mu.Unlock()
	v.table.SetCell(row, 0, ui.textCell(favIcon).SetMaxWidth(2))

	v.table.SetCell(row, 1, ui.textCell(playIcon(st, su.ID, v.moshaf)).SetMaxWidth(2))
	v.table.SetCell(row, 2, ui.textCell(quran.PadSurahID(su.ID)).SetAlign(tview.AlignRight))
	v.table.SetCell(row, 3, ui.textCell(su.Name).SetExpansion(3))
	v.table.SetCell(row, 4, ui.textCell(su.Revelation()).SetExpansion(1))
}

// playIcon marks the row of the item the player holds.
func playIcon(st player.Status, surahID int, m *quran.Moshaf) string {
	if st.Item == nil || st.Item.ID != surahID || m == nil || st.Item.Edition == nil ||
		st.Item.Edition.Server != m.Server {
		return " "
	}
	switch st.State {
	case player.StatePaused:
		return PauseIcon
	case player.StatePlaying, player.StateLoading:
		return "➤"
	case player.StateError:
		return "✗"
	default:
		return " "
	}
}

func (v *quranView) activate(index int) {
	if index < 0 || index >= v.rowCount() {
		return
	}
	switch v.level {
	case levelReciters:
		v.openReciter(v.reciters[index].ID, 0, 0)
	case levelEditions:
		v.openEdition(v.reciter.Moshaf[index], 0)
	case levelSurahs:
		v.play(v.surahs[index])
	}
}

// openReciter fetches a reciter's editions. A known moshafID opens that edition directly.
func (v *quranView) openReciter(id, moshafID, surahID int) {
	ui := v.ui
	v.level = levelEditions
	v.reciterID = id
	v.reciter = nil
	v.moshaf = nil
	v.clearQuery()
	v.refresh()

	ui.goFetch("reciter", func(ctx context.Context) error {
		_, err := ui.quran.LoadReciter(ctx, id)
		return err
	}, func(err error) {
		if v.reciterID != id || v.level != levelEditions {
			return
		}
		state := ui.quran.ReciterState()
		if err != nil || state.Data == nil {
			v.refresh()
			return
		}
		v.reciter = state.Data

		if m, ok := v.reciter.FindMoshaf(moshafID); ok {
			v.openEdition(m, surahID)
			return
		}
		if len(v.reciter.Moshaf) == 1 {
			v.openEdition(v.reciter.Moshaf[0], surahID)
			return
		}
		v.refresh()
		selectIndex(v.table, 0, v.rowCount())
	})
}

func (v *quranView) openEdition(m quran.Moshaf, surahID int) {
	v.level = levelSurahs
	v.moshaf = &m
	v.selectSurah = surahID
	v.clearQuery()
	v.refresh()
	if surahID == 0 {
		selectIndex(v.table, 0, v.rowCount())
	}
}

func (v *quranView) clearQuery() {
	v.query = ""
	if v.search != nil && v.search.GetText() != "" {
		v.search.SetText("")
	}
}

// back climbs one level. It reports false at the top level.
func (v *quranView) back() bool {
	switch v.level {
	case levelSurahs:
		if v.reciter != nil && len(v.reciter.Moshaf) > 1 {
			v.level = levelEditions
		} else {
			v.level = levelReciters
		}
	case levelEditions:
		v.level = levelReciters
	default:
		return false
	}
	v.clearQuery()
	v.refresh()
	if v.level == levelReciters {
		if idx := lo.IndexOf(lo.Map(v.reciters, func(r quran.Reciter, _ int) int { return r.ID }), v.reciterID); idx >= 0 {
			selectIndex(v.table, idx, len(v.reciters))
		}
	}
	return true
}

func (v *quranView) play(su quran.Surah) {
	ui := v.ui
	if v.reciter == nil || v.moshaf == nil {
		return
	}

	queue := service.Queue(*v.reciter, *v.moshaf, v.editionSurahs())
	item, ok := lo.Find(queue, func(it player.Item) bool { return it.ID == su.ID })
	if !ok {
		return
	}
	ui.ctrl.SetQueue(queue)

	ui.mu.Lock()
	ui.config.LastSelection = config.Selection{
		ReciterID: v.reciter.ID,
		MoshafID:  v.moshaf.ID,
		SurahID:   su.ID,
	}
	ui.mu.Unlock()
	ui.saveConfigAsync()

	log.Info().Str("reciter", v.reciter.Name).Str("surah", su.Name).Msg("Starting playback")
	ui.playerAction(func() error {
		return ui.ctrl.Load(ui.ctx, item)
	})
}

func (v *quranView) toggleFavorite() {
	ui := v.ui
	index := selectedIndex(v.table, len(v.surahs))
	if index < 0 {
		return
	}
	su := v.surahs[index]

	ui.mu.Lock()
	added := ui.config.ToggleFavorite(config.Favorite{ID: su.ID, Name: su.Name})
	ui.mu.Unlock()
	ui.saveConfigAsync()

	if added {
		ui.setFlash(fmt.Sprintf("★ %s added to favorites", su.Name))
	} else {
		ui.setFlash(fmt.Sprintf("%s removed from favorites", su.Name))
	}
	log.Debug().Int("surah", su.ID).Bool("favorite", added).Msg("Favorite toggled")

	if v.favoritesOnly {
		v.refresh()
		return
	}
	v.setSurahRow(index+1, su, ui.ctrl.Status())
}

// restoreSelection reopens the last played reciter and edition without playing.
func (v *quranView) restoreSelection() {
	v.ui.mu.Lock()
	sel := v.ui.config.LastSelection
	v.ui.mu.Unlock()

	if sel.ReciterID == 0 || v.ui.quran.FindReciterIndex(sel.ReciterID) < 0 {
		return
	}
	log.Debug().Int("reciter", sel.ReciterID).Int("moshaf", sel.MoshafID).Msg("Restoring last selection")
	v.openReciter(sel.ReciterID, sel.MoshafID, sel.SurahID)
}

func (v *quranView) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		v.back()
		return nil
	case tcell.KeyEscape:
		if v.query != "" {
			v.clearQuery()
			v.refresh()
			return nil
		}
		if v.back() {
			return nil
		}
	case tcell.KeyRune:
		switch event.Rune() {
		case '/':
			v.ui.app.SetFocus(v.search)
			return nil
		case 'f', 'F':
			if v.level == levelSurahs {
				v.toggleFavorite()
				return nil
			}
		case 'v', 'V':
			if v.level == levelSurahs {
				v.favoritesOnly = !v.favoritesOnly
				v.refresh()
				selectIndex(v.table, 0, v.rowCount())
				return nil
			}
		}
	}
	return event
}
