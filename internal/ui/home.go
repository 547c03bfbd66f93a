package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/noor-alrahman/noor-cli/internal/config"
	"github.com/noor-alrahman/noor-cli/internal/prayer"
	"github.com/rivo/tview"
)

type homeView struct {
	ui   *UI
	text *tview.TextView
}

func newHomeView(ui *UI) *homeView {
	return &homeView{ui: ui}
}

func (v *homeView) build() tview.Primitive {
	v.text = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true).
		SetTextAlign(tview.AlignCenter)
	v.text.SetTextColor(v.ui.colors.foreground).
		SetBackgroundColor(v.ui.colors.background)
	v.text.SetBorder(true).
		SetBorderColor(v.ui.colors.borders).
		SetBorderPadding(1, 1, 2, 2)
	return v.text
}

func (v *homeView) focus() tview.Primitive {
	return v.text
}

// load fetches the prayer times shown in the summary.
func (v *homeView) load() {
	ui := v.ui
	ui.loaded[RouteTimes] = true
	ui.goFetch("prayer times", func(ctx context.Context) error {
		_, err := ui.prayer.Load(ctx)
		return err
	}, func(error) { v.refresh() })
}

func (v *homeView) tick() {
	v.refresh()
}

func (v *homeView) refresh() {
	if v.text == nil {
		return
	}
	ui := v.ui
	highlight := ui.colors.highlight.String()
	keyColor := ui.colors.helpHotkey.String()

	var b strings.Builder
	fmt.Fprintf(&b, "[%s::b]السلام عليكم[-::-]\n\n", highlight)
	fmt.Fprintf(&b, "[::b]%s[::-]\n%s\n\n", config.AppName, config.AppTagline)

	b.WriteString(v.prayerLine())
	b.WriteString("\n")

	st := ui.ctrl.Status()
	if st.Item != nil {
		fmt.Fprintf(&b, "Recitation: [%s]%s[-] (%s)\n", highlight, tview.Escape(st.Item.Title), strings.ToLower(st.State.String()))
	}
	if ch := ui.session.Current(); ch != nil {
		fmt.Fprintf(&b, "Live TV: [%s]%s[-]\n", highlight, tview.Escape(ch.Name))
	}

	ui.mu.Lock()
	favorites := len(ui.config.Favorites)
	ui.mu.Unlock()
	fmt.Fprintf(&b, "Favorite surahs: %d\n\n", favorites)

	for i, rt := range routes {
		if rt.route == RouteHome {
			continue
		}
		fmt.Fprintf(&b, "[%s]%d[-] %s   ", keyColor, i+1, rt.title)
	}
	v.text.SetText(b.String())
}

func (v *homeView) prayerLine() string {
	state := v.ui.prayer.State()
	if !state.HasData {
		if state.Err != nil {
			return "Prayer times unavailable: " + firstLine(friendlyErrorMessage(state.Err)) + "\n"
		}
		return "Loading prayer times...\n"
	}

	pt := state.Data
	now := time.Now().In(pt.Day.Location(time.Local))
	next, remaining, err := pt.Next(now)
	if err != nil {
		return "Prayer times unavailable\n"
	}
	return fmt.Sprintf("%s  ·  Next prayer: [%s::b]%s %s[-::-] in %s\n",
		tview.Escape(pt.Label()), v.ui.colors.highlight.String(), next.Name,
		prayer.ArabicNames[next.Name], prayer.FormatRemaining(remaining))
}

func (v *homeView) handleKey(event *tcell.EventKey) *tcell.EventKey {
	return event
}

type aboutView struct {
	ui   *UI
	text *tview.TextView
}

func newAboutView(ui *UI) *aboutView {
	return &aboutView{ui: ui}
}

func (v *aboutView) build() tview.Primitive {
	v.text = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	v.text.SetTextColor(v.ui.colors.foreground).
		SetBackgroundColor(v.ui.colors.background)
	v.text.SetBorder(true).
		SetBorderColor(v.ui.colors.borders).
		SetTitle(" About ").
		SetTitleColor(v.ui.colors.highlight).
		SetBorderPadding(1, 1, 2, 2)
	v.text.SetText(aboutText())
	return v.text
}

func aboutText() string {
	linkColor := "skyblue"
	dimColor := "gray"
	configPath, _ := config.GetConfigPath()

	return fmt.Sprintf(`[::b]%s[::-]
[%s]%s[-]

%s

Version: %s
Project: [%s:::%s]%s[-:::-]
Config:  %s

───────────────────────────────────────────

[%s]Recitations from[-] [::b]mp3quran.net[::-]  [%s:::%s]%s[-:::-]
[%s]Prayer times from[-] [::b]Aladhan[::-]
[%s]Places and mosques from[-] [::b]OpenStreetMap[::-] (Nominatim, Overpass)`,
		config.AppName,
		dimColor, config.AppTagline,
		config.AppDescription,
		config.AppVersion,
		linkColor, config.AppProjectURL, config.AppProjectShort,
		configPath,
		dimColor, linkColor, config.AppQuranSourceURL, config.AppQuranSourceURL,
		dimColor,
		dimColor)
}

func (v *aboutView) focus() tview.Primitive {
	return v.text
}

func (v *aboutView) load() {}

func (v *aboutView) refresh() {}

func (v *aboutView) handleKey(event *tcell.EventKey) *tcell.EventKey {
	return event
}
