// Package ui is the terminal shell: a page per feature, a shared player panel and a status footer.
package ui

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/noor-alrahman/noor-cli/internal/catalog"
	"github.com/noor-alrahman/noor-cli/internal/config"
	"github.com/noor-alrahman/noor-cli/internal/live"
	"github.com/noor-alrahman/noor-cli/internal/player"
	"github.com/noor-alrahman/noor-cli/internal/service"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	VolumeStep            = 0.05
	SeekStep              = 10 * time.Second
	HeaderHeight          = 3
	NavHeight             = 1
	FooterHeightWide      = 3 // Wide: 1 row with padding (top + text + bottom)
	FooterHeightNarrow    = 6 // Narrow: 2 rows × 3 lines each
	PlayerPanelHeight     = volumeBarHeight + 3
	ProgressWidth         = 40
	FooterBreakpoint      = 130 // Width threshold for responsive footer
	TickInterval          = 250 * time.Millisecond
	MinLoadingDisplayTime = 900 * time.Millisecond
	MinStatusDisplayTime  = 200 * time.Millisecond
)

// PauseIcon uses platform-specific character (Windows renders ⏸ as emoji)
var PauseIcon = func() string {
	if runtime.GOOS == "windows" {
		return "❚❚"
	}
	return "⏸"
}()

// Deps are the collaborators the shell drives.
type Deps struct {
	Config   *config.Config
	Player   *player.Controller
	Quran    *service.QuranService
	Prayer   *service.PrayerService
	Mosques  *service.MosqueService
	Azkar    *service.AzkarService
	Channels *service.ChannelService
	Live     *live.Session
	Start    Route
}

// view is one routed page. All methods run on the UI goroutine.
type view interface {
	// build creates the primitives from the current theme and state.
	build() tview.Primitive
	focus() tview.Primitive
	// load starts fetching the page data.
	load()
	// refresh re-renders from the service snapshots.
	refresh()
	// handleKey sees keys before the global handler. Returning nil consumes the key.
	handleKey(event *tcell.EventKey) *tcell.EventKey
}

// ticker is implemented by views that change with the clock.
type ticker interface {
	tick()
}

type UI struct {
	app      *tview.Application
	config   *config.Config
	ctrl     *player.Controller
	quran    *service.QuranService
	prayer   *service.PrayerService
	mosques  *service.MosqueService
	azkar    *service.AzkarService
	channels *service.ChannelService
	session  *live.Session

	ctx    context.Context
	cancel context.CancelFunc

	pages         *tview.Pages
	routePages    *tview.Pages
	mainLayout    *tview.Flex
	contentLayout *tview.Flex
	navBar        *tview.TextView
	nowPlaying    *tview.TextView
	volumeView    *tview.Flex
	helpPanel     *tview.Box
	loadingScreen *tview.Flex
	loadingText   *tview.TextView
	progressBar   *tview.TextView

	route  Route
	start  Route
	views  map[Route]view
	loaded map[Route]bool
	ready  bool

	statusRenderer  *StatusRenderer
	lastFooterWidth int

	redraw      chan struct{}
	stopUpdates chan struct{}
	stopOnce    sync.Once

	// mu guards config and the flash message.
	mu         sync.Mutex
	settings   *configWriter
	flash      string
	flashUntil time.Time

	colors struct {
		background           tcell.Color
		foreground           tcell.Color
		borders              tcell.Color
		highlight            tcell.Color
		headerBackground     tcell.Color
		listHeaderBackground tcell.Color
		listHeaderForeground tcell.Color
		helpBackground       tcell.Color
		helpForeground       tcell.Color
		helpHotkey           tcell.Color
		tagBackground        tcell.Color
		modalBackground      tcell.Color
	}
}

func NewUI(deps Deps) *UI {
	ctx, cancel := context.WithCancel(context.Background())

	ui := &UI{
		app:         tview.NewApplication(),
		config:      deps.Config,
		ctrl:        deps.Player,
		quran:       deps.Quran,
		prayer:      deps.Prayer,
		mosques:     deps.Mosques,
		azkar:       deps.Azkar,
		channels:    deps.Channels,
		session:     deps.Live,
		ctx:         ctx,
		cancel:      cancel,
		start:       deps.Start,
		loaded:      make(map[Route]bool),
		redraw:      make(chan struct{}, 1),
		stopUpdates: make(chan struct{}),
	}

	ui.statusRenderer = NewStatusRenderer()
	ui.applyTheme()

	ui.settings = newConfigWriter(ui.configSnapshot)
	go ui.settings.run(ui.stopUpdates)

	ui.views = map[Route]view{
		RouteHome:    newHomeView(ui),
		RouteQuran:   newQuranView(ui),
		RouteAzkar:   newAzkarView(ui),
		RouteTimes:   newTimesView(ui),
		RouteMosques: newMosquesView(ui),
		RouteLive:    newLiveView(ui),
		RouteAbout:   newAboutView(ui),
	}

	ui.ctrl.OnChange(func(player.Status) {
		ui.requestRedraw()
	})

	log.Debug().Msgf("Loaded volume from config: %d%%", percent(ui.config.Volume))
	return ui
}

func (ui *UI) applyTheme() {
	theme := ui.config.ActiveTheme()

	ui.colors.background = config.GetColor(theme.Background)
	ui.colors.foreground = config.GetColor(theme.Foreground)
	ui.colors.borders = config.GetColor(theme.Borders)
	ui.colors.highlight = config.GetColor(theme.Highlight)
	ui.colors.headerBackground = config.GetColor(theme.HeaderBackground)
	ui.colors.listHeaderBackground = config.GetColor(theme.ListHeaderBg)
	ui.colors.listHeaderForeground = config.GetColor(theme.ListHeaderFg)
	ui.colors.helpBackground = config.GetColor(theme.HelpBackground)
	ui.colors.helpForeground = config.GetColor(theme.HelpForeground)
	ui.colors.helpHotkey = config.GetColor(theme.HelpHotkey)
	ui.colors.tagBackground = config.GetColor(theme.TagBackground)
	ui.colors.modalBackground = config.GetColor(theme.ModalBackground)

	ui.statusRenderer.SetPrimaryColor(ui.colors.highlight.String())
	ui.statusRenderer.SetMutedColor(config.GetColor(theme.MutedVolume).String())
}

// requestRedraw never blocks; it may be called from any goroutine.
func (ui *UI) requestRedraw() {
	select {
	case ui.redraw <- struct{}{}:
	default:
	}
}

// saveConfigAsync writes a copy of the settings in the background.
func (ui *UI) saveConfigAsync() {
	ui.settings.request()
}

func (ui *UI) configSnapshot() *config.Config {
	ui.mu.Lock()
	defer ui.mu.Unlock()

	snapshot := *ui.config
	snapshot.Favorites = append([]config.Favorite{}, ui.config.Favorites...)
	snapshot.Live.PlayerArgs = append([]string(nil), ui.config.Live.PlayerArgs...)
	return &snapshot
}

func (ui *UI) stop() {
	ui.stopOnce.Do(func() {
		close(ui.stopUpdates)
		ui.cancel()
		ui.ctrl.Stop()
		if err := ui.session.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close live session")
		}

		ui.settings.flush()

		ui.app.Stop()
	})
}

// Shutdown stops the UI gracefully from external callers (e.g., signal handlers).
func (ui *UI) Shutdown() {
	ui.app.QueueUpdateDraw(func() {
		ui.stop()
	})
}

func (ui *UI) Run() error {
	ui.setupLoadingScreen()
	ui.app.SetRoot(ui.loadingScreen, true)
	ui.configureScreen()

	go ui.initAsync()

	return ui.app.Run()
}

func (ui *UI) configureScreen() {
	ui.app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		screen.SetStyle(tcell.StyleDefault.Background(ui.colors.background))
		screen.Clear()
		return false
	})

	var titleSet sync.Once
	ui.app.SetAfterDrawFunc(func(screen tcell.Screen) {
		titleSet.Do(func() { screen.SetTitle(config.AppName) })
	})
}

func (ui *UI) setupLoadingScreen() {
	ui.loadingText = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText("Loading Quran catalog... (1/3)")
	ui.loadingText.SetTextColor(ui.colors.foreground).
		SetBackgroundColor(ui.colors.background)

	ui.progressBar = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText(renderProgress(0, 30))
	ui.progressBar.SetTextColor(ui.colors.highlight).
		SetBackgroundColor(ui.colors.background)

	content := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.loadingText, 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.progressBar, 1, 0, false)
	content.SetBackgroundColor(ui.colors.background)

	ui.loadingScreen = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(content, 3, 0, false).
		AddItem(nil, 0, 1, false)

	ui.loadingScreen.SetBackgroundColor(ui.colors.background)
}

func (ui *UI) animateProgress(fromPercent, toPercent int, duration time.Duration) {
	steps := toPercent - fromPercent
	if steps <= 0 {
		return
	}
	stepDuration := duration / time.Duration(steps)
	lastBar := renderProgress(float64(fromPercent), 30)

	for p := fromPercent + 1; p <= toPercent; p++ {
		time.Sleep(stepDuration)
		if bar := renderProgress(float64(p), 30); bar != lastBar {
			ui.app.QueueUpdateDraw(func() {
				ui.progressBar.SetText(bar)
			})
			lastBar = bar
		}
	}
}

// initAsync loads the Quran catalogs behind the loading screen. Failures are not fatal:
// each page shows its own error and can be retried.
func (ui *UI) initAsync() {
	const totalStages = 3
	stagePercent := func(stage int) int { return (stage * 100) / totalStages }

	startTime := time.Now()

	animDone := make(chan struct{})
	go func() {
		ui.animateProgress(stagePercent(0), stagePercent(1), MinStatusDisplayTime)
		close(animDone)
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := ui.quran.LoadSurahs(ui.ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to load surahs")
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := ui.quran.LoadReciters(ui.ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to load reciters")
		}
	}()
	wg.Wait()
	ui.loaded[RouteQuran] = true
	log.Debug().Msgf("Loaded %d reciters and %d surahs in %v",
		len(ui.quran.Reciters()), len(ui.quran.Surahs()), time.Since(startTime))

	<-animDone

	ui.app.QueueUpdateDraw(func() {
		ui.loadingText.SetText("Loading configuration... (2/3)")
	})

	if ui.quran.SurahsState().HasData && len(ui.quran.Surahs()) > 0 {
		ui.mu.Lock()
		ui.config.CleanupFavorites(ui.quran.ValidSurahIDs())
		ui.mu.Unlock()
		ui.saveConfigAsync()
	}

	ui.animateProgress(stagePercent(1), stagePercent(2), MinStatusDisplayTime)

	ui.app.QueueUpdateDraw(func() {
		ui.loadingText.SetText("Building interface... (3/3)")
	})

	ui.animateProgress(stagePercent(2), stagePercent(3), MinStatusDisplayTime)

	// Floor, not ceiling: wait only if real work finished early.
	if elapsed := time.Since(startTime); elapsed < MinLoadingDisplayTime {
		time.Sleep(MinLoadingDisplayTime - elapsed)
	}
	log.Debug().Msgf("Total loading time: %v", time.Since(startTime))

	ui.app.QueueUpdateDraw(func() {
		ui.setupUI()
		ui.app.SetRoot(ui.pages, true).EnableMouse(true)
		ui.ready = true
		ui.navigate(ui.start)
		if q, ok := ui.views[RouteQuran].(*quranView); ok {
			q.restoreSelection()
		}
	})

	go ui.runUpdates()
}

func (ui *UI) setupUI() {
	header := ui.createHeader()

	ui.navBar = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	ui.navBar.SetTextColor(ui.colors.foreground).
		SetBackgroundColor(ui.colors.background)

	ui.routePages = tview.NewPages()
	ui.routePages.SetBackgroundColor(ui.colors.background)
	for _, rt := range routes {
		ui.routePages.AddPage(rt.name, ui.views[rt.route].build(), true, false)
	}

	ui.helpPanel = ui.createFooter()

	ui.contentLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(header, HeaderHeight, 0, false).
		AddItem(ui.navBar, NavHeight, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.routePages, 0, 1, true).
		AddItem(nil, 1, 0, false).
		AddItem(ui.createPlayerPanel(), PlayerPanelHeight, 0, false).
		AddItem(ui.helpPanel, FooterHeightWide, 0, false)
	ui.contentLayout.SetBackgroundColor(ui.colors.background)
	ui.lastFooterWidth = 0

	wrapper := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(nil, 3, 0, false).
		AddItem(ui.contentLayout, 0, 1, true).
		AddItem(nil, 3, 0, false)
	wrapper.SetBackgroundColor(ui.colors.background)

	ui.mainLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 1, 0, false).
		AddItem(wrapper, 0, 1, true).
		AddItem(nil, 1, 0, false)
	ui.mainLayout.SetBackgroundColor(ui.colors.background)

	ui.pages = tview.NewPages().
		AddPage("main", ui.mainLayout, true, true)
	ui.pages.SetBackgroundColor(ui.colors.background)

	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if ui.pages.HasPage("modal") || ui.pages.HasPage("error-modal") {
			return event
		}
		return ui.globalInputHandler(event)
	})
}

func (ui *UI) createHeader() tview.Primitive {
	titleView := tview.NewTextView()
	titleView.SetText(" " + config.AppName + "  ·  " + config.AppTagline)
	titleView.SetTextAlign(tview.AlignLeft)
	titleView.SetTextColor(ui.colors.foreground)
	titleView.SetBackgroundColor(ui.colors.headerBackground)

	versionView := tview.NewTextView()
	versionView.SetText("v" + config.AppVersion + " ")
	versionView.SetTextAlign(tview.AlignRight)
	versionView.SetTextColor(ui.colors.foreground)
	versionView.SetBackgroundColor(ui.colors.headerBackground)

	textFlex := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(titleView, 0, 1, false).
		AddItem(versionView, 10, 0, false)
	textFlex.SetBackgroundColor(ui.colors.headerBackground)

	textWithPadding := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(tview.NewBox().SetBackgroundColor(ui.colors.headerBackground), 1, 0, false).
		AddItem(textFlex, 0, 1, false).
		AddItem(tview.NewBox().SetBackgroundColor(ui.colors.headerBackground), 1, 0, false)
	textWithPadding.SetBackgroundColor(ui.colors.headerBackground)

	headerFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewBox().SetBackgroundColor(ui.colors.headerBackground), 1, 0, false).
		AddItem(textWithPadding, 1, 0, false).
		AddItem(tview.NewBox().SetBackgroundColor(ui.colors.headerBackground), 1, 0, false)
	headerFlex.SetBackgroundColor(ui.colors.headerBackground)

	return headerFlex
}

func (ui *UI) createPlayerPanel() tview.Primitive {
	ui.nowPlaying = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	ui.nowPlaying.SetTextColor(ui.colors.foreground).
		SetBackgroundColor(ui.colors.background)
	ui.nowPlaying.SetBorder(true).
		SetBorderColor(ui.colors.borders).
		SetTitle(" Now Playing ").
		SetTitleColor(ui.colors.foreground).
		SetBorderPadding(0, 0, 1, 1)

	ui.volumeView = ui.createGraphicalVolumeBar()

	panel := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(ui.nowPlaying, 0, 1, false).
		AddItem(ui.volumeView, 7, 0, false)
	panel.SetBackgroundColor(ui.colors.background)

	ui.updatePlayerPanel()
	return panel
}

func (ui *UI) updatePlayerPanel() {
	if ui.nowPlaying == nil {
		return
	}
	st := ui.ctrl.Status()
	ui.nowPlaying.SetText(ui.renderNowPlaying(st))
	ui.updateVolumeDisplay()
}

func (ui *UI) renderNowPlaying(st player.Status) string {
	highlight := ui.colors.highlight.String()
	var b strings.Builder

	if st.Item == nil {
		b.WriteString("\nNothing playing. Pick a reciter on the [::b]Quran[::-] page (key 2).\n")
	} else {
		fmt.Fprintf(&b, "[%s::b]%s[-::-]\n", highlight, tview.Escape(st.Item.Title))
		fmt.Fprintf(&b, "%s\n", tview.Escape(st.Item.Artist))
		fmt.Fprintf(&b, "[%s]%s[-] %s / %s\n", highlight, renderProgress(st.Progress, ProgressWidth),
			formatClock(st.Position), formatClock(st.Duration))
	}

	ui.mu.Lock()
	endBehavior := ui.config.EndBehavior
	ui.mu.Unlock()

	fmt.Fprintf(&b, "\nRepeat: %d  │  At end: %s", st.Repeat, endBehavior)
	if ch := ui.session.Current(); ch != nil {
		fmt.Fprintf(&b, "  │  Live: %s", tview.Escape(ch.Name))
	}
	return b.String()
}

// runUpdates drives animation and redraws until the UI stops.
func (ui *UI) runUpdates() {
	t := time.NewTicker(TickInterval)
	defer t.Stop()

	for {
		select {
		case <-ui.stopUpdates:
			return
		case <-ui.redraw:
			ui.app.QueueUpdateDraw(func() {
				ui.updatePlayerPanel()
				ui.currentView().refresh()
			})
		case <-t.C:
			ui.app.QueueUpdateDraw(func() {
				ui.statusRenderer.AdvanceAnimation()
				ui.updatePlayerPanel()
				if v, ok := ui.currentView().(ticker); ok {
					v.tick()
				}
			})
		}
	}
}

func (ui *UI) currentView() view {
	return ui.views[ui.route]
}

// navigate switches to route, loading its data the first time it is shown.
func (ui *UI) navigate(r Route) {
	if !ui.ready {
		return
	}
	ui.route = r
	ui.routePages.SwitchToPage(r.String())
	ui.navBar.SetText(renderNavBar(r, ui.colors.helpHotkey.String(), ui.colors.highlight.String()))

	v := ui.views[r]
	if !ui.loaded[r] {
		ui.loaded[r] = true
		v.load()
	}
	v.refresh()
	ui.app.SetFocus(v.focus())
	log.Debug().Str("page", r.String()).Msg("Navigated")
}

func (ui *UI) restoreFocus() {
	if ui.ready {
		ui.app.SetFocus(ui.currentView().focus())
	}
}

// toggleTheme flips dark mode and rebuilds every page with the new palette.
func (ui *UI) toggleTheme() {
	ui.mu.Lock()
	ui.config.DarkMode = !ui.config.DarkMode
	dark := ui.config.DarkMode
	ui.mu.Unlock()
	ui.saveConfigAsync()

	ui.applyTheme()
	ui.setupUI()
	ui.app.SetRoot(ui.pages, true)
	ui.navigate(ui.route)
	log.Debug().Bool("dark", dark).Msg("Theme toggled")
}

func (ui *UI) globalInputHandler(event *tcell.EventKey) *tcell.EventKey {
	if _, typing := ui.app.GetFocus().(*tview.InputField); typing {
		return event
	}
	if event = ui.currentView().handleKey(event); event == nil {
		return nil
	}

	switch event.Key() {
	case tcell.KeyRune:
		if r, ok := routeForKey(event.Rune()); ok {
			ui.navigate(r)
			return nil
		}
		switch event.Rune() {
		case 'q', 'Q':
			ui.stop()
			return nil
		case ' ':
			ui.playerAction(ui.ctrl.TogglePlay)
			return nil
		case '>':
			ui.playerAction(ui.ctrl.Next)
			return nil
		case '<':
			ui.playerAction(ui.ctrl.Previous)
			return nil
		case 's', 'S':
			ui.ctrl.Stop()
			return nil
		case '[':
			ui.changeRepeat(-1)
			return nil
		case ']':
			ui.changeRepeat(1)
			return nil
		case 'e', 'E':
			ui.toggleEndBehavior()
			return nil
		case '+', '=':
			ui.adjustVolume(VolumeStep)
			return nil
		case '-', '_':
			ui.adjustVolume(-VolumeStep)
			return nil
		case 'm', 'M':
			ui.toggleMute()
			return nil
		case 'd', 'D':
			ui.toggleTheme()
			return nil
		case 'r', 'R':
			ui.currentView().load()
			ui.currentView().refresh()
			return nil
		case '?':
			ui.showHelpModal()
			return nil
		}
	case tcell.KeyEscape:
		ui.stop()
		return nil
	case tcell.KeyRight:
		ui.seek(SeekStep)
		return nil
	case tcell.KeyLeft:
		ui.seek(-SeekStep)
		return nil
	}
	return event
}

// playerAction runs a controller call that may load media off the UI goroutine.
func (ui *UI) playerAction(fn func() error) {
	go func() {
		err := fn()
		if err == nil || errors.Is(err, catalog.ErrSuperseded) || errors.Is(err, context.Canceled) {
			return
		}
		log.Error().Err(err).Msg("Playback failed")
		ui.app.QueueUpdateDraw(func() {
			ui.showError("Playback Error", err, func() {
				ui.playerAction(ui.ctrl.TogglePlay)
			})
		})
	}()
}

func (ui *UI) seek(delta time.Duration) {
	if err := ui.ctrl.SeekBy(delta); err != nil {
		log.Debug().Err(err).Msg("Seek failed")
	}
}

func (ui *UI) changeRepeat(delta int) {
	ui.mu.Lock()
	ui.config.RepeatCount = config.ClampRepeat(ui.config.RepeatCount + delta)
	n := ui.config.RepeatCount
	ui.mu.Unlock()

	ui.ctrl.SetRepeat(n)
	ui.setFlash(fmt.Sprintf("Repeat each surah %d×", n))
	ui.saveConfigAsync()
}

func (ui *UI) toggleEndBehavior() {
	ui.mu.Lock()
	if ui.config.EndBehavior == config.EndStop {
		ui.config.EndBehavior = config.EndAdvance
	} else {
		ui.config.EndBehavior = config.EndStop
	}
	b := ui.config.EndBehavior
	ui.mu.Unlock()

	ui.ctrl.SetEndBehavior(b)
	ui.setFlash(fmt.Sprintf("At end of surah: %s", b))
	ui.updatePlayerPanel()
	ui.saveConfigAsync()
}
