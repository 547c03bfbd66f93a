package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/noor-alrahman/noor-cli/internal/api"
	"github.com/noor-alrahman/noor-cli/internal/assets"
	"github.com/noor-alrahman/noor-cli/internal/cache"
	"github.com/noor-alrahman/noor-cli/internal/config"
	"github.com/noor-alrahman/noor-cli/internal/geo"
	"github.com/noor-alrahman/noor-cli/internal/live"
	"github.com/noor-alrahman/noor-cli/internal/player"
	"github.com/noor-alrahman/noor-cli/internal/service"
	"github.com/noor-alrahman/noor-cli/internal/ui"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	debug bool
	lat   float64
	lon   float64
	city  string
}

var opts globalOptions

func init() {
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Float64Var(&opts.lat, "lat", 0, "Latitude for prayer times and nearby mosques")
	rootCmd.PersistentFlags().Float64Var(&opts.lon, "lon", 0, "Longitude for prayer times and nearby mosques")
	rootCmd.PersistentFlags().StringVar(&opts.city, "city", "", "City to look up when no coordinates are given")
	rootCmd.MarkFlagsRequiredTogether("lat", "lon")

	rootCmd.Flags().StringP("page", "p", ui.RouteHome.String(), "Page to open on start ("+strings.Join(ui.RouteNames(), ", ")+")")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("page", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return ui.RouteNames(), cobra.ShellCompDirectiveNoFileComp
	}))

	rootCmd.SetUsageTemplate(rootCmd.UsageTemplate() + configPathNote())
}

var rootCmd = &cobra.Command{
	Use:           "noor",
	Short:         config.AppTagline,
	Long:          fmt.Sprintf("%s v%s - %s", config.AppName, config.AppVersion, config.AppDescription),
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		start, err := ui.ParseRoute(lo.Must(cmd.Flags().GetString("page")))
		handleErr(err)

		setupTUILogging(opts.debug)
		handleErr(runTUI(cmd, start))
	},
}

func configPathNote() string {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return ""
	}
	if _, statErr := os.Stat(configPath); statErr == nil {
		return fmt.Sprintf("\nConfig file: %s\n", configPath)
	}
	return "\nConfig file will be created on first use.\n"
}

// loadConfig never fails; a broken settings file falls back to defaults.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		return config.DefaultConfig()
	}
	return cfg
}

// newLocator prefers coordinates from flags, then the settings, then a geocoded city.
func newLocator(cmd *cobra.Command, cfg *config.Config, geocoder geo.Geocoder) geo.Locator {
	var chain geo.Chain

	flags := cmd.Flags()
	if flags.Changed("lat") && flags.Changed("lon") {
		lat, lon := opts.lat, opts.lon
		chain = append(chain, geo.StaticLocator{Lat: &lat, Lon: &lon, Label: opts.city})
	}
	if cfg.Location.HasCoordinates() {
		chain = append(chain, geo.StaticLocator{
			Lat:   cfg.Location.Latitude,
			Lon:   cfg.Location.Longitude,
			Label: cfg.Location.City,
		})
	}

	city := cfg.Location.City
	if flags.Changed("city") {
		city = opts.city
	}
	if city != "" {
		chain = append(chain, geo.CityLocator{City: city, Geocoder: geocoder})
	}
	return chain
}

type services struct {
	cache    *cache.Cache
	quran    *service.QuranService
	prayer   *service.PrayerService
	mosques  *service.MosqueService
	azkar    *service.AzkarService
	channels *service.ChannelService
}

func newServices(cmd *cobra.Command, cfg *config.Config) (*services, error) {
	c, err := cache.NewCache()
	if err != nil {
		return nil, err
	}

	nominatim := api.NewNominatimClient()
	locator := newLocator(cmd, cfg, nominatim)
	store := assets.NewStore(cfg.AssetsDir)

	return &services{
		cache:    c,
		quran:    service.NewQuranService(api.NewMP3QuranClient(), cfg.Language),
		prayer:   service.NewPrayerService(locator, api.NewAladhanClient(), nominatim, cfg.PrayerMethod),
		mosques:  service.NewMosqueService(locator, api.NewOverpassClient(), cfg.MosqueRadius),
		azkar:    service.NewAzkarService(store),
		channels: service.NewChannelService(store, c),
	}, nil
}

func runTUI(cmd *cobra.Command, start ui.Route) error {
	cfg := loadConfig()

	svc, err := newServices(cmd, cfg)
	if err != nil {
		return err
	}
	go func() {
		if err := svc.cache.CleanExpired(); err != nil {
			log.Debug().Err(err).Msg("Failed to clean cache")
		}
	}()

	ctrl := player.NewController(player.NewAudioElement(svc.cache), player.Options{
		Volume:      cfg.Volume,
		Repeat:      cfg.RepeatCount,
		EndBehavior: cfg.EndBehavior,
	})
	defer func() {
		if err := ctrl.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close player")
		}
	}()

	session := live.NewSession(cfg.Live, live.NewExternalPlayer(cfg.Live.Player, cfg.Live.PlayerArgs), api.UserAgent())

	noorUI := ui.NewUI(ui.Deps{
		Config:   cfg,
		Player:   ctrl,
		Quran:    svc.quran,
		Prayer:   svc.prayer,
		Mosques:  svc.mosques,
		Azkar:    svc.azkar,
		Channels: svc.channels,
		Live:     session,
		Start:    start,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		if _, ok := <-sigChan; ok {
			log.Info().Msg("Received shutdown signal, cleaning up...")
			noorUI.Shutdown()
		}
	}()

	log.Info().Str("page", start.String()).Msg("Starting UI...")

	uiDone := make(chan error, 1)
	go func() {
		uiDone <- noorUI.Run()
	}()

	if err := <-uiDone; err != nil {
		log.Error().Err(err).Msg("Error running UI")
		return err
	}
	log.Info().Msgf("%s stopped", config.AppName)
	return nil
}
