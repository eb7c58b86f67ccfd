package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/edward-ap/nuwaradio/internal/config"
	"github.com/edward-ap/nuwaradio/internal/logging"
	"github.com/edward-ap/nuwaradio/internal/player"
	"github.com/edward-ap/nuwaradio/internal/prefs"
	"github.com/edward-ap/nuwaradio/internal/radioapp"
	"github.com/edward-ap/nuwaradio/internal/station"
)

var (
	logger   zerolog.Logger
	cfg      *config.Config
	traceLog bool

	filterLanguage  string
	filterFavorites bool
	filterSearch    string
)

var rootCmd = &cobra.Command{
	Use:           "nuwaradio",
	Short:         "Nuwa Radio - internet radio player",
	Long:          "Nuwa Radio streams the stations published by a Nuwa Radio backend through libVLC.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var playCmd = &cobra.Command{
	Use:   "play [station-id]",
	Short: "Start the interactive player",
	Long:  "Fetch the station catalog, optionally start a station, and read commands from stdin.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlay,
}

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "List the station catalog",
	Args:  cobra.NoArgs,
	RunE:  runStations,
}

var favoriteCmd = &cobra.Command{
	Use:   "favorite <station-id>",
	Short: "Toggle a station in the favorites",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavorite,
}

var volumeCmd = &cobra.Command{
	Use:   "volume <0..1>",
	Short: "Set the stored volume",
	Args:  cobra.ExactArgs(1),
	RunE:  runVolume,
}

var muteCmd = &cobra.Command{
	Use:   "mute",
	Short: "Toggle mute on the stored volume",
	Args:  cobra.NoArgs,
	RunE:  runMute,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&traceLog, "trace-log", false, "trace logging and verbose libVLC logging to vlc.log")

	stationsCmd.Flags().StringVar(&filterLanguage, "language", "", "only stations in this language")
	stationsCmd.Flags().BoolVar(&filterFavorites, "favorites", false, "only favorite stations")
	stationsCmd.Flags().StringVar(&filterSearch, "search", "", "case-insensitive name filter")

	rootCmd.AddCommand(playCmd, stationsCmd, favoriteCmd, volumeCmd, muteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = logging.Setup(cfg.Environment, traceLog)
	return nil
}

func openPrefs() (*prefs.Store, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	return prefs.Open(prefs.NewFileStorage(dir), logger)
}

func newCatalogClient() *station.Client {
	return station.NewClient(cfg.BackendURL, &http.Client{Timeout: cfg.RequestTimeout()}, logger)
}

func runPlay(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	radioapp.SetTraceLogEnabled(traceLog)
	pl := player.New(logger, cfg.NetworkCachingMs)

	storage := prefs.NewFileStorage(dir)
	app, err := radioapp.New(radioapp.Deps{
		Config:  cfg,
		Logger:  logger,
		Fetcher: newCatalogClient(),
		Storage: storage,
		Adapter: pl,
	})
	if err != nil {
		return err
	}
	// radioapp.New has already handed the stored volume to the player
	if err := pl.Init(); err != nil {
		return fmt.Errorf("initialize player: %w", err)
	}
	defer pl.Release()
	defer app.Close()

	logger.Info().Str("backend", cfg.BackendURL).Str("prefs", storage.Path()).Msg("Nuwa Radio starting")

	if err := app.Refresh(ctx); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "error: %v (type r to retry)\n", err)
	} else if len(args) == 1 {
		if err := app.SelectByID(args[0]); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "error: %v\n", err)
		}
	}

	err = app.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	logger.Info().Msg("Nuwa Radio stopped")
	return err
}

func runStations(cmd *cobra.Command, _ []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	store, err := openPrefs()
	if err != nil {
		return err
	}
	list, err := newCatalogClient().Fetch(cmd.Context())
	if err != nil {
		return err
	}
	filter := station.Filter{Language: filterLanguage, FavoritesOnly: filterFavorites, Search: filterSearch}
	radioapp.PrintStations(cmd.OutOrStdout(), filter.Apply(list, store.IsFavorite), store.IsFavorite, "")
	return nil
}

func runFavorite(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	store, err := openPrefs()
	if err != nil {
		return err
	}
	if err := store.ToggleFavorite(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s favorite: %v\n", args[0], store.IsFavorite(args[0]))
	return nil
}

func runVolume(cmd *cobra.Command, args []string) error {
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("volume: %w", err)
	}
	if err := loadConfig(); err != nil {
		return err
	}
	store, err := openPrefs()
	if err != nil {
		return err
	}
	if err := store.SetVolume(v); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "volume %.2f\n", store.Volume())
	return nil
}

func runMute(cmd *cobra.Command, _ []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	store, err := openPrefs()
	if err != nil {
		return err
	}
	if err := store.ToggleMute(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "volume %.2f\n", store.Volume())
	return nil
}
