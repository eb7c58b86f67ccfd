// Package radioapp binds the playback core to the media adapter: it issues
// load/play/pause commands from session changes, routes adapter events back
// to the session and the watchdog, and drives the line-based front end.
package radioapp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/edward-ap/nuwaradio/internal/config"
	"github.com/edward-ap/nuwaradio/internal/media"
	"github.com/edward-ap/nuwaradio/internal/prefs"
	"github.com/edward-ap/nuwaradio/internal/session"
	"github.com/edward-ap/nuwaradio/internal/station"
	"github.com/edward-ap/nuwaradio/internal/watchdog"
)

// volumeStep is the increment used by the +/- commands.
const volumeStep = 0.1

// ErrUnknownStation is returned when a station id is not in the catalog.
var ErrUnknownStation = errors.New("unknown station")

// Fetcher loads the station list from the backend.
type Fetcher interface {
	Fetch(ctx context.Context) ([]station.Station, error)
}

// Deps are the collaborators App wires together.
type Deps struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Fetcher Fetcher
	Storage prefs.Storage
	Adapter media.Adapter
	// WatchdogOptions are appended after the config-derived ones.
	WatchdogOptions []watchdog.Option
}

// App owns the catalog, preferences, session, watchdog and the single media
// adapter, and orchestrates interactions between user commands and playback.
type App struct {
	cfg     *config.Config
	logger  zerolog.Logger
	fetcher Fetcher
	adapter media.Adapter

	catalog  *station.Catalog
	prefs    *prefs.Store
	session  *session.Session
	watchdog *watchdog.Watchdog

	mu     sync.Mutex
	filter station.Filter

	unsubscribe func()
}

// New wires a ready App. The session starts Idle; preferences are restored
// from storage and the stored volume is applied to the adapter.
func New(d Deps) (*App, error) {
	if d.Adapter == nil {
		return nil, errors.New("radioapp: media adapter is required")
	}
	if d.Storage == nil {
		return nil, errors.New("radioapp: preference storage is required")
	}
	cfg := d.Config
	if cfg == nil {
		cfg = &config.Config{ErrorRetryDelayMs: config.DefaultErrorRetryDelayMs}
	}
	logger := d.Logger.With().Str("component", "radioapp").Logger()

	store, err := prefs.Open(d.Storage, d.Logger)
	if err != nil {
		return nil, fmt.Errorf("open preferences: %w", err)
	}

	catalog := station.NewCatalog()
	sess := session.New(catalog, d.Logger)
	opts := append([]watchdog.Option{watchdog.WithErrorDelay(cfg.ErrorRetryDelay())}, d.WatchdogOptions...)

	a := &App{
		cfg:      cfg,
		logger:   logger,
		fetcher:  d.Fetcher,
		adapter:  d.Adapter,
		catalog:  catalog,
		prefs:    store,
		session:  sess,
		watchdog: watchdog.New(sess, d.Adapter, d.Logger, opts...),
	}
	a.unsubscribe = sess.Subscribe(a.handleChange)
	d.Adapter.Subscribe(a.handleMediaEvent)
	a.applyVolume()
	return a, nil
}

// Close detaches the app from the session and pauses output.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	a.adapter.Pause()
}

// Session exposes the playback state machine.
func (a *App) Session() *session.Session { return a.session }

// Prefs exposes the preference store.
func (a *App) Prefs() *prefs.Store { return a.prefs }

// Catalog exposes the loaded station list.
func (a *App) Catalog() *station.Catalog { return a.catalog }

// Refresh fetches the catalog. On failure the previous catalog is kept and the
// error, wrapping station.ErrCatalogFetch, is returned for the front end to
// offer a retry.
func (a *App) Refresh(ctx context.Context) error {
	if a.fetcher == nil {
		return fmt.Errorf("%w: no backend configured", station.ErrCatalogFetch)
	}
	if a.cfg.RequestTimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.RequestTimeout())
		defer cancel()
	}
	list, err := a.fetcher.Fetch(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("station catalog fetch failed")
		return err
	}
	a.catalog.Load(list)
	a.logger.Info().Int("stations", len(list)).Msg("station catalog loaded")
	return nil
}

// SetFilter changes the list view. It does not affect navigation order.
func (a *App) SetFilter(f station.Filter) {
	a.mu.Lock()
	a.filter = f
	a.mu.Unlock()
}

// Filter returns the current list view filter.
func (a *App) Filter() station.Filter {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filter
}

// Visible is the catalog under the current filter.
func (a *App) Visible() []station.Station {
	return a.Filter().Apply(a.catalog.Stations(), a.prefs.IsFavorite)
}

// SelectByID makes the catalog station id active with intent to play.
func (a *App) SelectByID(id string) error {
	st, ok := a.catalog.FindByID(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStation, id)
	}
	a.session.Select(st)
	return nil
}

// ToggleFavoriteActive flips the favorite flag of the active station and
// reports the new flag.
func (a *App) ToggleFavoriteActive() (bool, error) {
	id := a.session.State().StationID()
	if id == "" {
		return false, errors.New("no active station")
	}
	err := a.prefs.ToggleFavorite(id)
	return a.prefs.IsFavorite(id), err
}

// SetVolume stores and applies an absolute volume.
func (a *App) SetVolume(v float64) error {
	err := a.prefs.SetVolume(v)
	a.applyVolume()
	return err
}

// ChangeVolume nudges the volume by delta.
func (a *App) ChangeVolume(delta float64) error {
	return a.SetVolume(a.prefs.Volume() + delta)
}

// ToggleMute mutes or restores the previous volume.
func (a *App) ToggleMute() error {
	err := a.prefs.ToggleMute()
	a.applyVolume()
	return err
}

func (a *App) applyVolume() {
	v := a.prefs.Volume()
	if err := a.adapter.SetVolume(v); err != nil {
		a.logger.Warn().Err(err).Float64("volume", v).Msg("apply volume failed")
	}
}

// handleChange turns session transitions into adapter commands.
func (a *App) handleChange(c session.Change) {
	switch {
	case c.Selected:
		a.loadAndPlay(c.Next.Station)
	case c.IntentChanged() && c.Next.Intent:
		a.play(c.Next.Station.ID)
	case c.IntentChanged():
		a.adapter.Pause()
	}
}

func (a *App) loadAndPlay(st station.Station) {
	ctx, cancel := context.WithTimeout(context.Background(), a.commandTimeout())
	defer cancel()
	if err := a.adapter.Load(ctx, media.Source{StationID: st.ID, URL: st.StreamURL}); err != nil {
		a.logger.Error().Err(err).Str("station_id", st.ID).Msg("load failed")
		return
	}
	a.playWithContext(ctx, st.ID)
}

func (a *App) play(stationID string) {
	ctx, cancel := context.WithTimeout(context.Background(), a.commandTimeout())
	defer cancel()
	a.playWithContext(ctx, stationID)
}

func (a *App) playWithContext(ctx context.Context, stationID string) {
	err := a.adapter.Play(ctx)
	switch {
	case err == nil:
	case errors.Is(err, media.ErrPlaybackDenied):
		a.logger.Warn().Err(err).Str("station_id", stationID).Msg("playback denied")
	default:
		a.logger.Error().Err(err).Str("station_id", stationID).Msg("play failed")
	}
}

func (a *App) commandTimeout() time.Duration {
	if d := a.cfg.RequestTimeout(); d > 0 {
		return d
	}
	return config.DefaultRequestTimeoutMs * time.Millisecond
}

// handleMediaEvent routes adapter notifications. Confirmations for a source
// other than the active station are late arrivals and are dropped.
func (a *App) handleMediaEvent(ev media.Event) {
	switch {
	case ev.Kind.IsFault():
		a.watchdog.HandleEvent(ev)
	case ev.Kind == media.EventStarted || ev.Kind == media.EventStopped:
		if ev.StationID == "" || ev.StationID != a.session.State().StationID() {
			a.logger.Debug().Str("kind", string(ev.Kind)).Str("station_id", ev.StationID).Msg("ignoring event for inactive station")
			return
		}
		a.session.ReportObserved(ev.Kind == media.EventStarted)
	case ev.Kind == media.EventBuffering:
		a.logger.Trace().Str("station_id", ev.StationID).Float64("progress", ev.Progress).Msg("buffering")
	}
}
