// Package watchdog recovers interrupted streams. It consumes fault events
// tagged with the station that raised them and reloads and replays the source
// only while that station is still active and intended to play.
//
// Guards are evaluated when the recovery runs, not when it is scheduled, so
// a delayed recovery that fires after the user switched stations or paused is
// discarded without any timer cancellation.
package watchdog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edward-ap/nuwaradio/internal/media"
)

const (
	// DefaultErrorDelay debounces bursts of error events.
	DefaultErrorDelay = 3 * time.Second
	// recoveryTimeout bounds a single reload+replay.
	recoveryTimeout = 15 * time.Second
)

// Session is the read side of the playback session the watchdog consults.
type Session interface {
	// ActiveIntent returns the active station id and whether play is intended.
	ActiveIntent() (stationID string, intent bool)
}

// Player is the subset of media.Adapter used for recovery.
type Player interface {
	Reload(ctx context.Context, stationID string) error
	Play(ctx context.Context) error
}

// Fault is a stalled or error notification for a station.
type Fault struct {
	Kind      media.EventKind
	StationID string
}

// Watchdog applies the reload-and-replay policy. Retries are unbounded: every
// fault re-triggers the policy for as long as play is intended.
type Watchdog struct {
	session    Session
	player     Player
	logger     zerolog.Logger
	errorDelay time.Duration
	afterFunc  func(d time.Duration, f func())
}

// Option customizes a Watchdog.
type Option func(*Watchdog)

// WithErrorDelay overrides the debounce applied to error faults.
func WithErrorDelay(d time.Duration) Option {
	return func(w *Watchdog) {
		if d >= 0 {
			w.errorDelay = d
		}
	}
}

// WithAfterFunc replaces the timer used for delayed recovery.
func WithAfterFunc(fn func(d time.Duration, f func())) Option {
	return func(w *Watchdog) {
		if fn != nil {
			w.afterFunc = fn
		}
	}
}

// New creates a watchdog acting on player under session's current state.
func New(session Session, player Player, logger zerolog.Logger, opts ...Option) *Watchdog {
	w := &Watchdog{
		session:    session,
		player:     player,
		logger:     logger.With().Str("component", "watchdog").Logger(),
		errorDelay: DefaultErrorDelay,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// HandleEvent forwards fault events and ignores everything else.
func (w *Watchdog) HandleEvent(ev media.Event) {
	if !ev.Kind.IsFault() {
		return
	}
	w.HandleFault(Fault{Kind: ev.Kind, StationID: ev.StationID})
}

// HandleFault applies the recovery policy to one fault. Stalls recover
// immediately; errors after the debounce delay.
func (w *Watchdog) HandleFault(f Fault) {
	if !w.relevant(f) {
		w.logger.Debug().
			Str("kind", string(f.Kind)).
			Str("station_id", f.StationID).
			Msg("discarding stale fault")
		return
	}

	attempt := uuid.NewString()
	log := w.logger.With().
		Str("attempt", attempt).
		Str("kind", string(f.Kind)).
		Str("station_id", f.StationID).
		Logger()

	switch f.Kind {
	case media.EventStalled:
		log.Info().Msg("stream stalled, reloading")
		w.recover(f, log)
	case media.EventError:
		log.Info().Dur("delay", w.errorDelay).Msg("stream error, scheduling reload")
		w.afterFunc(w.errorDelay, func() { w.recover(f, log) })
	default:
		log.Warn().Msg("unknown fault kind")
	}
}

// relevant is the guard: the fault's station is still active and intended to play.
func (w *Watchdog) relevant(f Fault) bool {
	activeID, intent := w.session.ActiveIntent()
	return intent && activeID != "" && activeID == f.StationID
}

func (w *Watchdog) recover(f Fault, log zerolog.Logger) {
	if !w.relevant(f) {
		log.Debug().Msg("recovery aborted, station no longer active or paused")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recoveryTimeout)
	defer cancel()

	if err := w.player.Reload(ctx, f.StationID); err != nil {
		if errors.Is(err, media.ErrStaleSource) {
			log.Debug().Msg("reload aborted, another station was loaded")
			return
		}
		log.Warn().Err(err).Msg("reload failed")
		return
	}
	// a user action may have raced the reload
	if !w.relevant(f) {
		log.Debug().Msg("replay aborted after reload, station no longer active or paused")
		return
	}
	if err := w.player.Play(ctx); err != nil {
		if errors.Is(err, media.ErrPlaybackDenied) {
			log.Warn().Err(err).Msg("replay denied")
			return
		}
		log.Warn().Err(err).Msg("replay failed")
		return
	}
	log.Info().Msg("stream recovered")
}
