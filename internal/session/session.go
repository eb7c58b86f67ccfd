// Package session implements the playback session state machine: which
// station is active, whether the user wants it playing (intent), and whether
// the media adapter has confirmed audio is flowing (observed playing).
//
// The session never talks to the media adapter. Observers subscribe to state
// changes and issue play/pause commands; adapter confirmations come back
// through ReportObserved, the only writer of the observed flag.
package session

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/edward-ap/nuwaradio/internal/navigation"
	"github.com/edward-ap/nuwaradio/internal/station"
)

// Catalog is the station order used for next/previous.
type Catalog interface {
	Stations() []station.Station
}

// State is a snapshot of the session. The zero value is Idle.
type State struct {
	// Station is the active station; zero when Idle.
	Station station.Station
	// Active is false in the Idle state.
	Active bool
	// Intent is the user's desired playing state.
	Intent bool
	// Playing is the adapter-confirmed playing state. Views render this,
	// never Intent.
	Playing bool
}

// Idle reports whether no station is active.
func (s State) Idle() bool { return !s.Active }

// StationID is the active station id, empty when Idle.
func (s State) StationID() string { return s.Station.ID }

// Change describes one transition.
type Change struct {
	Prev State
	Next State
	// Selected is set when the transition came from Select, Next or Prev,
	// including a re-selection of the active station. The source must be
	// (re)loaded and played.
	Selected bool
}

// IntentChanged reports whether the play intent flipped.
func (c Change) IntentChanged() bool {
	return c.Prev.Intent != c.Next.Intent
}

// StationChanged reports whether a different station became active.
func (c Change) StationChanged() bool {
	return c.Prev.Station.ID != c.Next.Station.ID
}

type subscriber struct {
	id int
	fn func(Change)
}

// Session is the central playback state machine. It is safe for concurrent
// use; observers are called outside the state lock, in transition order.
type Session struct {
	catalog Catalog
	logger  zerolog.Logger

	mu    sync.Mutex
	state State

	subs        []subscriber
	nextSubID   int
	pending     []Change
	dispatching bool
}

// New creates an Idle session navigating over catalog.
func New(catalog Catalog, logger zerolog.Logger) *Session {
	return &Session{
		catalog: catalog,
		logger:  logger.With().Str("component", "session").Logger(),
	}
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ActiveIntent returns the active station id and the current intent. The
// watchdog evaluates its guard against this at action time.
func (s *Session) ActiveIntent() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Station.ID, s.state.Active && s.state.Intent
}

// Select makes st active with intent to play. Switching stations always
// resumes play intent, even when the session was paused.
func (s *Session) Select(st station.Station) {
	if st.ID == "" {
		s.logger.Warn().Str("name", st.Name).Msg("ignoring station without id")
		return
	}
	s.mu.Lock()
	prev := s.state
	s.state = State{Station: st, Active: true, Intent: true, Playing: false}
	s.logger.Debug().Str("station_id", st.ID).Str("name", st.Name).Msg("station selected")
	s.commitLocked(prev, true)
}

// TogglePlay flips intent. It is a no-op when Idle and never touches the
// observed flag.
func (s *Session) TogglePlay() {
	s.mu.Lock()
	if !s.state.Active {
		s.mu.Unlock()
		return
	}
	prev := s.state
	s.state.Intent = !s.state.Intent
	s.logger.Debug().Str("station_id", s.state.Station.ID).Bool("intent", s.state.Intent).Msg("play intent toggled")
	s.commitLocked(prev, false)
}

// ReportObserved records the adapter's own started/stopped confirmation.
// Callers must not infer it from intent.
func (s *Session) ReportObserved(playing bool) {
	s.mu.Lock()
	if !s.state.Active || s.state.Playing == playing {
		s.mu.Unlock()
		return
	}
	prev := s.state
	s.state.Playing = playing
	s.logger.Debug().Str("station_id", s.state.Station.ID).Bool("playing", playing).Msg("observed playback changed")
	s.commitLocked(prev, false)
}

// Next selects the station after the active one. No-op when there is none.
func (s *Session) Next() {
	s.step(navigation.Next)
}

// Prev selects the station before the active one. No-op when there is none.
func (s *Session) Prev() {
	s.step(navigation.Prev)
}

func (s *Session) step(policy func([]station.Station, string) (station.Station, bool)) {
	var stations []station.Station
	if s.catalog != nil {
		stations = s.catalog.Stations()
	}
	st, ok := policy(stations, s.State().Station.ID)
	if !ok {
		s.logger.Debug().Int("catalog", len(stations)).Msg("navigation found no station")
		return
	}
	s.Select(st)
}

// Subscribe registers fn for every state change. Observers may call back
// into the session; nested changes are delivered after fn returns.
func (s *Session) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// commitLocked queues the change and, unless another goroutine is already
// delivering, drains the queue. It releases s.mu.
func (s *Session) commitLocked(prev State, selected bool) {
	if prev == s.state && !selected {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, Change{Prev: prev, Next: s.state, Selected: selected})
	if s.dispatching {
		s.mu.Unlock()
		return
	}
	s.dispatching = true
	for len(s.pending) > 0 {
		batch := s.pending
		s.pending = nil
		subs := append([]subscriber(nil), s.subs...)
		s.mu.Unlock()
		for _, ch := range batch {
			for _, sub := range subs {
				sub.fn(ch)
			}
		}
		s.mu.Lock()
	}
	s.dispatching = false
	s.mu.Unlock()
}
