// Package prefs keeps the user's durable preferences: favorite stations and
// volume, plus the unpersisted pre-mute volume.
package prefs

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"
)

const (
	// DefaultVolume applies when nothing was stored yet.
	DefaultVolume = 0.5
	// unmuteFallback is restored when unmuting without a usable prevVolume.
	unmuteFallback = 0.5
)

// State is a snapshot of the preferences.
type State struct {
	Favorites  []string
	Volume     float64
	PrevVolume float64
}

// Store owns the preference state and serializes it to Storage after every
// mutation.
type Store struct {
	mu         sync.Mutex
	storage    Storage
	logger     zerolog.Logger
	favorites  []string
	volume     float64
	prevVolume float64
}

// Open loads the preferences from storage once. A missing record yields
// defaults; an unreadable one is returned as an error.
func Open(storage Storage, logger zerolog.Logger) (*Store, error) {
	s := &Store{
		storage:    storage,
		logger:     logger.With().Str("component", "prefs").Logger(),
		volume:     DefaultVolume,
		prevVolume: DefaultVolume,
	}
	rec, ok, err := storage.Load()
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	if ok {
		s.volume = clamp01(rec.Volume)
		s.favorites = dedupe(rec.Favorites)
	}
	s.logger.Debug().
		Int("favorites", len(s.favorites)).
		Float64("volume", s.volume).
		Msg("preferences loaded")
	return s, nil
}

// ToggleFavorite adds id when absent and removes it when present.
func (s *Store) ToggleFavorite(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.favorites, id); i >= 0 {
		s.favorites = append(s.favorites[:i:i], s.favorites[i+1:]...)
	} else {
		s.favorites = append(s.favorites, id)
	}
	return s.persistLocked()
}

// IsFavorite reports whether id is a favorite. Ids missing from the catalog
// are tolerated.
func (s *Store) IsFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.favorites, id) >= 0
}

// Favorites returns the favorite ids in the order they were added.
func (s *Store) Favorites() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.favorites...)
}

// SetVolume stores v clamped to [0,1].
func (s *Store) SetVolume(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = clamp01(v)
	return s.persistLocked()
}

// ToggleMute zeroes the volume remembering the previous level, or restores it.
func (s *Store) ToggleMute() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.volume > 0 {
		s.prevVolume = s.volume
		s.volume = 0
	} else if s.prevVolume > 0 {
		s.volume = s.prevVolume
	} else {
		s.volume = unmuteFallback
	}
	return s.persistLocked()
}

// Volume is the current output level in [0,1].
func (s *Store) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Muted reports whether the volume is zero.
func (s *Store) Muted() bool {
	return s.Volume() == 0
}

// Snapshot returns a copy of the full state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Favorites:  append([]string(nil), s.favorites...),
		Volume:     s.volume,
		PrevVolume: s.prevVolume,
	}
}

// persistLocked writes {favorites, volume}; prevVolume never leaves memory.
// Saving under the lock keeps the stored record in mutation order.
func (s *Store) persistLocked() error {
	rec := Record{
		Favorites: append([]string{}, s.favorites...),
		Volume:    s.volume,
	}
	if err := s.storage.Save(rec); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist preferences")
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if indexOf(out, id) < 0 {
			out = append(out, id)
		}
	}
	return out
}
