// Package media defines the port between the playback core and the audio
// backend: commands going out, tagged events coming back.
package media

import (
	"context"
	"errors"
)

// ErrPlaybackDenied marks a play command the backend refused. It is not
// fatal: observed playing simply stays false until a later attempt succeeds.
var ErrPlaybackDenied = errors.New("playback denied")

// ErrStaleSource is returned by Reload when the requested station is no
// longer the loaded source.
var ErrStaleSource = errors.New("station no longer loaded")

// EventKind enumerates adapter notifications.
type EventKind string

const (
	// EventStarted confirms audio is flowing.
	EventStarted EventKind = "started"
	// EventStopped confirms audio stopped (pause, stop or teardown).
	EventStopped EventKind = "stopped"
	// EventStalled reports the stream stopped delivering data.
	EventStalled EventKind = "stalled"
	// EventError reports a stream or decoder failure.
	EventError EventKind = "error"
	// EventBuffering reports the backend is refilling its buffer.
	EventBuffering EventKind = "buffering"
)

// IsFault reports whether the event should be handed to the watchdog.
func (k EventKind) IsFault() bool {
	return k == EventStalled || k == EventError
}

// Event is one adapter notification, tagged with the station whose source
// was loaded when it was raised.
type Event struct {
	Kind      EventKind
	StationID string
	// Progress is the buffer fill percentage for EventBuffering.
	Progress float64
}

// Source is a loadable stream.
type Source struct {
	StationID string
	URL       string
}

// Adapter is the single audio output. It is owned by the binding layer.
type Adapter interface {
	// Load replaces the current source without starting playback.
	Load(ctx context.Context, src Source) error
	// Reload re-opens the source of stationID, dropping any stalled
	// connection. It returns ErrStaleSource without touching the output when
	// another station has been loaded since.
	Reload(ctx context.Context, stationID string) error
	// Play starts or resumes the loaded source. A refusal wraps ErrPlaybackDenied.
	Play(ctx context.Context) error
	// Pause stops audio output.
	Pause()
	// SetVolume applies a level in [0,1].
	SetVolume(v float64) error
	// Subscribe registers the event handler. Handlers run on the adapter's
	// own goroutine and may call back into the adapter.
	Subscribe(fn func(Event))
}
