package player

import (
	"fmt"

	vlc "github.com/adrg/libvlc-go/v3"

	"github.com/edward-ap/nuwaradio/internal/media"
)

var watchedEvents = []vlc.Event{
	vlc.MediaPlayerPlaying,
	vlc.MediaPlayerPaused,
	vlc.MediaPlayerStopped,
	vlc.MediaPlayerEncounteredError,
	vlc.MediaPlayerEndReached,
	vlc.MediaPlayerBuffering,
}

// eventKind maps a libVLC player event onto the adapter vocabulary. A live
// stream reaching its end means the server stopped sending data.
func eventKind(ev vlc.Event) (media.EventKind, bool) {
	switch ev {
	case vlc.MediaPlayerPlaying:
		return media.EventStarted, true
	case vlc.MediaPlayerPaused, vlc.MediaPlayerStopped:
		return media.EventStopped, true
	case vlc.MediaPlayerEncounteredError:
		return media.EventError, true
	case vlc.MediaPlayerEndReached:
		return media.EventStalled, true
	case vlc.MediaPlayerBuffering:
		return media.EventBuffering, true
	}
	return "", false
}

func (pl *Player) attachEvents(p *vlc.Player) ([]vlc.EventID, error) {
	em, err := p.EventManager()
	if err != nil {
		return nil, fmt.Errorf("vlc event manager failed: %w", err)
	}
	ids := make([]vlc.EventID, 0, len(watchedEvents))
	for _, ev := range watchedEvents {
		id, err := em.Attach(ev, pl.onVLCEvent, nil)
		if err != nil {
			em.Detach(ids...)
			return nil, fmt.Errorf("attach vlc event %d: %w", ev, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// onVLCEvent runs on a libVLC thread while libVLC holds its event lock. It
// must not call into libVLC or take Player locks, so it only tags the event
// and queues it.
func (pl *Player) onVLCEvent(ev vlc.Event, _ interface{}) {
	kind, ok := eventKind(ev)
	if !ok {
		return
	}
	out := media.Event{Kind: kind, StationID: pl.tag.Load().(string)}

	select {
	case pl.events <- out:
	default:
		if kind == media.EventBuffering {
			return
		}
		pl.logger.Warn().Str("kind", string(kind)).Str("station_id", out.StationID).Msg("event queue full, dropping event")
	}
}

// dispatch delivers queued events to the subscriber outside libVLC threads.
func (pl *Player) dispatch() {
	defer pl.wg.Done()
	for {
		select {
		case <-pl.done:
			return
		case ev := <-pl.events:
			pl.mu.Lock()
			fn := pl.handler
			pl.mu.Unlock()
			if ev.Kind != media.EventBuffering {
				pl.logger.Debug().Str("kind", string(ev.Kind)).Str("station_id", ev.StationID).Msg("player event")
			}
			if fn != nil {
				fn(ev)
			}
		}
	}
}
