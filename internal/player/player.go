// Package player implements media.Adapter on top of libVLC. Every libVLC call
// is serialised behind one lock, and player events are re-dispatched on a
// dedicated goroutine because libVLC forbids calling back into the player
// from its own event threads.
package player

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	vlc "github.com/adrg/libvlc-go/v3"
	"github.com/rs/zerolog"

	"github.com/edward-ap/nuwaradio/internal/media"
)

const (
	defaultNetworkCaching = 1500
	eventBuffer           = 64
	userAgent             = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

// Player is a thread-safe libVLC adapter with a single output.
type Player struct {
	logger         zerolog.Logger
	networkCaching int

	// single lock guarding all C/libVLC invocations and the state below
	vlcMu    sync.Mutex
	p        *vlc.Player
	vm       *vlc.Media
	volume   int
	eventIDs []vlc.EventID

	// loadMu serialises Load and Reload; it is taken before vlcMu
	loadMu sync.Mutex
	source media.Source
	// tag is the loaded station id, read lock-free from libVLC threads
	tag atomic.Value

	mu      sync.Mutex
	handler func(media.Event)
	events  chan media.Event
	done    chan struct{}
	wg      sync.WaitGroup

	vlcMajor int
}

// New constructs a Player but does not initialize libVLC. Call Init before
// attempting playback.
func New(logger zerolog.Logger, networkCachingMs int) *Player {
	if networkCachingMs <= 0 {
		networkCachingMs = defaultNetworkCaching
	}
	pl := &Player{
		logger:         logger.With().Str("component", "player").Logger(),
		networkCaching: networkCachingMs,
		volume:         volumeLevel(0.5),
		events:         make(chan media.Event, eventBuffer),
		done:           make(chan struct{}),
	}
	pl.tag.Store("")
	return pl
}

var _ media.Adapter = (*Player)(nil)

func parseVlcMajor(ver string) int {
	ver = strings.TrimSpace(ver)
	if ver == "" {
		return 0
	}
	cut := ver
	if i := strings.IndexAny(ver, ". "); i >= 0 {
		cut = ver[:i]
	}
	m, _ := strconv.Atoi(cut)
	return m
}

// Init configures libVLC, attaches the player events and applies the last
// volume passed to SetVolume. It must be called before Load/Play.
func (pl *Player) Init() error {
	// libVLC 3 picks plugins up from VLC_PLUGIN_PATH when bundled next to the binary
	if exe, err := os.Executable(); err == nil {
		plugins := filepath.Join(filepath.Dir(exe), "plugins")
		if st, err := os.Stat(plugins); err == nil && st.IsDir() {
			_ = os.Setenv("VLC_PLUGIN_PATH", plugins)
		}
	}

	caching := strconv.Itoa(pl.networkCaching)
	args := []string{
		"--no-video",
		"--no-color",
		"--network-caching=" + caching,
		"--live-caching=" + caching,
		"--http-reconnect",
	}
	if isTraceLoggingEnabled() {
		args = append(args,
			"--verbose=2",
			"--file-logging",
			"--log-verbose=2",
			"--logfile=vlc.log",
		)
	}

	pl.vlcMu.Lock()
	defer pl.vlcMu.Unlock()

	if err := vlc.Init(args...); err != nil {
		return fmt.Errorf("libvlc init failed: %w", err)
	}
	ver := vlc.Version().String()
	pl.vlcMajor = parseVlcMajor(ver)

	player, err := vlc.NewPlayer()
	if err != nil {
		_ = vlc.Release()
		return fmt.Errorf("new vlc player failed: %w", err)
	}
	ids, err := pl.attachEvents(player)
	if err != nil {
		_ = player.Release()
		_ = vlc.Release()
		return err
	}
	pl.p = player
	pl.eventIDs = ids
	_ = pl.p.SetVolume(pl.volume)

	pl.wg.Add(1)
	go pl.dispatch()

	pl.logger.Info().Str("version", ver).Int("major", pl.vlcMajor).Int("network_caching_ms", pl.networkCaching).Msg("libvlc initialized")
	return nil
}

// Release frees libVLC resources and stops the event dispatcher.
func (pl *Player) Release() {
	pl.vlcMu.Lock()
	if pl.p != nil {
		// onVLCEvent takes no Player lock, so detaching under vlcMu cannot
		// wait on a callback that waits on us
		if em, err := pl.p.EventManager(); err == nil && len(pl.eventIDs) > 0 {
			em.Detach(pl.eventIDs...)
		}
		pl.eventIDs = nil
		_ = pl.p.Stop()
		_ = pl.p.Release()
		pl.p = nil
	}
	if pl.vm != nil {
		_ = pl.vm.Release()
		pl.vm = nil
	}
	_ = vlc.Release()
	pl.vlcMu.Unlock()

	select {
	case <-pl.done:
	default:
		close(pl.done)
	}
	pl.wg.Wait()
}

// Subscribe sets the event handler. Only one handler is kept.
func (pl *Player) Subscribe(fn func(media.Event)) {
	pl.mu.Lock()
	pl.handler = fn
	pl.mu.Unlock()
}

// Load prepares the media for src without starting playback. Events raised
// from now on are tagged with src.StationID.
func (pl *Player) Load(ctx context.Context, src media.Source) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src.URL = strings.TrimSpace(src.URL)
	if src.URL == "" {
		return fmt.Errorf("load station %s: empty stream url", src.StationID)
	}

	pl.loadMu.Lock()
	defer pl.loadMu.Unlock()
	pl.source = src
	pl.tag.Store(src.StationID)

	if err := pl.setMedia(src.URL); err != nil {
		return fmt.Errorf("load station %s: %w", src.StationID, err)
	}
	pl.logger.Debug().Str("station_id", src.StationID).Str("url", src.URL).Msg("media loaded")
	return nil
}

// Reload re-opens the source of stationID from scratch, dropping a stalled
// connection. If another station was loaded in the meantime it returns
// media.ErrStaleSource and leaves the output alone.
func (pl *Player) Reload(ctx context.Context, stationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pl.loadMu.Lock()
	defer pl.loadMu.Unlock()
	src := pl.source
	if src.StationID != stationID {
		return fmt.Errorf("reload station %s: %w", stationID, media.ErrStaleSource)
	}
	if src.URL == "" {
		return fmt.Errorf("reload: nothing loaded")
	}
	if err := pl.setMedia(src.URL); err != nil {
		return fmt.Errorf("reload station %s: %w", src.StationID, err)
	}
	return nil
}

func (pl *Player) setMedia(url string) error {
	pl.vlcMu.Lock()
	defer pl.vlcMu.Unlock()
	if pl.p == nil {
		return fmt.Errorf("vlc player not initialized")
	}

	m, err := vlc.NewMediaFromURL(url)
	if err != nil {
		return fmt.Errorf("new media from url failed: %w", err)
	}
	caching := strconv.Itoa(pl.networkCaching)
	_ = m.AddOptions(
		":demux=any",
		":http-user-agent="+userAgent,
		":network-caching="+caching,
		":live-caching="+caching,
		":http-reconnect",
	)
	if err := pl.p.SetMedia(m); err != nil {
		_ = m.Release()
		return fmt.Errorf("set media failed: %w", err)
	}
	if pl.vm != nil {
		_ = pl.vm.Release()
	}
	pl.vm = m
	return nil
}

// Play starts playback of the loaded media. Failures wrap
// media.ErrPlaybackDenied; the started event is the only confirmation.
func (pl *Player) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pl.vlcMu.Lock()
	defer pl.vlcMu.Unlock()
	if pl.p == nil || pl.vm == nil {
		return fmt.Errorf("%w: nothing loaded", media.ErrPlaybackDenied)
	}
	if err := pl.p.Play(); err != nil {
		return fmt.Errorf("%w: %v", media.ErrPlaybackDenied, err)
	}
	return nil
}

// Pause stops output. Live streams cannot be resumed in place, so this is a
// stop; Play restarts the loaded media.
func (pl *Player) Pause() {
	pl.vlcMu.Lock()
	defer pl.vlcMu.Unlock()
	if pl.p != nil {
		_ = pl.p.Stop()
	}
}

// SetVolume applies a level in [0,1]. Before Init the level is kept and
// applied when the player is created.
func (pl *Player) SetVolume(v float64) error {
	pl.vlcMu.Lock()
	defer pl.vlcMu.Unlock()
	pl.volume = volumeLevel(v)
	if pl.p == nil {
		return nil
	}
	return pl.p.SetVolume(pl.volume)
}

// volumeLevel maps [0,1] onto libVLC's 0-100 scale.
func volumeLevel(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 100
	}
	return int(math.Round(v * 100))
}
