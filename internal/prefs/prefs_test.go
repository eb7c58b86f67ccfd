package prefs

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func openMemory(t *testing.T) (*Store, *MemoryStorage) {
	t.Helper()
	mem := NewMemoryStorage()
	s, err := Open(mem, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, mem
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int)
	for _, v := range a {
		seen[v]++
	}
	for _, v := range b {
		seen[v]--
	}
	for _, n := range seen {
		if n != 0 {
			return false
		}
	}
	return true
}

func TestOpenDefaults(t *testing.T) {
	s, _ := openMemory(t)
	st := s.Snapshot()
	if st.Volume != DefaultVolume || st.PrevVolume != DefaultVolume {
		t.Fatalf("defaults = %+v, want volume and prevVolume %.1f", st, DefaultVolume)
	}
	if len(st.Favorites) != 0 {
		t.Fatalf("expected no favorites, got %v", st.Favorites)
	}
}

func TestToggleFavoriteTwiceRestoresSet(t *testing.T) {
	s, _ := openMemory(t)
	_ = s.ToggleFavorite("1")
	_ = s.ToggleFavorite("2")
	before := s.Favorites()

	for _, id := range []string{"2", "9"} {
		_ = s.ToggleFavorite(id)
		_ = s.ToggleFavorite(id)
		if got := s.Favorites(); !sameSet(got, before) {
			t.Fatalf("after double toggle of %s: %v, want %v", id, got, before)
		}
	}
}

func TestToggleFavoriteTolerateUnknownIDs(t *testing.T) {
	s, _ := openMemory(t)
	if err := s.ToggleFavorite("deleted-on-backend"); err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	if !s.IsFavorite("deleted-on-backend") {
		t.Fatal("unknown id should still be stored as favorite")
	}
}

func TestSetVolumeClamps(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.4, 1.0},
		{-0.2, 0.0},
		{0.3, 0.3},
		{1, 1},
		{0, 0},
		{math.NaN(), 0},
		{math.Inf(1), 1},
	}
	s, _ := openMemory(t)
	for _, tt := range tests {
		if err := s.SetVolume(tt.in); err != nil {
			t.Fatalf("SetVolume(%v): %v", tt.in, err)
		}
		if got := s.Volume(); got != tt.want {
			t.Errorf("SetVolume(%v) stored %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestToggleMuteRoundTrip(t *testing.T) {
	s, _ := openMemory(t)
	_ = s.SetVolume(0.7)

	_ = s.ToggleMute()
	st := s.Snapshot()
	if st.Volume != 0 || st.PrevVolume != 0.7 {
		t.Fatalf("after mute: %+v, want volume 0 prevVolume 0.7", st)
	}
	if !s.Muted() {
		t.Fatal("Muted should be true")
	}

	_ = s.ToggleMute()
	if got := s.Volume(); got != 0.7 {
		t.Fatalf("after unmute volume = %v, want 0.7", got)
	}
}

func TestToggleMuteFallsBackWhenPrevZero(t *testing.T) {
	s, _ := openMemory(t)
	// Slider dragged to zero: prevVolume was never written by mute.
	_ = s.SetVolume(0)
	s.mu.Lock()
	s.prevVolume = 0
	s.mu.Unlock()

	_ = s.ToggleMute()
	if got := s.Volume(); got != 0.5 {
		t.Fatalf("unmute with zero prevVolume = %v, want 0.5", got)
	}
}

func TestSliderDoesNotTouchPrevVolume(t *testing.T) {
	s, _ := openMemory(t)
	_ = s.SetVolume(0.8)
	_ = s.ToggleMute()
	_ = s.SetVolume(0.2)
	if got := s.Snapshot().PrevVolume; got != 0.8 {
		t.Fatalf("prevVolume = %v, want 0.8", got)
	}
}

func TestEveryMutationPersists(t *testing.T) {
	s, mem := openMemory(t)
	_ = s.ToggleFavorite("a")
	_ = s.SetVolume(0.4)
	_ = s.ToggleMute()
	if mem.Saves() != 3 {
		t.Fatalf("saves = %d, want 3", mem.Saves())
	}
	rec, ok, _ := mem.Load()
	if !ok || rec.Volume != 0 || !sameSet(rec.Favorites, []string{"a"}) {
		t.Fatalf("stored record = %+v (ok=%v)", rec, ok)
	}
}

func TestFileStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(NewFileStorage(dir), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = s.ToggleFavorite("7")
	_ = s.SetVolume(0.3)
	_ = s.ToggleMute()
	_ = s.ToggleMute()

	reloaded, err := Open(NewFileStorage(dir), zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reloaded.IsFavorite("7") {
		t.Fatal("favorite 7 not restored")
	}
	if got := reloaded.Volume(); got != 0.3 {
		t.Fatalf("volume = %v, want 0.3", got)
	}
	if got := reloaded.Snapshot().PrevVolume; got != DefaultVolume {
		t.Fatalf("prevVolume = %v, want default %v (never persisted)", got, DefaultVolume)
	}
}

func TestFileStorageWritesOnlyFavoritesAndVolume(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStorage(dir)
	s, _ := Open(fs, zerolog.Nop())
	_ = s.SetVolume(0.6)
	_ = s.ToggleMute()

	if filepath.Base(fs.Path()) != "radio-storage.json" {
		t.Fatalf("unexpected record file %s", fs.Path())
	}
	b, err := os.ReadFile(fs.Path())
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("record is not json: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("record keys = %v, want favorites and volume only", raw)
	}
	if _, ok := raw["favorites"]; !ok {
		t.Fatal("missing favorites key")
	}
	if _, ok := raw["volume"]; !ok {
		t.Fatal("missing volume key")
	}
}

func TestOpenRejectsCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "radio-storage.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(NewFileStorage(dir), zerolog.Nop()); err == nil {
		t.Fatal("expected error for corrupt record")
	}
}

func TestOpenNormalizesStoredRecord(t *testing.T) {
	mem := NewMemoryStorage()
	_ = mem.Save(Record{Favorites: []string{"a", "b", "a"}, Volume: 3})
	s, err := Open(mem, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := s.Volume(); got != 1 {
		t.Fatalf("volume = %v, want clamped 1", got)
	}
	if got := s.Favorites(); len(got) != 2 {
		t.Fatalf("favorites = %v, want deduplicated", got)
	}
}

type failingStorage struct{ MemoryStorage }

var errDiskFull = errors.New("disk full")

func (f *failingStorage) Save(Record) error { return errDiskFull }

func TestSaveFailureKeepsMutation(t *testing.T) {
	s, err := Open(&failingStorage{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	err = s.SetVolume(0.9)
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("err = %v, want errDiskFull", err)
	}
	if got := s.Volume(); got != 0.9 {
		t.Fatalf("volume = %v, want 0.9 kept in memory", got)
	}
}
