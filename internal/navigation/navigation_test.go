package navigation

import (
	"testing"

	"github.com/edward-ap/nuwaradio/internal/station"
)

func abc() []station.Station {
	return []station.Station{
		{ID: "1", Name: "A"},
		{ID: "2", Name: "B"},
		{ID: "3", Name: "C"},
	}
}

func TestNextPrev(t *testing.T) {
	tests := []struct {
		name     string
		catalog  []station.Station
		activeID string
		next     string
		prev     string
	}{
		{name: "middle", catalog: abc(), activeID: "2", next: "3", prev: "1"},
		{name: "wrap at end", catalog: abc(), activeID: "3", next: "1", prev: "2"},
		{name: "wrap at start", catalog: abc(), activeID: "1", next: "2", prev: "3"},
		{name: "single station", catalog: abc()[:1], activeID: "1", next: "1", prev: "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := Next(tt.catalog, tt.activeID)
			if !ok || n.ID != tt.next {
				t.Fatalf("Next(%s) = %q, %v; want %q", tt.activeID, n.ID, ok, tt.next)
			}
			p, ok := Prev(tt.catalog, tt.activeID)
			if !ok || p.ID != tt.prev {
				t.Fatalf("Prev(%s) = %q, %v; want %q", tt.activeID, p.ID, ok, tt.prev)
			}
		})
	}
}

func TestNoStation(t *testing.T) {
	tests := []struct {
		name     string
		catalog  []station.Station
		activeID string
	}{
		{name: "empty catalog", catalog: nil, activeID: "1"},
		{name: "no active station", catalog: abc(), activeID: ""},
		{name: "active removed from catalog", catalog: abc(), activeID: "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s, ok := Next(tt.catalog, tt.activeID); ok {
				t.Fatalf("Next returned %+v, want no station", s)
			}
			if s, ok := Prev(tt.catalog, tt.activeID); ok {
				t.Fatalf("Prev returned %+v, want no station", s)
			}
		})
	}
}
