// Package navigation orders stations for next/previous skipping. It follows
// catalog order and wraps around at both ends.
package navigation

import "github.com/edward-ap/nuwaradio/internal/station"

// Next returns the station after activeID, wrapping to the first. ok is false
// when the catalog is empty or activeID is empty or unknown; callers treat
// that as a no-op.
func Next(catalog []station.Station, activeID string) (station.Station, bool) {
	return step(catalog, activeID, 1)
}

// Prev returns the station before activeID, wrapping to the last.
func Prev(catalog []station.Station, activeID string) (station.Station, bool) {
	return step(catalog, activeID, -1)
}

func step(catalog []station.Station, activeID string, delta int) (station.Station, bool) {
	n := len(catalog)
	if n == 0 || activeID == "" {
		return station.Station{}, false
	}
	idx := indexOf(catalog, activeID)
	if idx < 0 {
		// the active station was removed server-side while playing
		return station.Station{}, false
	}
	return catalog[(idx+delta+n)%n], true
}

func indexOf(catalog []station.Station, id string) int {
	for i, s := range catalog {
		if s.ID == id {
			return i
		}
	}
	return -1
}
