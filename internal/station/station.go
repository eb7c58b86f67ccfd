// Package station holds the station catalog fetched from the backend and the
// client that fetches it.
package station

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Station is one addressable stream entry.
type Station struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Language  string `json:"language"`
	StreamURL string `json:"streamUrl"`
	LogoURL   string `json:"logoUrl,omitempty"`
}

// UnmarshalJSON accepts the backend's "_id" as well as "id", and numeric ids.
func (s *Station) UnmarshalJSON(b []byte) error {
	type plain Station
	var aux struct {
		plain
		ID      json.RawMessage `json:"id"`
		MongoID json.RawMessage `json:"_id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*s = Station(aux.plain)
	raw := aux.ID
	if len(raw) == 0 || string(raw) == "null" {
		raw = aux.MongoID
	}
	id, err := decodeID(raw)
	if err != nil {
		return fmt.Errorf("station %q: %w", s.Name, err)
	}
	s.ID = id
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("unsupported id %s", raw)
	}
	return n.String(), nil
}

// Catalog is the ordered, replace-only collection of known stations. Its
// order is the navigation order and is never re-sorted.
type Catalog struct {
	mu       sync.RWMutex
	stations []Station
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Load replaces the entire catalog with list.
func (c *Catalog) Load(list []Station) {
	cp := make([]Station, len(list))
	copy(cp, list)
	c.mu.Lock()
	c.stations = cp
	c.mu.Unlock()
}

// FindByID returns the station with the given id. Not found is not an error.
func (c *Catalog) FindByID(id string) (Station, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.stations {
		if s.ID == id {
			return s, true
		}
	}
	return Station{}, false
}

// Stations returns a copy of the catalog in its current order.
func (c *Catalog) Stations() []Station {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Station, len(c.stations))
	copy(out, c.stations)
	return out
}

// Len reports the number of stations.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stations)
}

// Filter narrows a station list the way the station browser does.
type Filter struct {
	// Language matches the station's language tag case-insensitively; empty matches all.
	Language string
	// FavoritesOnly ignores Language and keeps favorite stations.
	FavoritesOnly bool
	// Search is a case-insensitive substring of the station name.
	Search string
}

// Apply returns the stations matching f, preserving order. isFavorite may be
// nil when FavoritesOnly is false.
func (f Filter) Apply(stations []Station, isFavorite func(id string) bool) []Station {
	lang := strings.TrimSpace(f.Language)
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Station, 0, len(stations))
	for _, s := range stations {
		switch {
		case f.FavoritesOnly:
			if isFavorite == nil || !isFavorite(s.ID) {
				continue
			}
		case lang != "":
			if !strings.EqualFold(strings.TrimSpace(s.Language), lang) {
				continue
			}
		}
		if search != "" && !strings.Contains(strings.ToLower(s.Name), search) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Languages lists the distinct language tags in first-seen order.
func Languages(stations []Station) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range stations {
		l := strings.TrimSpace(s.Language)
		key := strings.ToLower(l)
		if l == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}
