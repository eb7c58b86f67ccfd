package station

import (
	"encoding/json"
	"testing"
)

func sampleStations() []Station {
	return []Station{
		{ID: "1", Name: "Hiru FM", Category: "Pop", Language: "Sinhala", StreamURL: "http://s/1"},
		{ID: "2", Name: "Sooriyan FM", Category: "Talk", Language: "Tamil", StreamURL: "http://s/2"},
		{ID: "3", Name: "Yes FM", Category: "Pop", Language: "English", StreamURL: "http://s/3"},
		{ID: "4", Name: "Shaa FM", Category: "Hits", Language: "sinhala", StreamURL: "http://s/4"},
	}
}

func TestCatalogLoadReplacesWholesale(t *testing.T) {
	c := NewCatalog()
	if c.Len() != 0 {
		t.Fatalf("new catalog Len = %d, want 0", c.Len())
	}
	c.Load(sampleStations())
	if c.Len() != 4 {
		t.Fatalf("Len = %d, want 4", c.Len())
	}
	c.Load([]Station{{ID: "9", Name: "Only"}})
	if c.Len() != 1 {
		t.Fatalf("Len after replace = %d, want 1", c.Len())
	}
	if _, ok := c.FindByID("1"); ok {
		t.Fatal("station 1 should be gone after replace")
	}
	c.Load(nil)
	if c.Len() != 0 {
		t.Fatalf("Len after empty load = %d, want 0", c.Len())
	}
}

func TestCatalogLoadCopiesInput(t *testing.T) {
	list := sampleStations()
	c := NewCatalog()
	c.Load(list)
	list[0].Name = "mutated"
	got, _ := c.FindByID("1")
	if got.Name != "Hiru FM" {
		t.Fatalf("catalog shares caller slice: name = %q", got.Name)
	}
	out := c.Stations()
	out[1].Name = "mutated"
	if s, _ := c.FindByID("2"); s.Name != "Sooriyan FM" {
		t.Fatalf("Stations leaks internal slice: name = %q", s.Name)
	}
}

func TestCatalogFindByID(t *testing.T) {
	c := NewCatalog()
	c.Load(sampleStations())
	s, ok := c.FindByID("3")
	if !ok || s.Name != "Yes FM" {
		t.Fatalf("FindByID(3) = %+v, %v", s, ok)
	}
	if _, ok := c.FindByID("missing"); ok {
		t.Fatal("FindByID(missing) should report not found")
	}
}

func TestCatalogKeepsInsertionOrder(t *testing.T) {
	c := NewCatalog()
	c.Load(sampleStations())
	want := []string{"1", "2", "3", "4"}
	for i, s := range c.Stations() {
		if s.ID != want[i] {
			t.Fatalf("position %d id = %s, want %s", i, s.ID, want[i])
		}
	}
}

func TestFilterApply(t *testing.T) {
	favs := map[string]bool{"2": true, "4": true, "gone": true}
	isFav := func(id string) bool { return favs[id] }

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "all", filter: Filter{}, want: []string{"1", "2", "3", "4"}},
		{name: "language case-insensitive", filter: Filter{Language: "SINHALA"}, want: []string{"1", "4"}},
		{name: "favorites ignore language", filter: Filter{FavoritesOnly: true, Language: "English"}, want: []string{"2", "4"}},
		{name: "search by name", filter: Filter{Search: "fm"}, want: []string{"1", "2", "3", "4"}},
		{name: "language plus search", filter: Filter{Language: "sinhala", Search: "shaa"}, want: []string{"4"}},
		{name: "no match", filter: Filter{Language: "Multi"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(sampleStations(), isFav)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d stations, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Fatalf("position %d id = %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestFilterFavoritesWithoutLookup(t *testing.T) {
	if got := (Filter{FavoritesOnly: true}).Apply(sampleStations(), nil); len(got) != 0 {
		t.Fatalf("expected no stations without favorite lookup, got %d", len(got))
	}
}

func TestLanguages(t *testing.T) {
	got := Languages(sampleStations())
	want := []string{"Sinhala", "Tamil", "English"}
	if len(got) != len(want) {
		t.Fatalf("Languages = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Languages = %v, want %v", got, want)
		}
	}
}

func TestStationUnmarshalIDVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "id string", raw: `{"id":"abc","name":"A"}`, want: "abc"},
		{name: "mongo id", raw: `{"_id":"65f0c1","name":"A"}`, want: "65f0c1"},
		{name: "numeric id", raw: `{"id":7,"name":"A"}`, want: "7"},
		{name: "id wins over _id", raw: `{"id":"x","_id":"y","name":"A"}`, want: "x"},
		{name: "null id falls back", raw: `{"id":null,"_id":"y","name":"A"}`, want: "y"},
		{name: "missing id", raw: `{"name":"A"}`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Station
			if err := json.Unmarshal([]byte(tt.raw), &s); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if s.ID != tt.want {
				t.Fatalf("ID = %q, want %q", s.ID, tt.want)
			}
			if s.Name != "A" {
				t.Fatalf("Name = %q, want A", s.Name)
			}
		})
	}
}

func TestStationUnmarshalRejectsBoolID(t *testing.T) {
	var s Station
	if err := json.Unmarshal([]byte(`{"id":true}`), &s); err == nil {
		t.Fatal("expected error for boolean id")
	}
}
