package station

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestClientFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stations" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `[
			{"_id":"a1","name":"Hiru FM","category":"Pop","language":"Sinhala","streamUrl":"http://s/a1","logoUrl":"http://l/a1.png"},
			{"_id":"b2","name":"Sun FM","category":"Hits","language":"English","streamUrl":"http://s/b2"}
		]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/", srv.Client(), zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	list, err := c.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d stations, want 2", len(list))
	}
	if list[0].ID != "a1" || list[0].LogoURL != "http://l/a1.png" {
		t.Fatalf("unexpected first station: %+v", list[0])
	}
	if list[1].ID != "b2" || list[1].LogoURL != "" {
		t.Fatalf("unexpected second station: %+v", list[1])
	}
}

func TestClientFetchEmptyCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	list, err := NewClient(srv.URL, srv.Client(), zerolog.Nop()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", list)
	}
}

func TestClientFetchFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "server error", handler: func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{name: "not found", handler: func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}},
		{name: "invalid json", handler: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{broken"))
		}},
		{name: "object instead of array", handler: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"stations":[]}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			_, err := NewClient(srv.URL, srv.Client(), zerolog.Nop()).Fetch(context.Background())
			if !errors.Is(err, ErrCatalogFetch) {
				t.Fatalf("err = %v, want ErrCatalogFetch", err)
			}
		})
	}
}

func TestClientFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil, zerolog.Nop()).Fetch(context.Background())
	if !errors.Is(err, ErrCatalogFetch) {
		t.Fatalf("err = %v, want ErrCatalogFetch", err)
	}
}
