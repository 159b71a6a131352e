package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/metadata"
	"github.com/Digital-Shane/namer/internal/provider"
	"github.com/Digital-Shane/namer/internal/transport"
)

func TestNewRegistryRegistersBuiltins(t *testing.T) {
	r, err := NewRegistry(Config{})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	want := []provider.ID{provider.OMDb, provider.TMDb, provider.TVDb, provider.TVMaze}
	if diff := cmp.Diff(want, r.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
	if got := r.Default(metadata.KindMovie); got != provider.TMDb {
		t.Errorf("Default(movie) = %s, want tmdb", got)
	}
	if got := r.Default(metadata.KindEpisode); got != provider.TVDb {
		t.Errorf("Default(episode) = %s, want tvdb", got)
	}
}

func TestGetWithoutKeyFails(t *testing.T) {
	r, err := NewRegistry(Config{})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	ctx := context.Background()

	for _, id := range []provider.ID{provider.OMDb, provider.TMDb} {
		if _, err := r.Get(ctx, metadata.KindMovie, id); !errors.Is(err, errs.ErrInvalidCredential) {
			t.Errorf("Get(movie, %s) error = %v, want invalid credential", id, err)
		}
	}
	if _, err := r.Get(ctx, metadata.KindEpisode, provider.TVDb); !errors.Is(err, errs.ErrInvalidCredential) {
		t.Errorf("Get(episode, tvdb) error = %v, want invalid credential", err)
	}
	if _, err := r.Get(ctx, metadata.KindEpisode, provider.OMDb); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("Get(episode, omdb) error = %v, want validation error", err)
	}
}

func TestGetSharesProvider(t *testing.T) {
	r, err := NewRegistry(Config{TMDbKey: "key"})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	ctx := context.Background()

	a, err := r.Get(ctx, metadata.KindMovie, "")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	b, err := r.Get(ctx, metadata.KindMovie, provider.TMDb)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if a != b {
		t.Error("Get() built a second TMDb provider")
	}
	if a.Name() != provider.TMDb {
		t.Errorf("Name() = %s, want tmdb", a.Name())
	}
}

func TestSharedCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/shows/1":
			fmt.Fprint(w, `{"id":1,"name":"Show"}`)
		case "/shows/1/episodebynumber":
			fmt.Fprint(w, `{"id":7,"name":"Episode","season":1,"number":2}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cache := transport.NewCache(0)
	r, err := NewRegistry(Config{
		Cache:    cache,
		BaseURLs: map[provider.ID]string{provider.TVMaze: srv.URL},
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	p, err := r.Get(context.Background(), metadata.KindEpisode, provider.TVMaze)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	q := provider.Query{IDTvmaze: "1", Season: metadata.Int(1), Episode: metadata.Int(2)}
	for range 2 {
		got, err := provider.NewStream(p.Search(context.Background(), q)).Collect(0)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 1 || got[0].Common().Title != "Episode" {
			t.Fatalf("Search() = %v", got)
		}
	}
	if calls.Load() != 2 {
		t.Errorf("server saw %d requests, want 2", calls.Load())
	}
	if cache.Len() != 2 {
		t.Errorf("cache holds %d responses, want 2", cache.Len())
	}
}
