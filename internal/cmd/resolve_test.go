package cmd

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/metadata"
	"github.com/Digital-Shane/namer/internal/parse"
	"github.com/Digital-Shane/namer/internal/provider"
	"github.com/Digital-Shane/namer/internal/target"
)

// MockProvider answers every movie search with results, then err.
type MockProvider struct {
	results  []metadata.Metadata
	err      error
	searches atomic.Int32
}

func (m *MockProvider) Name() provider.ID      { return provider.TMDb }
func (m *MockProvider) Kinds() []metadata.Kind { return []metadata.Kind{metadata.KindMovie} }
func (m *MockProvider) Search(context.Context, provider.Query) iter.Seq2[metadata.Metadata, error] {
	m.searches.Add(1)
	return func(yield func(metadata.Metadata, error) bool) {
		for _, r := range m.results {
			if !yield(r.Clone(), nil) {
				return
			}
		}
		if m.err != nil {
			yield(nil, m.err)
		}
	}
}

func newTestResolver(t *testing.T, p *MockProvider) *resolver {
	t.Helper()
	registry := provider.NewRegistry()
	err := registry.Register(provider.TMDb, provider.Factory{
		Kinds: p.Kinds(),
		New:   func(context.Context) (provider.Provider, error) { return p, nil },
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return &resolver{
		settings: target.DefaultSettings(),
		registry: registry,
		parser:   parse.New(),
		logger:   zerolog.Nop(),
	}
}

func movie(title string, year int, imdb string) metadata.Metadata {
	return &metadata.Movie{Base: metadata.Base{Title: title, Year: year, IDImdb: imdb}}
}

func TestResolveBatchTakesFirstCandidate(t *testing.T) {
	p := &MockProvider{results: []metadata.Metadata{
		movie("jurassic park", 1993, "tt0107290"),
		movie("jurassic world", 2015, "tt0369610"),
	}}
	r := newTestResolver(t, p)

	src := filepath.Join(t.TempDir(), "jurassic.park.1993.1080p.mkv")
	res := r.resolve(context.Background(), src)
	if res.Err != nil {
		t.Fatalf("resolve() error = %v", res.Err)
	}
	if want := filepath.Join(filepath.Dir(src), "Jurassic Park (1993).mkv"); res.Destination != want {
		t.Errorf("Destination = %q, want %q", res.Destination, want)
	}
	if res.Guessed || res.Match != "Jurassic Park (1993)" {
		t.Errorf("Match = %q guessed=%v, want adopted candidate", res.Match, res.Guessed)
	}
}

func TestResolveNotFoundKeepsBestGuess(t *testing.T) {
	p := &MockProvider{err: errs.NotFound("tmdb", "no results")}
	r := newTestResolver(t, p)

	res := r.resolve(context.Background(), "/media/Obscure Film (2011).avi")
	if res.Err != nil {
		t.Fatalf("resolve() error = %v", res.Err)
	}
	if !res.Guessed || res.Destination != "/media/Obscure Film (2011).avi" {
		t.Errorf("result = %+v, want best guess kept in place", res)
	}
}

func TestResolveFailureWithoutCandidates(t *testing.T) {
	p := &MockProvider{err: errs.Network("tmdb", nil, "connection refused")}
	r := newTestResolver(t, p)

	res := r.resolve(context.Background(), "/media/alien.1979.mkv")
	if !errors.Is(res.Err, errs.ErrNetwork) {
		t.Errorf("resolve() error = %v, want network error", res.Err)
	}
}

func TestResolveUsesChooser(t *testing.T) {
	p := &MockProvider{results: []metadata.Metadata{
		movie("alien", 1979, "tt0078748"),
		movie("aliens", 1986, "tt0090605"),
	}}

	tests := []struct {
		name     string
		choose   chooser
		wantDest string
		wantSkip bool
	}{
		{
			name: "Second",
			choose: func(_ *target.Target, c []metadata.Metadata) (metadata.Metadata, bool, error) {
				return c[1], false, nil
			},
			wantDest: "/media/Aliens (1986).mkv",
		},
		{
			name: "Skip",
			choose: func(*target.Target, []metadata.Metadata) (metadata.Metadata, bool, error) {
				return nil, true, nil
			},
			wantSkip: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, p)
			r.choose = tt.choose
			res := r.resolve(context.Background(), "/media/alien.mkv")
			if res.Err != nil {
				t.Fatalf("resolve() error = %v", res.Err)
			}
			if res.Skipped != tt.wantSkip || res.Destination != tt.wantDest {
				t.Errorf("result = %+v, want destination %q skipped %v", res, tt.wantDest, tt.wantSkip)
			}
		})
	}
}

func TestResolveAll(t *testing.T) {
	p := &MockProvider{results: []metadata.Metadata{movie("film", 2000, "")}}
	r := newTestResolver(t, p)

	var paths []string
	for _, title := range []string{"Heat", "Ronin", "Alien", "Arrival", "Brazil", "Casino", "Fargo", "Gattaca", "Memento", "Sicario", "Tenet", "Vertigo"} {
		paths = append(paths, fmt.Sprintf("/media/%s (2000).mkv", title))
	}
	results := r.resolveAll(context.Background(), paths, 4)
	if got := results.Count(); got != len(paths) {
		t.Fatalf("Count() = %d, want %d", got, len(paths))
	}
	for _, path := range paths {
		res, ok := results.Load(path)
		if !ok || res.Err != nil {
			t.Errorf("Load(%q) = %+v, %v; want a resolved result", path, res, ok)
		}
	}
	if got := p.searches.Load(); got != int32(len(paths)) {
		t.Errorf("searches = %d, want %d", got, len(paths))
	}
}

func TestResolveAllStopsWhenCanceled(t *testing.T) {
	p := &MockProvider{}
	r := newTestResolver(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := r.resolveAll(ctx, []string{"/a.mkv", "/b.mkv", "/c.mkv"}, 2)
	if results.Count() == 3 {
		t.Error("resolveAll() resolved every path after cancellation")
	}
}

type stubProber struct {
	tokens []string
	calls  int
}

func (s *stubProber) Quality(context.Context, string) ([]string, error) {
	s.calls++
	return s.tokens, nil
}

func TestResolveProbesMissingQuality(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantCalls int
		wantDest  string
	}{
		{name: "NoQualityInName", path: "/media/heat.1995.mkv", wantCalls: 1, wantDest: "/media/Heat 1080p h264.mkv"},
		{name: "QualityInName", path: "/media/heat.1995.720p.mkv", wantCalls: 0, wantDest: "/media/Heat 720p.mkv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &MockProvider{results: []metadata.Metadata{movie("heat", 1995, "")}}
			r := newTestResolver(t, p)
			r.settings.MovieFormat = "{title} {quality}{extension}"
			prober := &stubProber{tokens: []string{"1080p", "h264"}}
			r.prober = prober

			res := r.resolve(context.Background(), tt.path)
			if res.Err != nil {
				t.Fatalf("resolve() error = %v", res.Err)
			}
			if prober.calls != tt.wantCalls {
				t.Errorf("probe calls = %d, want %d", prober.calls, tt.wantCalls)
			}
			if res.Destination != tt.wantDest {
				t.Errorf("Destination = %q, want %q", res.Destination, tt.wantDest)
			}
		})
	}
}
