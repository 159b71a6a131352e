package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/metadata"
	"github.com/Digital-Shane/namer/internal/provider"
	"github.com/Digital-Shane/namer/internal/transport"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	prov, err := New(Config{APIKey: "key", BaseURL: srv.URL}, transport.New(providerName))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return prov
}

func titles(ms []metadata.Metadata) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Common().Title
	}
	return out
}

func TestSearchByTmdbID(t *testing.T) {
	prov := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/329" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "key" {
			t.Errorf("missing api key")
		}
		fmt.Fprint(w, `{"id":329,"imdb_id":"tt0107290","title":"Jurassic Park","release_date":"1993-06-11","overview":"Dinosaurs."}`)
	})

	got, err := provider.NewStream(prov.Search(context.Background(), provider.Query{IDTmdb: "329"})).Collect(0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	want := map[string]any{
		"media":    "movie",
		"title":    "Jurassic Park",
		"year":     1993,
		"date":     "1993-06-11",
		"synopsis": "Dinosaurs.",
		"id_tmdb":  "329",
		"id_imdb":  "tt0107290",
	}
	if diff := cmp.Diff(want, got[0].AsDict()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchByImdbID(t *testing.T) {
	prov := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/find/tt0107290" || r.URL.Query().Get("external_source") != "imdb_id" {
			t.Errorf("unexpected request %s", r.URL)
		}
		fmt.Fprint(w, `{"movie_results":[{"id":329,"title":"Jurassic Park","release_date":"1993-06-11"}]}`)
	})

	got, err := provider.NewStream(prov.Search(context.Background(), provider.Query{IDImdb: "tt0107290"})).Collect(0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].Common().IDTmdb != "329" || got[0].Common().IDImdb != "tt0107290" {
		t.Fatalf("Search() = %v", got)
	}
}

func TestSearchByImdbIDNoMatches(t *testing.T) {
	prov := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"movie_results":[]}`)
	})
	_, err := provider.NewStream(prov.Search(context.Background(), provider.Query{IDImdb: "tt0000000"})).Collect(0)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Search() error = %v, want not found", err)
	}
}

// pagedHandler serves totalPages pages with two movies each.
func pagedHandler(totalPages int, years []int, calls *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		var rows []string
		for i := 0; i < 2; i++ {
			year := years[(page*2+i)%len(years)]
			rows = append(rows, fmt.Sprintf(`{"id":%d,"title":"Movie %d-%d","release_date":"%d-01-01"}`, page*10+i, page, i, year))
		}
		fmt.Fprintf(w, `{"page":%d,"results":[%s],"total_pages":%d,"total_results":%d}`, page, strings.Join(rows, ","), totalPages, totalPages*2)
	}
}

func TestSearchTitlePagination(t *testing.T) {
	tests := []struct {
		name       string
		totalPages int
		wantCalls  int32
	}{
		{"stops at total pages", 2, 2},
		{"stops at page cap", 50, defaultPageCap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			prov := newTestProvider(t, pagedHandler(tt.totalPages, []int{2000}, &calls))

			got, err := provider.NewStream(prov.Search(context.Background(), provider.Query{Name: "movie"})).Collect(0)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("requested %d pages, want %d", calls.Load(), tt.wantCalls)
			}
			if len(got) != int(tt.wantCalls)*2 {
				t.Errorf("got %d results, want %d", len(got), tt.wantCalls*2)
			}
		})
	}
}

func TestSearchTitleMapsSearchRows(t *testing.T) {
	var calls atomic.Int32
	prov := newTestProvider(t, pagedHandler(1, []int{1993}, &calls))

	got, err := provider.NewStream(prov.Search(context.Background(), provider.Query{Name: "movie"})).Collect(1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	want := metadata.Base{Title: "Movie 1-0", IDTmdb: "10", Year: 1993}
	b := got[0].Common()
	if b.Title != want.Title || b.IDTmdb != want.IDTmdb || b.IDImdb != "" || b.ReleaseYear() != want.Year {
		t.Errorf("Search() first result = %+v, want %+v", *b, want)
	}
	if calls.Load() != 1 {
		t.Errorf("requested %d times, want only the search page", calls.Load())
	}
}

func TestSearchTitleFiltersYears(t *testing.T) {
	var calls atomic.Int32
	// page 1 holds years[2] and years[3]: 1993 and 1960
	prov := newTestProvider(t, pagedHandler(1, []int{1960, 1960, 1993, 1960}, &calls))

	q := provider.Query{Name: "movie", Year: "1994", YearTolerance: 1}
	got, err := provider.NewStream(prov.Search(context.Background(), q)).Collect(0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Movie 1-0"}, titles(got)); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}

	q.Year = "2020"
	if _, err := provider.NewStream(prov.Search(context.Background(), q)).Collect(0); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Search() error = %v, want not found", err)
	}
}

func TestSearchStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, errs.ErrInvalidCredential},
		{http.StatusNotFound, errs.ErrNotFound},
		{http.StatusBadGateway, errs.ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.status), func(t *testing.T) {
			prov := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := provider.NewStream(prov.Search(context.Background(), provider.Query{IDTmdb: "1"})).Collect(0)
			if !errors.Is(err, tt.want) {
				t.Errorf("Search() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClientValidation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls.Add(1) }))
	defer srv.Close()

	client := NewClient("key", transport.New(providerName), srv.URL, false)
	ctx := context.Background()

	checks := []func() error{
		func() error { _, err := client.Movie(ctx, "abc", ""); return err },
		func() error { _, err := client.Movie(ctx, "-4", ""); return err },
		func() error { _, err := client.Movie(ctx, "4", "not a language!"); return err },
		func() error { _, err := client.Find(ctx, "", "imdb_id", ""); return err },
		func() error { _, err := client.Find(ctx, "tt1", "myspace_id", ""); return err },
		func() error { _, err := client.SearchMovies(ctx, SearchParams{}); return err },
		func() error { _, err := client.SearchMovies(ctx, SearchParams{Query: "x", Page: -1}); return err },
		func() error { _, err := client.SearchMovies(ctx, SearchParams{Query: "x", Year: "199x"}); return err },
	}
	for i, check := range checks {
		if err := check(); !errors.Is(err, errs.ErrValidation) {
			t.Errorf("check %d error = %v, want validation error", i, err)
		}
	}
	if calls.Load() != 0 {
		t.Error("validation failures must not reach the network")
	}
}
