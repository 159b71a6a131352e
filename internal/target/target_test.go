package target

import (
	"context"
	"errors"
	"iter"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/metadata"
	"github.com/Digital-Shane/namer/internal/parse"
	"github.com/Digital-Shane/namer/internal/provider"
)

// mockProvider yields a fixed set of results and records the last query.
type mockProvider struct {
	kinds   []metadata.Kind
	results []metadata.Metadata
	err     error
	last    provider.Query
}

func (m *mockProvider) Name() provider.ID      { return provider.TMDb }
func (m *mockProvider) Kinds() []metadata.Kind { return m.kinds }
func (m *mockProvider) Search(_ context.Context, q provider.Query) iter.Seq2[metadata.Metadata, error] {
	m.last = q
	return func(yield func(metadata.Metadata, error) bool) {
		for _, r := range m.results {
			if !yield(r, nil) {
				return
			}
		}
		if m.err != nil {
			yield(nil, m.err)
		}
	}
}

func registryWith(t *testing.T, p *mockProvider) *provider.Registry {
	t.Helper()
	r := provider.NewRegistry()
	err := r.Register(provider.TMDb, provider.Factory{
		Kinds: p.kinds,
		New:   func(context.Context) (provider.Provider, error) { return p, nil },
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return r
}

func movie(title string, year int) metadata.Metadata {
	return &metadata.Movie{Base: metadata.Base{Title: title, Year: year}}
}

// relDestination returns the destination relative to the source folder.
func relDestination(t *testing.T, tg *Target) string {
	t.Helper()
	dst, err := tg.Destination()
	if err != nil {
		t.Fatalf("Destination() error = %v", err)
	}
	rel, err := filepath.Rel(filepath.Dir(tg.Source()), dst)
	if err != nil {
		t.Fatalf("Rel() error = %v", err)
	}
	return filepath.ToSlash(rel)
}

func TestEpisodeFromFileName(t *testing.T) {
	settings := DefaultSettings()
	settings.EpisodeFormat = "{series} - S{season:02}E{episode:02} - {title}"

	tg, err := New("ninja.turtles.s01e04.1080p.ac3.rargb.sample.mkv", settings, provider.NewRegistry(), parse.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if tg.State() != StateParsed {
		t.Errorf("State() = %v, want %v", tg.State(), StateParsed)
	}

	m := tg.Metadata()
	if m.Kind() != metadata.KindEpisode {
		t.Fatalf("Kind() = %v, want episode", m.Kind())
	}
	if got := m.Common().Quality(); got != "1080p dolby digital" {
		t.Errorf("Quality() = %q, want %q", got, "1080p dolby digital")
	}
	if v, _ := m.Field("group"); v.Text != "RARGB" {
		t.Errorf("group = %q, want RARGB", v.Text)
	}
	if got := m.Common().Extension(); got != ".mkv" {
		t.Errorf("Extension() = %q, want .mkv", got)
	}

	if got := relDestination(t, tg); got != "Ninja Turtles - S01E04" {
		t.Errorf("Destination() = %q, want %q", got, "Ninja Turtles - S01E04")
	}
	if tg.State() != StateResolved {
		t.Errorf("State() = %v, want %v", tg.State(), StateResolved)
	}
}

func TestDestination(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		adjust func(*Settings)
		want   string
	}{
		{
			name: "DefaultMovie",
			path: "Jurassic Park (1993).wmv",
			want: "Jurassic Park (1993).wmv",
		},
		{
			name: "MovieDirectory",
			path: "Jurassic Park (1993).wmv",
			adjust: func(s *Settings) {
				s.MovieDirectory = "{title} ({year})"
				s.MovieFormat = "{title}{extension}"
			},
			want: "Jurassic Park (1993)/Jurassic Park.wmv",
		},
		{
			name: "NestedDirectoryDropsEmptySegments",
			path: "Jurassic Park.wmv",
			adjust: func(s *Settings) {
				s.MovieDirectory = "movies/{year}/{title}"
			},
			want: "movies/Jurassic Park/Jurassic Park.wmv",
		},
		{
			name:   "Lower",
			path:   "Jurassic Park (1993).wmv",
			adjust: func(s *Settings) { s.Lower = true },
			want:   "jurassic park (1993).wmv",
		},
		{
			name:   "Scene",
			path:   "Amélie (2001).mkv",
			adjust: func(s *Settings) { s.Scene = true },
			want:   "Amelie.2001.mkv",
		},
		{
			name: "ReplaceBeforeAndAfter",
			path: "Jurassic_Prk_1993.wmv",
			adjust: func(s *Settings) {
				s.ReplaceBefore = map[string]string{"Prk": "Park"}
				s.ReplaceAfter = map[string]string{"Jurassic": "Jurassic World:"}
			},
			want: "Jurassic World Park (1993).wmv",
		},
		{
			name: "MultiEpisodeFirst",
			path: "Friends.S01E02E01.avi",
			want: "Friends - S01E01.avi",
		},
		{
			name:   "MultiEpisodeLast",
			path:   "Friends.S01E02E01.avi",
			adjust: func(s *Settings) { s.Map.MultiEpisodeLast = true },
			want:   "Friends - S01E02.avi",
		},
		{
			name:   "ForcedMovie",
			path:   "Friends.S01E02.avi",
			adjust: func(s *Settings) { s.Media = metadata.KindMovie },
			want:   "Friends.avi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			if tt.adjust != nil {
				tt.adjust(&settings)
			}
			tg, err := New(tt.path, settings, provider.NewRegistry(), parse.New())
			if err != nil {
				t.Fatalf("New(%q) error = %v", tt.path, err)
			}
			if got := relDestination(t, tg); got != tt.want {
				t.Errorf("Destination() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAbsoluteDirectory(t *testing.T) {
	settings := DefaultSettings()
	settings.MovieDirectory = "/media/movies/{title}"

	tg, err := New("Jurassic Park (1993).wmv", settings, provider.NewRegistry(), parse.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	dst, err := tg.Destination()
	if err != nil {
		t.Fatalf("Destination() error = %v", err)
	}
	want := filepath.Join(string(filepath.Separator), "media", "movies", "Jurassic Park", "Jurassic Park (1993).wmv")
	if dst != want {
		t.Errorf("Destination() = %q, want %q", dst, want)
	}
}

func TestDestinationRejectsEmptyName(t *testing.T) {
	settings := DefaultSettings()
	settings.MovieFormat = "{id_imdb}"

	tg, err := New("Jurassic Park (1993).wmv", settings, provider.NewRegistry(), parse.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := tg.Destination(); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("Destination() error = %v, want validation error", err)
	}
}

func TestCandidatesOrderedByYear(t *testing.T) {
	p := &mockProvider{
		kinds: []metadata.Kind{metadata.KindMovie},
		results: []metadata.Metadata{
			movie("Jurassic Park III", 2001),
			movie("The Lost World", 1997),
			movie("Jurassic Park", 1993),
			movie("Jurassic Park Making Of", 0),
		},
	}
	tg, err := New("Jurassic Park (1993).wmv", DefaultSettings(), registryWith(t, p), parse.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := tg.Candidates(context.Background(), 0)
	if err != nil {
		t.Fatalf("Candidates() error = %v", err)
	}
	var titles []string
	for _, m := range got {
		titles = append(titles, m.Common().Title)
	}
	want := []string{"Jurassic Park", "The Lost World", "Jurassic Park III", "Jurassic Park Making Of"}
	if diff := cmp.Diff(want, titles); diff != "" {
		t.Errorf("Candidates() mismatch (-want +got):\n%s", diff)
	}

	if p.last.Name != "Jurassic Park" || p.last.Year != "1993" {
		t.Errorf("query = %+v, want name Jurassic Park and year 1993", p.last)
	}
	if p.last.YearTolerance != provider.DefaultYearTolerance {
		t.Errorf("query tolerance = %d, want %d", p.last.YearTolerance, provider.DefaultYearTolerance)
	}
	if tg.State() != StateQueried {
		t.Errorf("State() = %v, want %v", tg.State(), StateQueried)
	}
}

func TestCandidatesLimit(t *testing.T) {
	p := &mockProvider{
		kinds:   []metadata.Kind{metadata.KindMovie},
		results: []metadata.Metadata{movie("A", 0), movie("B", 0), movie("C", 0)},
	}
	tg, err := New("Alien.mkv", DefaultSettings(), registryWith(t, p), parse.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got, err := tg.Candidates(context.Background(), 2)
	if err != nil {
		t.Fatalf("Candidates() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len(Candidates()) = %d, want 2", len(got))
	}
}

func TestCandidatesKeepsResultsBeforeFailure(t *testing.T) {
	p := &mockProvider{
		kinds:   []metadata.Kind{metadata.KindMovie},
		results: []metadata.Metadata{movie("Alien", 1979)},
		err:     errs.Network("tmdb", nil, "connection reset"),
	}
	tg, err := New("Alien.mkv", DefaultSettings(), registryWith(t, p), parse.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got, err := tg.Candidates(context.Background(), 5)
	if !errors.Is(err, errs.ErrNetwork) {
		t.Errorf("Candidates() error = %v, want network error", err)
	}
	if len(got) != 1 {
		t.Errorf("len(Candidates()) = %d, want 1", len(got))
	}
}

func TestQueryUnknownProvider(t *testing.T) {
	settings := DefaultSettings()
	settings.MovieAPI = "nope"

	tg, err := New("Alien.mkv", settings, provider.NewRegistry(), parse.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := tg.Query(context.Background()); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("Query() error = %v, want validation error", err)
	}
	if tg.State() != StateParsed {
		t.Errorf("State() = %v, want %v", tg.State(), StateParsed)
	}
}

func TestSelect(t *testing.T) {
	tg, err := New("jurassic.park.1993.1080p.mkv", DefaultSettings(), provider.NewRegistry(), parse.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	chosen := movie("Jurassic Park", 1993)
	chosen.Common().IDTmdb = "329"
	if err := tg.Select(chosen); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if tg.State() != StateSelected {
		t.Errorf("State() = %v, want %v", tg.State(), StateSelected)
	}

	b := tg.Metadata().Common()
	if b.IDTmdb != "329" {
		t.Errorf("IDTmdb = %q, want 329", b.IDTmdb)
	}
	// fields the selection lacks survive
	if b.Quality() != "1080p" || b.Extension() != ".mkv" {
		t.Errorf("quality %q extension %q, want 1080p and .mkv", b.Quality(), b.Extension())
	}
	if guess := tg.BestGuess().Common(); guess.IDTmdb != "" {
		t.Errorf("BestGuess() IDTmdb = %q, want it untouched", guess.IDTmdb)
	}

	if err := tg.Select(nil); err != nil {
		t.Errorf("Select(nil) error = %v", err)
	}
	episode := &metadata.Episode{Series: "Lost"}
	if err := tg.Select(episode); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("Select(episode) error = %v, want validation error", err)
	}
}

func TestStateString(t *testing.T) {
	if got := StateSelected.String(); got != "selected" {
		t.Errorf("String() = %q, want selected", got)
	}
	if got := State(42).String(); got != "State(42)" {
		t.Errorf("String() = %q, want State(42)", got)
	}
}

func TestSanitizeSegment(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"Mission: Impossible", "Mission Impossible", false},
		{"AC/DC  Live", "AC DC Live", false},
		{"tab\there", "tab here", false},
		{"  padded  ", "padded", false},
		{"", "", true},
		{"???", "", true},
		{"..", "", true},
	}
	for _, tt := range tests {
		got, err := sanitizeSegment(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("sanitizeSegment(%q) = %q, %v; want %q, error %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestScene(t *testing.T) {
	tests := map[string]string{
		"Amélie (2001).mkv":                 "Amelie.2001.mkv",
		"Lost - S01E04 - Walkabout.mkv":     "Lost.S01E04.Walkabout.mkv",
		"Mission: Impossible - Fallout.mp4": "Mission.Impossible.Fallout.mp4",
		"Smørrebrød Æble (2010).mkv":        "Smorrebrod.Aeble.2010.mkv",
		"Straße Łódź.mkv":                   "Strasse.Lodz.mkv",
		"Ðe Þing Œuvre.avi":                 "De.Thing.Oeuvre.avi",
		"千と千尋の神隠し (2001).mkv":               "2001.mkv",
	}
	for in, want := range tests {
		if got := scene(in); got != want {
			t.Errorf("scene(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPreserveTags(t *testing.T) {
	tests := []struct {
		name   string
		gen    string
		ext    string
		source string
		want   string
	}{
		{name: "SingleTag", gen: "Show - S01E01.mkv", ext: ".mkv", source: "Show.S01E01.[Extended].mkv", want: "Show - S01E01[Extended].mkv"},
		{name: "MultipleTags", gen: "Movie (1999) [tt0133093].mkv", ext: ".mkv", source: "Movie - [Uncut][h265].mkv", want: "Movie (1999) [tt0133093][Uncut][h265].mkv"},
		{name: "CaseInsensitiveDuplicate", gen: "Movie (1999) [uncut].mkv", ext: ".mkv", source: "Movie - [Uncut].mkv", want: "Movie (1999) [uncut].mkv"},
		{name: "NoTags", gen: "Movie (1999).mkv", ext: ".mkv", source: "movie.1999.mkv", want: "Movie (1999).mkv"},
		{name: "TemplateWithoutExtension", gen: "Movie", ext: ".mkv", source: "Movie [Remux].mkv", want: "Movie[Remux]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preserveTags(tt.gen, tt.ext, tt.source); got != tt.want {
				t.Errorf("preserveTags(%q, %q, %q) = %q, want %q", tt.gen, tt.ext, tt.source, got, tt.want)
			}
		})
	}
}
