package metadata

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Digital-Shane/namer/internal/errs"
)

func TestUpdateOverwritesOnlyNonEmptyFields(t *testing.T) {
	target := &Episode{Series: "ninja turtles", Season: Int(1), Episode: Int(4)}
	target.SetExtension("mkv")
	target.AddQuality("1080p")
	target.Group = "rargb"

	src := &Episode{Base: Base{Title: "Enter the Shredder"}, Season: Int(1)}
	src.IDTvdb = "12345"

	if err := target.Update(src); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	want := map[string]any{
		"media":     "episode",
		"series":    "Ninja Turtles",
		"title":     "Enter the Shredder",
		"season":    1,
		"episode":   4,
		"extension": ".mkv",
		"quality":   "1080p",
		"group":     "RARGB",
		"id_tvdb":   "12345",
	}
	if diff := cmp.Diff(want, target.AsDict()); diff != "" {
		t.Errorf("AsDict() mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateAcrossKindsFails(t *testing.T) {
	movie := &Movie{Base: Base{Title: "Alien"}}
	err := movie.Update(&Episode{Series: "Alf"})
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("Update() error = %v, want validation error", err)
	}
	if movie.Title != "Alien" {
		t.Fatalf("movie modified after failed update: %q", movie.Title)
	}
}

func TestUpdateKeepsSeasonZero(t *testing.T) {
	ep := &Episode{}
	if err := ep.Update(&Episode{Season: Int(0), Episode: Int(0)}); err != nil {
		t.Fatal(err)
	}
	if ep.Season == nil || *ep.Season != 0 {
		t.Fatalf("Season = %v, want 0", ep.Season)
	}
}

func TestSetExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mkv", ".mkv"},
		{".mkv", ".mkv"},
		{"..mkv", ".mkv"},
		{"", ""},
	}
	for _, tt := range tests {
		var b Base
		b.SetExtension(tt.in)
		if got := b.Extension(); got != tt.want {
			t.Errorf("SetExtension(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSetValidation(t *testing.T) {
	ep := &Episode{}
	tests := []struct {
		key   string
		value any
	}{
		{"season", -1},
		{"episode", "four"},
		{"year", -1993},
		{"media", "movie"},
		{"date", "not a date"},
		{"unknown", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := ep.Set(tt.key, tt.value); !errors.Is(err, errs.ErrValidation) {
				t.Fatalf("Set(%q, %v) error = %v, want validation error", tt.key, tt.value, err)
			}
		})
	}

	movie := &Movie{}
	if err := movie.Set("series", "x"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("movie Set(series) error = %v, want validation error", err)
	}
}

func TestYearDerivedFromDate(t *testing.T) {
	m := &Movie{Base: Base{Title: "jurassic park", Date: time.Date(1993, 6, 11, 0, 0, 0, 0, time.UTC)}}
	v, ok := m.Field("year")
	if !ok || v.Number != 1993 {
		t.Fatalf("Field(year) = %v, %v; want 1993", v, ok)
	}
	if got := m.String(); got != "Jurassic Park (1993)" {
		t.Fatalf("String() = %q", got)
	}
}

func TestTitleCasedOnlyForDisplay(t *testing.T) {
	m := &Movie{Base: Base{Title: "the lord of the rings"}}
	if m.Title != "the lord of the rings" {
		t.Fatalf("stored title changed: %q", m.Title)
	}
	if got := m.Format("{title}"); got != "The Lord of the Rings" {
		t.Fatalf("Format() = %q", got)
	}
}

func TestEpisodeFormat(t *testing.T) {
	ep := &Episode{Series: "ninja turtles", Season: Int(1), Episode: Int(4)}
	ep.SetExtension(".mkv")
	got := ep.Format("{series} - S{season:02}E{episode:02} - {title}{extension}")
	if got != "Ninja Turtles - S01E04.mkv" {
		t.Fatalf("Format() = %q", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	ep := &Episode{Series: "alf", Season: Int(2)}
	ep.AddQuality("720p")
	c := ep.Clone().(*Episode)
	*c.Season = 9
	c.AddQuality("aac")
	if *ep.Season != 2 || ep.Quality() != "720p" {
		t.Fatalf("clone shares state with original: season=%d quality=%q", *ep.Season, ep.Quality())
	}
}
