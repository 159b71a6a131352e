// Package metadata holds the typed description of a media file: what the
// filename says about it and what providers later confirm.
package metadata

import (
	"strings"
	"time"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/format"
)

// Kind identifies the variant of a Metadata value
type Kind string

const (
	KindMovie   Kind = "movie"
	KindEpisode Kind = "episode"
)

// ParseKind maps a parser or config value onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies", "film":
		return KindMovie, nil
	case "episode", "episodes", "tv", "show", "series":
		return KindEpisode, nil
	}
	return "", errs.Validation("", "unknown media kind %q", s)
}

// DateLayout is the layout used for the {date} field.
const DateLayout = "2006-01-02"

// Metadata is implemented by *Movie and *Episode.
type Metadata interface {
	Kind() Kind
	Common() *Base
	// Field resolves a template field to its display value.
	Field(name string) (format.Value, bool)
	Set(key string, value any) error
	// Update copies every non-empty field of src into the receiver.
	Update(src Metadata) error
	AsDict() map[string]any
	Format(template string) string
	Clone() Metadata
	String() string
}

// Base carries the fields shared by every kind of media.
type Base struct {
	Title    string // movie name or episode title
	Year     int    // 0 when unknown
	Date     time.Time
	Synopsis string
	Group    string

	IDImdb   string
	IDTmdb   string
	IDTvdb   string
	IDTvmaze string

	extension string
	quality   []string
}

// Extension returns the file extension including its leading dot, or "".
func (b *Base) Extension() string {
	return b.extension
}

// SetExtension stores ext with exactly one leading dot.
func (b *Base) SetExtension(ext string) {
	ext = strings.TrimLeft(strings.TrimSpace(ext), ".")
	if ext == "" {
		b.extension = ""
		return
	}
	b.extension = "." + ext
}

// Quality returns the accreted quality tokens, lower cased and space joined.
func (b *Base) Quality() string {
	return strings.Join(b.quality, " ")
}

// AddQuality appends a quality token.
func (b *Base) AddQuality(token string) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return
	}
	b.quality = append(b.quality, token)
}

// SetQuality replaces the quality with the tokens of s.
func (b *Base) SetQuality(s string) {
	b.quality = nil
	for _, tok := range strings.Fields(s) {
		b.AddQuality(tok)
	}
}

// ReleaseYear returns Year, falling back to the year of Date.
func (b *Base) ReleaseYear() int {
	if b.Year != 0 {
		return b.Year
	}
	if !b.Date.IsZero() {
		return b.Date.Year()
	}
	return 0
}

func (b *Base) merge(src *Base) {
	if src.Title != "" {
		b.Title = src.Title
	}
	if src.Year != 0 {
		b.Year = src.Year
	}
	if !src.Date.IsZero() {
		b.Date = src.Date
	}
	if src.Synopsis != "" {
		b.Synopsis = src.Synopsis
	}
	if src.Group != "" {
		b.Group = src.Group
	}
	if src.IDImdb != "" {
		b.IDImdb = src.IDImdb
	}
	if src.IDTmdb != "" {
		b.IDTmdb = src.IDTmdb
	}
	if src.IDTvdb != "" {
		b.IDTvdb = src.IDTvdb
	}
	if src.IDTvmaze != "" {
		b.IDTvmaze = src.IDTvmaze
	}
	if src.extension != "" {
		b.extension = src.extension
	}
	if len(src.quality) > 0 {
		b.quality = append([]string(nil), src.quality...)
	}
}

func (b *Base) clone() Base {
	c := *b
	c.quality = append([]string(nil), b.quality...)
	return c
}

func (b *Base) field(name string) (format.Value, bool) {
	switch name {
	case "year":
		if y := b.ReleaseYear(); y != 0 {
			return format.Number(y), true
		}
	case "date":
		if !b.Date.IsZero() {
			return format.Text(b.Date.Format(DateLayout)), true
		}
	case "synopsis":
		return text(b.Synopsis)
	case "extension":
		return text(b.extension)
	case "group":
		return text(strings.ToUpper(b.Group))
	case "quality":
		return text(b.Quality())
	case "id_imdb":
		return text(b.IDImdb)
	case "id_tmdb":
		return text(b.IDTmdb)
	case "id_tvdb":
		return text(b.IDTvdb)
	case "id_tvmaze":
		return text(b.IDTvmaze)
	}
	return format.Value{}, false
}

func (b *Base) dict(kind Kind) map[string]any {
	d := map[string]any{"media": string(kind)}
	for _, name := range []string{"year", "date", "synopsis", "extension", "group", "quality", "id_imdb", "id_tmdb", "id_tvdb", "id_tvmaze"} {
		if v, ok := b.field(name); ok {
			d[name] = plain(v)
		}
	}
	return d
}

func text(s string) (format.Value, bool) {
	if s == "" {
		return format.Value{}, false
	}
	return format.Text(s), true
}

func plain(v format.Value) any {
	if v.Numeric {
		return v.Number
	}
	return v.Text
}

// Int returns a pointer to n, for Season and Episode literals.
func Int(n int) *int {
	return &n
}

// New returns empty metadata of the given kind.
func New(kind Kind) (Metadata, error) {
	switch kind {
	case KindMovie:
		return &Movie{}, nil
	case KindEpisode:
		return &Episode{}, nil
	}
	return nil, errs.Validation("", "unknown media kind %q", kind)
}
