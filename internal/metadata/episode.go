package metadata

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/format"
)

// Episode describes a single television episode. Base.Title holds the
// episode title.
type Episode struct {
	Base
	Series      string
	Season      *int
	Episode     *int
	LanguageSub language.Tag
}

func (e *Episode) Kind() Kind { return KindEpisode }

func (e *Episode) Common() *Base { return &e.Base }

func (e *Episode) Field(name string) (format.Value, bool) {
	switch name {
	case "title":
		if e.Title == "" {
			return format.Value{}, false
		}
		return format.Text(format.TitleCase(e.Title)), true
	case "series":
		if e.Series == "" {
			return format.Value{}, false
		}
		return format.Text(format.TitleCase(e.Series)), true
	case "season":
		if e.Season != nil {
			return format.Number(*e.Season), true
		}
		return format.Value{}, false
	case "episode":
		if e.Episode != nil {
			return format.Number(*e.Episode), true
		}
		return format.Value{}, false
	case "language":
		if e.LanguageSub != language.Und {
			return format.Text(e.LanguageSub.String()), true
		}
		return format.Value{}, false
	case "media":
		return format.Text(string(KindEpisode)), true
	}
	return e.field(name)
}

func (e *Episode) Set(key string, value any) error {
	return setField(e, key, value)
}

func (e *Episode) Update(src Metadata) error {
	other, ok := src.(*Episode)
	if !ok {
		return errs.Validation("", "cannot update episode metadata from %s", src.Kind())
	}
	e.merge(&other.Base)
	if other.Series != "" {
		e.Series = other.Series
	}
	if other.Season != nil {
		e.Season = Int(*other.Season)
	}
	if other.Episode != nil {
		e.Episode = Int(*other.Episode)
	}
	if other.LanguageSub != language.Und {
		e.LanguageSub = other.LanguageSub
	}
	return nil
}

func (e *Episode) AsDict() map[string]any {
	d := e.dict(KindEpisode)
	for _, name := range []string{"title", "series", "season", "episode", "language"} {
		if v, ok := e.Field(name); ok {
			d[name] = plain(v)
		}
	}
	return d
}

func (e *Episode) Format(template string) string {
	return format.Render(template, e)
}

func (e *Episode) Clone() Metadata {
	c := &Episode{
		Base:        e.clone(),
		Series:      e.Series,
		LanguageSub: e.LanguageSub,
	}
	if e.Season != nil {
		c.Season = Int(*e.Season)
	}
	if e.Episode != nil {
		c.Episode = Int(*e.Episode)
	}
	return c
}

func (e *Episode) String() string {
	var b strings.Builder
	b.WriteString(format.TitleCase(e.Series))
	if e.Season != nil && e.Episode != nil {
		fmt.Fprintf(&b, " - S%02dE%02d", *e.Season, *e.Episode)
	} else if !e.Date.IsZero() {
		b.WriteString(" - " + e.Date.Format(DateLayout))
	}
	if e.Title != "" {
		b.WriteString(" - " + format.TitleCase(e.Title))
	}
	return strings.TrimPrefix(b.String(), " - ")
}
