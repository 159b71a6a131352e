package metadata

import (
	"fmt"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/format"
)

// Movie describes a feature film.
type Movie struct {
	Base
}

func (m *Movie) Kind() Kind { return KindMovie }

func (m *Movie) Common() *Base { return &m.Base }

func (m *Movie) Field(name string) (format.Value, bool) {
	switch name {
	case "title", "name":
		if m.Title == "" {
			return format.Value{}, false
		}
		return format.Text(format.TitleCase(m.Title)), true
	case "media":
		return format.Text(string(KindMovie)), true
	}
	return m.field(name)
}

func (m *Movie) Set(key string, value any) error {
	return setField(m, key, value)
}

func (m *Movie) Update(src Metadata) error {
	other, ok := src.(*Movie)
	if !ok {
		return errs.Validation("", "cannot update movie metadata from %s", src.Kind())
	}
	m.merge(&other.Base)
	return nil
}

func (m *Movie) AsDict() map[string]any {
	d := m.dict(KindMovie)
	if v, ok := m.Field("title"); ok {
		d["title"] = v.Text
	}
	return d
}

func (m *Movie) Format(template string) string {
	return format.Render(template, m)
}

func (m *Movie) Clone() Metadata {
	return &Movie{Base: m.clone()}
}

func (m *Movie) String() string {
	if y := m.ReleaseYear(); y != 0 {
		return fmt.Sprintf("%s (%d)", format.TitleCase(m.Title), y)
	}
	return format.TitleCase(m.Title)
}
