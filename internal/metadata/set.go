package metadata

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/Digital-Shane/namer/internal/errs"
)

// setField assigns a single named field, coercing parser-shaped values
// (strings, ints, dates) into the typed field.
func setField(m Metadata, key string, value any) error {
	b := m.Common()

	switch key {
	case "media":
		s, err := toString(key, value)
		if err != nil {
			return err
		}
		kind, err := ParseKind(s)
		if err != nil {
			return err
		}
		if kind != m.Kind() {
			return errs.Validation("", "cannot change media kind from %s to %s", m.Kind(), kind)
		}
		return nil
	case "title", "name":
		return assignString(key, value, &b.Title)
	case "synopsis":
		return assignString(key, value, &b.Synopsis)
	case "group":
		return assignString(key, value, &b.Group)
	case "id_imdb":
		return assignString(key, value, &b.IDImdb)
	case "id_tmdb":
		return assignString(key, value, &b.IDTmdb)
	case "id_tvdb":
		return assignString(key, value, &b.IDTvdb)
	case "id_tvmaze":
		return assignString(key, value, &b.IDTvmaze)
	case "extension":
		s, err := toString(key, value)
		if err != nil {
			return err
		}
		b.SetExtension(s)
		return nil
	case "quality":
		s, err := toString(key, value)
		if err != nil {
			return err
		}
		b.SetQuality(s)
		return nil
	case "year":
		n, err := toCount(key, value)
		if err != nil {
			return err
		}
		b.Year = n
		return nil
	case "date":
		d, err := toDate(value)
		if err != nil {
			return err
		}
		b.Date = d
		return nil
	}

	ep, ok := m.(*Episode)
	if !ok {
		return errs.Validation("", "field %q does not apply to %s metadata", key, m.Kind())
	}

	switch key {
	case "series":
		return assignString(key, value, &ep.Series)
	case "season":
		n, err := toCount(key, value)
		if err != nil {
			return err
		}
		ep.Season = Int(n)
		return nil
	case "episode":
		n, err := toCount(key, value)
		if err != nil {
			return err
		}
		ep.Episode = Int(n)
		return nil
	case "language":
		s, err := toString(key, value)
		if err != nil {
			return err
		}
		tag, err := language.Parse(s)
		if err != nil {
			return errs.Validation("", "invalid language %q", s)
		}
		ep.LanguageSub = tag
		return nil
	}

	return errs.Validation("", "unknown field %q", key)
}

func assignString(key string, value any, dst *string) error {
	s, err := toString(key, value)
	if err != nil {
		return err
	}
	*dst = strings.TrimSpace(s)
	return nil
}

func toString(key string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case int:
		return strconv.Itoa(v), nil
	}
	return "", errs.Validation("", "field %q expects text, got %T", key, value)
}

// toCount accepts non-negative ints or numeric strings.
func toCount(key string, value any) (int, error) {
	var n int
	switch v := value.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, errs.Validation("", "field %q expects a number, got %q", key, v)
		}
		n = parsed
	default:
		return 0, errs.Validation("", "field %q expects a number, got %T", key, value)
	}
	if n < 0 {
		return 0, errs.Validation("", "field %q must not be negative, got %d", key, n)
	}
	return n, nil
}

func toDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		d, err := time.Parse(DateLayout, strings.TrimSpace(v))
		if err != nil {
			return time.Time{}, errs.Validation("", "invalid date %q", v)
		}
		return d, nil
	}
	return time.Time{}, errs.Validation("", "field \"date\" expects a date, got %T", value)
}
