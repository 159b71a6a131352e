// Package format renders media naming templates such as
// "{series} - S{season:02}E{episode:02} - {title}".
package format

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Value is a resolved template field.
type Value struct {
	Text    string
	Number  int
	Numeric bool
}

// Text returns a textual Value.
func Text(s string) Value {
	return Value{Text: s}
}

// Number returns a numeric Value, rendered with zero padding when the
// template asks for a width.
func Number(n int) Value {
	return Value{Number: n, Numeric: true}
}

// Fields resolves template field names. ok is false when the field is
// unknown or has no value.
type Fields interface {
	Field(name string) (v Value, ok bool)
}

// FieldsFunc adapts a function to Fields.
type FieldsFunc func(name string) (Value, bool)

func (f FieldsFunc) Field(name string) (Value, bool) { return f(name) }

// Fields that are zero padded to two digits when no width is given.
var defaultWidths = map[string]int{
	"season":  2,
	"episode": 2,
}

// {field}, {field:WIDTH} or {field[i]}
var placeholderRe = regexp.MustCompile(`\{(\w+)(?:\[(\d+)\])?(?::(\d+))?\}`)

const separators = " \t-_./"

type part struct {
	text    string
	missing bool
}

// Fields that always form a segment of their own, so a name missing its
// title still keeps "{title}{extension}"'s extension.
var standalone = map[string]bool{
	"extension": true,
}

// Render expands template with values from fields. Text between separator
// characters forms a segment, and a segment holding any placeholder without
// a value is dropped whole: "S{season}E{episode}" disappears when the
// episode is unknown. {extension} is always a segment of its own. The
// result is passed through FixPadding.
func Render(template string, fields Fields) string {
	var out []byte
	var seg []part
	lastDropped := false

	flush := func(trim bool) {
		if len(seg) == 0 {
			return
		}
		missing := false
		for _, p := range seg {
			missing = missing || p.missing
		}
		if missing {
			lastDropped = true
			seg = seg[:0]
			return
		}
		// "{title} ({year}){extension}" without a year must not leave a
		// separator in front of the extension.
		if trim && lastDropped {
			out = bytes.TrimRight(out, " \t-_")
		}
		for _, p := range seg {
			out = append(out, p.text...)
		}
		lastDropped = false
		seg = seg[:0]
	}

	literal := func(s string) {
		var buf strings.Builder
		for _, r := range s {
			if strings.ContainsRune(separators, r) {
				if buf.Len() > 0 {
					seg = append(seg, part{text: buf.String()})
					buf.Reset()
				}
				flush(false)
				out = utf8.AppendRune(out, r)
				continue
			}
			buf.WriteRune(r)
		}
		if buf.Len() > 0 {
			seg = append(seg, part{text: buf.String()})
		}
	}

	last := 0
	for _, m := range placeholderRe.FindAllStringSubmatchIndex(template, -1) {
		literal(template[last:m[0]])
		last = m[1]

		name := template[m[2]:m[3]]
		index, width := -1, 0
		if m[4] >= 0 {
			index, _ = strconv.Atoi(template[m[4]:m[5]])
		}
		if m[6] >= 0 {
			width, _ = strconv.Atoi(template[m[6]:m[7]])
		}

		s, ok := expand(fields, name, index, width)
		if standalone[name] {
			flush(false)
			seg = append(seg, part{text: s, missing: !ok})
			flush(true)
			continue
		}
		seg = append(seg, part{text: s, missing: !ok})
	}
	literal(template[last:])
	flush(false)

	return FixPadding(string(out))
}

func expand(fields Fields, name string, index, width int) (string, bool) {
	v, ok := fields.Field(name)
	if !ok {
		return "", false
	}

	var s string
	if v.Numeric {
		if width == 0 {
			width = defaultWidths[name]
		}
		s = fmt.Sprintf("%0*d", width, v.Number)
	} else {
		s = v.Text
	}
	if s == "" {
		return "", false
	}

	if index >= 0 {
		runes := []rune(s)
		if index >= len(runes) {
			return "", false
		}
		s = string(runes[index])
	}
	return s, true
}
