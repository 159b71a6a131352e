// Package target resolves one media file: it parses the file name, asks a
// provider for candidates, adopts a selection and computes where the file
// should go. It never touches the filesystem.
package target

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/metadata"
	"github.com/Digital-Shane/namer/internal/parse"
	"github.com/Digital-Shane/namer/internal/provider"
)

// State tracks how far a target has been resolved.
type State int

const (
	StateCreated State = iota
	StateParsed
	StateQueried
	StateSelected
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateParsed:
		return "parsed"
	case StateQueried:
		return "queried"
	case StateSelected:
		return "selected"
	case StateResolved:
		return "resolved"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// qualityKeys lists the parser fields accreted into quality, in order.
var qualityKeys = []string{
	parse.KeyScreenSize,
	parse.KeyAudioCodec,
	parse.KeyAudioProfile,
	parse.KeyVideoCodec,
	parse.KeyVideoProfile,
}

// Target is one file on its way to a new name. A Target is not safe for
// concurrent use; the registry it draws providers from is.
type Target struct {
	source   string
	settings Settings
	registry *provider.Registry

	state    State
	parsed   metadata.Metadata
	metadata metadata.Metadata
}

// New creates a target for path and parses its file name.
func New(path string, settings Settings, registry *provider.Registry, parser parse.Parser) (*Target, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errs.Validation("", "resolve %q: %v", path, err)
	}
	t := &Target{
		source:   abs,
		settings: settings,
		registry: registry,
		state:    StateCreated,
	}
	if err := t.parse(parser); err != nil {
		return nil, err
	}
	return t, nil
}

// Source returns the absolute path of the file.
func (t *Target) Source() string {
	return t.source
}

// State returns the current resolution state.
func (t *Target) State() State {
	return t.state
}

// Metadata returns the working metadata. Callers must not keep it across
// Select calls.
func (t *Target) Metadata() metadata.Metadata {
	return t.metadata
}

func (t *Target) parse(parser parse.Parser) error {
	name := replace(filepath.Base(t.source), t.settings.ReplaceBefore)
	raw, err := parser.Parse(filepath.Join(filepath.Dir(t.source), name))
	if err != nil {
		return err
	}
	m, err := fromParsed(raw, t.settings)
	if err != nil {
		return fmt.Errorf("%s: %w", t.source, err)
	}
	t.parsed = m
	t.metadata = m.Clone()
	t.state = StateParsed
	return nil
}

// Query starts a search with the provider configured for the target's
// media kind. Each call returns an independent stream.
func (t *Target) Query(ctx context.Context) (*provider.Stream, error) {
	kind := t.metadata.Kind()
	p, err := t.registry.Get(ctx, kind, t.settings.api(kind))
	if err != nil {
		return nil, err
	}
	q := provider.QueryFor(t.metadata, t.settings.Language, t.settings.YearTolerance)
	t.state = StateQueried
	return provider.NewStream(p.Search(ctx, q)), nil
}

// Candidates returns up to hits results, or Settings.Hits when hits is not
// positive. Movies with a known year are ordered by distance from it,
// keeping provider order between equals.
func (t *Target) Candidates(ctx context.Context, hits int) ([]metadata.Metadata, error) {
	if hits <= 0 {
		hits = t.settings.Hits
	}
	stream, err := t.Query(ctx)
	if err != nil {
		return nil, err
	}
	results, err := stream.Collect(hits)

	if year := t.metadata.Common().ReleaseYear(); year != 0 && t.metadata.Kind() == metadata.KindMovie {
		sort.SliceStable(results, func(i, j int) bool {
			return yearDistance(results[i], year) < yearDistance(results[j], year)
		})
	}
	return results, err
}

func yearDistance(m metadata.Metadata, year int) int {
	y := m.Common().ReleaseYear()
	if y == 0 {
		return 1 << 16
	}
	if y > year {
		return y - year
	}
	return year - y
}

// BestGuess returns the metadata parsed from the file name alone.
func (t *Target) BestGuess() metadata.Metadata {
	return t.parsed.Clone()
}

// AddQuality appends quality tokens found outside the file name to both the
// best guess and the working metadata.
func (t *Target) AddQuality(tokens ...string) {
	for _, tok := range tokens {
		t.parsed.Common().AddQuality(tok)
		t.metadata.Common().AddQuality(tok)
	}
}

// Select adopts m: its non-empty fields overwrite the working metadata.
// A nil m keeps the best guess.
func (t *Target) Select(m metadata.Metadata) error {
	if m != nil {
		if err := t.metadata.Update(m); err != nil {
			return err
		}
	}
	t.state = StateSelected
	return nil
}

// Destination computes the new path from the configured templates.
func (t *Target) Destination() (string, error) {
	dirTemplate, fileTemplate := t.settings.templates(t.metadata.Kind())

	name := replace(t.metadata.Format(fileTemplate), t.settings.ReplaceAfter)
	if t.settings.PreserveTags {
		name = preserveTags(name, t.metadata.Common().Extension(), filepath.Base(t.source))
	}
	if t.settings.Lower {
		name = strings.ToLower(name)
	}
	if t.settings.Scene {
		name = scene(name)
	}
	name, err := sanitizeSegment(name)
	if err != nil {
		return "", errs.Validation("", "%s: file name template %q rendered nothing", t.source, fileTemplate)
	}

	dir := filepath.Dir(t.source)
	if dirTemplate != "" {
		rendered := t.metadata.Format(dirTemplate)
		segments := []string{dir}
		if strings.HasPrefix(dirTemplate, "/") || filepath.IsAbs(dirTemplate) {
			segments = []string{string(filepath.Separator)}
		}
		// segments that render empty are dropped
		for _, part := range strings.Split(rendered, "/") {
			if seg, err := sanitizeSegment(part); err == nil {
				segments = append(segments, seg)
			}
		}
		dir = filepath.Join(segments...)
	}

	t.state = StateResolved
	return filepath.Join(dir, name), nil
}

type assignment struct {
	key   string
	value any
}

// fromParsed maps parser output onto fresh metadata.
func fromParsed(raw map[string]any, settings Settings) (metadata.Metadata, error) {
	kind := settings.Media
	if kind == "" {
		kind = metadata.KindMovie
		if s, ok := raw[parse.KeyType].(string); ok {
			k, err := metadata.ParseKind(s)
			if err != nil {
				return nil, err
			}
			kind = k
		}
	}
	m, err := metadata.New(kind)
	if err != nil {
		return nil, err
	}

	set := func(key string, value any) error {
		if value == nil {
			return nil
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			return nil
		}
		return m.Set(key, value)
	}

	b := m.Common()
	if ext, ok := raw[parse.KeyContainer].(string); ok {
		b.SetExtension(ext)
	}
	for _, key := range qualityKeys {
		if s, ok := raw[key].(string); ok {
			b.AddQuality(s)
		}
	}

	group := raw[parse.KeyReleaseGroup]
	if group == nil && !settings.Map.IgnoreCountry {
		group = raw[parse.KeyCountry]
	}
	steps := []assignment{
		{"group", group},
		{"year", raw[parse.KeyYear]},
		{"date", raw[parse.KeyDate]},
	}
	if kind == metadata.KindEpisode {
		steps = append(steps,
			assignment{"series", raw[parse.KeyTitle]},
			assignment{"title", raw[parse.KeyEpisodeTitle]},
			assignment{"season", raw[parse.KeySeason]},
			assignment{"episode", pickEpisode(raw[parse.KeyEpisode], settings.Map)},
			assignment{"language", raw[parse.KeySubtitleLanguage]},
		)
	} else {
		steps = append(steps, assignment{"title", raw[parse.KeyTitle]})
	}
	for _, s := range steps {
		if err := set(s.key, s.value); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// pickEpisode collapses a multi-episode list to its lowest number, or its
// highest with MultiEpisodeLast.
func pickEpisode(v any, opts MapOptions) any {
	list, ok := v.([]int)
	if !ok {
		return v
	}
	if len(list) == 0 {
		return nil
	}
	sorted := slices.Sorted(slices.Values(list))
	if opts.MultiEpisodeLast {
		return sorted[len(sorted)-1]
	}
	return sorted[0]
}

// replace applies each substitution in sorted key order.
func replace(s string, subs map[string]string) string {
	for _, from := range slices.Sorted(maps.Keys(subs)) {
		if from == "" {
			continue
		}
		s = strings.ReplaceAll(s, from, subs[from])
	}
	return s
}
