// Package provider defines the contract shared by the metadata services and
// the registry that hands them out.
package provider

import (
	"context"
	"iter"
	"strconv"
	"time"

	"github.com/Digital-Shane/namer/internal/metadata"
)

// ID names a metadata service
type ID string

const (
	OMDb   ID = "omdb"
	TMDb   ID = "tmdb"
	TVDb   ID = "tvdb"
	TVMaze ID = "tvmaze"
)

// Provider is the interface that all metadata services implement
type Provider interface {
	// Identification
	Name() ID

	// Kinds lists the media kinds this provider can search.
	Kinds() []metadata.Kind

	// Search yields candidates lazily. A non-nil error ends the sequence;
	// errs.ErrNotFound reports that nothing matched.
	Search(ctx context.Context, q Query) iter.Seq2[metadata.Metadata, error]
}

// Query carries the fields a provider may search by. Each provider picks
// the most specific field it supports.
type Query struct {
	IDImdb   string
	IDTmdb   string
	IDTvdb   string
	IDTvmaze string

	Name   string // movie title
	Series string // show name

	// Year may be a single year ("1993") or a range ("1990-2000", "1990-", "-2005").
	Year          string
	YearTolerance int

	Season  *int
	Episode *int
	Date    time.Time

	Language string
}

// YearRange returns the inclusive range of years q accepts.
func (q Query) YearRange() (int, int) {
	return YearRange(q.Year, q.YearTolerance)
}

// QueryFor builds a query from metadata.
func QueryFor(m metadata.Metadata, language string, tolerance int) Query {
	b := m.Common()
	q := Query{
		IDImdb:        b.IDImdb,
		IDTmdb:        b.IDTmdb,
		IDTvdb:        b.IDTvdb,
		IDTvmaze:      b.IDTvmaze,
		Date:          b.Date,
		Language:      language,
		YearTolerance: tolerance,
	}
	if y := b.ReleaseYear(); y != 0 {
		q.Year = strconv.Itoa(y)
	}

	switch v := m.(type) {
	case *metadata.Movie:
		q.Name = v.Title
	case *metadata.Episode:
		q.Series = v.Series
		q.Season = v.Season
		q.Episode = v.Episode
	}
	return q
}
