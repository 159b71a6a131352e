package cmd

import (
	"context"
	"errors"
	"sync"

	"github.com/mhmtszr/concurrent-swiss-map"
	"github.com/rs/zerolog"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/metadata"
	"github.com/Digital-Shane/namer/internal/parse"
	"github.com/Digital-Shane/namer/internal/provider"
	"github.com/Digital-Shane/namer/internal/target"
)

// result is the outcome for one file.
type result struct {
	Source      string
	Destination string
	Match       string
	Guessed     bool // no candidate was adopted
	Skipped     bool
	Changed     bool
	Err         error
}

// chooser picks a candidate for t. A nil choice keeps the best guess;
// skip leaves the file alone.
type chooser func(t *target.Target, candidates []metadata.Metadata) (choice metadata.Metadata, skip bool, err error)

// qualityProber reads quality tokens from the file itself.
type qualityProber interface {
	Quality(ctx context.Context, path string) ([]string, error)
}

type resolver struct {
	settings target.Settings
	registry *provider.Registry
	parser   parse.Parser
	prober   qualityProber // nil disables probing
	choose   chooser       // nil takes the first candidate
	notify   func(result)
	logger   zerolog.Logger
}

// resolve parses, searches and names one file.
func (r *resolver) resolve(ctx context.Context, path string) result {
	res := result{Source: path}
	logger := r.logger.With().Str("file", path).Logger()

	t, err := target.New(path, r.settings, r.registry, r.parser)
	if err != nil {
		res.Err = err
		return res
	}

	if r.prober != nil && t.Metadata().Common().Quality() == "" {
		tokens, err := r.prober.Quality(ctx, path)
		if err != nil {
			logger.Debug().Err(err).Msg("probe failed")
		} else {
			t.AddQuality(tokens...)
		}
	}

	candidates, err := t.Candidates(ctx, 0)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		logger.Debug().Msg("no match, keeping best guess")
	case err != nil && len(candidates) == 0:
		res.Err = err
		return res
	case err != nil:
		logger.Warn().Err(err).Int("candidates", len(candidates)).Msg("search ended early")
	}

	var choice metadata.Metadata
	if r.choose != nil {
		var skip bool
		choice, skip, err = r.choose(t, candidates)
		if err != nil {
			res.Err = err
			return res
		}
		if skip {
			res.Skipped = true
			return res
		}
	} else if len(candidates) > 0 {
		choice = candidates[0]
	}

	if err := t.Select(choice); err != nil {
		res.Err = err
		return res
	}
	res.Guessed = choice == nil
	res.Match = t.Metadata().String()

	dst, err := t.Destination()
	if err != nil {
		res.Err = err
		return res
	}
	res.Destination = dst
	logger.Debug().Str("destination", dst).Str("match", res.Match).Msg("resolved")
	return res
}

// resolveAll resolves paths on up to workers goroutines and gathers the
// results keyed by source path. Paths not reached before ctx is done are
// missing from the map.
func (r *resolver) resolveAll(ctx context.Context, paths []string, workers int) *csmap.CsMap[string, result] {
	results := csmap.Create[string, result]()
	if len(paths) == 0 {
		return results
	}
	workers = max(1, min(workers, len(paths)))

	workCh := make(chan string)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range workCh {
				if ctx.Err() != nil {
					return
				}
				res := r.resolve(ctx, path)
				results.Store(path, res)
				if r.notify != nil {
					r.notify(res)
				}
			}
		}()
	}

	func() {
		defer close(workCh)
		for _, path := range paths {
			select {
			case workCh <- path:
			case <-ctx.Done():
				return
			}
		}
	}()
	wg.Wait()
	return results
}
