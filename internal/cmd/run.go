package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mhmtszr/concurrent-swiss-map"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Digital-Shane/namer/internal/config"
	"github.com/Digital-Shane/namer/internal/log"
	"github.com/Digital-Shane/namer/internal/metadata"
	"github.com/Digital-Shane/namer/internal/parse"
	"github.com/Digital-Shane/namer/internal/probe"
	"github.com/Digital-Shane/namer/internal/provider/catalog"
	"github.com/Digital-Shane/namer/internal/relocate"
	"github.com/Digital-Shane/namer/internal/target"
	"github.com/Digital-Shane/namer/internal/transport"
	"github.com/Digital-Shane/namer/internal/tui/theme"
)

func run(cmd *cobra.Command, opts *options, args []string) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.verbose)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	opts.apply(cmd.Flags(), cfg)

	settings, err := cfg.Settings()
	if err != nil {
		return err
	}

	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No media files found.")
		return nil
	}
	logger.Debug().Int("files", len(files)).Msg("collected")

	catalogCfg := cfg.Catalog()
	catalogCfg.Logger = logger
	if cfg.EnableCache {
		cache, save := openCache(cfg, logger)
		defer save()
		catalogCfg.Cache = cache
	}
	registry, err := catalog.NewRegistry(catalogCfg)
	if err != nil {
		return err
	}

	var (
		mover        relocate.Mover
		closeJournal func()
	)
	if !opts.test {
		mover, closeJournal, err = newMover(cfg, opts, logger)
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	st := defaultStyles()
	r := &resolver{
		settings: settings,
		registry: registry,
		parser:   parse.New(),
		logger:   logger,
	}
	if cfg.Probe {
		r.prober = probe.New(time.Duration(cfg.TimeoutSeconds) * time.Second)
	}
	workers := cfg.WorkerCount
	if !opts.batch {
		workers = 1
		prompt := promptChooser(cmd.InOrStdin(), cmd.OutOrStdout(), st)
		if isTerminalInput(cmd.InOrStdin()) && isTerminal(cmd.OutOrStdout()) {
			prompt = teaChooser(cmd.InOrStdin(), cmd.OutOrStdout(), theme.Default())
		}
		r.choose = func(t *target.Target, c []metadata.Metadata) (metadata.Metadata, bool, error) {
			choice, skip, err := prompt(t, c)
			if errors.Is(err, errQuit) {
				cancel()
			}
			return choice, skip, err
		}
	}

	var resolved *csmap.CsMap[string, result]
	if opts.batch && !opts.noProgress && isTerminal(cmd.OutOrStdout()) {
		resolved, err = resolveWithProgress(ctx, cancel, cmd.InOrStdin(), cmd.OutOrStdout(), r, files, workers)
		if err != nil {
			return err
		}
	} else {
		resolved = r.resolveAll(ctx, files, workers)
	}

	// files interrupted by a quit are left out of the report
	results := make([]result, 0, resolved.Count())
	resolved.Range(func(_ string, res result) bool {
		if !errors.Is(res.Err, errQuit) && !errors.Is(res.Err, context.Canceled) {
			results = append(results, res)
		}
		return false
	})

	if mover != nil {
		for i := range results {
			res := &results[i]
			if res.Err != nil || res.Skipped {
				continue
			}
			res.Changed, res.Err = relocate.Apply(mover, res.Source, res.Destination)
		}
		closeJournal()
	}

	wd, _ := os.Getwd()
	sum := writeReport(cmd.OutOrStdout(), results, wd, opts.test, st)
	if sum.failed > 0 {
		return fmt.Errorf("%d files failed", sum.failed)
	}
	return nil
}

// openCache loads the persisted response cache. The returned func saves it.
func openCache(cfg *config.Config, logger zerolog.Logger) (*transport.Cache, func()) {
	cache := transport.NewCache(cfg.CacheTTL())
	path, err := config.CachePath()
	if err != nil {
		logger.Warn().Err(err).Msg("response cache not persisted")
		return cache, func() {}
	}
	if err := cache.Load(path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("ignoring unreadable cache")
	}
	return cache, func() {
		if err := cache.Save(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("failed to save cache")
		}
	}
}

// newMover picks the mover for the run and opens its journal. The
// returned func writes the journal.
func newMover(cfg *config.Config, opts *options, logger zerolog.Logger) (relocate.Mover, func(), error) {
	var journal *log.Journal
	closeJournal := func() {}

	if cfg.EnableLogging {
		dir, err := config.Dir()
		if err != nil {
			return nil, nil, err
		}
		logDir := log.Dir(dir)
		if err := log.Cleanup(logDir, cfg.LogRetentionDays); err != nil {
			logger.Warn().Err(err).Msg("failed to clean up old journals")
		}
		journal, err = log.Start(logDir, os.Args[1:])
		if err != nil {
			return nil, nil, err
		}
		closeJournal = func() {
			path, err := journal.Close()
			if err != nil {
				logger.Warn().Err(err).Msg("failed to write journal")
				return
			}
			if path != "" {
				logger.Info().Str("path", path).Msg("journal written")
			}
		}
	}

	if opts.link == "" {
		return &relocate.OSMover{Journal: journal, Logger: logger}, closeJournal, nil
	}
	mode, err := relocate.ParseLinkMode(opts.link)
	if err != nil {
		return nil, nil, err
	}
	return &relocate.LinkMover{Mode: mode, Journal: journal, Logger: logger}, closeJournal, nil
}
