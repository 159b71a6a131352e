package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Execute runs the root command. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCmd builds the namer command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{})
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "namer [paths...]",
		Short: "Rename media files using online metadata",
		Long: `namer identifies movies and episodes from their file names, looks them up on
OMDb, TMDb, TVDb or TVMaze and renames them according to your templates.

Directories are searched recursively for video and subtitle files. Without
--batch each file is confirmed interactively.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default ~/.namer/config.json)")
	pf.CountVarP(&opts.verbose, "verbose", "v", "log more (repeat for trace output)")

	f := root.Flags()
	f.StringVar(&opts.movieFormat, "movie-format", "", "movie file name template")
	f.StringVar(&opts.movieDirectory, "movie-directory", "", "movie directory template")
	f.StringVar(&opts.episodeFormat, "episode-format", "", "episode file name template")
	f.StringVar(&opts.episodeDirectory, "episode-directory", "", "episode directory template")
	f.StringVar(&opts.movieAPI, "movie-api", "", "movie provider: tmdb or omdb")
	f.StringVar(&opts.episodeAPI, "episode-api", "", "episode provider: tvdb or tvmaze")
	f.StringVar(&opts.media, "media", "", "treat every file as movie or episode")
	f.StringVar(&opts.language, "language", "", "preferred metadata language, e.g. en or pt-BR")
	f.IntVar(&opts.hits, "hits", 0, "number of candidates to offer")
	f.IntVar(&opts.yearTolerance, "year-tolerance", 0, "accept release years this far from the parsed year")
	f.BoolVar(&opts.lower, "lower", false, "lower-case file names")
	f.BoolVar(&opts.scene, "scene", false, "dotted ASCII file names")
	f.BoolVar(&opts.preserveTags, "preserve-tags", false, "keep bracketed tags like [Extended] from the old name")
	f.BoolVar(&opts.probe, "probe", false, "read missing quality from the file with ffprobe")
	f.BoolVarP(&opts.batch, "batch", "b", false, "take the best match without asking")
	f.BoolVarP(&opts.test, "test", "t", false, "show what would be done without touching files")
	f.BoolVar(&opts.noCache, "no-cache", false, "do not read or write the response cache")
	f.BoolVar(&opts.noProgress, "no-progress", false, "do not show the progress display in batch mode")
	f.IntVar(&opts.workers, "workers", 0, "concurrent lookups in batch mode")
	f.StringVar(&opts.link, "link", "", "link instead of moving: auto, hard or soft")

	root.AddCommand(newUndoCmd(opts), newConfigCmd(opts))
	return root
}

// newLogger writes human-readable logs to w. Warnings only by default.
func newLogger(w io.Writer, verbose int) zerolog.Logger {
	level := zerolog.WarnLevel
	switch {
	case verbose >= 2:
		level = zerolog.TraceLevel
	case verbose == 1:
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
