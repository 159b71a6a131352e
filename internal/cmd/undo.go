package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Digital-Shane/namer/internal/config"
	"github.com/Digital-Shane/namer/internal/log"
)

func newUndoCmd(opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Undo the most recent run",
		Long: `Reverse the moves, links and folders recorded in a journal, newest first.
Without --journal the latest journal in ~/.namer/logs is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(cmd.ErrOrStderr(), opts.verbose)
			session, err := loadSession(file)
			if err != nil {
				return err
			}
			logger.Debug().Str("session", session.Metadata.SessionID).Int("operations", len(session.Operations)).Msg("undoing")

			st := defaultStyles()
			ok, failed, errs := log.UndoSession(session)
			for _, err := range errs {
				fmt.Fprintln(cmd.OutOrStdout(), st.failure.Render(err.Error()))
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.header.Render(fmt.Sprintf("%d undone, %d failed", ok, failed)))
			if failed > 0 {
				return errors.Join(errs...)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "journal", "", "journal file to undo")
	return cmd
}

func loadSession(file string) (*log.Session, error) {
	if file != "" {
		return log.ReadSession(file)
	}
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	session, _, err := log.Latest(log.Dir(dir))
	return session, err
}
