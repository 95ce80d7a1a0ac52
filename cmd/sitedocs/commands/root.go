// Package commands implements the sitedocs command line.
package commands

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"sitedocs/cmd/sitedocs/ui"
	"sitedocs/internal/platform/config"
)

type globalFlags struct {
	envFile string
	verbose bool
	noColor bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "sitedocs",
		Short: "Construction-site document intake from the command line",
		Long: `sitedocs files photographed site documents as PDFs, stamps signatures onto
contracts, lists upcoming worker appointments and scores the subcontractor
checklist, without starting the HTTP service.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.envFile != "" {
				config.LoadDotEnv(flags.envFile)
			} else {
				config.LoadDotEnv()
			}
			ui.Init(flags.noColor)
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), flags.verbose))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "dotenv file to load (default .env when present)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newIntakeCmd(),
		newSignCmd(),
		newRemindersCmd(),
		newChecklistCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
