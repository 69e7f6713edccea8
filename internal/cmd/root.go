// Package cmd wires the workbench CLI: the bare command runs the
// interactive TUI, subcommands run one-shot against the workspace API.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/intraworks/workbench/internal/tui"
)

var (
	flagServer    string
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:   "workbench",
	Short: "Terminal client for the team workspace",
	Long: `workbench is a terminal client for the internal team workspace.

Run it without arguments for the interactive UI: boards, posts with
inline image viewing, and the shared event calendar. Sessions persist
across runs; an expiring access token is renewed in the background for
as long as the refresh token allows.

Subcommands run one-shot against the workspace API using the same
persisted session.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		m := tui.NewModel(cmd.Context(), app.cfg, app.client, app.store, app.logger)
		return tui.Run(cmd.Context(), m)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which cancels on
// interrupt in main.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "workspace server URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default is $HOME/.workbench/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: json, text")
}
