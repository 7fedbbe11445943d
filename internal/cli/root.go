// Package cli wires the bot's commands: serve runs the webhook server, reset
// and script are maintenance helpers that never touch the messaging provider.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ScriptFile string
}

// NewRootCommand creates the root command. Without a subcommand it serves.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "survey-bot",
		Short:         "Scripted WhatsApp survey bot",
		Long:          "Runs a scripted onboarding survey over WhatsApp and exports completed answers to CSV, SQLite and a remote endpoint.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ScriptFile, "script", "", "survey script YAML (overrides SCRIPT_FILE, default: embedded script)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewScriptCommand(opts))

	return cmd
}

func scriptPath(opts *RootOptions, fromEnv string) string {
	if opts.ScriptFile != "" {
		return opts.ScriptFile
	}
	return fromEnv
}
