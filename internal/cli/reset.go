package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"survey-bot/internal/config"
)

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Put every contact back in the inactive state",
		Long: `Clears the survey progress of every stored contact: state goes back to
inactive, the step pointer and partial answers are removed. Contacts keep
their name and id. Run it with the server stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read()
			if err != nil {
				return err
			}
			if err := cfg.ValidateStore(); err != nil {
				return err
			}

			repo, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := repo.ResetAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d contact(s) reset\n", n)
			return nil
		},
	}
}
