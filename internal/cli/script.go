package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"survey-bot/internal/config"
	"survey-bot/internal/domain/survey"
)

// NewScriptCommand creates the script command.
func NewScriptCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "script",
		Short: "Validate the survey script and print its questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := scriptPath(rootOpts, config.GetEnvOrDefault("SCRIPT_FILE", ""))
			script, err := survey.Load(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := path
			if source == "" {
				source = "embedded"
			}
			fmt.Fprintf(out, "script: %s\n", source)
			fmt.Fprintf(out, "triggers: %d phrase(s), %d keyword(s)\n", len(script.Triggers.Phrases), len(script.Triggers.Keywords))
			fmt.Fprintf(out, "opt-in: %t\n\n", script.OptIn != nil)

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tKEY\tOPTIONS\tSELECT")
			for i, q := range script.Questions {
				selection := "single"
				if q.MultiSelect {
					selection = fmt.Sprintf("up to %d", q.MaxSelections)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, q.Key, strings.Join(q.Options, ","), selection)
			}
			return w.Flush()
		},
	}
}
