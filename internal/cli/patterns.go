package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newPatternsCmd(root *rootOptions) *cobra.Command {
	var (
		search string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List batik motifs from the fitting service catalog",
		Example: `  batikgram patterns
  batikgram patterns --search sekar
  batikgram patterns --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := root.loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			patterns, err := app.Catalog.Search(cmd.Context(), search)
			if err != nil {
				return fmt.Errorf("load patterns: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(patterns)
			}
			if len(patterns) == 0 {
				_, err := fmt.Fprintln(out, "no patterns found")
				return err
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
			for _, p := range patterns {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.Description)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by name or description")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
