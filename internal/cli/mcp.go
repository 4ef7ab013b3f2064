package cli

import (
	"github.com/spf13/cobra"

	mcpadapter "github.com/kirillkom/batikgram/internal/adapters/mcp"
)

func newMCPCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the motif catalog and the batik assistant as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := root.loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			return mcpadapter.NewServer(root.version, app.Catalog, app.Chat).ServeStdio()
		},
	}
}
