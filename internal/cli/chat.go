package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newChatCmd(root *rootOptions) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask the batik assistant",
		Long: `Answers one question given as arguments, or starts an interactive
conversation reading one question per line from stdin.`,
		Example: `  batikgram chat apa itu batik?
  batikgram chat --pattern kawung "apa maknanya?"
  batikgram chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := root.loadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			if question := strings.TrimSpace(strings.Join(args, " ")); question != "" {
				reply, _, err := app.Chat.Respond(ctx, question, pattern)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, reply)
				return err
			}

			session := app.Sessions.Create()
			defer func() { _ = app.Sessions.Close(session.ID) }()

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					break
				}
				messages, err := app.Chat.Send(ctx, session, line, pattern)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
					continue
				}
				fmt.Fprintf(out, "> %s\n", messages[len(messages)-1].Text)
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "m", "", "Motif id to use as context")
	return cmd
}
