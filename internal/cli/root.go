package cli

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kirillkom/batikgram/internal/bootstrap"
	"github.com/kirillkom/batikgram/internal/config"
	"github.com/kirillkom/batikgram/internal/observability/logging"
)

type rootOptions struct {
	logLevel   string
	fittingURL string
	version    string
}

func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{version: version}

	cmd := &cobra.Command{
		Use:   "batikgram",
		Short: "Try traditional batik motifs on a photo",
		Long: `BatikGram sends a photo and a batik motif to the fitting service and
saves the dressed-up result. It also answers questions about batik motifs and
can serve the catalog and the assistant as MCP tools.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env file is fine.
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to LOG_LEVEL or warn")
	cmd.PersistentFlags().StringVar(&opts.fittingURL, "fitting-url", "", "Fitting service base URL; defaults to FITTING_SERVICE_URL")

	cmd.AddCommand(
		newPatternsCmd(opts),
		newFitCmd(opts),
		newChatCmd(opts),
		newMCPCmd(opts),
	)
	return cmd
}

// loadApp builds the application for one command run. Logs go to stderr so
// stdout stays clean for command output and the MCP transport.
func (o *rootOptions) loadApp(ctx context.Context) (*bootstrap.App, error) {
	cfg := config.Load()
	if o.fittingURL != "" {
		cfg.FittingServiceURL = strings.TrimRight(o.fittingURL, "/")
	}
	level := o.logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "warn"
	}
	slog.SetDefault(logging.NewTextLogger(os.Stderr, "cli", level))

	// Events belong to the long-running API; a one-shot command does not publish them.
	cfg.EventsEnabled = false
	return bootstrap.New(ctx, cfg, "cli")
}
