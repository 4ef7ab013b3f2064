package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/batikgram/internal/core/ports"
	"github.com/kirillkom/batikgram/internal/core/usecase"
	"github.com/kirillkom/batikgram/internal/infrastructure/camera"
)

type fitOptions struct {
	photo   string
	pattern string
	out     string
	export  bool
	remote  bool
}

func newFitCmd(root *rootOptions) *cobra.Command {
	opts := &fitOptions{}

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Apply a batik motif to a photo",
		Long: `Sends the photo and the motif to the fitting service and writes the
result image. Use "-" as the photo to read it from stdin.`,
		Example: `  batikgram fit --photo me.jpg --pattern sekar_kemuning
  cat me.png | batikgram fit --photo - --pattern kawung --out kawung.png
  batikgram fit --photo me.jpg --pattern parang --export --remote`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.photo, "photo", "p", "", "Photo file, or - for stdin")
	cmd.Flags().StringVarP(&opts.pattern, "pattern", "m", "", "Motif id (see: batikgram patterns)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Where to write the result; defaults to batik-<pattern>-<time>.<ext>")
	cmd.Flags().BoolVar(&opts.export, "export", false, "Also store the result in EXPORT_PATH")
	cmd.Flags().BoolVar(&opts.remote, "remote", false, "With --export, also submit the result to the fitting service")
	_ = cmd.MarkFlagRequired("photo")
	_ = cmd.MarkFlagRequired("pattern")
	return cmd
}

func runFit(cmd *cobra.Command, root *rootOptions, opts *fitOptions) error {
	ctx := cmd.Context()
	app, err := root.loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	session := app.Sessions.Create()
	defer func() { _ = app.Sessions.Close(session.ID) }()

	capture := usecase.NewCaptureService(photoSource(opts.photo, cmd.InOrStdin()))
	image, err := capture.Capture(ctx, session)
	if err != nil {
		return fmt.Errorf("read photo: %w", err)
	}
	defer func() { _ = capture.Stop(session) }()

	pattern, err := app.Catalog.Find(ctx, opts.pattern)
	if err != nil {
		return err
	}
	if err := app.Sessions.SelectPattern(ctx, session, pattern); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "applying %s to %dx%d photo...\n", pattern.Name, image.Width(), image.Height())

	snapshot, err := session.Fitting().Apply(ctx, image, pattern.ID)
	if err != nil {
		if snapshot.Failure != nil {
			return errors.New(snapshot.Failure.Message)
		}
		return err
	}

	download, result, err := app.Results.Download(session)
	if err != nil {
		return err
	}
	target := opts.out
	if target == "" {
		target = download.Filename
	}
	if err := os.WriteFile(target, download.Data, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	method := result.MethodUsed
	if method == "" {
		method = "unknown method"
	}
	fmt.Fprintf(out, "wrote %s (%s, %d bytes)\n", filepath.Clean(target), method, len(download.Data))

	if opts.export {
		artifact, err := app.Results.Export(ctx, session, opts.remote)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "exported %s\n", artifact.Path)
		if artifact.RemoteSaved {
			fmt.Fprintf(out, "fitting service: %s\n", artifact.RemoteMessage)
		}
	}
	return nil
}

func photoSource(photo string, stdin io.Reader) usecase.SourceFactory {
	return func(string) (ports.FrameSource, error) {
		if strings.TrimSpace(photo) != "-" {
			return camera.NewFileSource(photo), nil
		}
		data, err := io.ReadAll(io.LimitReader(stdin, 32<<20))
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return camera.NewMemorySource(data), nil
	}
}
