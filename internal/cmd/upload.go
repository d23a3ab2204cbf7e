package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/journal/internal/api"
	"github.com/felixgeelhaar/journal/internal/errors"
)

func newUploadCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file",
		Long: `Upload a file (image, attachment) as multipart form data. The server's
answer, usually the URL of the stored file, is printed.

Examples:
  journal upload cover.jpg
  journal upload ./photo.png --name header.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				if os.IsNotExist(err) {
					return errors.NewFileNotFoundError(path)
				}
				return errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to open %s", path), err)
			}
			defer f.Close()

			if name == "" {
				name = filepath.Base(path)
			}
			return app.run(cmd, func(ctx context.Context, services *api.API) (json.RawMessage, error) {
				return services.Files.Upload(ctx, name, f)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "file name sent to the server (default: base name of the file)")
	return cmd
}
