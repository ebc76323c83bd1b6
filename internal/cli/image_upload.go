package cli

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewImageUploadCommand creates the image-upload command.
func NewImageUploadCommand(rootOpts *RootOptions) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "image-upload <file>",
		Short: "Upload a product image to the image bucket",
		Long: `Upload a file to the MinIO bucket and print its object key. Put the key in
a product's image field; the API serves it as a presigned URL.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}
			if key == "" {
				key = "products/" + filepath.Base(args[0])
			}
			contentType := mime.TypeByExtension(filepath.Ext(args[0]))
			if contentType == "" {
				contentType = "application/octet-stream"
			}

			a, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer a.Close()
			if a.Images == nil {
				return errors.New("MinIO is not configured (set MINIO_ENDPOINT)")
			}

			stored, err := a.Images.Upload(cmd.Context(), key, f, info.Size(), contentType)
			if err != nil {
				return fmt.Errorf("upload %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), stored)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "object key (default products/<file name>)")
	return cmd
}
