package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
	"github.com/yourname/share_lite/internal/token"
	"github.com/yourname/share_lite/pkg/shareclient"
)

func newPutCmd(load configLoader) *cobra.Command {
	var (
		file, ctype, baseURL string
		quiet                bool
	)

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Upload a local file through a freshly signed slot",
		Long: `Issue a new slot for a local file, sign it with the configured secret and
upload it. Prints the GET URL on success.

Examples:
  share put --file ./cat.png --base-url http://localhost:8080/share`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" || baseURL == "" {
				return errors.New("--file and --base-url are required")
			}
			cfg, err := load()
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			fi, err := f.Stat()
			if err != nil {
				return err
			}

			if ctype == "" {
				mt, err := mimetype.DetectReader(f)
				if err != nil {
					return fmt.Errorf("detect type: %w", err)
				}
				ctype = mt.String()
				if _, err = f.Seek(0, io.SeekStart); err != nil {
					return err
				}
			}

			name := token.Slot(filepath.Base(file))
			tok := token.Sign(cfg.Secret, name, strconv.FormatInt(fi.Size(), 10), ctype)

			var opts []shareclient.Option
			if !quiet {
				opts = append(opts, shareclient.WithProgress(cmd.ErrOrStderr()))
			}
			err = shareclient.New(opts...).Put(cmd.Context(), shareclient.PutRequest{
				URL:         token.PutURL(baseURL, name, tok),
				ContentType: ctype,
				Reader:      f,
				Size:        fi.Size(),
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token.GetURL(baseURL, name))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "file to upload")
	cmd.Flags().StringVar(&ctype, "type", "", "content type (detected from the file when empty)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "public URL of the share base path")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not draw a progress bar")

	return cmd
}
