package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/yourname/share_lite/internal/token"
	"github.com/yourname/share_lite/pkg/shareproto"
)

// newSignCmd выдаёт токен слота так же, как это делает XMPP-сервер.
func newSignCmd(load configLoader) *cobra.Command {
	var (
		name, ctype, baseURL string
		size                 int64
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign an upload slot and print its token or PUT URL",
		Long: `Sign an upload slot with the configured secret.

Examples:
  share sign --name 6f1c/cat.png --size 1024 --type image/png
  share sign --name 6f1c/cat.png --size 1024 --type image/png --base-url https://upload.example.com/share`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name == "" {
				return errors.New("--name is required")
			}
			if size < 0 {
				return errors.New("--size must not be negative")
			}
			if len(ctype) > shareproto.MaxContentTypeLen {
				return fmt.Errorf("--type longer than %d bytes", shareproto.MaxContentTypeLen)
			}
			cfg, err := load()
			if err != nil {
				return err
			}

			tok := token.Sign(cfg.Secret, name, strconv.FormatInt(size, 10), ctype)
			if baseURL == "" {
				fmt.Fprintln(cmd.OutOrStdout(), tok)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), token.PutURL(baseURL, name, tok))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "upload name, e.g. <uuid>/<filename>")
	cmd.Flags().Int64Var(&size, "size", 0, "declared size in bytes")
	cmd.Flags().StringVar(&ctype, "type", shareproto.DefaultContentType, "declared content type")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "public URL of the share base path; prints a full PUT URL when set")

	return cmd
}
