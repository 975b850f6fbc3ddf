package main

import (
	"github.com/spf13/cobra"
	"github.com/yourname/share_lite/internal/config"
)

// newRootCmd собирает CLI шлюза: serve, sign и put.
func newRootCmd() *cobra.Command {
	var configPath string

	cobra.EnableCommandSorting = false
	root := &cobra.Command{
		Use:   "share",
		Short: "HTTP upload gateway for XMPP file sharing.",
		Long: `share accepts uploads authorized by HMAC-signed slot URLs, stores them on local
disk and serves them back. Slot URLs are normally issued by the XMPP server; the
sign and put commands issue them locally with the same secret.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the YAML config (default $SHARE_CONFIG or ./config.yaml)")

	load := func() (*config.Config, error) {
		if configPath != "" {
			return config.LoadFile(configPath)
		}
		return config.Load()
	}

	root.AddCommand(newServeCmd(load))
	root.AddCommand(newSignCmd(load))
	root.AddCommand(newPutCmd(load))

	return root
}

type configLoader func() (*config.Config, error)
