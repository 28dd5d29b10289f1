package commands

import (
	"github.com/spf13/cobra"

	"github.com/vesta-fin/vesta/internal/logger"
	"github.com/vesta-fin/vesta/internal/server"
)

func newServeCommand() *cobra.Command {
	var dataDir string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the import API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, registry, err := buildService(dataDir)
			if err != nil {
				return err
			}
			return server.New(svc, st, registry, logger.New()).Listen(addr)
		},
	}

	cmd.Flags().StringVar(&dataDir, "data", ".", "vesta data directory")
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8537", "listen address")

	return cmd
}
