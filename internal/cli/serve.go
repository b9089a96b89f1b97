package cli

import (
	"github.com/spf13/cobra"

	"github.com/neuroscope/go-neuroscope/web/server"
)

func newServeCmd() *cobra.Command {
	cfg := server.Config{Addr: ":8080"}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the capture HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Logger = loggerFromContext(cmd.Context())
			return server.New(cfg).ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	cmd.Flags().StringVar(&cfg.MorphologyDir, "morphologies", "", "directory of .swc files served by /api/morphologies")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 0, "render workers per request (0 = one per CPU)")

	return cmd
}
