package cli

import (
	"github.com/spf13/cobra"

	"vaultrunner/internal/history"
	"vaultrunner/internal/server"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run API over HTTP",
		Long: `Serve the HTTP API:

  GET  /api/examples     built-in examples
  GET  /api/maps         built-in maps
  POST /api/run          run a program, returns the outcome
  GET  /api/run/stream   websocket; send one run request, receive each step

Stops gracefully on Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := GetConfig(ctx)
			logger := GetLogger(ctx)

			var store *history.Store
			if cfg.History {
				s, err := history.Open(ctx, cfg.HistoryPath)
				if err != nil {
					return err
				}
				defer func() { _ = s.Close() }()
				store = s
			}

			GetRenderer(ctx).Printf("listening on %s\n", cfg.Addr)
			srv := server.NewServer(server.Config{
				Addr:     cfg.Addr,
				MaxSteps: cfg.MaxSteps,
				History:  store,
				Logger:   logger,
			})
			return srv.Serve(ctx)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default :8080)")
	cmd.Flags().Int("max-steps", 0, "Largest step limit a request may use")
	return cmd
}
