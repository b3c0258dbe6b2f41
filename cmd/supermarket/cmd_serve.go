package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dam/supermarket/app/server"
)

// supermarket serve: start the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		router := server.NewRouter(a.products, a.recorder, a.log.Named("http"))
		return server.Run(ctx, a.cfg.Addr(), router, a.log)
	},
}
