package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/example/tablebook/internal/web"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API for parsing requests and browsing runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.HTTPAddr
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if cfg.Log.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			ws := &web.Server{Location: cfg.Location(), Log: log}
			if cfg.DatabaseURL != "" {
				repo, closeDB, err := openHistory(ctx, cfg, log)
				if err != nil {
					return err
				}
				defer closeDB()
				ws.Runs = repo
			}

			return web.Start(ctx, addr, ws.Routes(), log)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $HTTP_ADDR)")
	return cmd
}
