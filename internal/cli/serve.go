package cli

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/acmprop/acmprop/internal/app"
	"github.com/acmprop/acmprop/internal/config"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, errLoad := config.LoadFromEnv()
			if errLoad != nil {
				return errLoad
			}
			if strings.TrimSpace(cfgPath) != "" {
				appCfg.ConfigPath = config.ResolveConfigPath(cfgPath)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.RunServer(ctx, appCfg, port)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "config file path (or env CONFIG_PATH)")
	cmd.Flags().IntVar(&port, "port", 8318, "server port")

	return cmd
}
