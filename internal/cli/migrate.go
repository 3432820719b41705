package cli

import (
	"context"
	"strings"

	"github.com/acmprop/acmprop/internal/app"
	"github.com/acmprop/acmprop/internal/config"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, errLoad := config.LoadFromEnv()
			if errLoad != nil {
				return errLoad
			}
			if strings.TrimSpace(cfgPath) != "" {
				appCfg.ConfigPath = config.ResolveConfigPath(cfgPath)
			}
			return app.Migrate(context.Background(), appCfg)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "config file path (or env CONFIG_PATH)")

	return cmd
}
