package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/triplog/core/buildinfo"
	corecmd "github.com/m3rciful/triplog/core/cmd"
	"github.com/m3rciful/triplog/core/config"
	"github.com/m3rciful/triplog/core/database"
	"github.com/m3rciful/triplog/core/logger"
	"github.com/m3rciful/triplog/trip/app"
)

const defaultConfigPath = "config.yaml"

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tripbot",
		Short:         "Telegram bot that records taxi and delivery trips",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $CONFIG_PATH or "+defaultConfigPath+")")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return corecmd.Run(corecmd.Options{
				ConfigPath:        cfgFile,
				DefaultConfigPath: defaultConfigPath,
				Bootstrap: func(ctx context.Context, cfg *config.Config) (corecmd.TelegramApp, error) {
					return app.New(ctx, cfg)
				},
			})
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := corecmd.ResolveConfigPath(cfgFile, "", defaultConfigPath)
			if err != nil {
				return err
			}
			cfg, err := config.Read(path)
			if err != nil {
				return err
			}
			if err := config.NormalizeStorage(cfg); err != nil {
				return err
			}
			if err := logger.Init(cfg); err != nil {
				return err
			}
			defer logger.Shutdown()
			return database.RunMigrations(cmd.Context(), cfg.Database)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "tripbot", buildinfo.String())
		},
	}
}
