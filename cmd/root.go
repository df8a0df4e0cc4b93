package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/farmbot/app"
	"github.com/kilianp07/farmbot/config"
	"github.com/kilianp07/farmbot/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "farmbot",
	Short:         "Control a FarmBot device through its web API and message broker",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var newService = func(ctx context.Context, cfg *config.Config, out io.Writer) (*app.Service, error) {
	return app.New(ctx, cfg, out)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file (YAML or JSON)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configuration file. A missing default file falls
// back to environment variables only.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := cfgPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// withService logs in, connects and runs fn. The context is cancelled on
// SIGINT or SIGTERM.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Service) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := newService(ctx, cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("cli").Errorf("service close: %v", err)
		}
	}()
	return fn(ctx, svc)
}
