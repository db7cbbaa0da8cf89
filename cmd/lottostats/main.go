package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Vodeneev/lottostats/internal/pkg/config"
	"github.com/Vodeneev/lottostats/internal/pkg/logging"
)

const serviceName = "lottostats"

var (
	configPath string
	appConfig  *config.Config
	logCloser  interface{ Close() error }
)

var rootCmd = &cobra.Command{
	Use:           "lottostats",
	Short:         "Scrapes lottery draw history and serves frequency statistics.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}

		path := config.ResolvePath(configPath)
		cfg, err := loadConfig(path)
		if err != nil {
			return err
		}
		appConfig = cfg

		_, closer, err := logging.SetupLogger(cfg.Logging, serviceName)
		if err != nil {
			return fmt.Errorf("setup logging: %w", err)
		}
		logCloser = closer
		slog.Debug("Config loaded", "path", path)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default $CONFIG_PATH or "+config.DefaultPath+")")
}

// loadConfig reads path, falling back to defaults when the default path does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == config.DefaultPath && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, fmt.Errorf("failed to load config: %w", err)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("lottostats failed", "error", err)
		stop()
		os.Exit(1)
	}
}
