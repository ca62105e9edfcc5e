package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
)

var (
	envFiles []string

	cfg    *config.Config
	logger ectologger.Logger
	// Version is set by main.
	Version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "fern",
	Short: "Links marketplace services to canonical providers",
	Long: `fern resolves services that reference their provider only by a free-text
name to canonical provider records, creating providers when no match exists.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupCommand,
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute(version string) {
	Version = version

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env", ".env.local"}, "env files to load before reading the environment")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newAutoLinkCommand())
	rootCmd.AddCommand(newMigrateCommand())
}

func setupCommand(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(envFiles...)
	if err != nil {
		return err
	}
	if cfg.Version == "dev" {
		cfg.Version = Version
	}

	logger, err = newLogger(cfg.LogLevel, cfg.PrettyLogs)
	return err
}

func newLogger(level string, pretty bool) (ectologger.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if pretty {
		zapCfg = zap.NewDevelopmentConfig()
	}

	atomic, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	zapCfg.Level = atomic

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}
