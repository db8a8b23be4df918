package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"paytrack/internal/app"
	"paytrack/internal/config"
	"paytrack/internal/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile    string
	storeFlag  string
	verbose    bool
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operate the paytrack ledger from the command line",
	Long: `ledgerctl runs ledger operations directly against the configured store.

Configuration is read from the environment (and .env), the same way the server reads it.

Examples:
  ledgerctl migrate
  ledgerctl ensure-user 42
  ledgerctl transfer --from 1 --to 2 --amount 50 --description lunch
  ledgerctl balance 1 2
  ledgerctl history 1 2 --limit 5 --json`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load if present")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Override LEDGER_STORE (postgres|memory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

func loadConfig() (config.Config, error) {
	if _, err := os.Stat(envFile); err == nil {
		if err := config.LoadEnvFile(envFile); err != nil {
			return config.Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	if storeFlag != "" {
		os.Setenv("LEDGER_STORE", storeFlag)
	}
	return config.Load()
}

func newLogger(cfg config.Config) zerolog.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.New(level, true).With().Str("env", cfg.Env).Logger()
}

// withContainer builds the ledger, runs fn and releases every handle.
func withContainer(ctx context.Context, fn func(*app.Container) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := app.Build(ctx, cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func printResult(w io.Writer, v interface{}, text string) error {
	if !jsonOutput {
		_, err := fmt.Fprintln(w, text)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
