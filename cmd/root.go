package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/palomachain/migrator-deploy/internal/config"
)

var (
	// Version is set at build time.
	Version = "dev"

	// Global flags
	cfgFile  string
	jsonOut  bool
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "migrator-deploy",
	Short: "Deploy the migrator contract",
	Long: `migrator-deploy deploys the migrator contract with its fixed constructor
parameters and EIP-1559 fees derived from the live network.

On success the deployed contract address is the only line written to stdout.
Logs go to stderr.

Configuration (in order of priority):
  1. Command-line flags
  2. Environment variables (MIGRATOR_NETWORK_RPC_URL, MIGRATOR_ACCOUNT_PASSWORD, ...)
  3. Config file (./migrator.yaml, ./config/migrator.yaml, ~/.migrator-deploy/migrator.yaml)

Get started:
  $ migrator-deploy config init   # Write a config file
  $ migrator-deploy params        # Review constructor parameters
  $ migrator-deploy check         # Pre-flight checks
  $ migrator-deploy deploy        # Deploy`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "migrator-deploy version %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./migrator.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (or MIGRATOR_LOG_LEVEL)")

	rootCmd.AddCommand(versionCmd)
}

// initConfig loads configuration and sets up logging for every subcommand.
func initConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	cfg = loaded

	logger = newLogger(cfg.Log, cmd.ErrOrStderr()).With(slog.String("run_id", uuid.NewString()))
	slog.SetDefault(logger)
	return nil
}

func newLogger(lc config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Output helpers

// printJSON outputs data as formatted JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printError prints an error message.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s %s\n", colorRed("Error:"), err.Error())
}

// Terminal colors

func colorRed(s string) string {
	if !isTTY(os.Stderr) {
		return s
	}
	return "\033[31m" + s + "\033[0m"
}

func colorGreen(s string) string {
	if !isTTY(os.Stdout) {
		return s
	}
	return "\033[32m" + s + "\033[0m"
}

func colorYellow(s string) string {
	if !isTTY(os.Stdout) {
		return s
	}
	return "\033[33m" + s + "\033[0m"
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
