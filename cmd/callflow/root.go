package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/callflow/internal/config"
	"github.com/aretw0/callflow/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "callflow",
	Short: "Callflow serves telephone call flows over carrier webhooks",
	Long: `Callflow compiles a set of call states into webhook endpoints and keeps each
call's progress in a session store between requests.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().String("store", "", "Session store driver: memory, redis, sqlite, file (overrides config)")
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for the redis store (overrides config)")
	rootCmd.PersistentFlags().String("sqlite-path", "", "Database path for the sqlite store (overrides config)")
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if driver, _ := cmd.Flags().GetString("store"); driver != "" {
		cfg.Store.Driver = driver
	}
	if addr, _ := cmd.Flags().GetString("redis-addr"); addr != "" {
		cfg.Store.Redis.Addr = addr
	}
	if path, _ := cmd.Flags().GetString("sqlite-path"); path != "" {
		cfg.Store.SQLite.Path = path
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(level, logging.Format(cfg.Log.Format)), nil
}
