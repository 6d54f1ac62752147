package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/callflow/internal/config"
	"github.com/aretw0/callflow/pkg/domain"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted call sessions",
	Long:  `List, inspect, and remove call sessions in the configured session store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all active sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(b *config.Backend) error {
			sessions, err := b.Store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No active sessions found.")
				return nil
			}

			fmt.Fprintln(out, "Active Sessions:")
			for _, s := range sessions {
				fmt.Fprintln(out, "- "+s)
			}
			return nil
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <call-sid>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		callID := args[0]
		return withBackend(cmd, func(b *config.Backend) error {
			rec, err := b.Store.Get(cmd.Context(), callID)
			if errors.Is(err, domain.ErrSessionNotFound) {
				return fmt.Errorf("session '%s' not found", callID)
			}
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", callID, err)
			}

			// Pretty print JSON
			data, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return fmt.Errorf("error marshaling session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <call-sid>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(b *config.Backend) error {
			out := cmd.OutOrStdout()
			var failed int

			for _, callID := range args {
				existed, err := b.Store.Destroy(cmd.Context(), callID)
				switch {
				case err != nil:
					fmt.Fprintf(out, "Error removing '%s': %v\n", callID, err)
					failed++
				case !existed:
					fmt.Fprintf(out, "Session '%s' not found\n", callID)
				default:
					fmt.Fprintf(out, "Removed session '%s'\n", callID)
				}
			}

			if failed > 0 {
				return fmt.Errorf("failed to remove %d session(s)", failed)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}

// withBackend opens the configured store for the duration of fn.
func withBackend(cmd *cobra.Command, fn func(*config.Backend) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	b, err := cfg.OpenStore()
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer b.Close()
	return fn(b)
}
