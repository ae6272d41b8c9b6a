package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/creator-sync/internal/kvstore"
	"github.com/pdiddy/creator-sync/internal/ledger"
	"github.com/pdiddy/creator-sync/internal/normalize"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and maintain the ledger of emitted handles",
	Long: `Ledger reads and edits the durable set of handles that have already been
emitted. A handle in the ledger is never emitted again; forget a handle to let
the next run pick it up.`,
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every handle in the ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd.Context(), func(l *ledger.Ledger) error {
			w := cmd.OutOrStdout()
			for _, h := range l.Handles() {
				fmt.Fprintln(w, h)
			}
			fmt.Fprintf(w, "\n%d handle(s)\n", l.Len())
			return nil
		})
	},
}

var ledgerCheckCmd = &cobra.Command{
	Use:   "check <handle>...",
	Short: "Report whether handles have already been emitted",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd.Context(), func(l *ledger.Ledger) error {
			w := cmd.OutOrStdout()
			for _, arg := range args {
				h := normalize.Handle(arg)
				if h == "" {
					fmt.Fprintf(w, "warning: %q is not a handle\n", arg)
					continue
				}
				state := "new"
				if l.Has(h) {
					state = "seen"
				}
				fmt.Fprintf(w, "%s\t%s\n", h, state)
			}
			return nil
		})
	},
}

var ledgerForgetCmd = &cobra.Command{
	Use:   "forget <handle>...",
	Short: "Remove handles so the next run may emit them again",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd.Context(), func(l *ledger.Ledger) error {
			w := cmd.OutOrStdout()
			removed := 0
			for _, arg := range args {
				h := normalize.Handle(arg)
				if h != "" && l.Forget(h) {
					removed++
					fmt.Fprintf(w, "forgot: %s\n", h)
				} else {
					fmt.Fprintf(w, "skipped: %s (not in ledger)\n", arg)
				}
			}
			if removed == 0 {
				return nil
			}
			return l.Persist(cmd.Context())
		})
	},
}

func init() {
	ledgerCmd.AddCommand(ledgerListCmd, ledgerCheckCmd, ledgerForgetCmd)
	rootCmd.AddCommand(ledgerCmd)
}

// withLedger opens the configured ledger, runs fn and closes the store.
func withLedger(ctx context.Context, fn func(*ledger.Ledger) error) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	kv, err := kvstore.Open(ctx, cfg.Ledger)
	if err != nil {
		return fmt.Errorf("opening ledger store: %w", err)
	}
	defer kv.Close()

	l, err := ledger.Load(ctx, kv, cfg.Ledger.Key)
	if err != nil {
		return err
	}
	return fn(l)
}
