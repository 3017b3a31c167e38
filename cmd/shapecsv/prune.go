package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shapestone/shape-csvchunk/internal/store"
)

func newPruneCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove stored documents older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("days") {
				a.cfg.Store.RetentionDays = days
			}
			if a.cfg.Store.RetentionDays <= 0 {
				return fmt.Errorf("retention is disabled; set store.retention_days or --days")
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			st, err := store.Open(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			if st == nil {
				return fmt.Errorf("no store configured (store.driver is %q)", a.cfg.Store.Driver)
			}
			defer st.Close()

			r := store.NewRetentionScheduler(st, a.cfg.Store.RetentionDays, a.cfg.Store.PruneSchedule, nil)
			n, err := r.Prune(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d documents older than %d days\n", n, a.cfg.Store.RetentionDays)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention period in days (overrides store.retention_days)")
	return cmd
}
