package main

import (
	"github.com/spf13/cobra"
)

func newDBHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dbhealth",
		Short: "Check store connectivity and report the global queue depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			docs, err := a.store(ctx)
			if err != nil {
				return err
			}
			if err := a.db.HealthCheck(ctx, a.cfg.Database.DialTimeout); err != nil {
				a.logger.Error("DB health: FAIL", "error", err)
				return err
			}
			queued, err := docs.CountQueued(ctx)
			if err != nil {
				return err
			}
			a.logger.Info("DB health: OK", "driver", a.db.Dialect)
			return printJSON(cmd.OutOrStdout(), map[string]any{"status": "ok", "dialect": a.db.Dialect, "queued_total": queued})
		},
	}
}
