package main

import (
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docqueue/internal/entity"
	"github.com/joseph-ayodele/docqueue/internal/evidence"
	"github.com/joseph-ayodele/docqueue/internal/worker"
)

func newDrainCmd(a *app) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Process every queued document, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			docs, err := a.store(ctx)
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = a.cfg.Worker.DrainWorkers
			}
			proc := worker.NewProcessor(docs, a.extractor(), a.logger, nil)
			id := "drain-" + uuid.NewString()[:8]

			var n int
			if workers > 1 {
				n, err = worker.DrainConcurrent(ctx, docs, proc, workers, id, a.logger)
			} else {
				n, err = worker.Drain(ctx, docs, proc, id, a.logger)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"worker_id": id, "processed": n})
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent claimers (default WORKER_DRAIN_CONCURRENCY)")
	return cmd
}

func newResetCmd(a *app) *cobra.Command {
	var stalled bool
	var id string
	cmd := &cobra.Command{
		Use:   "reset [reference]",
		Short: "Return documents to queued",
		Long: `Reset every document of a case to queued, or with --stalled only the
queued and failed ones. Documents left in processing by a dead worker are
untouched by --stalled; reset them with --id or a full case reset.
--id resets a single document by row id, whatever its state.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			docs, err := a.store(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if id != "" {
				rowID, err := strconv.ParseInt(id, 10, 64)
				if err != nil {
					return errors.New("--id must be a numeric row id")
				}
				ok, err := docs.ResetSingleDocument(ctx, rowID)
				if err != nil {
					return err
				}
				return printJSON(out, map[string]any{"id": rowID, "reset": ok})
			}
			if len(args) == 0 {
				return errors.New("reference or --id required")
			}

			var n int64
			if stalled {
				n, err = docs.ResetStalledForReference(ctx, args[0])
			} else {
				n, err = docs.ResetDocumentsForReference(ctx, args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(out, map[string]any{"reference": args[0], "reset": n, "stalled_only": stalled})
		},
	}
	cmd.Flags().BoolVar(&stalled, "stalled", false, "only reset queued and failed documents; processing ones are left alone")
	cmd.Flags().StringVar(&id, "id", "", "reset a single document by row id")
	return cmd
}

type caseStatus struct {
	Reference   string                  `json:"reference"`
	Counts      entity.ProcessingCounts `json:"counts"`
	Pending     int                     `json:"pending"`
	Evidence    evidence.CaseSummary    `json:"evidence"`
	QueuedTotal int                     `json:"queued_total"`
	Documents   []*entity.Document      `json:"documents,omitempty"`
}

func newStatusCmd(a *app) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "status <reference>",
		Short: "Show processing counts and evidence signals for a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			docs, err := a.store(ctx)
			if err != nil {
				return err
			}
			ref := args[0]

			snap, err := docs.CaseSnapshot(ctx, ref)
			if err != nil {
				return err
			}

			st := caseStatus{
				Reference:   ref,
				Counts:      snap.Counts,
				Pending:     snap.Counts.Pending(),
				Evidence:    evidence.SummarizeCase(snap.Documents, a.logger),
				QueuedTotal: snap.QueuedTotal,
			}
			if verbose {
				st.Documents = snap.Documents
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "include every document row")
	return cmd
}
