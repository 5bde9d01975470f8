package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docqueue/internal/export"
	"github.com/joseph-ayodele/docqueue/internal/report"
)

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <reference>",
		Short: "Write a case status workbook (XLSX)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			docs, err := a.store(ctx)
			if err != nil {
				return err
			}
			ref := args[0]
			svc := export.NewService(docs, a.logger)

			if output == "-" {
				return svc.WriteCaseXLSX(ctx, ref, cmd.OutOrStdout())
			}
			if output == "" {
				output = strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(ref) + ".xlsx"
			}
			data, err := svc.ExportCaseXLSX(ctx, ref)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			a.logger.Info("export written", "reference", ref, "path", output, "bytes", len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `output path, "-" for stdout (default <reference>.xlsx)`)
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report-inputs <reference>",
		Short: "Print the texts and flags the report writer consumes for a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			docs, err := a.store(ctx)
			if err != nil {
				return err
			}
			in, err := report.NewBuilder(docs, a.extractor(), a.logger).Build(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), in)
		},
	}
}
