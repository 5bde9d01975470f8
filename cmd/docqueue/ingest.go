package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docqueue/internal/ingest"
)

func newIngestCmd(a *app) *cobra.Command {
	var includeHidden bool
	cmd := &cobra.Command{
		Use:   "ingest <reference> <path>",
		Short: "Register a file or directory tree as queued documents for a case",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			docs, err := a.store(ctx)
			if err != nil {
				return err
			}
			ref, path := args[0], args[1]
			ing := ingest.NewFSIngestor(docs, a.logger)

			fi, err := os.Stat(path)
			if err != nil {
				return err
			}
			if !fi.IsDir() {
				r, err := ing.IngestPath(ctx, ref, path)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), r)
			}

			results, stats, err := ing.IngestDirectory(ctx, ref, path, !includeHidden)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"stats": stats, "results": results})
		},
	}
	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "descend into hidden files and directories")
	return cmd
}
