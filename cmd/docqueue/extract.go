package main

import (
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docqueue/internal/classify"
	"github.com/joseph-ayodele/docqueue/internal/drawing"
)

func newExtractCmd(a *app) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Run classification and text extraction on a local file without touching the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			name := filepath.Base(path)
			if title == "" {
				title = name
			}

			cat, conf := classify.Classify(title, "", name)
			res := a.extractor().Extract(cmd.Context(), path)
			if res.HasText() {
				cat, conf = classify.ClassifyContent(cat, conf, res.Text)
			}
			planLike := drawing.IsPlanOrDrawing(name, "", cat) || cat.IsPlan()

			out := map[string]any{
				"path":                path,
				"category":            cat,
				"category_confidence": conf,
				"method":              res.Method,
				"source_type":         res.SourceType,
				"pages":               res.Pages,
				"pages_with_text":     res.PagesWithText,
				"chars":               utf8.RuneCountInString(res.Text),
				"duration":            res.Duration.Round(time.Millisecond).String(),
				"is_plan_or_drawing":  planLike,
				"warnings":            res.Warnings,
			}
			if planLike {
				out["drawing_metadata"] = drawing.ExtractMetadata(name, cat, res.Text)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "document title used for classification (default file name)")
	return cmd
}
