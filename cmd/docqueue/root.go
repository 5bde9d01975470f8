package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docqueue/internal/common"
	"github.com/joseph-ayodele/docqueue/internal/extract"
	"github.com/joseph-ayodele/docqueue/internal/ocr"
	"github.com/joseph-ayodele/docqueue/internal/repository"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg      *common.Config
	logger   *slog.Logger
	db       *repository.DB
	logLevel string
	dbDriver string
	dbURL    string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "docqueue",
		Short:         "Planning document ingestion and processing queue",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	root.PersistentFlags().StringVar(&a.dbDriver, "db-driver", "", "store driver (sqlite, postgres); overrides DB_DRIVER")
	root.PersistentFlags().StringVar(&a.dbURL, "db-url", "", "store DSN or sqlite path; overrides DB_URL")

	root.AddCommand(
		newServeCmd(a),
		newDrainCmd(a),
		newResetCmd(a),
		newStatusCmd(a),
		newIngestCmd(a),
		newExportCmd(a),
		newReportCmd(a),
		newExtractCmd(a),
		newDBHealthCmd(a),
	)
	return root
}

func (a *app) init(stderr io.Writer) error {
	a.cfg = common.LoadConfig()
	if a.dbDriver != "" {
		a.cfg.Database.Driver = a.dbDriver
	}
	if a.dbURL != "" {
		a.cfg.Database.DSN = a.dbURL
	}
	if a.logLevel != "" {
		if err := a.cfg.LogLevel.UnmarshalText([]byte(a.logLevel)); err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
	}

	a.logger = slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: a.cfg.LogLevel}))
	slog.SetDefault(a.logger)

	if err := a.cfg.Validate(); err != nil {
		a.logger.Error("invalid configuration", "error", err)
		return err
	}
	return nil
}

// store opens and migrates the configured database on first use.
func (a *app) store(ctx context.Context) (repository.DocumentRepository, error) {
	if a.db == nil {
		c := a.cfg.Database
		db, err := repository.Open(ctx, repository.Config{
			Driver:           c.Driver,
			DSN:              c.DSN,
			MaxConns:         c.MaxConns,
			MinConns:         c.MinConns,
			MaxConnLifetime:  c.MaxConnLifetime,
			MaxConnIdleTime:  c.MaxConnIdleTime,
			DialTimeout:      c.DialTimeout,
			StatementTimeout: c.StatementTimeout,
			BusyTimeout:      c.BusyTimeout,
		}, a.logger)
		if err != nil {
			a.logger.Error("open db", "driver", c.Driver, "error", err)
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
	}
	return a.db.Documents(), nil
}

func (a *app) extractor() extract.TextExtractor {
	c := a.cfg.OCR
	x := ocr.NewExtractor(ocr.Config{
		Pdftoppm:      c.Pdftoppm,
		Tesseract:     c.Tesseract,
		TesseractLang: c.Lang,
		DPI:           c.DPI,
		MaxPages:      c.MaxPages,
		TessdataDir:   c.TessdataDir,
		Timeout:       a.cfg.Worker.ExtractTimeout,
	}, a.logger)
	return extract.NewOCRAdapter(x, a.logger)
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
