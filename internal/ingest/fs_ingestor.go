package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/joseph-ayodele/docqueue/constants"
	"github.com/joseph-ayodele/docqueue/internal/entity"
)

// docIDLen is how many hex chars of the content hash make a doc_id.
const docIDLen = 16

// FSIngestor registers files from the local filesystem as queued documents.
type FSIngestor struct {
	docs   Registrar
	logger *slog.Logger
}

func NewFSIngestor(docs Registrar, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{docs: docs, logger: logger}
}

func (i *FSIngestor) IngestPath(ctx context.Context, reference, path string) (IngestionResult, error) {
	out := IngestionResult{SourcePath: path, Reference: reference}
	if strings.TrimSpace(reference) == "" {
		return out, errors.New("reference is required")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		i.logger.Error("abs path error", "path", path, "error", err)
		return out, err
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		i.logger.Warn("unsupported or missing extension", "path", abs, "ext", ext)
		return out, fmt.Errorf("unsupported or missing extension %q", ext)
	}

	sum, err := hashFile(abs)
	if err != nil {
		i.logger.Error("hash error", "path", abs, "error", err)
		return out, err
	}
	out.HashHex = hex.EncodeToString(sum)
	out.DocID = out.HashHex[:docIDLen]

	if mt, err := mimetype.DetectFile(abs); err == nil {
		out.MimeType, _, _ = strings.Cut(mt.String(), ";")
	} else {
		i.logger.Warn("mime detection failed", "path", abs, "error", err)
	}

	doc, created, err := i.docs.Register(ctx, entity.DocumentInput{
		Reference:   reference,
		DocID:       out.DocID,
		Title:       TitleFromFilename(abs),
		LocalPath:   abs,
		MimeType:    out.MimeType,
		ContentHash: out.HashHex,
	})
	if err != nil {
		return out, err
	}
	out.DocumentID = doc.ID
	out.Deduplicated = !created
	i.logger.Debug("file ingested", "reference", reference, "path", abs, "doc_id", out.DocID, "deduplicated", out.Deduplicated)
	return out, nil
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// IngestDirectory walks root, skips hidden if requested,
// and calls IngestPath for each file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(
	ctx context.Context,
	reference string,
	root string,
	skipHidden bool,
) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, reference, path)
		if err != nil {
			r.Err = err.Error()
			results = append(results, r)
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	i.logger.Info("directory ingested",
		"reference", reference,
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}
