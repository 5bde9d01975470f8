package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/docqueue/constants"
)

// PageReader exposes the embedded text layer of a PDF one page at a time.
type PageReader interface {
	NumPage() int
	// PageText returns the text of page i, 1-based.
	PageText(i int) (string, error)
	Close() error
}

// PDFOpener opens a PDF for text-layer reading.
type PDFOpener func(path string) (PageReader, error)

type ledongthucPDF struct {
	f *os.File
	r *pdf.Reader
}

func openLedongthucPDF(path string) (pr PageReader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("open pdf: %v", rec)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &ledongthucPDF{f: f, r: r}, nil
}

func (p *ledongthucPDF) NumPage() int { return p.r.NumPage() }

// PageText recovers from parser panics on malformed pages.
func (p *ledongthucPDF) PageText(i int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: %v", i, rec)
		}
	}()
	page := p.r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (p *ledongthucPDF) Close() error { return p.f.Close() }

type pageText struct {
	text          string
	pages         int
	pagesWithText int
	warnings      []string
}

func (e *Extractor) extractPDF(ctx context.Context, path string) Result {
	res := Result{SourceType: constants.PDF, Method: constants.MethodNone}

	layer, err := attempt(ctx, e.cfg.Timeout, func(ctx context.Context) (pageText, error) {
		return e.pdfTextLayer(ctx, path)
	})
	res.Warnings = append(res.Warnings, layer.warnings...)
	if err != nil {
		e.logger.Warn("pdf text layer failed", "path", path, "error", err)
		res.Warnings = append(res.Warnings, fmt.Sprintf("text layer: %v", err))
	}
	res.Pages = layer.pages

	if layer.pagesWithText > 0 {
		res.Text = Normalize(layer.text)
		res.PagesWithText = layer.pagesWithText
		res.Method = constants.MethodPDFText
		return res
	}

	// no page had a text layer: scanned drawing or image-only PDF
	if !e.toolAvailable(e.cfg.Pdftoppm) || !e.toolAvailable(e.cfg.Tesseract) {
		res.Warnings = append(res.Warnings, "ocr unavailable: pdftoppm or tesseract not found")
		return res
	}

	scanned, err := attempt(ctx, e.cfg.Timeout, func(ctx context.Context) (pageText, error) {
		return e.pdfToOCR(ctx, path)
	})
	res.Warnings = append(res.Warnings, scanned.warnings...)
	if err != nil {
		e.logger.Warn("pdf ocr failed", "path", path, "error", err)
		res.Warnings = append(res.Warnings, fmt.Sprintf("ocr: %v", err))
		return res
	}
	if res.Pages == 0 {
		res.Pages = scanned.pages
	}
	if scanned.pagesWithText > 0 {
		res.Text = Normalize(scanned.text)
		res.PagesWithText = scanned.pagesWithText
		res.Method = constants.MethodOCR
	}
	return res
}

// pdfTextLayer reads every page's embedded text. A page that fails to
// parse counts as empty; it never aborts the document.
func (e *Extractor) pdfTextLayer(ctx context.Context, path string) (pageText, error) {
	var out pageText
	r, err := e.openPDF(path)
	if err != nil {
		return out, err
	}
	defer func() {
		if err := r.Close(); err != nil {
			e.logger.Warn("failed to close pdf", "path", path, "error", err)
		}
	}()

	out.pages = r.NumPage()
	texts := make([]string, 0, out.pages)
	for i := 1; i <= out.pages; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		t, err := r.PageText(i)
		if err != nil {
			out.warnings = append(out.warnings, err.Error())
			texts = append(texts, "")
			continue
		}
		if strings.TrimSpace(t) != "" {
			out.pagesWithText++
		}
		texts = append(texts, t)
	}
	out.text = strings.Join(texts, "\n")
	return out, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (pageText, error) {
	var out pageText
	tmpDir, err := os.MkdirTemp("", "dq-pp-*")
	if err != nil {
		return out, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			e.logger.Warn("failed to remove temp dir", "path", path, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", fmt.Sprintf("%d", e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", fmt.Sprintf("%d", e.cfg.MaxPages))
	}
	// pdftoppm -r 200 -png <in.pdf> <tmp/page>
	args = append(args, path, prefix)
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...); err != nil {
		out.warnings = append(out.warnings, string(errb))
		return out, fmt.Errorf("pdftoppm: %w", err)
	}

	// prefix-1.png, prefix-2.png, ... (zero padded on larger documents)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		out.warnings = append(out.warnings, "pdftoppm produced no images")
		return out, nil
	}

	texts := make([]string, 0, len(matches))
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		out.warnings = append(out.warnings, w...)
		if err != nil {
			out.warnings = append(out.warnings, err.Error())
			texts = append(texts, "")
			continue
		}
		if strings.TrimSpace(txt) != "" {
			out.pagesWithText++
		}
		texts = append(texts, txt)
	}
	out.pages = len(matches)
	out.text = strings.Join(texts, "\n")
	return out, nil
}
