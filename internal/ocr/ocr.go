package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/docqueue/constants"
)

// ErrTimeout marks an extraction attempt that ran past Config.Timeout.
var ErrTimeout = errors.New("extraction attempt timed out")

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 200
	MaxPages      int    // 0 = no limit
	TessdataDir   string

	// Timeout bounds each extraction attempt (text layer, OCR). 0 = none.
	Timeout time.Duration
}

type Result struct {
	Text          string
	Method        constants.ExtractMethod
	SourceType    string // constants.PDF | constants.IMAGE | constants.TEXT
	Pages         int
	PagesWithText int
	Duration      time.Duration
	Warnings      []string
}

// Chars is the extracted text length in characters.
func (r Result) Chars() int {
	return utf8.RuneCountInString(r.Text)
}

// Coverage is the fraction of pages that yielded text.
func (r Result) Coverage() float64 {
	if r.Pages == 0 {
		return 0
	}
	return float64(r.PagesWithText) / float64(r.Pages)
}

type Extractor struct {
	cfg      Config
	runner   Runner
	openPDF  PDFOpener
	lookPath func(string) (string, error)
	logger   *slog.Logger
}

type Option func(*Extractor)

// WithRunner replaces the external command runner.
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

// WithPDFOpener replaces the PDF text-layer reader.
func WithPDFOpener(o PDFOpener) Option {
	return func(e *Extractor) {
		if o != nil {
			e.openPDF = o
		}
	}
}

// WithLookPath replaces the binary lookup used to decide whether OCR is available.
func WithLookPath(f func(string) (string, error)) Option {
	return func(e *Extractor) {
		if f != nil {
			e.lookPath = f
		}
	}
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	e := &Extractor{
		cfg:      cfg,
		runner:   execRunner{logger: logger},
		openPDF:  openLedongthucPDF,
		lookPath: exec.LookPath,
		logger:   logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract picks a strategy based on file extension. It never fails:
// missing files, unsupported formats and broken tools all yield
// Method "none" with the cause recorded in Warnings.
func (e *Extractor) Extract(ctx context.Context, path string) Result {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting text extraction", "path", path, "ext", ext)

	var res Result
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		res = Result{Method: constants.MethodNone, Warnings: []string{fmt.Sprintf("file not readable: %s", path)}}
	} else {
		switch constants.MapExtToFormat(ext) {
		case constants.PDF:
			res = e.extractPDF(ctx, path)
		case constants.IMAGE:
			res = e.extractImage(ctx, path)
		case constants.TEXT:
			res = e.extractTextFile(path)
		default:
			res = Result{Method: constants.MethodNone, Warnings: []string{fmt.Sprintf("unsupported extension: %q", ext)}}
		}
	}

	res.Duration = time.Since(start)
	e.logger.Debug("text extraction finished",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"pages_with_text", res.PagesWithText,
		"chars", res.Chars(),
		"duration_ms", res.Duration.Milliseconds(),
		"warnings", len(res.Warnings),
	)
	return res
}

func (e *Extractor) toolAvailable(name string) bool {
	_, err := e.lookPath(name)
	return err == nil
}

// attempt runs fn under the per-attempt timeout. fn keeps running in the
// background if it ignores ctx, but the caller moves on.
func attempt[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		v   T
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		v, err := fn(ctx)
		ch <- outcome{v, err}
	}()

	select {
	case o := <-ch:
		return o.v, o.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return zero, ctx.Err()
	}
}
