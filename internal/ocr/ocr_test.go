package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docqueue/constants"
)

type fakePDF struct {
	pages []string
	errs  map[int]error
}

func (f *fakePDF) NumPage() int { return len(f.pages) }

func (f *fakePDF) PageText(i int) (string, error) {
	if err := f.errs[i]; err != nil {
		return "", err
	}
	return f.pages[i-1], nil
}

func (f *fakePDF) Close() error { return nil }

func opener(p PageReader) PDFOpener {
	return func(string) (PageReader, error) { return p, nil }
}

// stubRunner fakes pdftoppm by writing one png per page and tesseract by
// returning canned text per image.
type stubRunner struct {
	mu      sync.Mutex
	pages   int
	ocrText map[string]string // image base name -> text
	tessErr error
	calls   []string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	switch name {
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= s.pages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), nil, 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		if s.tessErr != nil {
			return nil, []byte("boom"), s.tessErr
		}
		return []byte(s.ocrText[filepath.Base(args[0])]), nil, nil
	}
	return nil, nil, fmt.Errorf("unexpected command %q", name)
}

func toolsPresent(string) (string, error) { return "/usr/bin/tool", nil }

func toolsMissing(name string) (string, error) {
	return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
}

func touch(t *testing.T, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, content, 0o600))
	return p
}

func TestExtractPDF_TextLayerCoverage(t *testing.T) {
	pdf := &fakePDF{pages: []string{"SITE PLAN 1:500", "", "Proposed", "  ", "Sheet 3 of 5"}}
	e := NewExtractor(Config{}, nil, WithPDFOpener(opener(pdf)), WithLookPath(toolsMissing))

	res := e.Extract(context.Background(), touch(t, "plan.pdf", []byte("%PDF")))
	assert.Equal(t, constants.MethodPDFText, res.Method)
	assert.Equal(t, 5, res.Pages)
	assert.Equal(t, 3, res.PagesWithText)
	assert.InDelta(t, 0.6, res.Coverage(), 1e-9)
	assert.Contains(t, res.Text, "SITE PLAN")
	assert.Equal(t, constants.PDF, res.SourceType)
}

func TestExtractPDF_NoTextLayerWithoutOCR(t *testing.T) {
	pdf := &fakePDF{pages: make([]string, 5)}
	e := NewExtractor(Config{}, nil, WithPDFOpener(opener(pdf)), WithLookPath(toolsMissing))

	res := e.Extract(context.Background(), touch(t, "scan.pdf", []byte("%PDF")))
	assert.Equal(t, constants.MethodNone, res.Method)
	assert.Equal(t, 5, res.Pages)
	assert.Zero(t, res.Coverage())
	assert.Empty(t, res.Text)
	assert.Contains(t, strings.Join(res.Warnings, "\n"), "ocr unavailable")
}

func TestExtractPDF_OCRFallback(t *testing.T) {
	pdf := &fakePDF{pages: make([]string, 5)}
	runner := &stubRunner{pages: 5, ocrText: map[string]string{"page-2.png": "LOCATION PLAN\n\nScale 1:1250"}}
	e := NewExtractor(Config{}, nil, WithPDFOpener(opener(pdf)), WithRunner(runner), WithLookPath(toolsPresent))

	res := e.Extract(context.Background(), touch(t, "scan.pdf", []byte("%PDF")))
	assert.Equal(t, constants.MethodOCR, res.Method)
	assert.Equal(t, 5, res.Pages)
	assert.Equal(t, 1, res.PagesWithText)
	assert.Contains(t, res.Text, "LOCATION PLAN")
	assert.Equal(t, "pdftoppm", runner.calls[0])
	assert.Len(t, runner.calls, 6)
}

func TestExtractPDF_OCRFindsNothing(t *testing.T) {
	pdf := &fakePDF{pages: make([]string, 2)}
	runner := &stubRunner{pages: 2, ocrText: map[string]string{}}
	e := NewExtractor(Config{}, nil, WithPDFOpener(opener(pdf)), WithRunner(runner), WithLookPath(toolsPresent))

	res := e.Extract(context.Background(), touch(t, "blank.pdf", []byte("%PDF")))
	assert.Equal(t, constants.MethodNone, res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Zero(t, res.PagesWithText)
}

func TestExtractPDF_PageFailuresAreContained(t *testing.T) {
	pdf := &fakePDF{
		pages: []string{"", "ELEVATIONS", ""},
		errs:  map[int]error{1: errors.New("bad xref"), 3: errors.New("bad font")},
	}
	e := NewExtractor(Config{}, nil, WithPDFOpener(opener(pdf)), WithLookPath(toolsMissing))

	res := e.Extract(context.Background(), touch(t, "mixed.pdf", []byte("%PDF")))
	assert.Equal(t, constants.MethodPDFText, res.Method)
	assert.Equal(t, 1, res.PagesWithText)
	assert.Len(t, res.Warnings, 2)
}

func TestExtractPDF_TimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	slow := func(string) (PageReader, error) {
		<-release
		return &fakePDF{}, nil
	}
	e := NewExtractor(Config{Timeout: 20 * time.Millisecond}, nil, WithPDFOpener(slow), WithLookPath(toolsMissing))

	start := time.Now()
	res := e.Extract(context.Background(), touch(t, "huge.pdf", []byte("%PDF")))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, constants.MethodNone, res.Method)
	assert.Contains(t, strings.Join(res.Warnings, "\n"), ErrTimeout.Error())
}

func TestExtractTextFile(t *testing.T) {
	e := NewExtractor(Config{}, nil)

	t.Run("lossy decode", func(t *testing.T) {
		p := touch(t, "notes.txt", []byte("Design and Access\xff\xfe statement\r\n"))
		res := e.Extract(context.Background(), p)
		assert.Equal(t, constants.MethodTextFile, res.Method)
		assert.Contains(t, res.Text, "�")
		assert.Contains(t, res.Text, "statement")
		assert.Equal(t, 1, res.PagesWithText)
	})

	t.Run("utf16 with bom", func(t *testing.T) {
		p := touch(t, "export.csv", []byte{0xFF, 0xFE, 'h', 0, 'i', 0})
		res := e.Extract(context.Background(), p)
		assert.Equal(t, constants.MethodTextFile, res.Method)
		assert.Equal(t, "hi", res.Text)
	})

	t.Run("html", func(t *testing.T) {
		p := touch(t, "page.HTM", []byte("<p>Heritage statement</p>"))
		res := e.Extract(context.Background(), p)
		assert.Equal(t, constants.MethodTextFile, res.Method)
		assert.Equal(t, 25, res.Chars())
	})
}

func TestExtractImage(t *testing.T) {
	img := touch(t, "photo.jpg", []byte{0xFF, 0xD8})

	t.Run("tesseract missing", func(t *testing.T) {
		e := NewExtractor(Config{}, nil, WithLookPath(toolsMissing))
		res := e.Extract(context.Background(), img)
		assert.Equal(t, constants.MethodNone, res.Method)
		assert.Equal(t, constants.IMAGE, res.SourceType)
	})

	t.Run("text found", func(t *testing.T) {
		runner := &stubRunner{ocrText: map[string]string{"photo.jpg": "STREET SCENE\n-----\n"}}
		e := NewExtractor(Config{}, nil, WithRunner(runner), WithLookPath(toolsPresent))
		res := e.Extract(context.Background(), img)
		assert.Equal(t, constants.MethodOCR, res.Method)
		assert.Equal(t, "STREET SCENE", res.Text)
	})

	t.Run("blank image", func(t *testing.T) {
		runner := &stubRunner{ocrText: map[string]string{"photo.jpg": "  \n "}}
		e := NewExtractor(Config{}, nil, WithRunner(runner), WithLookPath(toolsPresent))
		res := e.Extract(context.Background(), img)
		assert.Equal(t, constants.MethodNone, res.Method)
	})

	t.Run("tesseract fails", func(t *testing.T) {
		runner := &stubRunner{tessErr: errors.New("exit status 1")}
		e := NewExtractor(Config{}, nil, WithRunner(runner), WithLookPath(toolsPresent))
		res := e.Extract(context.Background(), img)
		assert.Equal(t, constants.MethodNone, res.Method)
		assert.NotEmpty(t, res.Warnings)
	})
}

func TestExtract_MissingAndUnsupported(t *testing.T) {
	e := NewExtractor(Config{}, nil)

	res := e.Extract(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"))
	assert.Equal(t, constants.MethodNone, res.Method)
	assert.NotEmpty(t, res.Warnings)

	res = e.Extract(context.Background(), touch(t, "form.docx", []byte("PK")))
	assert.Equal(t, constants.MethodNone, res.Method)
	assert.Contains(t, res.Warnings[0], "unsupported extension")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "a b\n\nc", Normalize("a\tb  \r\n\r\n\r\n\r\nc\f"))
	assert.Equal(t, "LOCATION PLAN  Scale", Normalize("LOCATION PLAN      Scale"))
}
