package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docqueue/constants"
)

func (e *Extractor) extractImage(ctx context.Context, path string) Result {
	res := Result{SourceType: constants.IMAGE, Method: constants.MethodNone, Pages: 1}
	if !e.toolAvailable(e.cfg.Tesseract) {
		res.Warnings = []string{"ocr unavailable: tesseract not found"}
		return res
	}

	type ocrOut struct {
		text     string
		warnings []string
	}
	out, err := attempt(ctx, e.cfg.Timeout, func(ctx context.Context) (ocrOut, error) {
		txt, w, err := e.tesseractOCR(ctx, path)
		return ocrOut{text: txt, warnings: w}, err
	})
	res.Warnings = append(res.Warnings, out.warnings...)
	if err != nil {
		e.logger.Warn("image ocr failed", "path", path, "error", err)
		res.Warnings = append(res.Warnings, err.Error())
		return res
	}

	txt := Normalize(out.text)
	if strings.TrimSpace(txt) != "" {
		res.Text = txt
		res.PagesWithText = 1
		res.Method = constants.MethodOCR
	}
	return res
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}

	// minor cleanup of obvious line noise
	txt := reBoxNoise.ReplaceAllString(string(out), "")
	return txt, nil, nil
}
