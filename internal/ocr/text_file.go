package ocr

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/joseph-ayodele/docqueue/constants"
)

// extractTextFile reads plain text, CSV or HTML. Invalid byte sequences
// become U+FFFD; a UTF-16 byte order mark switches decoding.
func (e *Extractor) extractTextFile(path string) Result {
	res := Result{SourceType: constants.TEXT, Method: constants.MethodTextFile, Pages: 1}

	f, err := os.Open(path)
	if err != nil {
		res.Method = constants.MethodNone
		res.Warnings = []string{fmt.Sprintf("open: %v", err)}
		return res
	}
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("failed to close text file", "path", path, "error", err)
		}
	}()

	dec := transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	b, err := io.ReadAll(dec)
	if err != nil {
		res.Warnings = []string{fmt.Sprintf("read: %v", err)}
	}

	res.Text = Normalize(string(b))
	if strings.TrimSpace(res.Text) != "" {
		res.PagesWithText = 1
	}
	return res
}
