package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docqueue/constants"
)

// AllowedExt checks if a file extension is one the extraction pipeline reads.
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// TitleFromFilename turns "02_Proposed-Site_Plan.pdf" into "02 Proposed Site Plan".
func TitleFromFilename(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	parts := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	})
	return strings.Join(parts, " ")
}

// ReferenceForPath returns the first directory under root that contains
// path, which names the case in a watched tree laid out as root/<reference>/...
func ReferenceForPath(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 || parts[0] == "" {
		return "", false
	}
	return parts[0], true
}
