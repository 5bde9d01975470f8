package constants

import "strings"

// File formats understood by the extraction pipeline.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	TEXT  = "TEXT"
)

// FileTypes holds the formats the extractor dispatches on.
var FileTypes = []string{PDF, IMAGE, TEXT}

var pdfExtensions = map[string]struct{}{
	"pdf": {},
}

var imageExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"tif":  {},
	"tiff": {},
	"bmp":  {},
}

var textExtensions = map[string]struct{}{
	"txt":  {},
	"csv":  {},
	"html": {},
	"htm":  {},
}

// AllowedExtensions holds the default allowed file extensions for case ingestion.
var AllowedExtensions = func() map[string]struct{} {
	m := make(map[string]struct{}, len(pdfExtensions)+len(imageExtensions)+len(textExtensions))
	for _, set := range []map[string]struct{}{pdfExtensions, imageExtensions, textExtensions} {
		for k := range set {
			m[k] = struct{}{}
		}
	}
	return m
}()

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImageExt reports whether ext (with or without dot) is a raster image.
func IsImageExt(ext string) bool {
	_, ok := imageExtensions[NormalizeExt(ext)]
	return ok
}

// IsPDFExt reports whether ext (with or without dot) is a PDF.
func IsPDFExt(ext string) bool {
	_, ok := pdfExtensions[NormalizeExt(ext)]
	return ok
}

// MapExtToFormat returns PDF, IMAGE, TEXT or "" for unsupported extensions.
func MapExtToFormat(ext string) string {
	ext = NormalizeExt(ext)
	if _, ok := pdfExtensions[ext]; ok {
		return PDF
	}
	if _, ok := imageExtensions[ext]; ok {
		return IMAGE
	}
	if _, ok := textExtensions[ext]; ok {
		return TEXT
	}
	return ""
}
