package documents

import (
	"mime"
	"strings"

	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/textextract"
	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadBytes is the hard ceiling for any single file.
const MaxUploadBytes int64 = 10 * 1024 * 1024

const (
	typeJPEG = "image/jpeg"
	typePNG  = "image/png"
)

// Allow-lists per upload kind.
var (
	EmployeeDocumentTypes = []string{textextract.TypePDF, textextract.TypeDOC, textextract.TypeDOCX, typeJPEG, typePNG}
	TextDocumentTypes     = []string{textextract.TypePDF, textextract.TypeDOC, textextract.TypeDOCX}
)

// sniffed lists detector results compatible with each declared type. Office
// files are containers, so a generic zip or OLE result is accepted for them.
var sniffed = map[string][]string{
	textextract.TypePDF:  {textextract.TypePDF},
	textextract.TypeDOC:  {textextract.TypeDOC, "application/x-ole-storage"},
	textextract.TypeDOCX: {textextract.TypeDOCX, "application/zip"},
	typeJPEG:             {typeJPEG},
	typePNG:              {typePNG},
}

// CheckSize enforces MaxUploadBytes: exactly the limit is accepted, one byte
// more is not.
func CheckSize(n int64) error {
	if n <= 0 {
		return apperr.NewValidation("file is empty")
	}
	if n > MaxUploadBytes {
		return apperr.NewValidation("file exceeds the 10 MB limit")
	}
	return nil
}

// ResolveContentType returns the effective content type of data. The
// declared type wins when the bytes agree with it; a missing or generic
// declaration falls back to detection. The result must be in allowed.
func ResolveContentType(declared string, data []byte, allowed []string) (string, error) {
	ct := baseType(declared)
	detected := mimetype.Detect(data)
	if ct == "" || ct == "application/octet-stream" {
		ct = baseType(detected.String())
	}
	if !contains(allowed, ct) {
		return "", apperr.NewValidation("file type not allowed; accepted: " + strings.Join(allowed, ", "))
	}
	if !matches(detected, sniffed[ct]) {
		return "", apperr.NewValidation("file content does not match its declared type")
	}
	return ct, nil
}

func baseType(ct string) string {
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}

// matches walks detected and its parents looking for one of want.
func matches(detected *mimetype.MIME, want []string) bool {
	for m := detected; m != nil; m = m.Parent() {
		for _, w := range want {
			if m.Is(w) {
				return true
			}
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
