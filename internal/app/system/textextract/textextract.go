// Package textextract pulls plain text out of uploaded policy files so a
// searchable text sibling can be stored next to the original.
//
// PDFs go through up to three stages: a full text-layer reader, a
// content-stream scan of each page, and a scan of the raw file bytes.
// The first stage yielding text wins. DOCX is parsed as XML; legacy DOC
// is scraped for printable runs.
package textextract

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Content types handled here.
const (
	TypePDF  = "application/pdf"
	TypeDOC  = "application/msword"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Extractor names recorded in policy_text metadata.
const (
	ExtractorPDFText   = "pdf_text"
	ExtractorPDFStream = "pdf_content_stream"
	ExtractorPDFRaw    = "pdf_raw"
	ExtractorDOCX      = "docx_xml"
	ExtractorDOC       = "doc_scrape"
)

var (
	ErrUnsupported = errors.New("unsupported content type for text extraction")
	ErrNoText      = errors.New("no extractable text")
)

// Result is the extracted text and the stage that produced it.
type Result struct {
	Text      string
	Extractor string
}

type stage struct {
	name string
	fn   func([]byte) (string, error)
}

// Extract returns the text of data, which must be one of TypePDF, TypeDOC
// or TypeDOCX.
func Extract(contentType string, data []byte) (Result, error) {
	var stages []stage
	switch contentType {
	case TypePDF:
		stages = []stage{
			{ExtractorPDFText, pdfTextLayer},
			{ExtractorPDFStream, pdfContentStreams},
			{ExtractorPDFRaw, pdfRaw},
		}
	case TypeDOCX:
		stages = []stage{{ExtractorDOCX, docxText}}
	case TypeDOC:
		stages = []stage{{ExtractorDOC, docScrape}}
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupported, contentType)
	}

	var errs []error
	for _, st := range stages {
		text, err := guarded(st.fn, data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", st.name, err))
			continue
		}
		if text = Clean(text); text != "" {
			return Result{Text: text, Extractor: st.name}, nil
		}
	}
	errs = append(errs, ErrNoText)
	return Result{}, errors.Join(errs...)
}

// guarded runs fn and converts a panic from a parser into an error. Malformed
// uploads are common and third-party parsers do not always fail cleanly.
func guarded(fn func([]byte) (string, error), data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	return fn(data)
}

// Clean trims each line, collapses runs of spaces, drops control characters
// and collapses consecutive blank lines.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.Map(func(r rune) rune {
			if r == '\t' {
				return ' '
			}
			if unicode.IsControl(r) || r == unicode.ReplacementChar {
				return -1
			}
			return r
		}, line)
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
