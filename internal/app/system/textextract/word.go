package textextract

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/beevik/etree"
)

const docxBody = "word/document.xml"

// docxText joins the w:t runs of each w:p paragraph, one paragraph per line.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", errors.New("docx: missing " + docxBody)
	}
	rc, err := body.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, p := range doc.FindElements("//w:p") {
		for _, el := range p.FindElements(".//*") {
			switch el.FullTag() {
			case "w:t":
				sb.WriteString(el.Text())
			case "w:tab":
				sb.WriteByte('\t')
			case "w:br", "w:cr":
				sb.WriteByte('\n')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// minRun is the shortest printable run kept from a legacy DOC file.
const minRun = 4

// docScrape recovers readable text from a binary DOC by keeping runs of
// printable characters. Word 97 stores body text either as cp1252 bytes or as
// UTF-16LE; both are tried and the longer result is kept.
func docScrape(data []byte) (string, error) {
	a := scrapeRuns(data, 1)
	b := scrapeRuns(data, 2)
	if utf8.RuneCountInString(b) > utf8.RuneCountInString(a) {
		return b, nil
	}
	return a, nil
}

func scrapeRuns(data []byte, width int) string {
	var sb, run strings.Builder
	runLen := 0
	// UTF-16 text is limited to Latin blocks; wider ranges turn pairs of
	// ASCII bytes into ideographs.
	limit := rune(utf8.RuneSelf)
	if width == 2 {
		limit = 0x250
	}
	flush := func() {
		if runLen >= minRun {
			sb.WriteString(run.String())
			sb.WriteByte('\n')
		}
		run.Reset()
		runLen = 0
	}
	for i := 0; i+width <= len(data); i += width {
		var r rune
		if width == 1 {
			r = rune(data[i])
		} else {
			r = rune(uint16(data[i]) | uint16(data[i+1])<<8)
		}
		if r == '\r' || r == '\n' {
			flush()
			continue
		}
		if r < limit && (unicode.IsPrint(r) || r == '\t') {
			run.WriteRune(r)
			runLen++
			continue
		}
		flush()
	}
	flush()
	return sb.String()
}
