package textextract

import (
	"bytes"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfTextLayer reads the document's text layer.
func pdfTextLayer(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// pdfContentStreams decodes each page's content stream and collects the
// operands of its text-showing operators.
func pdfContentStreams(data []byte) (string, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadAndValidate(bytes.NewReader(data), conf)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for page := 1; page <= ctx.PageCount; page++ {
		rd, err := pdfcpu.ExtractPageContent(ctx, page)
		if err != nil || rd == nil {
			continue
		}
		content, err := io.ReadAll(rd)
		if err != nil {
			continue
		}
		sb.WriteString(showText(content))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// pdfRaw scans the file itself. It only finds text in uncompressed streams.
func pdfRaw(data []byte) (string, error) {
	return showText(data), nil
}

var (
	reTj     = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)\s*(?:Tj|'|")`)
	reTJ     = regexp.MustCompile(`\[((?:\\.|[^\]])*)\]\s*TJ`)
	reTJPart = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)
	reLineOp = regexp.MustCompile(`(?:^|\s)(?:T\*|Td|TD|ET)(?:\s|$)`)
)

// showText pulls string operands of Tj, ', " and TJ out of a content stream,
// in order, breaking lines at text positioning operators.
func showText(content []byte) string {
	type hit struct {
		at   int
		text string
	}
	var hits []hit
	for _, m := range reTj.FindAllSubmatchIndex(content, -1) {
		hits = append(hits, hit{m[0], unescapePDF(string(content[m[2]:m[3]]))})
	}
	for _, m := range reTJ.FindAllSubmatchIndex(content, -1) {
		var sb strings.Builder
		for _, p := range reTJPart.FindAllSubmatch(content[m[2]:m[3]], -1) {
			sb.WriteString(unescapePDF(string(p[1])))
		}
		hits = append(hits, hit{m[0], sb.String()})
	}
	for _, m := range reLineOp.FindAllIndex(content, -1) {
		hits = append(hits, hit{m[0], "\n"})
	}
	if len(hits) == 0 {
		return ""
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].at < hits[j].at })

	var sb strings.Builder
	for _, h := range hits {
		sb.WriteString(h.text)
	}
	return sb.String()
}

// unescapePDF resolves the escape sequences of a PDF literal string.
func unescapePDF(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch n := s[i]; n {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b', 'f':
		case '(', ')', '\\':
			sb.WriteByte(n)
		case '\n':
		default:
			if n >= '0' && n <= '7' {
				j := i
				for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
					j++
				}
				if v, err := strconv.ParseUint(s[i:j], 8, 8); err == nil {
					sb.WriteByte(byte(v))
				}
				i = j - 1
				continue
			}
			sb.WriteByte(n)
		}
	}
	return sb.String()
}
