package textextract_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/system/textextract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_Unsupported(t *testing.T) {
	_, err := textextract.Extract("image/png", []byte{0x89, 'P', 'N', 'G'})
	assert.True(t, errors.Is(err, textextract.ErrUnsupported))
}

func TestExtract_PDF_FallsBackToStreamOperators(t *testing.T) {
	// Not a structurally valid PDF, so only the raw scan can read it.
	data := []byte("%PDF-1.4\n1 0 obj\n<< /Length 60 >>\nstream\n" +
		"BT /F1 12 Tf 72 712 Td (Code of \\(Conduct\\)) Tj ET\n" +
		"BT [(Be) -250 (kind)] TJ ET\nendstream\nendobj\n%%EOF")

	res, err := textextract.Extract(textextract.TypePDF, data)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Code of (Conduct)")
	assert.Contains(t, res.Text, "Bekind")
	assert.NotEmpty(t, res.Extractor)
}

func TestExtract_PDF_LargeInterleavedStream(t *testing.T) {
	// Text and positioning operators alternate, as in most real streams.
	data := []byte("%PDF-1.4\n" + strings.Repeat("(ab) Tj T*\n", 200_000))
	require.Greater(t, len(data), 2<<20)

	start := time.Now()
	res, err := textextract.Extract(textextract.TypePDF, data)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.NotEmpty(t, res.Extractor)
	assert.True(t, strings.HasPrefix(res.Text, "ab\nab\n"), "one line per Tj")
	assert.Less(t, elapsed, 10*time.Second)
}

func TestExtract_PDF_NoText(t *testing.T) {
	_, err := textextract.Extract(textextract.TypePDF, []byte("%PDF-1.4 nothing here"))
	assert.True(t, errors.Is(err, textextract.ErrNoText))
}

func TestExtract_DOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Leave</w:t></w:r><w:r><w:t xml:space="preserve"> Policy</w:t></w:r></w:p>
    <w:p><w:r><w:t>Twenty days per year.</w:t></w:r></w:p>
  </w:body>
</w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	res, err := textextract.Extract(textextract.TypeDOCX, buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, textextract.ExtractorDOCX, res.Extractor)
	assert.Equal(t, "Leave Policy\nTwenty days per year.", res.Text)
}

func TestExtract_DOCX_Corrupt(t *testing.T) {
	_, err := textextract.Extract(textextract.TypeDOCX, []byte("PK not really a zip"))
	assert.Error(t, err)
}

func TestExtract_DOC_Scrape(t *testing.T) {
	data := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0, 0, 1, 2}, []byte("Remote work policy applies to all staff")...)
	data = append(data, 0, 0, 0, 'a', 'b', 0)

	res, err := textextract.Extract(textextract.TypeDOC, data)
	require.NoError(t, err)
	assert.Equal(t, textextract.ExtractorDOC, res.Extractor)
	assert.Equal(t, "Remote work policy applies to all staff", res.Text)
}

func TestClean(t *testing.T) {
	in := "  Title \r\n\r\n\r\n\tline   two\x00\n\n"
	assert.Equal(t, "Title\n\nline two", textextract.Clean(in))
}
