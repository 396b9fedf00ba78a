package documents_test

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/workflow/documents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

func TestCheckSize_Boundary(t *testing.T) {
	assert.NoError(t, documents.CheckSize(10*1024*1024))
	assert.True(t, apperr.Is(documents.CheckSize(10*1024*1024+1), apperr.Validation))
	assert.True(t, apperr.Is(documents.CheckSize(0), apperr.Validation))
}

func TestResolveContentType(t *testing.T) {
	ct, err := documents.ResolveContentType("application/pdf", pdfBytes, documents.TextDocumentTypes)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ct)

	ct, err = documents.ResolveContentType("", pdfBytes, documents.TextDocumentTypes)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ct, "missing declaration falls back to detection")

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	_, err = documents.ResolveContentType("image/png", png, documents.TextDocumentTypes)
	assert.True(t, apperr.Is(err, apperr.Validation), "images are not accepted for policies")

	ct, err = documents.ResolveContentType("image/png", png, documents.EmployeeDocumentTypes)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	_, err = documents.ResolveContentType("application/pdf", []byte("just some text"), documents.TextDocumentTypes)
	assert.True(t, apperr.Is(err, apperr.Validation), "content must match the declared type")
}

func TestResolveContentType_DOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, _ = w.Write([]byte("<w:document/>"))
	require.NoError(t, zw.Close())

	ct, err := documents.ResolveContentType(
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document; charset=binary",
		buf.Bytes(), documents.TextDocumentTypes)
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", ct)
}
