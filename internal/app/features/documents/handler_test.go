package documents_test

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apierrors "github.com/dalemusser/onboardhub/internal/app/features/errors"
	"github.com/dalemusser/onboardhub/internal/app/features/documents"
	filestore "github.com/dalemusser/onboardhub/internal/app/store/files"
	onboardingstore "github.com/dalemusser/onboardhub/internal/app/store/onboarding"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	docworkflow "github.com/dalemusser/onboardhub/internal/app/workflow/documents"
	"github.com/dalemusser/onboardhub/internal/app/workflow/onboarding"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"github.com/dalemusser/onboardhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var pdf = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

const docxType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func docx(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	body := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` +
		text + `</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(body)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func newTestHandler(t *testing.T, maxBytes int64) *documents.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	files := filestore.New(db)
	tracker := onboarding.NewTracker(onboardingstore.New(db), docworkflow.NewCatalog(files), onboarding.SingleApprovedDocument, logger)
	svc := docworkflow.NewService(db, files, tracker, logger)
	return documents.NewHandler(svc, maxBytes, apierrors.NewErrorLogger(logger), auditlog.NewNopLogger(), logger)
}

func upload(t *testing.T, h http.HandlerFunc, u testutil.TestUser, target, name, ct string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.WithUser(testutil.MultipartFile(t, target, name, ct, data, fields), u)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func withID(r *http.Request, u testutil.TestUser, id string) *http.Request {
	return testutil.WithChiURLParam(testutil.WithUser(r, u), "id", id)
}

type uploaded struct {
	Document   models.OnboardingDocument `json:"document"`
	Onboarding models.OnboardingRecord   `json:"onboarding"`
}

func TestEmployeeDocument_UploadListDownload(t *testing.T) {
	h := newTestHandler(t, 0)
	company := primitive.NewObjectID()
	emp := testutil.EmployeeUser(company)

	rec := upload(t, h.HandleUpload, emp, "/api/documents", "passport.pdf", "application/pdf", pdf,
		map[string]string{"documentType": models.DocIDProof})
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var up uploaded
	testutil.DecodeEnvelope(t, rec, &up)
	if up.Onboarding.Status != models.OnboardingInProgress {
		t.Errorf("first upload should start onboarding, got %q", up.Onboarding.Status)
	}

	// Same type again replaces the first.
	rec = upload(t, h.HandleUpload, emp, "/api/documents", "passport-2.pdf", "application/pdf", pdf,
		map[string]string{"documentType": models.DocIDProof})
	if rec.Code != http.StatusCreated {
		t.Fatalf("re-upload: expected 201, got %d", rec.Code)
	}
	var second uploaded
	testutil.DecodeEnvelope(t, rec, &second)
	if len(second.Onboarding.Documents) != 1 {
		t.Errorf("expected one document of the type, got %d", len(second.Onboarding.Documents))
	}

	rec = httptest.NewRecorder()
	h.ServeList(rec, testutil.WithUser(httptest.NewRequest("GET", "/api/documents", nil), emp))
	var list []docworkflow.FileSummary
	testutil.DecodeEnvelope(t, rec, &list)
	if len(list) != 1 || list[0].FileName != "passport-2.pdf" {
		t.Fatalf("expected only the replacement in the list, got %+v", list)
	}

	id := second.Document.ID.Hex()
	rec = httptest.NewRecorder()
	h.ServeDownload(rec, withID(httptest.NewRequest("GET", "/api/documents/"+id, nil), emp, id))
	if rec.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, "passport-2.pdf") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.Equal(rec.Body.Bytes(), pdf) {
		t.Error("downloaded bytes differ from upload")
	}

	// Another tenant's HR cannot see it.
	rec = httptest.NewRecorder()
	h.ServeDownload(rec, withID(httptest.NewRequest("GET", "/api/documents/"+id, nil), testutil.HRUser(primitive.NewObjectID()), id))
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-tenant download: expected 404, got %d", rec.Code)
	}
}

func TestUpload_Limits(t *testing.T) {
	h := newTestHandler(t, 1024)
	emp := testutil.EmployeeUser(primitive.NewObjectID())
	fields := map[string]string{"documentType": models.DocIDProof}

	over := make([]byte, 1025)
	copy(over, pdf)
	rec := upload(t, h.HandleUpload, emp, "/api/documents", "big.pdf", "application/pdf", over, fields)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("one byte over: expected 400, got %d", rec.Code)
	}

	huge := make([]byte, 256<<10)
	copy(huge, pdf)
	rec = upload(t, h.HandleUpload, emp, "/api/documents", "huge.pdf", "application/pdf", huge, fields)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body: expected 413, got %d", rec.Code)
	}

	rec = upload(t, h.HandleUpload, emp, "/api/documents", "notes.txt", "text/plain", []byte("hello"), fields)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("disallowed type: expected 400, got %d", rec.Code)
	}
}

func TestNewHandler_CapsLimit(t *testing.T) {
	h := documents.NewHandler(nil, 50<<20, nil, nil, zap.NewNop())
	if h.MaxBytes != docworkflow.MaxUploadBytes {
		t.Errorf("MaxBytes = %d, want %d", h.MaxBytes, docworkflow.MaxUploadBytes)
	}
}

func TestReview_ApproveCompletes(t *testing.T) {
	h := newTestHandler(t, 0)
	company := primitive.NewObjectID()
	emp := testutil.EmployeeUser(company)
	hr := testutil.HRUser(company)

	rec := upload(t, h.HandleUpload, emp, "/api/documents", "id.pdf", "application/pdf", pdf,
		map[string]string{"documentType": models.DocIDProof})
	var up uploaded
	testutil.DecodeEnvelope(t, rec, &up)
	id := up.Document.ID.Hex()

	review := func(u testutil.TestUser, body map[string]any) *httptest.ResponseRecorder {
		req := withID(testutil.JSONRequest(t, "POST", "/api/documents/"+id+"/review", body), u, id)
		rec := httptest.NewRecorder()
		h.HandleReview(rec, req)
		return rec
	}

	if rec := review(emp, map[string]any{"approve": true}); rec.Code != http.StatusForbidden {
		t.Errorf("employee review: expected 403, got %d", rec.Code)
	}
	if rec := review(hr, map[string]any{"approve": false}); rec.Code != http.StatusBadRequest {
		t.Errorf("reject without reason: expected 400, got %d", rec.Code)
	}

	rec = review(hr, map[string]any{"approve": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var record models.OnboardingRecord
	testutil.DecodeEnvelope(t, rec, &record)
	if record.Status != models.OnboardingCompleted {
		t.Errorf("expected completed, got %q", record.Status)
	}

	// Verified documents stay.
	rec = httptest.NewRecorder()
	h.HandleDelete(rec, withID(httptest.NewRequest("DELETE", "/api/documents/"+id, nil), emp, id))
	if rec.Code != http.StatusConflict {
		t.Errorf("delete verified: expected 409, got %d", rec.Code)
	}
}

func TestPolicies_UploadTextDelete(t *testing.T) {
	h := newTestHandler(t, 0)
	company := primitive.NewObjectID()
	hr := testutil.HRUser(company)
	emp := testutil.EmployeeUser(company)
	fields := map[string]string{"name": "Code of Conduct", "required": "true"}
	body := docx(t, "Be kind.")

	if rec := upload(t, h.HandleUploadPolicy, emp, "/api/policies", "coc.docx", docxType, body, fields); rec.Code != http.StatusForbidden {
		t.Errorf("employee upload: expected 403, got %d", rec.Code)
	}
	if rec := upload(t, h.HandleUploadPolicy, hr, "/api/policies", "coc.docx", docxType, body, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("missing name: expected 400, got %d", rec.Code)
	}

	rec := upload(t, h.HandleUploadPolicy, hr, "/api/policies", "coc.docx", docxType, body, fields)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var ps docworkflow.PolicySummary
	testutil.DecodeEnvelope(t, rec, &ps)
	if ps.Text == nil || ps.Policy == nil || !ps.Policy.Required {
		t.Fatalf("unexpected policy summary: %+v", ps)
	}
	id := ps.ID.Hex()

	rec = httptest.NewRecorder()
	h.ServePolicyText(rec, withID(httptest.NewRequest("GET", "/api/policies/"+id+"/text", nil), emp, id))
	if rec.Code != http.StatusOK || rec.Body.String() != "Be kind." {
		t.Fatalf("policy text: %d %q", rec.Code, rec.Body.String())
	}

	// A policy id is not served from the resume routes.
	rec = httptest.NewRecorder()
	h.ServeDownloadResume(rec, withID(httptest.NewRequest("GET", "/api/resumes/"+id, nil), hr, id))
	if rec.Code != http.StatusNotFound {
		t.Errorf("wrong category: expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleDeletePolicy(rec, withID(httptest.NewRequest("DELETE", "/api/policies/"+id, nil), hr, id))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServePolicyText(rec, withID(httptest.NewRequest("GET", "/api/policies/"+id+"/text", nil), emp, id))
	if rec.Code != http.StatusNotFound {
		t.Errorf("text after delete: expected 404, got %d", rec.Code)
	}
}

func TestResumes_HRSeesAll(t *testing.T) {
	h := newTestHandler(t, 0)
	company := primitive.NewObjectID()
	emp := testutil.EmployeeUser(company)
	hr := testutil.HRUser(company)

	rec := upload(t, h.HandleUploadResume, emp, "/api/resumes", "cv.pdf", "application/pdf", pdf,
		map[string]string{"position": "Engineer", "candidateEmail": "Jo@Example.com"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = upload(t, h.HandleUploadResume, emp, "/api/resumes", "cv.pdf", "application/pdf", pdf,
		map[string]string{"candidateEmail": "not-an-email"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad candidate email: expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeListResumes(rec, testutil.WithUser(httptest.NewRequest("GET", "/api/resumes", nil), hr))
	var list []docworkflow.FileSummary
	testutil.DecodeEnvelope(t, rec, &list)
	if len(list) != 1 || list[0].Resume == nil || list[0].Resume.CandidateEmail != "jo@example.com" {
		t.Errorf("unexpected HR resume list: %+v", list)
	}

	rec = httptest.NewRecorder()
	h.ServeListResumes(rec, testutil.WithUser(httptest.NewRequest("GET", "/api/resumes", nil), testutil.EmployeeUser(company)))
	testutil.DecodeEnvelope(t, rec, &list)
	if len(list) != 0 {
		t.Errorf("other employees must not see the resume, got %d", len(list))
	}
}
