package documents_test

import (
	"archive/zip"
	"bytes"
	"testing"

	filestore "github.com/dalemusser/onboardhub/internal/app/store/files"
	onboardingstore "github.com/dalemusser/onboardhub/internal/app/store/onboarding"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/workflow/documents"
	"github.com/dalemusser/onboardhub/internal/app/workflow/onboarding"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"github.com/dalemusser/onboardhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	db      *mongo.Database
	files   *filestore.Store
	tracker *onboarding.Tracker
	svc     *documents.Service
	company primitive.ObjectID
	emp     authz.Actor
	hr      authz.Actor
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	files := filestore.New(db)
	tracker := onboarding.NewTracker(onboardingstore.New(db), documents.NewCatalog(files), onboarding.SingleApprovedDocument, zap.NewNop())
	company := primitive.NewObjectID()
	return env{
		db:      db,
		files:   files,
		tracker: tracker,
		svc:     documents.NewService(db, files, tracker, zap.NewNop()),
		company: company,
		emp:     authz.Actor{UserID: primitive.NewObjectID(), CompanyID: company, Role: models.RoleEmployee, Name: "Eli"},
		hr:      authz.Actor{UserID: primitive.NewObjectID(), CompanyID: company, Role: models.RoleHRManager, Name: "Hana"},
	}
}

func pdfUpload(name string) documents.Upload {
	return documents.Upload{FileName: name, ContentType: "application/pdf", Data: pdfBytes}
}

func docxBytes(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body bytes.Buffer
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString("<w:p><w:r><w:t>" + p + "</w:t></w:r></w:p>")
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestUploadApproveCompletes(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doc, rec, err := e.svc.UploadEmployeeDocument(ctx, e.emp, models.DocIDProof, pdfUpload("passport.pdf"))
	if err != nil {
		t.Fatalf("UploadEmployeeDocument failed: %v", err)
	}
	if rec.Status != models.OnboardingInProgress {
		t.Errorf("first upload should start onboarding, got %q", rec.Status)
	}

	if _, err := e.svc.ReviewDocument(ctx, e.emp, doc.ID, true, ""); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("employees must not review, got %v", err)
	}

	rec, err = e.svc.ReviewDocument(ctx, e.hr, doc.ID, true, "")
	if err != nil {
		t.Fatalf("ReviewDocument failed: %v", err)
	}
	if rec.Status != models.OnboardingCompleted {
		t.Errorf("expected completed, got %q", rec.Status)
	}
	if rec.Documents[0].VerifiedByName != "Hana" {
		t.Errorf("expected reviewer recorded, got %+v", rec.Documents[0])
	}

	f, err := e.files.Get(ctx, e.company, doc.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if f.Metadata.Status != models.DocumentVerified {
		t.Errorf("file row status should mirror the review, got %q", f.Metadata.Status)
	}

	if _, err := e.svc.Delete(ctx, e.emp, doc.ID, ""); !apperr.Is(err, apperr.Conflict) {
		t.Errorf("expected Conflict deleting a verified document, got %v", err)
	}
}

func TestDoubleUploadKeepsSingleDocument(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, _, err := e.svc.UploadEmployeeDocument(ctx, e.emp, models.DocTaxForm, pdfUpload("w4.pdf"))
	if err != nil {
		t.Fatalf("first upload failed: %v", err)
	}
	second, rec, err := e.svc.UploadEmployeeDocument(ctx, e.emp, models.DocTaxForm, pdfUpload("w4-fixed.pdf"))
	if err != nil {
		t.Fatalf("second upload failed: %v", err)
	}

	if len(rec.Documents) != 1 || rec.Documents[0].ID != second.ID {
		t.Fatalf("expected only the second document, got %+v", rec.Documents)
	}
	if _, err := e.files.Get(ctx, e.company, first.ID); err != filestore.ErrNotFound {
		t.Errorf("replaced file should be removed from the bucket, got %v", err)
	}
	rows, err := e.svc.List(ctx, e.emp, documents.ListFilter{Category: models.CategoryEmployeeDocument})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 1 || rows[0].FileName != "w4-fixed.pdf" {
		t.Errorf("unexpected listing: %+v", rows)
	}
}

func TestUploadOverVerifiedDocument_Conflict(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	verified, _, err := e.svc.UploadEmployeeDocument(ctx, e.emp, models.DocIDProof, pdfUpload("passport.pdf"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if _, err := e.svc.ReviewDocument(ctx, e.hr, verified.ID, true, ""); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if _, _, err := e.svc.UploadEmployeeDocument(ctx, e.emp, models.DocIDProof, pdfUpload("other.pdf")); !apperr.Is(err, apperr.Conflict) {
		t.Fatalf("expected Conflict re-uploading a verified type, got %v", err)
	}

	f, err := e.files.Get(ctx, e.company, verified.ID)
	if err != nil {
		t.Fatalf("verified file should still be stored: %v", err)
	}
	if f.Metadata.Status != models.DocumentVerified {
		t.Errorf("expected verified file row, got %q", f.Metadata.Status)
	}
	rows, err := e.svc.List(ctx, e.emp, documents.ListFilter{Category: models.CategoryEmployeeDocument})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 1 || rows[0].FileName != "passport.pdf" {
		t.Errorf("the rejected upload should be rolled back, got %+v", rows)
	}
}

func TestDownload_TenantIsolated(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doc, _, err := e.svc.UploadEmployeeDocument(ctx, e.emp, models.DocIDProof, pdfUpload("id.pdf"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	f, data, err := e.svc.Download(ctx, e.hr, doc.ID, "")
	if err != nil {
		t.Fatalf("HR download failed: %v", err)
	}
	if !bytes.Equal(data, pdfBytes) || f.Metadata.OriginalName != "id.pdf" {
		t.Errorf("unexpected download: %q %+v", data, f.Metadata)
	}

	otherHR := authz.Actor{UserID: primitive.NewObjectID(), CompanyID: primitive.NewObjectID(), Role: models.RoleCompanyAdmin}
	if _, _, err := e.svc.Download(ctx, otherHR, doc.ID, ""); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected NotFound for another tenant, got %v", err)
	}
	coworker := authz.Actor{UserID: primitive.NewObjectID(), CompanyID: e.company, Role: models.RoleEmployee}
	if _, _, err := e.svc.Download(ctx, coworker, doc.ID, ""); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected NotFound for a coworker, got %v", err)
	}
}

func TestUploadEmployeeDocument_Validation(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, _, err := e.svc.UploadEmployeeDocument(ctx, e.emp, "selfie", pdfUpload("x.pdf")); !apperr.Is(err, apperr.Validation) {
		t.Errorf("expected Validation for unknown type, got %v", err)
	}

	tooBig := make([]byte, documents.MaxUploadBytes+1)
	copy(tooBig, pdfBytes)
	_, _, err := e.svc.UploadEmployeeDocument(ctx, e.emp, models.DocIDProof, documents.Upload{FileName: "big.pdf", ContentType: "application/pdf", Data: tooBig})
	if !apperr.Is(err, apperr.Validation) {
		t.Errorf("expected Validation for oversize upload, got %v", err)
	}

	exact := make([]byte, documents.MaxUploadBytes)
	copy(exact, pdfBytes)
	if _, _, err := e.svc.UploadEmployeeDocument(ctx, e.emp, models.DocIDProof, documents.Upload{FileName: "max.pdf", ContentType: "application/pdf", Data: exact}); err != nil {
		t.Errorf("exactly 10 MiB must be accepted, got %v", err)
	}
}

func TestPolicyUpload_ExtractsTextAndCascades(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	up := documents.Upload{
		FileName:    "handbook.docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Data:        docxBytes(t, "Employee Handbook", "Be excellent to each other."),
	}
	if _, err := e.svc.UploadPolicy(ctx, e.emp, documents.PolicyInput{Name: "Handbook"}, up); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("employees must not upload policies, got %v", err)
	}

	ps, err := e.svc.UploadPolicy(ctx, e.hr, documents.PolicyInput{Name: "Handbook", Required: true}, up)
	if err != nil {
		t.Fatalf("UploadPolicy failed: %v", err)
	}
	if ps.Text == nil || ps.Text.Extractor == "" {
		t.Fatalf("expected an extracted text sibling, got %+v", ps)
	}

	_, text, err := e.svc.Download(ctx, e.emp, ps.Text.ID, "")
	if err != nil {
		t.Fatalf("download text failed: %v", err)
	}
	if string(text) != "Employee Handbook\nBe excellent to each other." {
		t.Errorf("unexpected policy text %q", text)
	}
	if _, viaPolicy, err := e.svc.DownloadPolicyText(ctx, e.emp, ps.ID); err != nil || string(viaPolicy) != string(text) {
		t.Errorf("DownloadPolicyText: %q, %v", viaPolicy, err)
	}
	if _, _, err := e.svc.Download(ctx, e.emp, ps.ID, models.CategoryResume); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("category mismatch should read as not found, got %v", err)
	}

	list, err := e.svc.ListPolicies(ctx, e.emp)
	if err != nil {
		t.Fatalf("ListPolicies failed: %v", err)
	}
	if len(list) != 1 || list[0].Text == nil || list[0].Text.ID != ps.Text.ID {
		t.Errorf("expected policy grouped with its text, got %+v", list)
	}

	pols, err := documents.NewCatalog(e.files).Policies(ctx, e.company)
	if err != nil {
		t.Fatalf("Catalog.Policies failed: %v", err)
	}
	if len(pols) != 1 || pols[0].Name != "Handbook" || !pols[0].Required {
		t.Errorf("unexpected catalog: %+v", pols)
	}

	if _, err := e.svc.Delete(ctx, e.hr, ps.Text.ID, ""); !apperr.Is(err, apperr.Validation) {
		t.Errorf("expected Validation deleting policy text directly, got %v", err)
	}
	if _, err := e.svc.Delete(ctx, e.hr, ps.ID, ""); err != nil {
		t.Fatalf("Delete policy failed: %v", err)
	}
	if _, err := e.files.Get(ctx, e.company, ps.Text.ID); err != filestore.ErrNotFound {
		t.Errorf("policy text should be deleted with its policy, got %v", err)
	}
}

func TestResumes_OwnerScopedListing(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := e.svc.UploadResume(ctx, e.emp, documents.ResumeInput{Position: "Engineer"}, pdfUpload("cv.pdf")); err != nil {
		t.Fatalf("UploadResume failed: %v", err)
	}
	other := authz.Actor{UserID: primitive.NewObjectID(), CompanyID: e.company, Role: models.RoleEmployee}
	if _, err := e.svc.UploadResume(ctx, other, documents.ResumeInput{}, pdfUpload("other.pdf")); err != nil {
		t.Fatalf("UploadResume failed: %v", err)
	}

	mine, err := e.svc.List(ctx, e.emp, documents.ListFilter{Category: models.CategoryResume, OwnerID: &other.UserID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(mine) != 1 || mine[0].FileName != "cv.pdf" {
		t.Errorf("employee should only see own resume, got %+v", mine)
	}

	all, err := e.svc.List(ctx, e.hr, documents.ListFilter{Category: models.CategoryResume})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("HR should see every resume, got %d", len(all))
	}
}
