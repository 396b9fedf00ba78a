// Package documents is the tenant document store: employee verification
// documents, company policies with their extracted text, and resumes, all
// kept in GridFS. Employee documents are also attached to the owner's
// onboarding record.
package documents

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/policy/docpolicy"
	filestore "github.com/dalemusser/onboardhub/internal/app/store/files"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/system/textextract"
	"github.com/dalemusser/onboardhub/internal/app/system/txn"
	"github.com/dalemusser/onboardhub/internal/app/workflow/onboarding"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Service struct {
	db      *mongo.Database
	files   *filestore.Store
	tracker *onboarding.Tracker
	log     *zap.Logger
}

func NewService(db *mongo.Database, files *filestore.Store, tracker *onboarding.Tracker, logger *zap.Logger) *Service {
	return &Service{db: db, files: files, tracker: tracker, log: logger}
}

// Upload is a received file before validation.
type Upload struct {
	FileName    string
	ContentType string // as declared by the client
	Data        []byte
}

func (s *Service) prepare(up Upload, allowed []string) (string, error) {
	if err := CheckSize(int64(len(up.Data))); err != nil {
		return "", err
	}
	if up.FileName == "" {
		return "", apperr.NewValidation("file name is required")
	}
	return ResolveContentType(up.ContentType, up.Data, allowed)
}

func (s *Service) rollback(ctx context.Context, id primitive.ObjectID, cause error) {
	// The request context may already be done; give cleanup its own budget.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.files.Rollback(rctx, id); err != nil && !errors.Is(err, filestore.ErrNotFound) {
		s.log.Error("document rollback failed; orphaned file left in bucket",
			zap.String("file_id", id.Hex()), zap.NamedError("cause", cause), zap.Error(err))
	}
}

func storeErr(err error, msg string) error {
	switch {
	case errors.Is(err, filestore.ErrNotFound):
		return apperr.NewNotFound(msg)
	case errors.Is(err, models.ErrInvalidMetadata):
		return apperr.Wrap(err, apperr.Validation, "invalid document metadata")
	default:
		return apperr.NewInternal("document store failure", err)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Employee documents                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// UploadEmployeeDocument stores a verification document for a and attaches it
// to a's onboarding record, replacing any earlier document of docType. If the
// record update fails the stored file is removed again.
func (s *Service) UploadEmployeeDocument(ctx context.Context, a authz.Actor, docType string, up Upload) (*models.OnboardingDocument, *models.OnboardingRecord, error) {
	if !models.IsValidDocumentType(docType) {
		return nil, nil, apperr.NewValidation("unknown document type")
	}
	ct, err := s.prepare(up, EmployeeDocumentTypes)
	if err != nil {
		return nil, nil, err
	}

	id, err := s.files.Upload(ctx, up.Data, models.FileMetadata{
		Category:     models.CategoryEmployeeDocument,
		CompanyID:    a.CompanyID,
		OwnerID:      a.UserID,
		OriginalName: up.FileName,
		ContentType:  ct,
		Status:       models.DocumentPending,
		Employee:     &models.EmployeeDocumentMetadata{DocumentType: docType},
	})
	if err != nil {
		return nil, nil, storeErr(err, "document not found")
	}

	doc := models.OnboardingDocument{
		ID:          id,
		Type:        docType,
		FileName:    up.FileName,
		ContentType: ct,
		Size:        int64(len(up.Data)),
		Status:      models.DocumentPending,
	}
	rec, replaced, err := s.tracker.SubmitDocument(ctx, a.CompanyID, a.UserID, doc)
	if err != nil {
		s.rollback(ctx, id, err)
		return nil, nil, err
	}

	if replaced != nil {
		if err := s.files.Delete(ctx, a.CompanyID, replaced.ID); err != nil && !errors.Is(err, filestore.ErrNotFound) {
			s.log.Warn("could not remove replaced document",
				zap.String("file_id", replaced.ID.Hex()), zap.Error(err))
		}
	}
	for i := range rec.Documents {
		if rec.Documents[i].ID == id {
			return &rec.Documents[i], rec, nil
		}
	}
	return &doc, rec, nil
}

// ReviewDocument applies an HR decision to a pending employee document. The
// record and the file row are updated together.
func (s *Service) ReviewDocument(ctx context.Context, a authz.Actor, documentID primitive.ObjectID, approve bool, reason string) (*models.OnboardingRecord, error) {
	if err := authz.Check(a, authz.CapHR); err != nil {
		return nil, err
	}
	status := models.DocumentRejected
	if approve {
		status = models.DocumentVerified
	}

	var rec *models.OnboardingRecord
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		var err error
		rec, err = s.tracker.ReviewDocument(ctx, a.CompanyID, documentID, onboarding.Review{
			Approve:      approve,
			ReviewerID:   a.UserID,
			ReviewerName: a.Name,
			Reason:       reason,
		})
		if err != nil {
			return err
		}
		if err := s.files.SetStatus(ctx, a.CompanyID, documentID, status); err != nil && !errors.Is(err, filestore.ErrNotFound) {
			return apperr.NewInternal("document store failure", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Policies                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// PolicyInput describes an uploaded policy.
type PolicyInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Required    bool   `json:"required"`
}

// UploadPolicy stores a policy file and, when text can be extracted, a
// linked plain-text sibling. A failure while writing the sibling or the
// link removes both files.
func (s *Service) UploadPolicy(ctx context.Context, a authz.Actor, in PolicyInput, up Upload) (*PolicySummary, error) {
	if err := authz.Check(a, authz.CapHR); err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, apperr.NewValidation("policy name is required")
	}
	ct, err := s.prepare(up, TextDocumentTypes)
	if err != nil {
		return nil, err
	}

	policyID, err := s.files.Upload(ctx, up.Data, models.FileMetadata{
		Category:     models.CategoryPolicy,
		CompanyID:    a.CompanyID,
		OwnerID:      a.UserID,
		OriginalName: up.FileName,
		ContentType:  ct,
		Policy:       &models.PolicyMetadata{Name: in.Name, Description: in.Description, Required: in.Required},
	})
	if err != nil {
		return nil, storeErr(err, "policy not found")
	}

	res, err := textextract.Extract(ct, up.Data)
	if err != nil {
		s.log.Warn("policy text extraction failed; stored without text",
			zap.String("policy_id", policyID.Hex()), zap.String("content_type", ct), zap.Error(err))
	} else {
		textID, err := s.files.Upload(ctx, []byte(res.Text), models.FileMetadata{
			Category:     models.CategoryPolicyText,
			CompanyID:    a.CompanyID,
			OwnerID:      a.UserID,
			OriginalName: up.FileName + ".txt",
			ContentType:  "text/plain; charset=utf-8",
			PolicyText: &models.PolicyTextMetadata{
				OriginalFileID: policyID,
				Extractor:      res.Extractor,
				CharCount:      len([]rune(res.Text)),
			},
		})
		if err != nil {
			s.rollback(ctx, policyID, err)
			return nil, storeErr(err, "policy not found")
		}
		if err := s.files.LinkPolicyText(ctx, a.CompanyID, policyID, textID); err != nil {
			s.rollback(ctx, textID, err)
			s.rollback(ctx, policyID, err)
			return nil, storeErr(err, "policy not found")
		}
	}

	return s.policySummary(ctx, a.CompanyID, policyID)
}

func (s *Service) policySummary(ctx context.Context, companyID, policyID primitive.ObjectID) (*PolicySummary, error) {
	f, err := s.files.Get(ctx, companyID, policyID)
	if err != nil {
		return nil, storeErr(err, "policy not found")
	}
	ps := &PolicySummary{FileSummary: summarize(f)}
	if txt, err := s.files.FindPolicyText(ctx, companyID, policyID); err == nil {
		t := summarize(txt)
		ps.Text = &t
	}
	return ps, nil
}

// ListPolicies returns the company's policies, each grouped with its text
// sibling.
func (s *Service) ListPolicies(ctx context.Context, a authz.Actor) ([]PolicySummary, error) {
	pols, err := s.files.Find(ctx, filestore.Filter{CompanyID: a.CompanyID, Category: models.CategoryPolicy})
	if err != nil {
		return nil, storeErr(err, "policy not found")
	}
	texts, err := s.files.Find(ctx, filestore.Filter{CompanyID: a.CompanyID, Category: models.CategoryPolicyText})
	if err != nil {
		return nil, storeErr(err, "policy not found")
	}
	return groupPolicies(pols, texts), nil
}

// groupPolicies pairs each policy with the text file whose originalFileId
// points at it. Orphaned text files are dropped.
func groupPolicies(pols, texts []models.StoredFile) []PolicySummary {
	byOriginal := make(map[primitive.ObjectID]*models.StoredFile, len(texts))
	for i := range texts {
		if pt := texts[i].Metadata.PolicyText; pt != nil {
			byOriginal[pt.OriginalFileID] = &texts[i]
		}
	}
	out := make([]PolicySummary, 0, len(pols))
	for i := range pols {
		ps := PolicySummary{FileSummary: summarize(&pols[i])}
		if txt, ok := byOriginal[pols[i].ID]; ok {
			t := summarize(txt)
			ps.Text = &t
		}
		out = append(out, ps)
	}
	return out
}

/*─────────────────────────────────────────────────────────────────────────────*
| Resumes                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// ResumeInput carries optional candidate details.
type ResumeInput struct {
	CandidateName  string `json:"candidateName" validate:"max=200"`
	CandidateEmail string `json:"candidateEmail" validate:"omitempty,email"`
	Position       string `json:"position" validate:"max=200"`
}

// UploadResume stores a resume owned by a.
func (s *Service) UploadResume(ctx context.Context, a authz.Actor, in ResumeInput, up Upload) (*FileSummary, error) {
	ct, err := s.prepare(up, TextDocumentTypes)
	if err != nil {
		return nil, err
	}
	id, err := s.files.Upload(ctx, up.Data, models.FileMetadata{
		Category:     models.CategoryResume,
		CompanyID:    a.CompanyID,
		OwnerID:      a.UserID,
		OriginalName: up.FileName,
		ContentType:  ct,
		Resume: &models.ResumeMetadata{
			CandidateName:  in.CandidateName,
			CandidateEmail: in.CandidateEmail,
			Position:       in.Position,
		},
	})
	if err != nil {
		return nil, storeErr(err, "resume not found")
	}
	f, err := s.files.Get(ctx, a.CompanyID, id)
	if err != nil {
		return nil, storeErr(err, "resume not found")
	}
	sum := summarize(f)
	return &sum, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Shared read/delete                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// ListFilter selects files for List.
type ListFilter struct {
	Category     string
	DocumentType string
	OwnerID      *primitive.ObjectID
}

// List returns summaries a may see. Employees only see their own employee
// documents and resumes regardless of OwnerID.
func (s *Service) List(ctx context.Context, a authz.Actor, f ListFilter) ([]FileSummary, error) {
	switch f.Category {
	case models.CategoryEmployeeDocument, models.CategoryResume, models.CategoryPolicy:
	default:
		return nil, apperr.NewValidation("unknown document category")
	}
	owner := docpolicy.ListOwner(a, f.Category)
	if owner == nil {
		owner = f.OwnerID
	}
	rows, err := s.files.Find(ctx, filestore.Filter{
		CompanyID:    a.CompanyID,
		Category:     f.Category,
		OwnerID:      owner,
		DocumentType: f.DocumentType,
	})
	if err != nil {
		return nil, storeErr(err, "document not found")
	}
	out := make([]FileSummary, 0, len(rows))
	for i := range rows {
		out = append(out, summarize(&rows[i]))
	}
	return out, nil
}

// lookup loads file metadata within a's company. A non-empty category must
// match; a mismatch reads as not found.
func (s *Service) lookup(ctx context.Context, a authz.Actor, id primitive.ObjectID, category string) (*models.StoredFile, error) {
	f, err := s.files.Get(ctx, a.CompanyID, id)
	if err != nil {
		return nil, storeErr(err, "document not found")
	}
	if category != "" && f.Metadata.Category != category {
		return nil, apperr.NewNotFound("document not found")
	}
	return f, nil
}

// Download returns a file a may view. Files of other tenants, and files a
// may not view, are both reported as not found. category restricts the
// lookup when non-empty.
func (s *Service) Download(ctx context.Context, a authz.Actor, id primitive.ObjectID, category string) (*models.StoredFile, []byte, error) {
	f, err := s.lookup(ctx, a, id, category)
	if err != nil {
		return nil, nil, err
	}
	if !docpolicy.CanView(a, f) {
		return nil, nil, apperr.NewNotFound("document not found")
	}
	f, data, err := s.files.Download(ctx, a.CompanyID, id)
	if err != nil {
		return nil, nil, storeErr(err, "document not found")
	}
	return f, data, nil
}

// DownloadPolicyText returns the extracted text of policyID.
func (s *Service) DownloadPolicyText(ctx context.Context, a authz.Actor, policyID primitive.ObjectID) (*models.StoredFile, []byte, error) {
	if _, err := s.lookup(ctx, a, policyID, models.CategoryPolicy); err != nil {
		return nil, nil, err
	}
	txt, err := s.files.FindPolicyText(ctx, a.CompanyID, policyID)
	if err != nil {
		return nil, nil, storeErr(err, "no extracted text for this policy")
	}
	return s.Download(ctx, a, txt.ID, models.CategoryPolicyText)
}

// Delete removes a file. Employee documents are detached from their
// onboarding record first and refused once verified; deleting a policy also
// deletes its extracted text.
func (s *Service) Delete(ctx context.Context, a authz.Actor, id primitive.ObjectID, category string) (*models.StoredFile, error) {
	f, err := s.lookup(ctx, a, id, category)
	if err != nil {
		return nil, err
	}
	if err := docpolicy.CheckDelete(a, f); err != nil {
		return nil, err
	}

	switch f.Metadata.Category {
	case models.CategoryEmployeeDocument:
		if _, err := s.tracker.RemoveDocument(ctx, a.CompanyID, id); err != nil && !apperr.Is(err, apperr.NotFound) {
			return nil, err
		}
	case models.CategoryPolicy:
		if txt, err := s.files.FindPolicyText(ctx, a.CompanyID, id); err == nil {
			if err := s.files.Delete(ctx, a.CompanyID, txt.ID); err != nil && !errors.Is(err, filestore.ErrNotFound) {
				return nil, storeErr(err, "document not found")
			}
		} else if !errors.Is(err, filestore.ErrNotFound) {
			return nil, storeErr(err, "document not found")
		}
	}

	if err := s.files.Delete(ctx, a.CompanyID, id); err != nil {
		return nil, storeErr(err, "document not found")
	}
	return f, nil
}
