package documents

import (
	"context"
	"time"

	filestore "github.com/dalemusser/onboardhub/internal/app/store/files"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FileSummary is the listing view of a stored file.
type FileSummary struct {
	ID           primitive.ObjectID     `json:"id"`
	Category     string                 `json:"category"`
	FileName     string                 `json:"fileName"`
	ContentType  string                 `json:"contentType"`
	Size         int64                  `json:"size"`
	UploadedAt   time.Time              `json:"uploadedAt"`
	OwnerID      primitive.ObjectID     `json:"ownerId"`
	Status       string                 `json:"status,omitempty"`
	DocumentType string                 `json:"documentType,omitempty"`
	Policy       *models.PolicyMetadata `json:"policy,omitempty"`
	Resume       *models.ResumeMetadata `json:"resume,omitempty"`
	Extractor    string                 `json:"extractor,omitempty"`
}

// PolicySummary is a policy with its extracted-text sibling, if any.
type PolicySummary struct {
	FileSummary
	Text *FileSummary `json:"text,omitempty"`
}

func summarize(f *models.StoredFile) FileSummary {
	m := f.Metadata
	s := FileSummary{
		ID:          f.ID,
		Category:    m.Category,
		FileName:    m.OriginalName,
		ContentType: m.ContentType,
		Size:        f.Length,
		UploadedAt:  f.UploadDate,
		OwnerID:     m.OwnerID,
		Status:      m.Status,
		Policy:      m.Policy,
		Resume:      m.Resume,
	}
	if m.Employee != nil {
		s.DocumentType = m.Employee.DocumentType
	}
	if m.PolicyText != nil {
		s.Extractor = m.PolicyText.Extractor
	}
	return s
}

// Catalog lists published policies for onboarding records. It only needs
// the file store, so it can be built before the Service.
type Catalog struct {
	files *filestore.Store
}

func NewCatalog(files *filestore.Store) Catalog {
	return Catalog{files: files}
}

// Policies implements onboarding.PolicySource.
func (c Catalog) Policies(ctx context.Context, companyID primitive.ObjectID) ([]models.PolicyAcknowledge, error) {
	rows, err := c.files.Find(ctx, filestore.Filter{CompanyID: companyID, Category: models.CategoryPolicy})
	if err != nil {
		return nil, err
	}
	out := make([]models.PolicyAcknowledge, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if r.Metadata.Policy == nil || seen[r.Metadata.Policy.Name] {
			continue
		}
		seen[r.Metadata.Policy.Name] = true
		id := r.ID
		out = append(out, models.PolicyAcknowledge{
			Name:         r.Metadata.Policy.Name,
			PolicyFileID: &id,
			Required:     r.Metadata.Policy.Required,
		})
	}
	return out, nil
}
