// internal/domain/models/document.go
package models

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// File categories stored in the GridFS bucket. The category selects which
// metadata variant is populated.
const (
	CategoryPolicy           = "policy"
	CategoryPolicyText       = "policy_text"
	CategoryEmployeeDocument = "employee_document"
	CategoryResume           = "resume"
)

// Employee document types.
const (
	DocIDProof              = "id_proof"
	DocAddressProof         = "address_proof"
	DocEducationCertificate = "education_certificate"
	DocExperienceLetter     = "experience_letter"
	DocTaxForm              = "tax_form"
	DocBankDetails          = "bank_details"
	DocOfferLetter          = "offer_letter"
	DocOther                = "other"
)

// EmployeeDocumentTypes lists every accepted employee document type.
var EmployeeDocumentTypes = []string{
	DocIDProof, DocAddressProof, DocEducationCertificate, DocExperienceLetter,
	DocTaxForm, DocBankDetails, DocOfferLetter, DocOther,
}

// IsValidDocumentType reports whether t is a known employee document type.
func IsValidDocumentType(t string) bool {
	for _, v := range EmployeeDocumentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// FileMetadata is stored as the GridFS "metadata" subdocument. Exactly one
// of Policy, PolicyText, Employee or Resume is set, matching Category.
type FileMetadata struct {
	Category     string             `bson:"category" json:"category"`
	CompanyID    primitive.ObjectID `bson:"company_id" json:"companyId"`
	OwnerID      primitive.ObjectID `bson:"owner_id" json:"ownerId"`
	OriginalName string             `bson:"original_name" json:"originalName"`
	ContentType  string             `bson:"content_type" json:"contentType"`
	Status       string             `bson:"status,omitempty" json:"status,omitempty"`

	Policy     *PolicyMetadata           `bson:"policy,omitempty" json:"policy,omitempty"`
	PolicyText *PolicyTextMetadata       `bson:"policy_text,omitempty" json:"policyText,omitempty"`
	Employee   *EmployeeDocumentMetadata `bson:"employee,omitempty" json:"employee,omitempty"`
	Resume     *ResumeMetadata           `bson:"resume,omitempty" json:"resume,omitempty"`
}

type PolicyMetadata struct {
	Name        string              `bson:"name" json:"name"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Required    bool                `bson:"required" json:"required"`
	TextFileID  *primitive.ObjectID `bson:"text_file_id,omitempty" json:"textFileId,omitempty"`
}

// PolicyTextMetadata describes the extracted plain-text sibling of a policy.
type PolicyTextMetadata struct {
	OriginalFileID primitive.ObjectID `bson:"original_file_id" json:"originalFileId"`
	Extractor      string             `bson:"extractor" json:"extractor"`
	CharCount      int                `bson:"char_count" json:"charCount"`
}

type EmployeeDocumentMetadata struct {
	DocumentType string `bson:"document_type" json:"documentType"`
}

type ResumeMetadata struct {
	CandidateName  string `bson:"candidate_name,omitempty" json:"candidateName,omitempty"`
	CandidateEmail string `bson:"candidate_email,omitempty" json:"candidateEmail,omitempty"`
	Position       string `bson:"position,omitempty" json:"position,omitempty"`
}

// ErrInvalidMetadata is returned for metadata whose variant does not match
// its category.
var ErrInvalidMetadata = errors.New("invalid file metadata")

// Validate rejects unknown categories and mismatched variants.
func (m FileMetadata) Validate() error {
	set := 0
	for _, present := range []bool{m.Policy != nil, m.PolicyText != nil, m.Employee != nil, m.Resume != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: expected exactly one variant, got %d", ErrInvalidMetadata, set)
	}
	if m.CompanyID.IsZero() {
		return fmt.Errorf("%w: company id required", ErrInvalidMetadata)
	}

	switch m.Category {
	case CategoryPolicy:
		if m.Policy == nil || m.Policy.Name == "" {
			return fmt.Errorf("%w: policy name required", ErrInvalidMetadata)
		}
	case CategoryPolicyText:
		if m.PolicyText == nil || m.PolicyText.OriginalFileID.IsZero() {
			return fmt.Errorf("%w: policy text must reference its original", ErrInvalidMetadata)
		}
	case CategoryEmployeeDocument:
		if m.Employee == nil || !IsValidDocumentType(m.Employee.DocumentType) {
			return fmt.Errorf("%w: unknown document type", ErrInvalidMetadata)
		}
	case CategoryResume:
		if m.Resume == nil {
			return fmt.Errorf("%w: resume metadata required", ErrInvalidMetadata)
		}
	default:
		return fmt.Errorf("%w: unknown category %q", ErrInvalidMetadata, m.Category)
	}
	return nil
}

// StoredFile is a row of the GridFS files collection.
type StoredFile struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Filename   string             `bson:"filename" json:"filename"`
	Length     int64              `bson:"length" json:"length"`
	UploadDate time.Time          `bson:"uploadDate" json:"uploadDate"`
	Metadata   FileMetadata       `bson:"metadata" json:"metadata"`
}
