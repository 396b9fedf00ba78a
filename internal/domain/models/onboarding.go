// internal/domain/models/onboarding.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Onboarding record statuses. Transitions only move forward.
const (
	OnboardingNotStarted = "not_started"
	OnboardingInProgress = "in_progress"
	OnboardingCompleted  = "completed"
)

// Task statuses.
const (
	TaskPending   = "pending"
	TaskCompleted = "completed"
)

// Onboarding document review statuses.
const (
	DocumentPending  = "pending"
	DocumentVerified = "verified"
	DocumentRejected = "rejected"
)

// OnboardingRecord tracks one employee's progress inside one company.
// (company_id, employee_id) is unique.
type OnboardingRecord struct {
	ID          primitive.ObjectID   `bson:"_id" json:"id"`
	EmployeeID  primitive.ObjectID   `bson:"employee_id" json:"employeeId"`
	CompanyID   primitive.ObjectID   `bson:"company_id" json:"companyId"`
	Status      string               `bson:"status" json:"status"`
	Tasks       []OnboardingTask     `bson:"tasks" json:"tasks"`
	Policies    []PolicyAcknowledge  `bson:"policies" json:"policies"`
	Documents   []OnboardingDocument `bson:"documents" json:"documents"`
	StartedAt   *time.Time           `bson:"started_at,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time           `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
	CreatedAt   time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updatedAt"`
}

// CompletedSince reports whether the record reached completed at or after t.
func (r *OnboardingRecord) CompletedSince(t time.Time) bool {
	return r != nil && r.CompletedAt != nil && !r.CompletedAt.Before(t.Truncate(time.Millisecond))
}

type OnboardingTask struct {
	ID          string     `bson:"id" json:"id"`
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	Required    bool       `bson:"required" json:"required"`
	Status      string     `bson:"status" json:"status"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
}

type PolicyAcknowledge struct {
	Name           string              `bson:"name" json:"name"`
	PolicyFileID   *primitive.ObjectID `bson:"policy_file_id,omitempty" json:"policyFileId,omitempty"`
	Required       bool                `bson:"required" json:"required"`
	Acknowledged   bool                `bson:"acknowledged" json:"acknowledged"`
	AcknowledgedAt *time.Time          `bson:"acknowledged_at,omitempty" json:"acknowledgedAt,omitempty"`
}

// OnboardingDocument references a GridFS file by ID. At most one entry per
// Type exists on a record.
type OnboardingDocument struct {
	ID              primitive.ObjectID  `bson:"id" json:"id"`
	Type            string              `bson:"type" json:"type"`
	FileName        string              `bson:"file_name" json:"fileName"`
	ContentType     string              `bson:"content_type" json:"contentType"`
	Size            int64               `bson:"size" json:"size"`
	Status          string              `bson:"status" json:"status"`
	UploadedAt      time.Time           `bson:"uploaded_at" json:"uploadedAt"`
	VerifiedByID    *primitive.ObjectID `bson:"verified_by_id,omitempty" json:"verifiedById,omitempty"`
	VerifiedByName  string              `bson:"verified_by_name,omitempty" json:"verifiedByName,omitempty"`
	VerifiedAt      *time.Time          `bson:"verified_at,omitempty" json:"verifiedAt,omitempty"`
	RejectionReason string              `bson:"rejection_reason,omitempty" json:"rejectionReason,omitempty"`
}

// Completion policies select the predicate that completes a record.
const (
	CompletionAllRequiredItems       = "all_required_items"
	CompletionSingleApprovedDocument = "single_approved_document"
)
