// internal/domain/models/invitation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invitation statuses. Only one pending invitation may exist per
// (email, company_id); a partial unique index enforces it.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationExpired  = "expired"
	InvitationRevoked  = "revoked"
)

type Invitation struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	Email         string             `bson:"email" json:"email"`
	CompanyID     primitive.ObjectID `bson:"company_id" json:"companyId"`
	Role          string             `bson:"role" json:"role"`
	Department    string             `bson:"department,omitempty" json:"department,omitempty"`
	Position      string             `bson:"position,omitempty" json:"position,omitempty"`
	InvitedByID   primitive.ObjectID `bson:"invited_by_id" json:"invitedById"`
	InvitedByName string             `bson:"invited_by_name,omitempty" json:"invitedByName,omitempty"`
	Status        string             `bson:"status" json:"status"`
	ExpiresAt     time.Time          `bson:"expires_at" json:"expiresAt"`

	AcceptedAt   *time.Time          `bson:"accepted_at,omitempty" json:"acceptedAt,omitempty"`
	AcceptedByID *primitive.ObjectID `bson:"accepted_by_id,omitempty" json:"acceptedById,omitempty"`
	RevokedAt    *time.Time          `bson:"revoked_at,omitempty" json:"revokedAt,omitempty"`

	// Generated company mailbox, when provisioning was requested.
	GeneratedEmail        string `bson:"generated_email,omitempty" json:"generatedEmail,omitempty"`
	GeneratedPasswordHash string `bson:"generated_password_hash,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsExpired reports whether the invitation's TTL has elapsed at now.
func (inv *Invitation) IsExpired(now time.Time) bool {
	return !inv.ExpiresAt.After(now)
}

// IsPending reports whether the invitation can still be accepted at now.
func (inv *Invitation) IsPending(now time.Time) bool {
	return inv.Status == InvitationPending && !inv.IsExpired(now)
}
