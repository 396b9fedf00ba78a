// internal/domain/models/company.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Company is a tenant. Domain is the lowercase email domain used for
// self-registration and is unique across companies.
type Company struct {
	ID           primitive.ObjectID  `bson:"_id" json:"id"`
	Name         string              `bson:"name" json:"name"`
	NameCI       string              `bson:"name_ci" json:"-"`
	Domain       string              `bson:"domain" json:"domain"`
	ContactEmail string              `bson:"contact_email,omitempty" json:"contactEmail,omitempty"`
	ContactPhone string              `bson:"contact_phone,omitempty" json:"contactPhone,omitempty"`
	Address      string              `bson:"address,omitempty" json:"address,omitempty"`
	IsActive     bool                `bson:"is_active" json:"isActive"`
	Subscription Subscription        `bson:"subscription" json:"subscription"`
	Settings     CompanySettings     `bson:"settings" json:"settings"`
	CreatedByID  *primitive.ObjectID `bson:"created_by_id,omitempty" json:"createdById,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updatedAt"`
}

// Subscription tiers and statuses.
const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"

	SubscriptionActive   = "active"
	SubscriptionTrial    = "trial"
	SubscriptionCanceled = "canceled"
)

type Subscription struct {
	Tier   string `bson:"tier" json:"tier"`
	Status string `bson:"status" json:"status"`
}

// CompanySettings are editable by company admins.
type CompanySettings struct {
	AllowSelfRegistration    bool `bson:"allow_self_registration" json:"allowSelfRegistration"`
	RequireEmailVerification bool `bson:"require_email_verification" json:"requireEmailVerification"`
}
