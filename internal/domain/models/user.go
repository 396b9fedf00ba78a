// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is anyone who has signed in. CompanyID is nil until the user creates
// a company, joins one by domain, or accepts an invitation.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Email        string              `bson:"email" json:"email"` // normalized lowercase
	FullName     string              `bson:"full_name" json:"fullName"`
	FullNameCI   string              `bson:"full_name_ci" json:"-"` // folded for sort
	AvatarURL    string              `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	AuthMethod   string              `bson:"auth_method" json:"authMethod"`
	AuthReturnID string              `bson:"auth_return_id,omitempty" json:"-"` // provider subject id
	Role         string              `bson:"role" json:"role"`
	IsActive     bool                `bson:"is_active" json:"isActive"`
	CompanyID    *primitive.ObjectID `bson:"company_id,omitempty" json:"companyId,omitempty"`
	Department   string              `bson:"department,omitempty" json:"department,omitempty"`
	Position     string              `bson:"position,omitempty" json:"position,omitempty"`
	LastLoginAt  *time.Time          `bson:"last_login_at,omitempty" json:"lastLoginAt,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// HasCompany reports whether the user is affiliated with a tenant.
func (u *User) HasCompany() bool {
	return u != nil && u.CompanyID != nil && !u.CompanyID.IsZero()
}
