package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/onboardhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateCompany creates an active company with the given name and domain.
func (f *Fixtures) CreateCompany(ctx context.Context, name, domain string) models.Company {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Company{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		Domain:       domain,
		IsActive:     true,
		Subscription: models.Subscription{Tier: models.TierFree, Status: models.SubscriptionTrial},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("companies").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test company: %v", err)
	}
	return c
}

// CreateUser creates an active Google user. companyID may be nil for an
// unaffiliated user.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string, companyID *primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		Email:      email,
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		AuthMethod: "google",
		Role:       role,
		IsActive:   true,
		CompanyID:  companyID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateInvitation inserts an invitation directly, bypassing the workflow.
func (f *Fixtures) CreateInvitation(ctx context.Context, email string, companyID, inviterID primitive.ObjectID, role, status string, expiresAt time.Time) models.Invitation {
	f.t.Helper()

	now := time.Now().UTC()
	inv := models.Invitation{
		ID:          primitive.NewObjectID(),
		Email:       email,
		CompanyID:   companyID,
		Role:        role,
		InvitedByID: inviterID,
		Status:      status,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("invitations").InsertOne(ctx, inv); err != nil {
		f.t.Fatalf("failed to create test invitation: %v", err)
	}
	return inv
}
