package userstore

import (
	"context"

	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request.
// Role changes and company joins therefore take effect on the next request.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

// FetchUser returns nil if the user is not found, inactive, or on any error.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":        1,
		"email":      1,
		"full_name":  1,
		"avatar_url": 1,
		"role":       1,
		"is_active":  1,
		"company_id": 1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		return nil
	}
	if !u.IsActive {
		return nil
	}

	su := &auth.SessionUser{
		ID:        u.ID.Hex(),
		Email:     u.Email,
		Name:      u.FullName,
		Role:      models.NormalizeRole(u.Role),
		AvatarURL: u.AvatarURL,
	}
	if u.HasCompany() {
		su.CompanyID = u.CompanyID.Hex()
	}
	return su
}
