package companystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/system/normalize"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound        = errors.New("company not found")
	ErrDuplicateDomain = errors.New("a company with this domain already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("companies")}
}

// Create inserts a new active company on the free tier. Domain must be
// unique; a clash returns ErrDuplicateDomain.
func (s *Store) Create(ctx context.Context, c models.Company) (models.Company, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Name = normalize.Name(c.Name)
	c.NameCI = text.Fold(c.Name)
	c.Domain = normalize.Domain(c.Domain)
	c.ContactEmail = normalize.Email(c.ContactEmail)
	c.IsActive = true
	if c.Subscription.Tier == "" {
		c.Subscription = models.Subscription{Tier: models.TierFree, Status: models.SubscriptionTrial}
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Company{}, ErrDuplicateDomain
		}
		return models.Company{}, err
	}
	return c, nil
}

// Delete removes a company. Used to undo a Create whose follow-up failed.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Company, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByDomain finds the active company registered for domain.
func (s *Store) GetByDomain(ctx context.Context, domain string) (*models.Company, error) {
	return s.findOne(ctx, bson.M{"domain": normalize.Domain(domain), "is_active": true})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Company, error) {
	var c models.Company
	if err := s.c.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// SettingsUpdate holds the admin-editable fields. Nil pointers are left
// unchanged.
type SettingsUpdate struct {
	AllowSelfRegistration    *bool
	RequireEmailVerification *bool
	ContactEmail             *string
	ContactPhone             *string
	Address                  *string
}

func (u SettingsUpdate) empty() bool {
	return u.AllowSelfRegistration == nil && u.RequireEmailVerification == nil &&
		u.ContactEmail == nil && u.ContactPhone == nil && u.Address == nil
}

// UpdateSettings applies u and returns the updated company.
func (s *Store) UpdateSettings(ctx context.Context, id primitive.ObjectID, u SettingsUpdate) (*models.Company, error) {
	if u.empty() {
		return s.GetByID(ctx, id)
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.AllowSelfRegistration != nil {
		set["settings.allow_self_registration"] = *u.AllowSelfRegistration
	}
	if u.RequireEmailVerification != nil {
		set["settings.require_email_verification"] = *u.RequireEmailVerification
	}
	if u.ContactEmail != nil {
		set["contact_email"] = normalize.Email(*u.ContactEmail)
	}
	if u.ContactPhone != nil {
		set["contact_phone"] = *u.ContactPhone
	}
	if u.Address != nil {
		set["address"] = *u.Address
	}

	var c models.Company
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
