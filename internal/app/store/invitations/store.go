package invitationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/system/normalize"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("invitation not found")
	// ErrDuplicatePending means a pending invitation already exists for the
	// (email, company) pair.
	ErrDuplicatePending = errors.New("a pending invitation already exists for this email")
	// ErrNotPending is returned by state transitions when the invitation has
	// already left the pending state.
	ErrNotPending = errors.New("invitation is no longer pending")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("invitations")}
}

// Create inserts a pending invitation. The partial unique index on
// (email, company_id) where status is pending turns a second concurrent
// issue into ErrDuplicatePending.
func (s *Store) Create(ctx context.Context, inv models.Invitation) (models.Invitation, error) {
	now := time.Now().UTC()
	inv.ID = primitive.NewObjectID()
	inv.Email = normalize.Email(inv.Email)
	inv.Status = models.InvitationPending
	inv.CreatedAt = now
	inv.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Invitation{}, ErrDuplicatePending
		}
		return models.Invitation{}, err
	}
	return inv, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Invitation, error) {
	var inv models.Invitation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// FindPending returns the pending, unexpired invitation for (email, company).
func (s *Store) FindPending(ctx context.Context, email string, companyID primitive.ObjectID, now time.Time) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.c.FindOne(ctx, bson.M{
		"email":      normalize.Email(email),
		"company_id": companyID,
		"status":     models.InvitationPending,
		"expires_at": bson.M{"$gt": now},
	}).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ExpirePending flips a stale pending invitation for (email, company) to
// expired so a fresh one can take its slot in the unique index.
func (s *Store) ExpirePending(ctx context.Context, email string, companyID primitive.ObjectID, now time.Time) error {
	_, err := s.c.UpdateMany(ctx, bson.M{
		"email":      normalize.Email(email),
		"company_id": companyID,
		"status":     models.InvitationPending,
		"expires_at": bson.M{"$lte": now},
	}, bson.M{"$set": bson.M{"status": models.InvitationExpired, "updated_at": now}})
	return err
}

// ExpireStale marks every pending invitation whose TTL elapsed as expired
// and returns how many changed.
func (s *Store) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx, bson.M{
		"status":     models.InvitationPending,
		"expires_at": bson.M{"$lte": now},
	}, bson.M{"$set": bson.M{"status": models.InvitationExpired, "updated_at": now}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// MarkAccepted moves a pending invitation to accepted. Re-running it for the
// same user is a no-op so the call is safe to retry outside a transaction.
func (s *Store) MarkAccepted(ctx context.Context, id, userID primitive.ObjectID, now time.Time) error {
	res, err := s.c.UpdateOne(ctx, bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"status": models.InvitationPending},
			bson.M{"status": models.InvitationAccepted, "accepted_by_id": userID},
		},
	}, bson.M{"$set": bson.M{
		"status":         models.InvitationAccepted,
		"accepted_at":    now,
		"accepted_by_id": userID,
		"updated_at":     now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotPending
	}
	return nil
}

// Revoke cancels a pending invitation within companyID.
func (s *Store) Revoke(ctx context.Context, companyID, id primitive.ObjectID, now time.Time) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "company_id": companyID, "status": models.InvitationPending},
		bson.M{"$set": bson.M{"status": models.InvitationRevoked, "revoked_at": now, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&inv)
	if err == nil {
		return &inv, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id, "company_id": companyID})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrNotPending
}

// ListByCompany returns invitations for companyID, newest first. An empty
// status lists all.
func (s *Store) ListByCompany(ctx context.Context, companyID primitive.ObjectID, status string) ([]models.Invitation, error) {
	filter := bson.M{"company_id": companyID}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Invitation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
