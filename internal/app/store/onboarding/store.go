package onboardingstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/onboardhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("onboarding record not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("onboarding_records")}
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.OnboardingRecord, error) {
	var rec models.OnboardingRecord
	if err := s.c.FindOne(ctx, filter).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Get returns the record for (companyID, employeeID).
func (s *Store) Get(ctx context.Context, companyID, employeeID primitive.ObjectID) (*models.OnboardingRecord, error) {
	return s.findOne(ctx, bson.M{"company_id": companyID, "employee_id": employeeID})
}

// FindByDocument returns the record within companyID that holds documentID.
func (s *Store) FindByDocument(ctx context.Context, companyID, documentID primitive.ObjectID) (*models.OnboardingRecord, error) {
	return s.findOne(ctx, bson.M{"company_id": companyID, "documents.id": documentID})
}

// Ensure returns the record for (companyID, employeeID), inserting seed when
// none exists. Concurrent callers converge on one record through the unique
// (company_id, employee_id) index.
func (s *Store) Ensure(ctx context.Context, seed models.OnboardingRecord) (*models.OnboardingRecord, error) {
	now := time.Now().UTC()
	if seed.Status == "" {
		seed.Status = models.OnboardingNotStarted
	}
	if seed.Tasks == nil {
		seed.Tasks = []models.OnboardingTask{}
	}
	if seed.Policies == nil {
		seed.Policies = []models.PolicyAcknowledge{}
	}
	if seed.Documents == nil {
		seed.Documents = []models.OnboardingDocument{}
	}

	filter := bson.M{"company_id": seed.CompanyID, "employee_id": seed.EmployeeID}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":        primitive.NewObjectID(),
		"status":     seed.Status,
		"tasks":      seed.Tasks,
		"policies":   seed.Policies,
		"documents":  seed.Documents,
		"started_at": seed.StartedAt,
		"created_at": now,
		"updated_at": now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var rec models.OnboardingRecord
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return s.Get(ctx, seed.CompanyID, seed.EmployeeID)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Replace overwrites a record. The last writer wins.
func (s *Store) Replace(ctx context.Context, rec *models.OnboardingRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": rec.ID, "company_id": rec.CompanyID}, rec)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns records in companyID, optionally filtered by status, most
// recently updated first.
func (s *Store) List(ctx context.Context, companyID primitive.ObjectID, status string) ([]models.OnboardingRecord, error) {
	filter := bson.M{"company_id": companyID}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.OnboardingRecord{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
