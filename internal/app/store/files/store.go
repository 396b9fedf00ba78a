// Package filestore keeps tenant documents in a GridFS bucket. Every read is
// filtered by metadata.company_id so one tenant can never address another's
// files, even with a valid ObjectID.
package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/onboardhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BucketName is the GridFS bucket; its files live in "documents.files".
const BucketName = "documents"

var ErrNotFound = errors.New("file not found")

type Store struct {
	db    *mongo.Database
	files *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{db: db, files: db.Collection(BucketName + ".files")}
}

// bucket returns a fresh bucket handle. GridFS deadlines are per-handle
// state, so each operation gets its own.
func (s *Store) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(BucketName))
	if err != nil {
		return nil, err
	}
	if dl, ok := ctx.Deadline(); ok {
		if err := b.SetReadDeadline(dl); err != nil {
			return nil, err
		}
		if err := b.SetWriteDeadline(dl); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Upload writes data with meta attached and returns the new file ID.
// meta must pass Validate.
func (s *Store) Upload(ctx context.Context, data []byte, meta models.FileMetadata) (primitive.ObjectID, error) {
	if err := meta.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	b, err := s.bucket(ctx)
	if err != nil {
		return primitive.NilObjectID, err
	}
	name := fmt.Sprintf("%s-%s", uuid.New().String()[:8], SafeName(meta.OriginalName))
	id, err := b.UploadFromStream(name, bytes.NewReader(data), options.GridFSUpload().SetMetadata(meta))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("gridfs upload: %w", err)
	}
	return id, nil
}

// Get returns the file row for id within companyID.
func (s *Store) Get(ctx context.Context, companyID, id primitive.ObjectID) (*models.StoredFile, error) {
	var f models.StoredFile
	err := s.files.FindOne(ctx, bson.M{"_id": id, "metadata.company_id": companyID}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Download returns the row and contents of id within companyID. Files of
// other tenants are reported as ErrNotFound before any bytes are read.
func (s *Store) Download(ctx context.Context, companyID, id primitive.ObjectID) (*models.StoredFile, []byte, error) {
	f, err := s.Get(ctx, companyID, id)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.bucket(ctx)
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	buf.Grow(int(f.Length))
	if _, err := b.DownloadToStream(id, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("gridfs download: %w", err)
	}
	return f, buf.Bytes(), nil
}

// Delete removes id and its chunks if it belongs to companyID.
func (s *Store) Delete(ctx context.Context, companyID, id primitive.ObjectID) error {
	if _, err := s.Get(ctx, companyID, id); err != nil {
		return err
	}
	return s.remove(ctx, id)
}

// remove deletes without a tenant check. Callers have already resolved id
// inside the tenant.
func (s *Store) remove(ctx context.Context, id primitive.ObjectID) error {
	b, err := s.bucket(ctx)
	if err != nil {
		return err
	}
	if err := b.Delete(id); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("gridfs delete: %w", err)
	}
	return nil
}

// Rollback removes a file written moments earlier whose follow-up write
// failed.
func (s *Store) Rollback(ctx context.Context, id primitive.ObjectID) error {
	return s.remove(ctx, id)
}

// Filter narrows Find. Zero fields are ignored except CompanyID, which is
// always applied.
type Filter struct {
	CompanyID    primitive.ObjectID
	Category     string
	OwnerID      *primitive.ObjectID
	DocumentType string
}

// Find lists file rows, newest first.
func (s *Store) Find(ctx context.Context, f Filter) ([]models.StoredFile, error) {
	q := bson.M{"metadata.company_id": f.CompanyID}
	if f.Category != "" {
		q["metadata.category"] = f.Category
	}
	if f.OwnerID != nil {
		q["metadata.owner_id"] = *f.OwnerID
	}
	if f.DocumentType != "" {
		q["metadata.employee.document_type"] = f.DocumentType
	}
	cur, err := s.files.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "uploadDate", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.StoredFile{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindPolicyText returns the extracted-text sibling of policy originalID.
func (s *Store) FindPolicyText(ctx context.Context, companyID, originalID primitive.ObjectID) (*models.StoredFile, error) {
	var f models.StoredFile
	err := s.files.FindOne(ctx, bson.M{
		"metadata.company_id":                   companyID,
		"metadata.category":                     models.CategoryPolicyText,
		"metadata.policy_text.original_file_id": originalID,
	}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// LinkPolicyText records textID on the policy row id.
func (s *Store) LinkPolicyText(ctx context.Context, companyID, id, textID primitive.ObjectID) error {
	res, err := s.files.UpdateOne(ctx,
		bson.M{"_id": id, "metadata.company_id": companyID, "metadata.category": models.CategoryPolicy},
		bson.M{"$set": bson.M{"metadata.policy.text_file_id": textID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus mirrors an employee document's review status onto its row.
func (s *Store) SetStatus(ctx context.Context, companyID, id primitive.ObjectID, status string) error {
	res, err := s.files.UpdateOne(ctx,
		bson.M{"_id": id, "metadata.company_id": companyID},
		bson.M{"$set": bson.M{"metadata.status": status}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
