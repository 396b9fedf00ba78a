package userstore

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
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrOtherCompany is returned when a user already belongs to a different company.
	ErrOtherCompany = errors.New("user belongs to another company")
	errBadRole      = errors.New("unknown role")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetInCompany loads a user by ID only if they belong to companyID.
func (s *Store) GetInCompany(ctx context.Context, companyID, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id, "company_id": companyID})
}

// GetByEmail looks up a user by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// Create inserts a new user after normalizing fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = models.NormalizeRole(u.Role)
	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// OAuthProfile is the identity an OAuth provider vouches for.
type OAuthProfile struct {
	Method    string // e.g. "google"
	Subject   string // provider's stable user id
	Email     string
	Name      string
	AvatarURL string
}

// UpsertOAuthUser creates the user on first sign-in (role employee, no
// company) or refreshes profile fields and last_login_at on later ones.
func (s *Store) UpsertOAuthUser(ctx context.Context, p OAuthProfile) (*models.User, error) {
	now := time.Now().UTC()
	email := normalize.Email(p.Email)
	name := normalize.Name(p.Name)
	if name == "" {
		name = email
	}

	update := bson.M{
		"$set": bson.M{
			"full_name":      name,
			"full_name_ci":   text.Fold(name),
			"avatar_url":     p.AvatarURL,
			"auth_return_id": p.Subject,
			"last_login_at":  now,
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{
			"_id":         primitive.NewObjectID(),
			"email":       email,
			"auth_method": p.Method,
			"role":        models.RoleEmployee,
			"is_active":   true,
			"created_at":  now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&u)
	if err != nil && wafflemongo.IsDup(err) {
		// Lost an insert race on the unique email index; the row exists now.
		err = s.c.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&u)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Affiliation is what a user receives on joining a company.
type Affiliation struct {
	CompanyID  primitive.ObjectID
	Role       string
	Department string
	Position   string
}

// JoinCompany attaches the user to a company. It is idempotent: re-joining
// the same company succeeds, while joining a second company returns
// ErrOtherCompany. A super_admin keeps that role.
func (s *Store) JoinCompany(ctx context.Context, userID primitive.ObjectID, a Affiliation) error {
	// Pipeline update: caller-supplied strings go through $literal so a
	// leading "$" is not read as a field path.
	set := bson.M{
		"company_id": a.CompanyID,
		"role": bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{"$role", models.RoleSuperAdmin}},
			"$role",
			bson.M{"$literal": a.Role},
		}},
		"updated_at": time.Now().UTC(),
	}
	if a.Department != "" {
		set["department"] = bson.M{"$literal": a.Department}
	}
	if a.Position != "" {
		set["position"] = bson.M{"$literal": a.Position}
	}

	res, err := s.c.UpdateOne(ctx, bson.M{
		"_id":        userID,
		"company_id": bson.M{"$in": bson.A{nil, a.CompanyID}},
	}, bson.A{bson.M{"$set": set}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if _, err := s.GetByID(ctx, userID); err != nil {
		return err
	}
	return ErrOtherCompany
}

// UpdateRole changes a member's role within companyID.
func (s *Store) UpdateRole(ctx context.Context, companyID, userID primitive.ObjectID, role string) (*models.User, error) {
	role = models.NormalizeRole(role)
	if !models.IsValidRole(role) {
		return nil, errBadRole
	}
	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": userID, "company_id": companyID},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetRoleByEmail sets role on the user with email and detaches them from any
// company when detach is true. It returns ErrNotFound when no such user exists.
func (s *Store) SetRoleByEmail(ctx context.Context, email, role string, detach bool) error {
	update := bson.M{"$set": bson.M{"role": role, "is_active": true, "updated_at": time.Now().UTC()}}
	if detach {
		update["$unset"] = bson.M{"company_id": ""}
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"email": normalize.Email(email)}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsInCompany reports whether a user with email belongs to companyID.
func (s *Store) ExistsInCompany(ctx context.Context, companyID primitive.ObjectID, email string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"email":      normalize.Email(email),
		"company_id": companyID,
	}, options.Count().SetLimit(1))
	return n > 0, err
}

// ListByCompany returns every member of companyID sorted by name.
func (s *Store) ListByCompany(ctx context.Context, companyID primitive.ObjectID) ([]models.User, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"company_id": companyID},
		options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetByIDs returns the users among ids that exist, in no particular order.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"full_name": 1, "email": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
