// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// State is a single-use OAuth2 state token. Provider binds the token to
// the flow that issued it so a Google state cannot complete a GitHub
// callback.
type State struct {
	State     string    `bson:"state"`
	Provider  string    `bson:"provider"`
	ReturnURL string    `bson:"return_url,omitempty"`
	UserID    string    `bson:"user_id,omitempty"` // set for integration flows
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store manages OAuth2 state tokens in MongoDB.
type Store struct {
	c *mongo.Collection
}

// New creates a new OAuth state Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}

// Save stores a state token.
func (s *Store) Save(ctx context.Context, st State) error {
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, st)
	return err
}

// Validate consumes a state token issued for provider. It returns the stored
// state and true when the token existed and had not expired; the token is
// deleted either way it matched.
func (s *Store) Validate(ctx context.Context, state, provider string) (*State, bool, error) {
	var st State
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"provider":   provider,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&st)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &st, true, nil
}

// CleanupExpired removes expired state tokens. This backs up the TTL index
// when its background pass is delayed.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.c.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lt": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
