// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventLoginSuccess        = "login_success"
	EventLoginFailedDisabled = "login_failed_user_disabled"
	EventLogout              = "logout"
	EventIntegrationLinked   = "integration_connected"
	EventIntegrationUnlinked = "integration_disconnected"
)

// Admin event types
const (
	EventCompanyCreated       = "company_created"
	EventCompanySettings      = "company_settings_updated"
	EventCompanyJoined        = "company_joined"
	EventMemberRoleChanged    = "member_role_changed"
	EventInvitationIssued     = "invitation_issued"
	EventInvitationAccepted   = "invitation_accepted"
	EventInvitationRevoked    = "invitation_revoked"
	EventDocumentApproved     = "document_approved"
	EventDocumentRejected     = "document_rejected"
	EventDocumentDeleted      = "document_deleted"
	EventPolicyUploaded       = "policy_uploaded"
	EventPolicyDeleted        = "policy_deleted"
	EventOnboardingCompleted  = "onboarding_completed"
	EventOnboardingTasksReset = "onboarding_tasks_set"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
	CompanyID *primitive.ObjectID `bson:"company_id,omitempty" json:"companyId,omitempty"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"eventType"`

	UserID  *primitive.ObjectID `bson:"user_id,omitempty" json:"userId,omitempty"`   // affected user
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty" json:"actorId,omitempty"` // who performed the action

	IP        string `bson:"ip" json:"ip"`
	UserAgent string `bson:"user_agent,omitempty" json:"userAgent,omitempty"`

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	CompanyID *primitive.ObjectID
	UserID    *primitive.ObjectID
	Category  string
	EventType string
	Since     *time.Time
	// Before pages backwards: only events with a smaller _id are returned.
	Before *primitive.ObjectID
	Limit  int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query retrieves audit events matching the filter, newest first. IDs are
// assigned at write time, so _id order is insertion order.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	query := bson.M{}
	if filter.CompanyID != nil {
		query["company_id"] = *filter.CompanyID
	}
	if filter.UserID != nil {
		query["user_id"] = *filter.UserID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.Since != nil {
		query["timestamp"] = bson.M{"$gte": *filter.Since}
	}
	if filter.Before != nil {
		query["_id"] = bson.M{"$lt": *filter.Before}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
