// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/onboardhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	steps := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"companies", ensureCompanies},
		{"invitations", ensureInvitations},
		{"onboarding_records", ensureOnboardingRecords},
		{"documents.files", ensureDocumentFiles},
		{"oauth_states", ensureOAuthStates},
		{"audit_events", ensureAuditEvents},
	}
	for _, s := range steps {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name    string `bson:"name"`
	Key     bson.D `bson:"key"`
	Unique  *bool  `bson:"unique,omitempty"`
	Partial bson.D `bson:"partialFilterExpression,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool {
	return b != nil && *b
}

// partialSig renders a partial filter so changes to it count as a mismatch.
func partialSig(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// ensureIndexSet creates each desired index. An existing index with the same
// keys is reused when its name, uniqueness and partial filter match, and is
// dropped and recreated otherwise.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, want []mongo.IndexModel) error {
	var errs []string

	existing, err := listExisting(ctx, coll)
	if err != nil {
		// A collection that does not exist yet lists no indexes; creation
		// below will make it.
		existing = map[string]existingIndex{}
	}

	for _, m := range want {
		var name string
		var unique bool
		var partial string
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = boolVal(m.Options.Unique)
			partial = partialSig(m.Options.PartialFilterExpression)
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			exPartial := ""
			if len(ex.Partial) > 0 {
				exPartial = partialSig(ex.Partial)
			}
			same := boolVal(ex.Unique) == unique &&
				(name == "" || ex.Name == name) &&
				(partial == "" || exPartial != "")
			if same {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", sig))
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), ex.Name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if unique && isDuplicateKeyErr(err) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Members list: company-scoped, sorted by folded name.
		{
			Keys: bson.D{
				{Key: "company_id", Value: 1},
				{Key: "full_name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_users_company_fullnameci_id"),
		},
	})
}

func ensureCompanies(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("companies"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "domain", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_companies_domain"),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_companies_nameci__id"),
		},
	})
}

func ensureInvitations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("invitations"), []mongo.IndexModel{
		// At most one pending invitation per (email, company).
		{
			Keys: bson.D{{Key: "email", Value: 1}, {Key: "company_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "status", Value: models.InvitationPending}}).
				SetName("uniq_invitations_pending_email_company"),
		},
		{
			Keys: bson.D{
				{Key: "company_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_invitations_company_status_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_invitations_status_expires"),
		},
	})
}

func ensureOnboardingRecords(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("onboarding_records"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "employee_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_onboarding_company_employee"),
		},
		{
			Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_onboarding_company_status"),
		},
		{
			Keys:    bson.D{{Key: "documents.id", Value: 1}},
			Options: options.Index().SetName("idx_onboarding_document_id"),
		},
	})
}

func ensureDocumentFiles(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("documents.files"), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "metadata.company_id", Value: 1},
				{Key: "metadata.category", Value: 1},
				{Key: "uploadDate", Value: -1},
			},
			Options: options.Index().SetName("idx_docfiles_company_category_uploaded"),
		},
		{
			Keys:    bson.D{{Key: "metadata.company_id", Value: 1}, {Key: "metadata.owner_id", Value: 1}},
			Options: options.Index().SetName("idx_docfiles_company_owner"),
		},
		{
			Keys:    bson.D{{Key: "metadata.policy_text.original_file_id", Value: 1}},
			Options: options.Index().SetName("idx_docfiles_policytext_original"),
		},
	})
}

func ensureOAuthStates(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("oauth_states"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_oauth_state"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_oauth_ttl"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_audit_company_id"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	})
}
