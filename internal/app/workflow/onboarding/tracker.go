// Package onboarding tracks each employee's progress through their company's
// onboarding: checklist tasks, policy acknowledgments and submitted
// documents. A record moves not_started → in_progress → completed and never
// moves back.
package onboarding

import (
	"context"
	"errors"
	"time"

	onboardingstore "github.com/dalemusser/onboardhub/internal/app/store/onboarding"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// PolicySource lists the policies a company currently publishes.
type PolicySource interface {
	Policies(ctx context.Context, companyID primitive.ObjectID) ([]models.PolicyAcknowledge, error)
}

// Tracker applies onboarding transitions to stored records. Timestamps are
// kept at millisecond precision to match what MongoDB stores.
type Tracker struct {
	records  *onboardingstore.Store
	policies PolicySource
	policy   CompletionPolicy
	log      *zap.Logger
	now      func() time.Time
}

func NewTracker(records *onboardingstore.Store, policies PolicySource, policy CompletionPolicy, logger *zap.Logger) *Tracker {
	if policy == "" {
		policy = DefaultCompletionPolicy
	}
	return &Tracker{
		records:  records,
		policies: policies,
		policy:   policy,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// CompletionPolicy returns the configured predicate.
func (t *Tracker) CompletionPolicy() CompletionPolicy {
	return t.policy
}

func notFound(err error, msg string) error {
	if errors.Is(err, onboardingstore.ErrNotFound) {
		return apperr.NewNotFound(msg)
	}
	return apperr.NewInternal("onboarding store failure", err)
}

// ensure loads or creates the record, seeding the default checklist and the
// company's current policies.
func (t *Tracker) ensure(ctx context.Context, companyID, employeeID primitive.ObjectID) (*models.OnboardingRecord, error) {
	if rec, err := t.records.Get(ctx, companyID, employeeID); err == nil {
		return rec, nil
	} else if !errors.Is(err, onboardingstore.ErrNotFound) {
		return nil, apperr.NewInternal("onboarding store failure", err)
	}

	seed := models.OnboardingRecord{
		CompanyID:  companyID,
		EmployeeID: employeeID,
		Status:     models.OnboardingNotStarted,
		Tasks:      DefaultTasks(),
	}
	if t.policies != nil {
		pols, err := t.policies.Policies(ctx, companyID)
		if err != nil {
			t.log.Warn("could not load policies for new onboarding record",
				zap.String("company_id", companyID.Hex()), zap.Error(err))
		}
		seed.Policies = pols
	}
	rec, err := t.records.Ensure(ctx, seed)
	if err != nil {
		return nil, apperr.NewInternal("onboarding store failure", err)
	}
	return rec, nil
}

// begin moves a not_started record to in_progress.
func (t *Tracker) begin(rec *models.OnboardingRecord, now time.Time) {
	if rec.Status == models.OnboardingNotStarted {
		rec.Status = models.OnboardingInProgress
		if rec.StartedAt == nil {
			rec.StartedAt = &now
		}
	}
}

// settle completes rec when the policy is met. Completion is never undone.
func (t *Tracker) settle(rec *models.OnboardingRecord, now time.Time) {
	if rec.Status == models.OnboardingCompleted {
		return
	}
	if t.policy.Satisfied(rec) {
		t.begin(rec, now)
		rec.Status = models.OnboardingCompleted
		rec.CompletedAt = &now
	}
}

func (t *Tracker) save(ctx context.Context, rec *models.OnboardingRecord) error {
	if err := t.records.Replace(ctx, rec); err != nil {
		return notFound(err, "onboarding record not found")
	}
	return nil
}

// Start creates the record if needed and marks it in progress. Calling it on
// a started or completed record changes nothing.
func (t *Tracker) Start(ctx context.Context, companyID, employeeID primitive.ObjectID) (*models.OnboardingRecord, error) {
	rec, err := t.ensure(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.OnboardingNotStarted {
		return rec, nil
	}
	t.begin(rec, t.now())
	if err := t.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns the employee's record.
func (t *Tracker) Get(ctx context.Context, companyID, employeeID primitive.ObjectID) (*models.OnboardingRecord, error) {
	rec, err := t.records.Get(ctx, companyID, employeeID)
	if err != nil {
		return nil, notFound(err, "onboarding record not found")
	}
	return rec, nil
}

// List returns the company's records, optionally filtered by status.
func (t *Tracker) List(ctx context.Context, companyID primitive.ObjectID, status string) ([]models.OnboardingRecord, error) {
	switch status {
	case "", models.OnboardingNotStarted, models.OnboardingInProgress, models.OnboardingCompleted:
	default:
		return nil, apperr.NewValidation("status must be one of: not_started, in_progress, completed")
	}
	recs, err := t.records.List(ctx, companyID, status)
	if err != nil {
		return nil, apperr.NewInternal("onboarding store failure", err)
	}
	return recs, nil
}

// RecordTaskCompletion marks taskID completed. Repeating it is a no-op.
func (t *Tracker) RecordTaskCompletion(ctx context.Context, companyID, employeeID primitive.ObjectID, taskID string) (*models.OnboardingRecord, error) {
	rec, err := t.Get(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range rec.Tasks {
		if rec.Tasks[i].ID == taskID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperr.NewNotFound("task not found")
	}
	if rec.Tasks[idx].Status == models.TaskCompleted {
		return rec, nil
	}

	now := t.now()
	rec.Tasks[idx].Status = models.TaskCompleted
	rec.Tasks[idx].CompletedAt = &now
	t.begin(rec, now)
	t.settle(rec, now)
	if err := t.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// RecordPolicyAcknowledgment acknowledges policyName. Policies published after
// the record was created are picked up from the PolicySource. Repeating it is
// a no-op.
func (t *Tracker) RecordPolicyAcknowledgment(ctx context.Context, companyID, employeeID primitive.ObjectID, policyName string) (*models.OnboardingRecord, error) {
	rec, err := t.Get(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range rec.Policies {
		if rec.Policies[i].Name == policyName {
			idx = i
			break
		}
	}
	if idx < 0 && t.policies != nil {
		pols, err := t.policies.Policies(ctx, companyID)
		if err != nil {
			return nil, apperr.NewInternal("could not load policies", err)
		}
		for _, p := range pols {
			if p.Name == policyName {
				rec.Policies = append(rec.Policies, p)
				idx = len(rec.Policies) - 1
				break
			}
		}
	}
	if idx < 0 {
		return nil, apperr.NewNotFound("policy not found")
	}
	if rec.Policies[idx].Acknowledged {
		return rec, nil
	}

	now := t.now()
	rec.Policies[idx].Acknowledged = true
	rec.Policies[idx].AcknowledgedAt = &now
	t.begin(rec, now)
	t.settle(rec, now)
	if err := t.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// SubmitDocument attaches doc, replacing any document of the same type, and
// starts the record if needed. The replaced entry, if any, is returned so the
// caller can remove its file. A verified document is never replaced: that
// type answers Conflict.
func (t *Tracker) SubmitDocument(ctx context.Context, companyID, employeeID primitive.ObjectID, doc models.OnboardingDocument) (*models.OnboardingRecord, *models.OnboardingDocument, error) {
	rec, err := t.ensure(ctx, companyID, employeeID)
	if err != nil {
		return nil, nil, err
	}

	now := t.now()
	if doc.Status == "" {
		doc.Status = models.DocumentPending
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = now
	}

	var replaced *models.OnboardingDocument
	kept := rec.Documents[:0:0]
	for _, d := range rec.Documents {
		if d.Type == doc.Type {
			if d.Status == models.DocumentVerified {
				return nil, nil, apperr.NewConflict("a verified document of this type is already on file")
			}
			prev := d
			replaced = &prev
			continue
		}
		kept = append(kept, d)
	}
	rec.Documents = append(kept, doc)
	t.begin(rec, now)

	if err := t.save(ctx, rec); err != nil {
		return nil, nil, err
	}
	return rec, replaced, nil
}

// Review is an HR decision on one document.
type Review struct {
	Approve      bool
	ReviewerID   primitive.ObjectID
	ReviewerName string
	Reason       string
}

// ReviewDocument verifies or rejects a pending document. Rejection requires a
// reason and leaves the record open.
func (t *Tracker) ReviewDocument(ctx context.Context, companyID, documentID primitive.ObjectID, rv Review) (*models.OnboardingRecord, error) {
	if !rv.Approve && rv.Reason == "" {
		return nil, apperr.NewValidation("a reason is required to reject a document")
	}
	rec, err := t.records.FindByDocument(ctx, companyID, documentID)
	if err != nil {
		return nil, notFound(err, "document not found")
	}

	var doc *models.OnboardingDocument
	for i := range rec.Documents {
		if rec.Documents[i].ID == documentID {
			doc = &rec.Documents[i]
			break
		}
	}
	if doc == nil {
		return nil, apperr.NewNotFound("document not found")
	}
	if doc.Status != models.DocumentPending {
		return nil, apperr.NewConflict("document has already been reviewed")
	}

	now := t.now()
	reviewer := rv.ReviewerID
	doc.VerifiedByID = &reviewer
	doc.VerifiedByName = rv.ReviewerName
	doc.VerifiedAt = &now
	if rv.Approve {
		doc.Status = models.DocumentVerified
		doc.RejectionReason = ""
	} else {
		doc.Status = models.DocumentRejected
		doc.RejectionReason = rv.Reason
	}
	t.begin(rec, now)
	t.settle(rec, now)

	if err := t.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// RemoveDocument detaches an unverified document from its record and returns
// it.
func (t *Tracker) RemoveDocument(ctx context.Context, companyID, documentID primitive.ObjectID) (*models.OnboardingDocument, error) {
	rec, err := t.records.FindByDocument(ctx, companyID, documentID)
	if err != nil {
		return nil, notFound(err, "document not found")
	}
	var removed *models.OnboardingDocument
	kept := rec.Documents[:0:0]
	for _, d := range rec.Documents {
		if d.ID == documentID {
			prev := d
			removed = &prev
			continue
		}
		kept = append(kept, d)
	}
	if removed == nil {
		return nil, apperr.NewNotFound("document not found")
	}
	if removed.Status == models.DocumentVerified {
		return nil, apperr.NewConflict("verified documents cannot be deleted")
	}
	rec.Documents = kept
	if err := t.save(ctx, rec); err != nil {
		return nil, err
	}
	return removed, nil
}

// SetTasks replaces the employee's checklist. Tasks keep their completion
// state when their ID is resubmitted.
func (t *Tracker) SetTasks(ctx context.Context, companyID, employeeID primitive.ObjectID, tasks []TaskInput) (*models.OnboardingRecord, error) {
	rec, err := t.ensure(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	now := t.now()
	rec.Tasks = buildTasks(tasks, rec.Tasks)
	if rec.Status != models.OnboardingNotStarted {
		t.settle(rec, now)
	}
	if err := t.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
