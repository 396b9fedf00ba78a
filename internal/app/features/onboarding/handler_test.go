package onboarding_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	apierrors "github.com/dalemusser/onboardhub/internal/app/features/errors"
	"github.com/dalemusser/onboardhub/internal/app/features/onboarding"
	onboardingstore "github.com/dalemusser/onboardhub/internal/app/store/onboarding"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	onboardingwf "github.com/dalemusser/onboardhub/internal/app/workflow/onboarding"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"github.com/dalemusser/onboardhub/internal/testutil"
	"go.uber.org/zap"
)

type env struct {
	h       *onboarding.Handler
	tracker *onboardingwf.Tracker
	fx      *testutil.Fixtures
	company models.Company
	hr      models.User
	emp     models.User
}

func newEnv(t *testing.T, policy onboardingwf.CompletionPolicy) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	tracker := onboardingwf.NewTracker(onboardingstore.New(db), nil, policy, logger)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fx.CreateCompany(ctx, "Acme", "acme.test")
	e := env{
		h:       onboarding.NewHandler(db, tracker, apierrors.NewErrorLogger(logger), auditlog.NewNopLogger(), logger),
		tracker: tracker,
		fx:      fx,
		company: company,
		hr:      fx.CreateUser(ctx, "Hana", "hana@acme.test", models.RoleHRManager, &company.ID),
		emp:     fx.CreateUser(ctx, "Eli", "eli@acme.test", models.RoleEmployee, &company.ID),
	}
	if _, err := tracker.Start(ctx, company.ID, e.emp.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return e
}

func (e env) complete(t *testing.T, taskID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/onboarding/me/tasks/"+taskID+"/complete", nil)
	req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.FromModel(e.emp)), "taskId", taskID)
	rec := httptest.NewRecorder()
	e.h.HandleCompleteTask(rec, req)
	return rec
}

func (e env) setTasks(t *testing.T, caller testutil.TestUser, employeeID string, tasks any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.JSONRequest(t, "PUT", "/api/onboarding/"+employeeID+"/tasks", tasks)
	req = testutil.WithChiURLParam(testutil.WithUser(req, caller), "employeeId", employeeID)
	rec := httptest.NewRecorder()
	e.h.HandleSetTasks(rec, req)
	return rec
}

func TestServeMine(t *testing.T) {
	e := newEnv(t, onboardingwf.SingleApprovedDocument)

	rec := httptest.NewRecorder()
	e.h.ServeMine(rec, testutil.WithUser(httptest.NewRequest("GET", "/api/onboarding/me", nil), testutil.FromModel(e.emp)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var r models.OnboardingRecord
	testutil.DecodeEnvelope(t, rec, &r)
	if r.Status != models.OnboardingInProgress || len(r.Tasks) == 0 {
		t.Errorf("expected started record with default tasks, got %+v", r)
	}

	rec = httptest.NewRecorder()
	e.h.ServeMine(rec, testutil.WithUser(httptest.NewRequest("GET", "/api/onboarding/me", nil), testutil.FromModel(e.hr)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("user without record: expected 404, got %d", rec.Code)
	}
}

func TestCompleteTask_Idempotent(t *testing.T) {
	e := newEnv(t, onboardingwf.SingleApprovedDocument)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	before, err := e.tracker.Get(ctx, e.company.ID, e.emp.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	taskID := before.Tasks[0].ID

	var first, second models.OnboardingRecord
	rec := e.complete(t, taskID)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d", rec.Code)
	}
	testutil.DecodeEnvelope(t, rec, &first)
	rec = e.complete(t, taskID)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat: expected 200, got %d", rec.Code)
	}
	testutil.DecodeEnvelope(t, rec, &second)

	if first.Tasks[0].CompletedAt == nil || !first.Tasks[0].CompletedAt.Equal(*second.Tasks[0].CompletedAt) {
		t.Error("repeating a completion must not move its timestamp")
	}
	if rec := e.complete(t, "no-such-task"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown task: expected 404, got %d", rec.Code)
	}
}

func TestAcknowledgePolicy_Validation(t *testing.T) {
	e := newEnv(t, onboardingwf.SingleApprovedDocument)

	ack := func(body any) int {
		req := testutil.WithUser(testutil.JSONRequest(t, "POST", "/api/onboarding/me/policies/acknowledge", body), testutil.FromModel(e.emp))
		rec := httptest.NewRecorder()
		e.h.HandleAcknowledgePolicy(rec, req)
		return rec.Code
	}
	if code := ack(map[string]any{"policyName": "  "}); code != http.StatusBadRequest {
		t.Errorf("blank name: expected 400, got %d", code)
	}
	if code := ack(map[string]any{"policyName": "Nonexistent"}); code != http.StatusNotFound {
		t.Errorf("unknown policy: expected 404, got %d", code)
	}
}

func TestSetTasks_AllRequiredItemsCompletes(t *testing.T) {
	e := newEnv(t, onboardingwf.AllRequiredItems)
	hr := testutil.FromModel(e.hr)
	empID := e.emp.ID.Hex()

	if rec := e.setTasks(t, testutil.FromModel(e.emp), empID, []map[string]any{{"title": "x"}}); rec.Code != http.StatusForbidden {
		t.Errorf("employee caller: expected 403, got %d", rec.Code)
	}
	if rec := e.setTasks(t, hr, empID, []map[string]any{{"title": ""}}); rec.Code != http.StatusBadRequest {
		t.Errorf("blank title: expected 400, got %d", rec.Code)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	other := e.fx.CreateCompany(ctx, "Other", "other.test")
	outsider := e.fx.CreateUser(ctx, "Zed", "zed@other.test", models.RoleEmployee, &other.ID)
	if rec := e.setTasks(t, hr, outsider.ID.Hex(), []map[string]any{{"title": "x"}}); rec.Code != http.StatusNotFound {
		t.Errorf("other tenant's employee: expected 404, got %d", rec.Code)
	}

	rec := e.setTasks(t, hr, empID, []map[string]any{
		{"title": "Sign <b>contract</b>", "required": true},
		{"title": "Optional lunch", "required": false},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set tasks: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var r models.OnboardingRecord
	testutil.DecodeEnvelope(t, rec, &r)
	if len(r.Tasks) != 2 || r.Tasks[0].Title != "Sign contract" {
		t.Fatalf("unexpected tasks: %+v", r.Tasks)
	}

	rec = e.complete(t, r.Tasks[0].ID)
	testutil.DecodeEnvelope(t, rec, &r)
	if r.Status != models.OnboardingCompleted || r.CompletedAt == nil {
		t.Errorf("completing the only required task should complete onboarding, got %q", r.Status)
	}

	// Resubmitting keeps progress and never reopens the record.
	rec = e.setTasks(t, hr, empID, []map[string]any{
		{"id": r.Tasks[0].ID, "title": "Sign contract", "required": true},
		{"title": "New required step", "required": true},
	})
	testutil.DecodeEnvelope(t, rec, &r)
	if r.Tasks[0].Status != models.TaskCompleted {
		t.Error("resubmitted task lost its completion")
	}
	if r.Status != models.OnboardingCompleted {
		t.Errorf("completion must be monotonic, got %q", r.Status)
	}
}

func TestServeList_HR(t *testing.T) {
	e := newEnv(t, onboardingwf.SingleApprovedDocument)

	rec := httptest.NewRecorder()
	e.h.ServeList(rec, testutil.WithUser(httptest.NewRequest("GET", "/api/onboarding?status=in_progress", nil), testutil.FromModel(e.hr)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var recs []models.OnboardingRecord
	testutil.DecodeEnvelope(t, rec, &recs)
	if len(recs) != 1 || recs[0].EmployeeID != e.emp.ID {
		t.Errorf("unexpected list: %+v", recs)
	}

	rec = httptest.NewRecorder()
	e.h.ServeList(rec, testutil.WithUser(httptest.NewRequest("GET", "/api/onboarding?status=bogus", nil), testutil.FromModel(e.hr)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad status: expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.h.ServeList(rec, testutil.WithUser(httptest.NewRequest("GET", "/api/onboarding", nil), testutil.FromModel(e.emp)))
	if rec.Code != http.StatusForbidden {
		t.Errorf("employee: expected 403, got %d", rec.Code)
	}
}
