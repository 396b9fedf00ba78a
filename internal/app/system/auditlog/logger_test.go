package auditlog_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/onboardhub/internal/app/store/audit"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLog_NilLoggerIsNoop(t *testing.T) {
	var l *auditlog.Logger
	l.Log(context.Background(), audit.Event{Category: audit.CategoryAuth})
}

func TestLog_LogModeWritesZapOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: "log", Admin: "off"})

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.9:41000"
	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	l.LoginSuccess(context.Background(), req, primitive.NewObjectID(), nil, "google", "ana@acme.test")
	l.Admin(context.Background(), req, auditlog.Action{EventType: audit.EventInvitationIssued, ActorID: primitive.NewObjectID()})

	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 zap entry (admin is off), got %d", len(entries))
	}
	if ip := entries[0].ContextMap()["ip"]; ip != "203.0.113.9" {
		t.Errorf("expected the peer address, got %v", ip)
	}
}

func TestLog_DBModePersists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	l := auditlog.New(audit.New(db), zap.NewNop(), auditlog.Config{Auth: "off", Admin: "db"})
	company := primitive.NewObjectID()
	target := primitive.NewObjectID()

	l.Admin(ctx, httptest.NewRequest("POST", "/", nil), auditlog.Action{
		EventType: audit.EventDocumentRejected,
		ActorID:   primitive.NewObjectID(),
		CompanyID: company,
		TargetID:  &target,
		Details:   map[string]string{"reason": "blurry"},
	})

	n, err := db.Collection("audit_events").CountDocuments(ctx, bson.M{
		"company_id": company,
		"event_type": audit.EventDocumentRejected,
		"user_id":    target,
	})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 stored event, got %d", n)
	}
}

func TestValidMode(t *testing.T) {
	for _, m := range []string{"all", "db", "log", "off", "ALL"} {
		if !auditlog.ValidMode(m) {
			t.Errorf("expected %q valid", m)
		}
	}
	if auditlog.ValidMode("verbose") {
		t.Error("expected verbose invalid")
	}
}
