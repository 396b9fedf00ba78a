package authz_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestHasHRAccess_Total(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{models.RoleSuperAdmin, true},
		{models.RoleCompanyAdmin, true},
		{models.RoleHRManager, true},
		{models.RoleEmployee, false},
		{"hr", false},
		{"admin", false},
		{"", false},
		{"HR_MANAGER", true},
		{"  company_admin ", true},
		{"root", false},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := authz.HasHRAccess(tt.role); got != tt.want {
				t.Errorf("HasHRAccess(%q) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestHasAccess_Matrix(t *testing.T) {
	caps := []authz.Capability{authz.CapEmployee, authz.CapHR, authz.CapAdmin}
	want := map[string][3]bool{
		models.RoleSuperAdmin:   {true, true, true},
		models.RoleCompanyAdmin: {true, true, true},
		models.RoleHRManager:    {true, true, false},
		models.RoleEmployee:     {true, false, false},
		"guest":                 {false, false, false},
	}
	for role, row := range want {
		for i, c := range caps {
			if got := authz.HasAccess(role, c); got != row[i] {
				t.Errorf("HasAccess(%q, %s) = %v, want %v", role, c, got, row[i])
			}
		}
	}
	if authz.HasAccess(models.RoleSuperAdmin, authz.Capability(99)) {
		t.Error("unknown capability must be denied")
	}
}

func TestHasAdminAccess(t *testing.T) {
	if !authz.HasAdminAccess(models.RoleCompanyAdmin) {
		t.Error("company_admin should have admin access")
	}
	if authz.HasAdminAccess(models.RoleHRManager) {
		t.Error("hr_manager should not have admin access")
	}
}

func TestCanGrantRole(t *testing.T) {
	tests := []struct {
		actor, target string
		want          bool
	}{
		{models.RoleHRManager, models.RoleEmployee, true},
		{models.RoleHRManager, models.RoleHRManager, true},
		{models.RoleHRManager, models.RoleCompanyAdmin, false},
		{models.RoleCompanyAdmin, models.RoleCompanyAdmin, true},
		{models.RoleSuperAdmin, models.RoleSuperAdmin, false},
		{models.RoleEmployee, models.RoleEmployee, false},
		{models.RoleCompanyAdmin, "owner", false},
	}
	for _, tt := range tests {
		if got := authz.CanGrantRole(tt.actor, tt.target); got != tt.want {
			t.Errorf("CanGrantRole(%q, %q) = %v, want %v", tt.actor, tt.target, got, tt.want)
		}
	}
}

func TestActorFrom(t *testing.T) {
	uid := primitive.NewObjectID()
	cid := primitive.NewObjectID()

	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := authz.ActorFrom(req); ok {
		t.Fatal("expected no actor without a user")
	}

	req = auth.WithTestUser(req, &auth.SessionUser{ID: uid.Hex(), CompanyID: cid.Hex(), Role: models.RoleHRManager})
	a, ok := authz.ActorFrom(req)
	if !ok {
		t.Fatal("expected actor")
	}
	if a.UserID != uid || a.CompanyID != cid || !a.HasCompany() {
		t.Errorf("unexpected actor: %+v", a)
	}

	bad := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: "not-an-id"})
	if _, ok := authz.ActorFrom(bad); ok {
		t.Error("malformed user id must fail closed")
	}
}

func TestRequire_DeniesWithoutCapability(t *testing.T) {
	handler := authz.Require(authz.CapHR)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		role string
		want int
	}{
		{models.RoleEmployee, http.StatusForbidden},
		{models.RoleHRManager, http.StatusOK},
		{models.RoleCompanyAdmin, http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/api/invitations", nil)
		req = auth.WithTestUser(req, &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: tt.role})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("role %q: expected %d, got %d", tt.role, tt.want, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/invitations", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without user, got %d", rec.Code)
	}
}
