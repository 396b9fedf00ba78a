package memberpolicy_test

import (
	"testing"

	"github.com/dalemusser/onboardhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func member(company primitive.ObjectID, role string) *models.User {
	return &models.User{ID: primitive.NewObjectID(), CompanyID: &company, Role: role}
}

func TestCheckRoleChange(t *testing.T) {
	company := primitive.NewObjectID()
	hr := authz.Actor{UserID: primitive.NewObjectID(), CompanyID: company, Role: models.RoleHRManager}
	admin := authz.Actor{UserID: primitive.NewObjectID(), CompanyID: company, Role: models.RoleCompanyAdmin}

	tests := []struct {
		name   string
		actor  authz.Actor
		target *models.User
		role   string
		want   apperr.Kind
		ok     bool
	}{
		{"hr promotes employee", hr, member(company, models.RoleEmployee), models.RoleHRManager, 0, true},
		{"hr cannot grant admin", hr, member(company, models.RoleEmployee), models.RoleCompanyAdmin, apperr.Forbidden, false},
		{"admin grants admin", admin, member(company, models.RoleEmployee), models.RoleCompanyAdmin, 0, true},
		{"hr cannot demote admin", hr, member(company, models.RoleCompanyAdmin), models.RoleEmployee, apperr.Forbidden, false},
		{"nobody grants super admin", admin, member(company, models.RoleEmployee), models.RoleSuperAdmin, apperr.Forbidden, false},
		{"super admin untouchable", admin, member(company, models.RoleSuperAdmin), models.RoleEmployee, apperr.Forbidden, false},
		{"unknown role", admin, member(company, models.RoleEmployee), "hr", apperr.Validation, false},
		{"other company", admin, member(primitive.NewObjectID(), models.RoleEmployee), models.RoleHRManager, apperr.NotFound, false},
		{"self", admin, &models.User{ID: admin.UserID, CompanyID: &company, Role: models.RoleCompanyAdmin}, models.RoleEmployee, apperr.Forbidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := memberpolicy.CheckRoleChange(tt.actor, tt.target, tt.role)
			if tt.ok {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if !apperr.Is(err, tt.want) {
				t.Errorf("expected %s, got %v", tt.want, err)
			}
		})
	}
}

func TestCanList(t *testing.T) {
	company := primitive.NewObjectID()
	if memberpolicy.CanList(authz.Actor{CompanyID: company, Role: models.RoleEmployee}) {
		t.Error("employees must not list members")
	}
	if !memberpolicy.CanList(authz.Actor{CompanyID: company, Role: models.RoleHRManager}) {
		t.Error("hr managers should list members")
	}
	if memberpolicy.CanList(authz.Actor{Role: models.RoleSuperAdmin}) {
		t.Error("unaffiliated actors have no company to list")
	}
}
