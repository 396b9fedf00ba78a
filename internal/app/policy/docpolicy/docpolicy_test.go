package docpolicy_test

import (
	"testing"

	"github.com/dalemusser/onboardhub/internal/app/policy/docpolicy"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func file(category string, company, owner primitive.ObjectID, status string) *models.StoredFile {
	return &models.StoredFile{
		ID:       primitive.NewObjectID(),
		Metadata: models.FileMetadata{Category: category, CompanyID: company, OwnerID: owner, Status: status},
	}
}

func TestCanView(t *testing.T) {
	company := primitive.NewObjectID()
	emp := authz.Actor{UserID: primitive.NewObjectID(), CompanyID: company, Role: models.RoleEmployee}
	hr := authz.Actor{UserID: primitive.NewObjectID(), CompanyID: company, Role: models.RoleHRManager}
	outsider := authz.Actor{UserID: primitive.NewObjectID(), CompanyID: primitive.NewObjectID(), Role: models.RoleCompanyAdmin}

	own := file(models.CategoryEmployeeDocument, company, emp.UserID, models.DocumentPending)
	other := file(models.CategoryEmployeeDocument, company, primitive.NewObjectID(), models.DocumentPending)
	policy := file(models.CategoryPolicy, company, hr.UserID, "")

	assert.True(t, docpolicy.CanView(emp, own))
	assert.False(t, docpolicy.CanView(emp, other))
	assert.True(t, docpolicy.CanView(hr, other))
	assert.True(t, docpolicy.CanView(emp, policy))
	assert.False(t, docpolicy.CanView(outsider, policy), "other tenants never see files")
	assert.False(t, docpolicy.CanView(emp, nil))
}

func TestCheckDelete(t *testing.T) {
	company := primitive.NewObjectID()
	emp := authz.Actor{UserID: primitive.NewObjectID(), CompanyID: company, Role: models.RoleEmployee}
	hr := authz.Actor{UserID: primitive.NewObjectID(), CompanyID: company, Role: models.RoleHRManager}

	pending := file(models.CategoryEmployeeDocument, company, emp.UserID, models.DocumentPending)
	verified := file(models.CategoryEmployeeDocument, company, emp.UserID, models.DocumentVerified)
	policy := file(models.CategoryPolicy, company, hr.UserID, "")
	text := file(models.CategoryPolicyText, company, hr.UserID, "")

	assert.NoError(t, docpolicy.CheckDelete(emp, pending))
	assert.NoError(t, docpolicy.CheckDelete(hr, pending))
	assert.True(t, apperr.Is(docpolicy.CheckDelete(emp, verified), apperr.Conflict))
	assert.True(t, apperr.Is(docpolicy.CheckDelete(hr, verified), apperr.Conflict))
	assert.True(t, apperr.Is(docpolicy.CheckDelete(emp, policy), apperr.Forbidden))
	assert.NoError(t, docpolicy.CheckDelete(hr, policy))
	assert.True(t, apperr.Is(docpolicy.CheckDelete(hr, text), apperr.Validation))

	stranger := authz.Actor{UserID: primitive.NewObjectID(), CompanyID: primitive.NewObjectID(), Role: models.RoleHRManager}
	assert.True(t, apperr.Is(docpolicy.CheckDelete(stranger, pending), apperr.NotFound))
}

func TestListOwner(t *testing.T) {
	emp := authz.Actor{UserID: primitive.NewObjectID(), Role: models.RoleEmployee}
	hr := authz.Actor{UserID: primitive.NewObjectID(), Role: models.RoleHRManager}

	if got := docpolicy.ListOwner(emp, models.CategoryResume); got == nil || *got != emp.UserID {
		t.Errorf("employee should be limited to own resumes, got %v", got)
	}
	assert.Nil(t, docpolicy.ListOwner(hr, models.CategoryResume))
	assert.Nil(t, docpolicy.ListOwner(emp, models.CategoryPolicy))
}
