// Package docpolicy decides who may read or remove a stored file.
//
// Rules, always within the caller's own company:
//   - Policies and their text are readable by every member; HR manages them
//   - Employee documents and resumes are readable by their owner and by HR
//   - Owners may delete their own documents; HR may delete any
//   - A verified employee document cannot be deleted by anyone
//   - Policy text is removed only together with its policy
package docpolicy

import (
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CanView reports whether a may download f.
func CanView(a authz.Actor, f *models.StoredFile) bool {
	if f == nil || f.Metadata.CompanyID != a.CompanyID {
		return false
	}
	switch f.Metadata.Category {
	case models.CategoryPolicy, models.CategoryPolicyText:
		return a.Can(authz.CapEmployee)
	case models.CategoryEmployeeDocument, models.CategoryResume:
		return f.Metadata.OwnerID == a.UserID || a.Can(authz.CapHR)
	default:
		return false
	}
}

// CheckDelete returns nil when a may delete f, otherwise a classified error.
func CheckDelete(a authz.Actor, f *models.StoredFile) error {
	if f == nil || f.Metadata.CompanyID != a.CompanyID {
		return apperr.NewNotFound("document not found")
	}
	switch f.Metadata.Category {
	case models.CategoryPolicy:
		return authz.Check(a, authz.CapHR)
	case models.CategoryPolicyText:
		return apperr.NewValidation("policy text is deleted together with its policy")
	case models.CategoryEmployeeDocument:
		if f.Metadata.OwnerID != a.UserID && !a.Can(authz.CapHR) {
			return apperr.NewForbidden("insufficient permissions")
		}
		if f.Metadata.Status == models.DocumentVerified {
			return apperr.NewConflict("verified documents cannot be deleted")
		}
		return nil
	case models.CategoryResume:
		if f.Metadata.OwnerID != a.UserID && !a.Can(authz.CapHR) {
			return apperr.NewForbidden("insufficient permissions")
		}
		return nil
	default:
		return apperr.NewForbidden("insufficient permissions")
	}
}

// ListOwner returns the owner filter applied when a lists category. Nil
// means every file of that category in the company is visible.
func ListOwner(a authz.Actor, category string) *primitive.ObjectID {
	switch category {
	case models.CategoryPolicy, models.CategoryPolicyText:
		return nil
	}
	if a.Can(authz.CapHR) {
		return nil
	}
	id := a.UserID
	return &id
}
