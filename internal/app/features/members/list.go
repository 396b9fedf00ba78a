package members

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memberRow is the list view of a user.
type memberRow struct {
	ID          primitive.ObjectID `json:"id"`
	Email       string             `json:"email"`
	FullName    string             `json:"fullName"`
	Role        string             `json:"role"`
	Department  string             `json:"department,omitempty"`
	Position    string             `json:"position,omitempty"`
	IsActive    bool               `json:"isActive"`
	LastLoginAt *time.Time         `json:"lastLoginAt,omitempty"`
}

func toRow(u models.User) memberRow {
	return memberRow{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		Department:  u.Department,
		Position:    u.Position,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
	}
}

// ServeList handles GET /api/members.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	if !memberpolicy.CanList(a) {
		h.ErrLog.Write(w, r, apperr.NewForbidden("insufficient permissions"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Users.ListByCompany(ctx, a.CompanyID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list members failed", err)
		return
	}
	rows := make([]memberRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, toRow(u))
	}
	respond.OK(w, rows)
}
