// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the caller of a workflow operation, derived from the resolved
// session user.
type Actor struct {
	UserID    primitive.ObjectID
	CompanyID primitive.ObjectID // NilObjectID when unaffiliated
	Email     string
	Name      string
	Role      string
}

// HasCompany reports whether the actor belongs to a tenant.
func (a Actor) HasCompany() bool {
	return !a.CompanyID.IsZero()
}

// Can reports whether the actor holds capability.
func (a Actor) Can(capability Capability) bool {
	return HasAccess(a.Role, capability)
}

// ActorFrom returns the Actor for the request's resolved user. ok is false
// when nobody is signed in or the session carries a malformed ID.
func ActorFrom(r *http.Request) (Actor, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return Actor{}, false
	}
	uid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return Actor{}, false
	}
	a := Actor{UserID: uid, Email: u.Email, Name: u.Name, Role: u.Role}
	if u.CompanyID != "" {
		cid, err := primitive.ObjectIDFromHex(u.CompanyID)
		if err != nil {
			return Actor{}, false
		}
		a.CompanyID = cid
	}
	return a, true
}

// Check returns a Forbidden error unless the actor holds capability.
func Check(a Actor, capability Capability) error {
	if !a.Can(capability) {
		return apperr.NewForbidden("insufficient permissions")
	}
	return nil
}

// Require is middleware that answers 403 unless the signed-in user holds
// capability. It assumes RequireSignedIn ran first.
func Require(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := auth.CurrentUser(r)
			if !ok {
				respond.Fail(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !HasAccess(u.Role, capability) {
				respond.Fail(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MustActor returns the request's Actor, or answers 401 and reports false.
func MustActor(w http.ResponseWriter, r *http.Request) (Actor, bool) {
	a, ok := ActorFrom(r)
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "authentication required")
	}
	return a, ok
}
