// internal/domain/models/authmethods.go
package models

// AuthMethodGoogle is the only sign-in provider for user accounts.
const AuthMethodGoogle = "google"

// AuthMethod represents a sign-in provider recorded on a user.
type AuthMethod struct {
	Value string // stored in the database
	Label string
}

// AllAuthMethods contains every sign-in provider the service understands.
var AllAuthMethods = []AuthMethod{
	{Value: AuthMethodGoogle, Label: "Google"},
}

// IsValidAuthMethod checks if a value is a valid auth method.
func IsValidAuthMethod(value string) bool {
	for _, m := range AllAuthMethods {
		if m.Value == value {
			return true
		}
	}
	return false
}
