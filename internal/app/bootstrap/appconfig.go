// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	"github.com/dalemusser/onboardhub/internal/app/workflow/onboarding"
)

// AppConfig holds OnboardHub's own configuration. WAFFLE's CoreConfig
// covers ports, TLS, logging and CORS; everything specific to onboarding
// lives here.
type AppConfig struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Sessions
	SessionKey    string // signs the session cookie; ≥32 chars in prod
	SessionName   string
	SessionDomain string // blank means current host
	SessionMaxAge time.Duration

	// Public base URL, used for OAuth callbacks and emailed links.
	BaseURL string

	// TrustProxy lets forwarding headers set the client IP used for rate
	// limits and audit records.
	TrustProxy bool

	// Google sign-in
	GoogleClientID     string
	GoogleClientSecret string

	// Workspace integrations
	GitHubClientID     string
	GitHubClientSecret string
	JiraClientID       string
	JiraClientSecret   string
	NotionClientID     string
	NotionClientSecret string

	// Keys for the integration token cookie. Hex or raw; generated in dev
	// when empty.
	IntegrationHashKey  []byte
	IntegrationBlockKey []byte

	// Email/SMTP. An empty host logs mail instead of sending it.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// Onboarding rules
	InvitationTTL    time.Duration
	CompletionPolicy onboarding.CompletionPolicy
	MaxUploadBytes   int64

	// Audit logging: all, db, log or off.
	AuditLogAuth  string
	AuditLogAdmin string

	Timeouts timeouts.Config

	// Promoted to super_admin at startup when set.
	SuperAdminEmail string
}
