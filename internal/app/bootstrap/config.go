// internal/app/bootstrap/config.go
package bootstrap

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	"github.com/dalemusser/onboardhub/internal/app/workflow/documents"
	"github.com/dalemusser/onboardhub/internal/app/workflow/invitations"
	"github.com/dalemusser/onboardhub/internal/app/workflow/onboarding"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys are loaded from config files, ONBOARDHUB_* environment
// variables and --flags, in that order of increasing precedence.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "onboardhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "onboardhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session lifetime"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public base URL for OAuth callbacks and email links"},
	{Name: "trust_proxy", Default: false, Desc: "Take the client IP from X-Forwarded-For/X-Real-IP (only behind a proxy that sets them)"},

	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "github_client_id", Default: "", Desc: "GitHub OAuth app client ID"},
	{Name: "github_client_secret", Default: "", Desc: "GitHub OAuth app client secret"},
	{Name: "jira_client_id", Default: "", Desc: "Atlassian OAuth 2.0 (3LO) client ID"},
	{Name: "jira_client_secret", Default: "", Desc: "Atlassian OAuth 2.0 (3LO) client secret"},
	{Name: "notion_client_id", Default: "", Desc: "Notion public integration client ID"},
	{Name: "notion_client_secret", Default: "", Desc: "Notion public integration client secret"},
	{Name: "integration_cookie_hash_key", Default: "", Desc: "Hex key (32 or 64 bytes) signing integration cookies"},
	{Name: "integration_cookie_block_key", Default: "", Desc: "Hex key (16, 24 or 32 bytes) encrypting integration cookies"},

	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs mail instead)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@onboardhub.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "OnboardHub", Desc: "From display name"},

	{Name: "invitation_ttl", Default: "168h", Desc: "How long an invitation stays valid"},
	{Name: "completion_policy", Default: string(onboarding.SingleApprovedDocument), Desc: "single_approved_document or all_required_items"},
	{Name: "max_upload_mb", Default: 10, Desc: "Upload size limit in MiB (capped at 10)"},

	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list queries and simple writes"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for multi-collection writes"},
	{Name: "timeout_upload", Default: "60s", Desc: "Timeout for GridFS uploads and text extraction"},
	{Name: "timeout_upstream", Default: "15s", Desc: "Timeout for OAuth provider calls"},

	{Name: "superadmin_email", Default: "", Desc: "Email promoted to super_admin on startup"},
}

// LoadConfig loads WAFFLE core config and OnboardHub's AppConfig.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ONBOARDHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	policy, err := onboarding.ParseCompletionPolicy(appValues.String("completion_policy"))
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		BaseURL:    strings.TrimRight(appValues.String("base_url"), "/"),
		TrustProxy: appValues.Bool("trust_proxy"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		GitHubClientID:     appValues.String("github_client_id"),
		GitHubClientSecret: appValues.String("github_client_secret"),
		JiraClientID:       appValues.String("jira_client_id"),
		JiraClientSecret:   appValues.String("jira_client_secret"),
		NotionClientID:     appValues.String("notion_client_id"),
		NotionClientSecret: appValues.String("notion_client_secret"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		InvitationTTL:    appValues.Duration("invitation_ttl", invitations.DefaultTTL),
		CompletionPolicy: policy,
		MaxUploadBytes:   uploadLimit(appValues.Int("max_upload_mb")),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		Timeouts: timeouts.Config{
			Short:    appValues.Duration("timeout_short", timeouts.DefaultShort),
			Medium:   appValues.Duration("timeout_medium", timeouts.DefaultMedium),
			Long:     appValues.Duration("timeout_long", timeouts.DefaultLong),
			Upload:   appValues.Duration("timeout_upload", timeouts.DefaultUpload),
			Upstream: appValues.Duration("timeout_upstream", timeouts.DefaultUpstream),
		},

		SuperAdminEmail: appValues.String("superadmin_email"),
	}

	appCfg.IntegrationHashKey, err = cookieKey("integration_cookie_hash_key", appValues.String("integration_cookie_hash_key"), 32, logger)
	if err != nil {
		return nil, AppConfig{}, err
	}
	appCfg.IntegrationBlockKey, err = cookieKey("integration_cookie_block_key", appValues.String("integration_cookie_block_key"), 32, logger)
	if err != nil {
		return nil, AppConfig{}, err
	}

	return coreCfg, appCfg, nil
}

// uploadLimit converts MiB to bytes, never above the hard ceiling.
func uploadLimit(mb int) int64 {
	n := int64(mb) << 20
	if n <= 0 || n > documents.MaxUploadBytes {
		return documents.MaxUploadBytes
	}
	return n
}

// cookieKey decodes a hex key. An empty value yields a random key of
// length n, which means integration cookies will not survive a restart.
func cookieKey(name, value string, n int, logger *zap.Logger) ([]byte, error) {
	if value == "" {
		logger.Warn("integration cookie key not set; generating an ephemeral one", zap.String("key", name))
		return securecookie.GenerateRandomKey(n), nil
	}
	b, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%s must be hex: %w", name, err)
	}
	return b, nil
}

// ValidateConfig rejects configurations that would start but misbehave.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}

	if coreCfg.Env == "prod" {
		if len(appCfg.SessionKey) < 32 || appCfg.SessionKey == devSessionKey {
			return fmt.Errorf("production requires a session_key of at least 32 random characters")
		}
		if !strings.HasPrefix(appCfg.BaseURL, "https://") {
			logger.Warn("base_url is not https in production", zap.String("base_url", appCfg.BaseURL))
		}
	}

	if n := len(appCfg.IntegrationHashKey); n != 32 && n != 64 {
		return fmt.Errorf("integration_cookie_hash_key must decode to 32 or 64 bytes, got %d", n)
	}
	if n := len(appCfg.IntegrationBlockKey); n != 16 && n != 24 && n != 32 {
		return fmt.Errorf("integration_cookie_block_key must decode to 16, 24 or 32 bytes, got %d", n)
	}

	if !auditlog.ValidMode(appCfg.AuditLogAuth) || !auditlog.ValidMode(appCfg.AuditLogAdmin) {
		return fmt.Errorf("audit_log_auth and audit_log_admin must be one of all, db, log, off")
	}

	if appCfg.GoogleClientID == "" || appCfg.GoogleClientSecret == "" {
		logger.Warn("Google sign-in is not configured; nobody will be able to sign in")
	}
	return nil
}
