// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	auditfeature "github.com/dalemusser/onboardhub/internal/app/features/auditlog"
	authgooglefeature "github.com/dalemusser/onboardhub/internal/app/features/authgoogle"
	companiesfeature "github.com/dalemusser/onboardhub/internal/app/features/companies"
	documentsfeature "github.com/dalemusser/onboardhub/internal/app/features/documents"
	errorsfeature "github.com/dalemusser/onboardhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/onboardhub/internal/app/features/health"
	integrationsfeature "github.com/dalemusser/onboardhub/internal/app/features/integrations"
	invitationsfeature "github.com/dalemusser/onboardhub/internal/app/features/invitations"
	logoutfeature "github.com/dalemusser/onboardhub/internal/app/features/logout"
	mefeature "github.com/dalemusser/onboardhub/internal/app/features/me"
	membersfeature "github.com/dalemusser/onboardhub/internal/app/features/members"
	onboardingfeature "github.com/dalemusser/onboardhub/internal/app/features/onboarding"
	auditstore "github.com/dalemusser/onboardhub/internal/app/store/audit"
	filestore "github.com/dalemusser/onboardhub/internal/app/store/files"
	onboardingstore "github.com/dalemusser/onboardhub/internal/app/store/onboarding"
	userstore "github.com/dalemusser/onboardhub/internal/app/store/users"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/dalemusser/onboardhub/internal/app/system/mailer"
	"github.com/dalemusser/onboardhub/internal/app/system/ratelimit"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/workflow/documents"
	"github.com/dalemusser/onboardhub/internal/app/workflow/invitations"
	"github.com/dalemusser/onboardhub/internal/app/workflow/onboarding"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Version is reported by /health. Set with -ldflags at build time.
var Version = "dev"

// BuildHandler wires stores, workflows and feature handlers into one chi
// router. The session user is resolved once per request by
// LoadSessionUser; every feature reads it from the request context.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	prod := coreCfg.Env == "prod"

	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, prod, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	// Provider detail in error envelopes only outside prod.
	errLog := errorsfeature.NewErrorLogger(logger).WithDetail(!prod)

	audit := auditlog.New(auditstore.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)

	// Workflows
	files := filestore.New(db)
	tracker := onboarding.NewTracker(onboardingstore.New(db), documents.NewCatalog(files), appCfg.CompletionPolicy, logger)
	docSvc := documents.NewService(db, files, tracker, logger)
	invSvc := invitations.NewService(db, tracker, mail, invitations.Config{
		TTL:      appCfg.InvitationTTL,
		BaseURL:  appCfg.BaseURL,
		SiteName: appCfg.MailFromName,
	}, logger)

	integrationsHandler, err := integrationsfeature.NewHandler(db, integrationsfeature.Config{
		BaseURL:  appCfg.BaseURL,
		GitHub:   integrationsfeature.Credentials{ClientID: appCfg.GitHubClientID, ClientSecret: appCfg.GitHubClientSecret},
		Jira:     integrationsfeature.Credentials{ClientID: appCfg.JiraClientID, ClientSecret: appCfg.JiraClientSecret},
		Notion:   integrationsfeature.Credentials{ClientID: appCfg.NotionClientID, ClientSecret: appCfg.NotionClientSecret},
		HashKey:  appCfg.IntegrationHashKey,
		BlockKey: appCfg.IntegrationBlockKey,
		Secure:   prod,
	}, errLog, audit, logger)
	if err != nil {
		logger.Error("integrations init failed", zap.Error(err))
		return nil, err
	}

	// Sign-in starts per client IP; invitation and provider traffic per user.
	signInLimit := ratelimit.New(6*time.Second, 10)
	userLimit := ratelimit.New(time.Second, 30)

	r := chi.NewRouter()
	if appCfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(sessionMgr.LoadSessionUser)

	r.Get("/", serveRoot)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, Version, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	googleHandler := authgooglefeature.NewHandler(db, sessionMgr, audit,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.With(signInLimit.ByIP()).Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, audit, integrationsHandler, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Identity and tenancy
	meHandler := mefeature.NewHandler(db, tracker, errLog, logger)
	r.Mount("/api/me", mefeature.Routes(meHandler, sessionMgr))

	companiesHandler := companiesfeature.NewHandler(db, tracker, errLog, audit, logger)
	r.Mount("/api/companies", companiesfeature.Routes(companiesHandler, sessionMgr))

	membersHandler := membersfeature.NewHandler(db, errLog, audit, logger)
	r.Mount("/api/members", membersfeature.Routes(membersHandler, sessionMgr))

	invitationsHandler := invitationsfeature.NewHandler(invSvc, errLog, audit, logger)
	r.With(userLimit.ByUser()).Mount("/api/invitations", invitationsfeature.APIRoutes(invitationsHandler, sessionMgr))
	r.Mount("/invitations", invitationsfeature.LinkRoutes(invitationsHandler, sessionMgr))

	auditHandler := auditfeature.NewHandler(db, errLog, logger)
	r.Mount("/api/audit", auditfeature.Routes(auditHandler, sessionMgr))

	// Documents and onboarding
	documentsHandler := documentsfeature.NewHandler(docSvc, appCfg.MaxUploadBytes, errLog, audit, logger)
	r.Mount("/api/documents", documentsfeature.DocumentRoutes(documentsHandler, sessionMgr))
	r.Mount("/api/policies", documentsfeature.PolicyRoutes(documentsHandler, sessionMgr))
	r.Mount("/api/resumes", documentsfeature.ResumeRoutes(documentsHandler, sessionMgr))

	onboardingHandler := onboardingfeature.NewHandler(db, tracker, errLog, audit, logger)
	r.Mount("/api/onboarding", onboardingfeature.Routes(onboardingHandler, sessionMgr))

	// Workspace integrations
	r.Mount("/integrations", integrationsfeature.Routes(integrationsHandler, sessionMgr))
	r.With(userLimit.ByUser()).Mount("/api/integrations", integrationsfeature.APIRoutes(integrationsHandler, sessionMgr))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Fail(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Fail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	logger.Info("routes mounted",
		zap.String("completion_policy", string(appCfg.CompletionPolicy)),
		zap.Int64("max_upload_bytes", appCfg.MaxUploadBytes))
	return r, nil
}

// serveRoot is where OAuth and invitation flows land. It reports the
// outcome flags they put in the query string.
func serveRoot(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{"service": "onboardhub"}
	for _, k := range []string{"error", "connected", "disconnected", "invitation", "company"} {
		if v := query.Get(r, k); v != "" {
			out[k] = v
		}
	}
	_, signedIn := auth.CurrentUser(r)
	out["signedIn"] = signedIn
	respond.OK(w, out)
}
