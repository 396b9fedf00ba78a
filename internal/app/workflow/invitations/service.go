// Package invitations lets HR invite people into a company and lets the
// invitee accept with the account they signed in with.
package invitations

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	companystore "github.com/dalemusser/onboardhub/internal/app/store/companies"
	invitationstore "github.com/dalemusser/onboardhub/internal/app/store/invitations"
	userstore "github.com/dalemusser/onboardhub/internal/app/store/users"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/system/inputval"
	"github.com/dalemusser/onboardhub/internal/app/system/mailer"
	"github.com/dalemusser/onboardhub/internal/app/system/normalize"
	"github.com/dalemusser/onboardhub/internal/app/system/txn"
	"github.com/dalemusser/onboardhub/internal/app/workflow/onboarding"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultTTL is how long an invitation stays acceptable.
const DefaultTTL = 7 * 24 * time.Hour

// Notifier delivers invitation email.
type Notifier interface {
	Send(e mailer.Email) error
}

type Config struct {
	TTL      time.Duration
	BaseURL  string // used to build the accept link
	SiteName string
}

type Service struct {
	db        *mongo.Database
	invites   *invitationstore.Store
	users     *userstore.Store
	companies *companystore.Store
	tracker   *onboarding.Tracker
	notify    Notifier
	cfg       Config
	log       *zap.Logger
	now       func() time.Time
}

func NewService(db *mongo.Database, tracker *onboarding.Tracker, notify Notifier, cfg Config, logger *zap.Logger) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "OnboardHub"
	}
	return &Service{
		db:        db,
		invites:   invitationstore.New(db),
		users:     userstore.New(db),
		companies: companystore.New(db),
		tracker:   tracker,
		notify:    notify,
		cfg:       cfg,
		log:       logger,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// IssueInput is an HR request to invite someone.
type IssueInput struct {
	Email            string `json:"email" validate:"required,email,max=254"`
	Role             string `json:"role" validate:"required,role"`
	Department       string `json:"department" validate:"max=100"`
	Position         string `json:"position" validate:"max=100"`
	ProvisionMailbox bool   `json:"provisionMailbox"`
}

// Issued is the result of Issue. Credential is set only when a mailbox was
// provisioned; its password is not stored in clear and cannot be recovered.
type Issued struct {
	Invitation *models.Invitation `json:"invitation"`
	Credential *Credential        `json:"credential,omitempty"`
}

// Issue creates a pending invitation into a's company and emails it. A
// pending invitation whose TTL has elapsed is expired first so it does not
// block the new one.
func (s *Service) Issue(ctx context.Context, a authz.Actor, in IssueInput) (*Issued, error) {
	if err := authz.Check(a, authz.CapHR); err != nil {
		return nil, err
	}
	in.Email = normalize.Email(in.Email)
	in.Role = models.NormalizeRole(in.Role)
	if err := inputval.Struct(in); err != nil {
		return nil, err
	}
	if !authz.CanGrantRole(a.Role, in.Role) {
		return nil, apperr.NewForbidden("insufficient permissions to invite with this role")
	}

	company, err := s.companies.GetByID(ctx, a.CompanyID)
	if err != nil {
		if errors.Is(err, companystore.ErrNotFound) {
			return nil, apperr.NewNotFound("company not found")
		}
		return nil, apperr.NewInternal("company lookup failed", err)
	}

	member, err := s.users.ExistsInCompany(ctx, a.CompanyID, in.Email)
	if err != nil {
		return nil, apperr.NewInternal("user lookup failed", err)
	}
	if member {
		return nil, apperr.NewConflict("this person is already a member of the company")
	}

	now := s.now()
	if err := s.invites.ExpirePending(ctx, in.Email, a.CompanyID, now); err != nil {
		return nil, apperr.NewInternal("invitation store failure", err)
	}

	inv := models.Invitation{
		Email:         in.Email,
		CompanyID:     a.CompanyID,
		Role:          in.Role,
		Department:    in.Department,
		Position:      in.Position,
		InvitedByID:   a.UserID,
		InvitedByName: a.Name,
		ExpiresAt:     now.Add(s.cfg.TTL),
	}

	var cred *Credential
	if in.ProvisionMailbox {
		c, hash, err := newCredential(in.Email, company.Domain)
		if err != nil {
			return nil, apperr.NewInternal("could not generate mailbox credential", err)
		}
		cred = &c
		inv.GeneratedEmail = c.Email
		inv.GeneratedPasswordHash = hash
	}

	created, err := s.invites.Create(ctx, inv)
	if err != nil {
		if errors.Is(err, invitationstore.ErrDuplicatePending) {
			return nil, apperr.NewConflict("a pending invitation already exists for this email")
		}
		return nil, apperr.NewInternal("invitation store failure", err)
	}

	s.sendInvitation(company, &created, cred)
	return &Issued{Invitation: &created, Credential: cred}, nil
}

// sendInvitation emails the invitee. Delivery failures are logged and do not
// undo the invitation.
func (s *Service) sendInvitation(company *models.Company, inv *models.Invitation, cred *Credential) {
	if s.notify == nil {
		return
	}
	data := mailer.InvitationEmailData{
		SiteName:    s.cfg.SiteName,
		CompanyName: company.Name,
		InviterName: inv.InvitedByName,
		Role:        strings.ReplaceAll(inv.Role, "_", " "),
		AcceptURL:   s.acceptURL(inv),
		ExpiresIn:   humanDuration(s.cfg.TTL),
	}
	if cred != nil {
		data.GeneratedEmail = cred.Email
		data.GeneratedPassword = cred.Password
	}
	msg := mailer.BuildInvitationEmail(data)
	msg.To = inv.Email
	if err := s.notify.Send(msg); err != nil {
		s.log.Warn("invitation email failed",
			zap.String("invitation_id", inv.ID.Hex()),
			zap.String("email", inv.Email),
			zap.Error(err))
	}
}

func (s *Service) acceptURL(inv *models.Invitation) string {
	q := url.Values{}
	q.Set("invitation", inv.ID.Hex())
	q.Set("company", inv.CompanyID.Hex())
	q.Set("email", inv.Email)
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/invitations/accept?" + q.Encode()
}

func humanDuration(d time.Duration) string {
	if d >= 24*time.Hour && d%(24*time.Hour) == 0 {
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	return d.String()
}

// Verify returns the pending, unexpired invitation for (email, company).
func (s *Service) Verify(ctx context.Context, email string, companyID primitive.ObjectID) (*models.Invitation, error) {
	inv, err := s.invites.FindPending(ctx, email, companyID, s.now())
	if err != nil {
		if errors.Is(err, invitationstore.ErrNotFound) {
			return nil, apperr.NewNotFound("no pending invitation for this email")
		}
		return nil, apperr.NewInternal("invitation store failure", err)
	}
	return inv, nil
}

// Accepted is the outcome of Accept.
type Accepted struct {
	Invitation *models.Invitation       `json:"invitation"`
	Onboarding *models.OnboardingRecord `json:"onboarding"`
}

// Accept joins the signed-in user to the invitation's company. The
// invitation must be addressed to the user's email and still pending. The
// invitation update, the user's affiliation and the onboarding start happen
// in one transaction; without transaction support each step is idempotent
// so a retry converges.
func (s *Service) Accept(ctx context.Context, invitationID, userID primitive.ObjectID, email string) (*Accepted, error) {
	inv, err := s.invites.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, invitationstore.ErrNotFound) {
			return nil, apperr.NewNotFound("invitation not found")
		}
		return nil, apperr.NewInternal("invitation store failure", err)
	}
	if inv.Email != normalize.Email(email) {
		return nil, apperr.NewForbidden("this invitation was sent to a different email address")
	}

	now := s.now()
	switch inv.Status {
	case models.InvitationAccepted:
		return nil, apperr.NewConflict("invitation has already been accepted")
	case models.InvitationRevoked:
		return nil, apperr.NewNotFound("invitation has been revoked")
	case models.InvitationExpired:
		return nil, apperr.NewNotFound("invitation has expired")
	}
	if inv.IsExpired(now) {
		return nil, apperr.NewNotFound("invitation has expired")
	}

	var rec *models.OnboardingRecord
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if err := s.invites.MarkAccepted(ctx, inv.ID, userID, now); err != nil {
			if errors.Is(err, invitationstore.ErrNotPending) {
				return apperr.NewConflict("invitation has already been accepted")
			}
			return apperr.NewInternal("invitation store failure", err)
		}
		err := s.users.JoinCompany(ctx, userID, userstore.Affiliation{
			CompanyID:  inv.CompanyID,
			Role:       inv.Role,
			Department: inv.Department,
			Position:   inv.Position,
		})
		switch {
		case errors.Is(err, userstore.ErrOtherCompany):
			return apperr.NewConflict("you already belong to another company")
		case errors.Is(err, userstore.ErrNotFound):
			return apperr.NewNotFound("user not found")
		case err != nil:
			return apperr.NewInternal("user store failure", err)
		}
		rec, err = s.tracker.Start(ctx, inv.CompanyID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	inv.Status = models.InvitationAccepted
	inv.AcceptedAt = &now
	inv.AcceptedByID = &userID
	return &Accepted{Invitation: inv, Onboarding: rec}, nil
}

// Revoke cancels a pending invitation in a's company.
func (s *Service) Revoke(ctx context.Context, a authz.Actor, id primitive.ObjectID) (*models.Invitation, error) {
	if err := authz.Check(a, authz.CapHR); err != nil {
		return nil, err
	}
	inv, err := s.invites.Revoke(ctx, a.CompanyID, id, s.now())
	switch {
	case errors.Is(err, invitationstore.ErrNotFound):
		return nil, apperr.NewNotFound("invitation not found")
	case errors.Is(err, invitationstore.ErrNotPending):
		return nil, apperr.NewConflict("only pending invitations can be revoked")
	case err != nil:
		return nil, apperr.NewInternal("invitation store failure", err)
	}
	return inv, nil
}

// List returns a's company invitations, optionally filtered by status.
// Pending invitations past their TTL are reported as expired.
func (s *Service) List(ctx context.Context, a authz.Actor, status string) ([]models.Invitation, error) {
	if err := authz.Check(a, authz.CapHR); err != nil {
		return nil, err
	}
	switch status {
	case "", models.InvitationPending, models.InvitationAccepted, models.InvitationExpired, models.InvitationRevoked:
	default:
		return nil, apperr.NewValidation("status must be one of: pending, accepted, expired, revoked")
	}
	now := s.now()
	if _, err := s.invites.ExpireStale(ctx, now); err != nil {
		s.log.Warn("could not expire stale invitations", zap.Error(err))
	}
	list, err := s.invites.ListByCompany(ctx, a.CompanyID, status)
	if err != nil {
		return nil, apperr.NewInternal("invitation store failure", err)
	}
	for i := range list {
		if list[i].Status == models.InvitationPending && list[i].IsExpired(now) {
			list[i].Status = models.InvitationExpired
		}
	}
	return list, nil
}

// ExpireStale flips every pending invitation past its TTL to expired.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	return s.invites.ExpireStale(ctx, s.now())
}
