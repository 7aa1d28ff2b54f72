// internal/service/invitation.go
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dangerclosesec/orgaccess/internal/audit"
	"github.com/dangerclosesec/orgaccess/internal/domain"
	"github.com/dangerclosesec/orgaccess/internal/email"
	"github.com/dangerclosesec/orgaccess/internal/email/mailer"
	"github.com/dangerclosesec/orgaccess/internal/metrics"
	"github.com/dangerclosesec/orgaccess/internal/model"
	"github.com/dangerclosesec/orgaccess/internal/policy"
	"github.com/dangerclosesec/orgaccess/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	invitationTokenBytes = 32
	// compensationTimeout bounds the rollback of an invitation whose email
	// failed, which runs even when the request context is done.
	compensationTimeout = 10 * time.Second
)

type InvitationService struct {
	invRepo  repository.InvitationRepositoryIface
	userRepo repository.UserRepositoryIface
	orgRepo  repository.OrganizationRepositoryIface
	mailer   InvitationMailer
	recorder audit.Recorder
	baseURL  string
	validate *validator.Validate
	now      clock
}

func NewInvitationService(
	invRepo repository.InvitationRepositoryIface,
	userRepo repository.UserRepositoryIface,
	orgRepo repository.OrganizationRepositoryIface,
	mailer InvitationMailer,
	recorder audit.Recorder,
	baseURL string,
) *InvitationService {
	return &InvitationService{
		invRepo:  invRepo,
		userRepo: userRepo,
		orgRepo:  orgRepo,
		mailer:   mailer,
		recorder: recorder,
		baseURL:  strings.TrimRight(baseURL, "/"),
		validate: validator.New(),
		now:      utcNow,
	}
}

// SetClock replaces the time source.
func (s *InvitationService) SetClock(now func() time.Time) {
	s.now = now
}

type InviteInput struct {
	InviterID      uuid.UUID `json:"-" validate:"required"`
	OrganizationID uuid.UUID `json:"-" validate:"required"`
	Email          string    `json:"email" validate:"required,email"`
	Role           string    `json:"role" validate:"required"`
	Message        string    `json:"message" validate:"max=1000"`
}

// InviteUser creates a pending invitation and emails it. The invitation only
// survives if the email was handed to the provider.
func (s *InvitationService) InviteUser(ctx context.Context, input InviteInput) (*model.Invitation, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Message = strings.TrimSpace(input.Message)
	if err := s.validate.Struct(input); err != nil {
		return nil, invalidInput(err)
	}
	role, err := model.ParseRole(input.Role)
	if err != nil {
		return nil, invalidInput(err)
	}

	inviter, inviterRole, ok, err := memberRole(ctx, s.userRepo, input.InviterID, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	if !ok || !policy.CanInvite(policy.Rank(inviterRole)) {
		return nil, domain.ErrPermissionDenied
	}

	org, err := s.orgRepo.FindByID(ctx, input.OrganizationID)
	if err != nil {
		return nil, err
	}

	invitee, err := s.userRepo.FindByEmail(ctx, input.Email)
	switch {
	case err == nil:
		if _, member := invitee.Membership(org.ID); member {
			return nil, domain.ErrAlreadyMember
		}
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	now := s.now()
	if _, err := s.invRepo.FindPending(ctx, input.Email, org.ID, now); err == nil {
		return nil, domain.ErrDuplicatePendingInvitation
	} else if !errors.Is(err, domain.ErrInvitationNotFound) {
		return nil, err
	}

	token, err := generateInvitationToken()
	if err != nil {
		return nil, err
	}

	inv := &model.Invitation{
		ID:             uuid.New(),
		Email:          input.Email,
		Token:          token,
		OrganizationID: org.ID,
		Role:           role,
		InvitedByID:    inviter.ID,
		Status:         model.InvitationPending,
		ExpiresAt:      now.Add(model.InvitationTTL),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if input.Message != "" {
		inv.Message = &input.Message
	}

	if err := s.invRepo.Create(ctx, inv, now); err != nil {
		return nil, err
	}

	data := mailer.InvitationTemplateData{
		OrganizationName: org.Name,
		InviterName:      inviter.DisplayName(),
		Role:             string(role),
		Message:          input.Message,
		AcceptLink:       s.acceptLink(token),
		ExpiresAt:        inv.ExpiresAt.Format("January 2, 2006"),
	}
	if data.InviterName == "" {
		data.InviterName = inviter.Email
	}

	if err := s.mailer.SendInvitation(ctx, inv.Email, data); err != nil {
		metrics.ObserveInvitation(metrics.InvitationEmailFailed)
		s.rollbackInvitation(ctx, inv)
		if errors.Is(err, email.ErrDelivery) {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmailDeliveryFailed, err)
		}
		// Rendering or sender configuration problems are ours, not the provider's.
		return nil, fmt.Errorf("sending invitation: %w", err)
	}

	sentAt := s.now()
	if err := s.invRepo.MarkEmailSent(ctx, inv.ID, sentAt); err != nil {
		slog.WarnContext(ctx, "failed to mark invitation email sent",
			"invitation_id", inv.ID,
			"error", err,
		)
	} else {
		inv.EmailSent = true
		inv.EmailSentAt = &sentAt
	}

	metrics.ObserveInvitation(metrics.InvitationCreated)

	target := uuid.Nil
	if invitee != nil {
		target = invitee.ID
	}
	s.recorder.Record(ctx, &model.AuditLog{
		ActorID:        inviter.ID,
		OrganizationID: org.ID,
		Action:         model.AuditUserInvited,
		TargetUserID:   optionalID(target),
		ResourceType:   model.ResourceInvitation,
		ResourceID:     inv.ID.String(),
		Details: model.JSONMap{
			"email":         inv.Email,
			"role":          string(inv.Role),
			"invitation_id": inv.ID.String(),
		},
	})

	return inv, nil
}

// rollbackInvitation deletes an invitation whose email could not be sent. A
// failure leaves a pending invitation nobody was told about.
func (s *InvitationService) rollbackInvitation(ctx context.Context, inv *model.Invitation) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := s.invRepo.Delete(cctx, inv.ID); err != nil {
		slog.ErrorContext(ctx, "orphaned pending invitation",
			"invitation_id", inv.ID,
			"organization_id", inv.OrganizationID,
			"email", inv.Email,
			"error", err,
		)
		metrics.ObserveRollbackFailure()
	}
}

func (s *InvitationService) acceptLink(token string) string {
	return fmt.Sprintf("%s/invitations/accept?token=%s", s.baseURL, token)
}

// OrganizationSummary identifies the organization an invitation admitted a user to
type OrganizationSummary struct {
	ID     uuid.UUID     `json:"id"`
	Name   string        `json:"name"`
	Domain *string       `json:"domain"`
	Plan   model.PlanTag `json:"plan"`
}

type AcceptInvitationResult struct {
	Organization OrganizationSummary `json:"organization"`
	Role         model.Role          `json:"role"`
}

// AcceptInvitation admits userID to the organization named by the invitation
// token.
func (s *InvitationService) AcceptInvitation(ctx context.Context, token string, userID uuid.UUID) (*AcceptInvitationResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrInvalidOrExpiredInvitation
	}

	inv, err := s.invRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrInvitationNotFound) {
			return nil, domain.ErrInvalidOrExpiredInvitation
		}
		return nil, err
	}

	now := s.now()
	if !inv.IsValid(now) {
		return nil, domain.ErrInvalidOrExpiredInvitation
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(user.Email), inv.Email) {
		return nil, domain.ErrEmailMismatch
	}
	if user.InOrganization() {
		return nil, domain.ErrAlreadyInOrganization
	}

	org, err := s.invRepo.Accept(ctx, inv.ID, user.ID, now)
	if err != nil {
		return nil, err
	}

	metrics.ObserveInvitation(metrics.InvitationAccepted)

	s.recorder.Record(ctx, &model.AuditLog{
		ActorID:        user.ID,
		OrganizationID: org.ID,
		Action:         model.AuditUserJoined,
		TargetUserID:   optionalID(user.ID),
		ResourceType:   model.ResourceInvitation,
		ResourceID:     inv.ID.String(),
		Details: model.JSONMap{
			"email":         inv.Email,
			"role":          string(inv.Role),
			"invitation_id": inv.ID.String(),
		},
	})

	return &AcceptInvitationResult{
		Organization: OrganizationSummary{
			ID:     org.ID,
			Name:   org.Name,
			Domain: org.Domain,
			Plan:   org.Plan,
		},
		Role: inv.Role,
	}, nil
}

type CancelInvitationInput struct {
	ActorID        uuid.UUID `validate:"required"`
	OrganizationID uuid.UUID `validate:"required"`
	InvitationID   uuid.UUID `validate:"required"`
}

// CancelInvitation withdraws a pending invitation of the organization.
func (s *InvitationService) CancelInvitation(ctx context.Context, input CancelInvitationInput) (*model.Invitation, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, invalidInput(err)
	}

	_, role, ok, err := memberRole(ctx, s.userRepo, input.ActorID, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	if !ok || !policy.CanInvite(policy.Rank(role)) {
		return nil, domain.ErrPermissionDenied
	}

	inv, err := s.invRepo.Cancel(ctx, input.OrganizationID, input.InvitationID, s.now())
	if err != nil {
		return nil, err
	}

	metrics.ObserveInvitation(metrics.InvitationCancelled)

	s.recorder.Record(ctx, &model.AuditLog{
		ActorID:        input.ActorID,
		OrganizationID: input.OrganizationID,
		Action:         model.AuditInvitationCancelled,
		ResourceType:   model.ResourceInvitation,
		ResourceID:     inv.ID.String(),
		Details: model.JSONMap{
			"email":         inv.Email,
			"role":          string(inv.Role),
			"invitation_id": inv.ID.String(),
		},
	})

	return inv, nil
}

// ListInvitations returns the organization's invitations, newest first, with
// lapsed pending invitations reported as expired. status filters on that
// reported status when set.
func (s *InvitationService) ListInvitations(ctx context.Context, actorID, orgID uuid.UUID, status string) ([]*model.Invitation, error) {
	filter := model.InvitationStatus(strings.ToLower(strings.TrimSpace(status)))
	switch filter {
	case "", model.InvitationPending, model.InvitationAccepted, model.InvitationCancelled, model.InvitationExpired:
	default:
		return nil, invalidInput(fmt.Errorf("unknown invitation status %q", status))
	}

	_, role, ok, err := memberRole(ctx, s.userRepo, actorID, orgID)
	if err != nil {
		return nil, err
	}
	if !ok || !policy.CanInvite(policy.Rank(role)) {
		return nil, domain.ErrPermissionDenied
	}

	invs, err := s.invRepo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]*model.Invitation, 0, len(invs))
	for _, inv := range invs {
		inv.Status = inv.EffectiveStatus(now)
		if filter != "" && inv.Status != filter {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

// ExpireInvitations relabels every lapsed pending invitation as expired.
func (s *InvitationService) ExpireInvitations(ctx context.Context) (int64, error) {
	n, err := s.invRepo.ExpireStale(ctx, s.now())
	if err != nil {
		return 0, err
	}
	metrics.ObserveExpired(n)
	return n, nil
}

func generateInvitationToken() (string, error) {
	b := make([]byte, invitationTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating invitation token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
