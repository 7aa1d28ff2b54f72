package handler

import (
	"context"

	"github.com/dangerclosesec/orgaccess/internal/model"
	"github.com/dangerclosesec/orgaccess/internal/service"
	"github.com/google/uuid"
)

// OrganizationWorkflow is implemented by service.OrganizationService
type OrganizationWorkflow interface {
	CreateOrganization(ctx context.Context, input service.CreateOrganizationInput) (*model.Organization, error)
	GetOrganizationDetails(ctx context.Context, orgID uuid.UUID) (*service.OrganizationDetails, error)
	UpdateOrganizationSettings(ctx context.Context, orgID uuid.UUID, update service.OrganizationSettingsUpdate, actorID uuid.UUID) (*model.Organization, error)
	GetOrganizationBilling(ctx context.Context, orgID, actorID uuid.UUID) (*service.BillingSummary, error)
	RecordAnalysis(ctx context.Context, orgID, actorID uuid.UUID) (*model.OrganizationUsage, error)
	MemberRole(ctx context.Context, userID, orgID uuid.UUID) (model.Role, error)
}

// InvitationWorkflow is implemented by service.InvitationService
type InvitationWorkflow interface {
	InviteUser(ctx context.Context, input service.InviteInput) (*model.Invitation, error)
	AcceptInvitation(ctx context.Context, token string, userID uuid.UUID) (*service.AcceptInvitationResult, error)
	CancelInvitation(ctx context.Context, input service.CancelInvitationInput) (*model.Invitation, error)
	ListInvitations(ctx context.Context, actorID, orgID uuid.UUID, status string) ([]*model.Invitation, error)
}

// MemberWorkflow is implemented by service.MemberService
type MemberWorkflow interface {
	UpdateUserRole(ctx context.Context, input service.UpdateRoleInput) (*model.User, error)
	RemoveUser(ctx context.Context, input service.RemoveUserInput) error
}

// AuditLogReader is implemented by service.AuditLogService
type AuditLogReader interface {
	GetAuditLogs(ctx context.Context, q service.AuditLogQuery) (*service.AuditLogPage, error)
}

var (
	_ OrganizationWorkflow = (*service.OrganizationService)(nil)
	_ InvitationWorkflow   = (*service.InvitationService)(nil)
	_ MemberWorkflow       = (*service.MemberService)(nil)
	_ AuditLogReader       = (*service.AuditLogService)(nil)
)
