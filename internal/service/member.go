package service

import (
	"context"

	"github.com/dangerclosesec/orgaccess/internal/audit"
	"github.com/dangerclosesec/orgaccess/internal/domain"
	"github.com/dangerclosesec/orgaccess/internal/metrics"
	"github.com/dangerclosesec/orgaccess/internal/model"
	"github.com/dangerclosesec/orgaccess/internal/policy"
	"github.com/dangerclosesec/orgaccess/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MemberService changes and revokes organization memberships
type MemberService struct {
	userRepo repository.UserRepositoryIface
	recorder audit.Recorder
	validate *validator.Validate
}

func NewMemberService(userRepo repository.UserRepositoryIface, recorder audit.Recorder) *MemberService {
	return &MemberService{
		userRepo: userRepo,
		recorder: recorder,
		validate: validator.New(),
	}
}

type UpdateRoleInput struct {
	ActorID        uuid.UUID `json:"-" validate:"required"`
	TargetUserID   uuid.UUID `json:"-" validate:"required"`
	OrganizationID uuid.UUID `json:"-" validate:"required"`
	NewRole        string    `json:"role" validate:"required"`
}

type RemoveUserInput struct {
	ActorID        uuid.UUID `validate:"required"`
	TargetUserID   uuid.UUID `validate:"required"`
	OrganizationID uuid.UUID `validate:"required"`
}

// UpdateUserRole moves a member of the organization to a new role.
func (s *MemberService) UpdateUserRole(ctx context.Context, input UpdateRoleInput) (*model.User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, invalidInput(err)
	}
	newRole, err := model.ParseRole(input.NewRole)
	if err != nil {
		return nil, invalidInput(err)
	}

	actorRole, target, targetRole, err := s.resolvePair(ctx, input.ActorID, input.TargetUserID, input.OrganizationID)
	if err != nil {
		return nil, err
	}

	if !policy.CanAssignRole(policy.Rank(actorRole), policy.Rank(targetRole), policy.Rank(newRole)) {
		return nil, domain.ErrPermissionDenied
	}

	if err := s.userRepo.UpdateRole(ctx, target.ID, input.OrganizationID, targetRole, newRole); err != nil {
		return nil, err
	}
	target.OrganizationRole = &newRole

	metrics.ObserveRoleChange(string(newRole))

	s.recorder.Record(ctx, &model.AuditLog{
		ActorID:        input.ActorID,
		OrganizationID: input.OrganizationID,
		Action:         model.AuditUserRoleChanged,
		TargetUserID:   optionalID(target.ID),
		ResourceType:   model.ResourceUser,
		ResourceID:     target.ID.String(),
		Details: model.JSONMap{
			"email":    target.Email,
			"old_role": string(targetRole),
			"new_role": string(newRole),
		},
	})

	return target, nil
}

// RemoveUser revokes a member's membership and drops them to the free plan.
func (s *MemberService) RemoveUser(ctx context.Context, input RemoveUserInput) error {
	if err := s.validate.Struct(input); err != nil {
		return invalidInput(err)
	}

	actorRole, target, targetRole, err := s.resolvePair(ctx, input.ActorID, input.TargetUserID, input.OrganizationID)
	if err != nil {
		return err
	}

	if !policy.CanRemove(policy.Rank(actorRole), policy.Rank(targetRole)) {
		return domain.ErrPermissionDenied
	}

	if err := s.userRepo.RemoveFromOrganization(ctx, target.ID, input.OrganizationID, targetRole, model.PlanFree); err != nil {
		return err
	}

	metrics.ObserveMemberRemoved()

	s.recorder.Record(ctx, &model.AuditLog{
		ActorID:        input.ActorID,
		OrganizationID: input.OrganizationID,
		Action:         model.AuditUserRemoved,
		TargetUserID:   optionalID(target.ID),
		ResourceType:   model.ResourceUser,
		ResourceID:     target.ID.String(),
		Details: model.JSONMap{
			"email": target.Email,
			"role":  string(targetRole),
		},
	})

	return nil
}

// resolvePair loads actor and target and requires both to be members of orgID.
func (s *MemberService) resolvePair(ctx context.Context, actorID, targetID, orgID uuid.UUID) (model.Role, *model.User, model.Role, error) {
	_, actorRole, actorOK, err := memberRole(ctx, s.userRepo, actorID, orgID)
	if err != nil {
		return "", nil, "", err
	}

	target, targetRole, targetOK, err := memberRole(ctx, s.userRepo, targetID, orgID)
	if err != nil {
		return "", nil, "", err
	}

	if !actorOK || !targetOK {
		return "", nil, "", domain.ErrCrossOrganizationMismatch
	}
	return actorRole, target, targetRole, nil
}
