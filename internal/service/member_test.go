package service_test

import (
	"context"
	"testing"

	"github.com/dangerclosesec/orgaccess/internal/domain"
	"github.com/dangerclosesec/orgaccess/internal/mocks"
	"github.com/dangerclosesec/orgaccess/internal/model"
	"github.com/dangerclosesec/orgaccess/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newMemberService(t *testing.T) (*service.MemberService, *mocks.MockUserRepositoryIface, *mocks.MockRecorder) {
	ctrl := gomock.NewController(t)
	userRepo := mocks.NewMockUserRepositoryIface(ctrl)
	recorder := mocks.NewMockRecorder(ctrl)
	return service.NewMemberService(userRepo, recorder), userRepo, recorder
}

func TestUpdateUserRole(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("admin promotes analyst", func(t *testing.T) {
		svc, userRepo, recorder := newMemberService(t)
		admin := newMember(orgID, model.RoleAdmin, "admin@acme.com")
		analyst := newMember(orgID, model.RoleAnalyst, "analyst@acme.com")

		userRepo.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
		userRepo.EXPECT().FindByID(gomock.Any(), analyst.ID).Return(analyst, nil)
		userRepo.EXPECT().UpdateRole(gomock.Any(), analyst.ID, orgID, model.RoleAnalyst, model.RoleManager).Return(nil)
		recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e *model.AuditLog) {
			assert.Equal(t, model.AuditUserRoleChanged, e.Action)
			assert.Equal(t, "analyst", e.Details["old_role"])
			assert.Equal(t, "manager", e.Details["new_role"])
			assert.Equal(t, "analyst@acme.com", e.Details["email"])
		})

		user, err := svc.UpdateUserRole(ctx, service.UpdateRoleInput{
			ActorID: admin.ID, TargetUserID: analyst.ID, OrganizationID: orgID, NewRole: "manager",
		})
		require.NoError(t, err)
		assert.Equal(t, model.RoleManager, *user.OrganizationRole)
	})

	t.Run("manager cannot grant admin", func(t *testing.T) {
		svc, userRepo, _ := newMemberService(t)
		manager := newMember(orgID, model.RoleManager, "manager@acme.com")
		viewer := newMember(orgID, model.RoleViewer, "viewer@acme.com")

		userRepo.EXPECT().FindByID(gomock.Any(), manager.ID).Return(manager, nil)
		userRepo.EXPECT().FindByID(gomock.Any(), viewer.ID).Return(viewer, nil)

		_, err := svc.UpdateUserRole(ctx, service.UpdateRoleInput{
			ActorID: manager.ID, TargetUserID: viewer.ID, OrganizationID: orgID, NewRole: "admin",
		})
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("cannot change own role", func(t *testing.T) {
		svc, userRepo, _ := newMemberService(t)
		admin := newMember(orgID, model.RoleAdmin, "admin@acme.com")
		userRepo.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil).Times(2)

		_, err := svc.UpdateUserRole(ctx, service.UpdateRoleInput{
			ActorID: admin.ID, TargetUserID: admin.ID, OrganizationID: orgID, NewRole: "viewer",
		})
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("target in another organization", func(t *testing.T) {
		svc, userRepo, _ := newMemberService(t)
		admin := newMember(orgID, model.RoleAdmin, "admin@acme.com")
		stranger := newMember(uuid.New(), model.RoleViewer, "viewer@other.com")

		userRepo.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
		userRepo.EXPECT().FindByID(gomock.Any(), stranger.ID).Return(stranger, nil)

		_, err := svc.UpdateUserRole(ctx, service.UpdateRoleInput{
			ActorID: admin.ID, TargetUserID: stranger.ID, OrganizationID: orgID, NewRole: "analyst",
		})
		assert.ErrorIs(t, err, domain.ErrCrossOrganizationMismatch)
	})

	t.Run("concurrent change is a conflict", func(t *testing.T) {
		svc, userRepo, _ := newMemberService(t)
		admin := newMember(orgID, model.RoleAdmin, "admin@acme.com")
		viewer := newMember(orgID, model.RoleViewer, "viewer@acme.com")

		userRepo.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
		userRepo.EXPECT().FindByID(gomock.Any(), viewer.ID).Return(viewer, nil)
		userRepo.EXPECT().UpdateRole(gomock.Any(), viewer.ID, orgID, model.RoleViewer, model.RoleAnalyst).Return(domain.ErrConflict)

		_, err := svc.UpdateUserRole(ctx, service.UpdateRoleInput{
			ActorID: admin.ID, TargetUserID: viewer.ID, OrganizationID: orgID, NewRole: "analyst",
		})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("unknown role", func(t *testing.T) {
		svc, _, _ := newMemberService(t)

		_, err := svc.UpdateUserRole(ctx, service.UpdateRoleInput{
			ActorID: uuid.New(), TargetUserID: uuid.New(), OrganizationID: orgID, NewRole: "superuser",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestRemoveUser(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("manager removes analyst", func(t *testing.T) {
		svc, userRepo, recorder := newMemberService(t)
		manager := newMember(orgID, model.RoleManager, "manager@acme.com")
		analyst := newMember(orgID, model.RoleAnalyst, "analyst@acme.com")

		userRepo.EXPECT().FindByID(gomock.Any(), manager.ID).Return(manager, nil)
		userRepo.EXPECT().FindByID(gomock.Any(), analyst.ID).Return(analyst, nil)
		userRepo.EXPECT().RemoveFromOrganization(gomock.Any(), analyst.ID, orgID, model.RoleAnalyst, model.PlanFree).Return(nil)
		recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e *model.AuditLog) {
			assert.Equal(t, model.AuditUserRemoved, e.Action)
			assert.Equal(t, "analyst@acme.com", e.Details["email"])
			assert.Equal(t, "analyst", e.Details["role"])
		})

		err := svc.RemoveUser(ctx, service.RemoveUserInput{
			ActorID: manager.ID, TargetUserID: analyst.ID, OrganizationID: orgID,
		})
		require.NoError(t, err)
	})

	t.Run("equal rank cannot remove", func(t *testing.T) {
		svc, userRepo, _ := newMemberService(t)
		a := newMember(orgID, model.RoleAdmin, "a@acme.com")
		b := newMember(orgID, model.RoleAdmin, "b@acme.com")

		userRepo.EXPECT().FindByID(gomock.Any(), a.ID).Return(a, nil)
		userRepo.EXPECT().FindByID(gomock.Any(), b.ID).Return(b, nil)

		err := svc.RemoveUser(ctx, service.RemoveUserInput{ActorID: a.ID, TargetUserID: b.ID, OrganizationID: orgID})
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("actor outside organization", func(t *testing.T) {
		svc, userRepo, _ := newMemberService(t)
		outsider := newLoneUser("x@else.com")
		viewer := newMember(orgID, model.RoleViewer, "viewer@acme.com")

		userRepo.EXPECT().FindByID(gomock.Any(), outsider.ID).Return(outsider, nil)
		userRepo.EXPECT().FindByID(gomock.Any(), viewer.ID).Return(viewer, nil)

		err := svc.RemoveUser(ctx, service.RemoveUserInput{ActorID: outsider.ID, TargetUserID: viewer.ID, OrganizationID: orgID})
		assert.ErrorIs(t, err, domain.ErrCrossOrganizationMismatch)
	})

	t.Run("target already removed", func(t *testing.T) {
		svc, userRepo, _ := newMemberService(t)
		admin := newMember(orgID, model.RoleAdmin, "admin@acme.com")
		viewer := newMember(orgID, model.RoleViewer, "viewer@acme.com")

		userRepo.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
		userRepo.EXPECT().FindByID(gomock.Any(), viewer.ID).Return(viewer, nil)
		userRepo.EXPECT().RemoveFromOrganization(gomock.Any(), viewer.ID, orgID, model.RoleViewer, model.PlanFree).Return(domain.ErrConflict)

		err := svc.RemoveUser(ctx, service.RemoveUserInput{ActorID: admin.ID, TargetUserID: viewer.ID, OrganizationID: orgID})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("unknown target", func(t *testing.T) {
		svc, userRepo, _ := newMemberService(t)
		admin := newMember(orgID, model.RoleAdmin, "admin@acme.com")
		missing := uuid.New()

		userRepo.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
		userRepo.EXPECT().FindByID(gomock.Any(), missing).Return(nil, domain.ErrUserNotFound)

		err := svc.RemoveUser(ctx, service.RemoveUserInput{ActorID: admin.ID, TargetUserID: missing, OrganizationID: orgID})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
