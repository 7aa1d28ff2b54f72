package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/dangerclosesec/orgaccess/internal/domain"
	"github.com/dangerclosesec/orgaccess/internal/mocks"
	"github.com/dangerclosesec/orgaccess/internal/model"
	"github.com/dangerclosesec/orgaccess/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type orgFixture struct {
	orgRepo      *mocks.MockOrganizationRepositoryIface
	userRepo     *mocks.MockUserRepositoryIface
	analysisRepo *mocks.MockAnalysisRepositoryIface
	recorder     *mocks.MockRecorder
	svc          *service.OrganizationService
}

func newOrgFixture(t *testing.T) *orgFixture {
	ctrl := gomock.NewController(t)
	f := &orgFixture{
		orgRepo:      mocks.NewMockOrganizationRepositoryIface(ctrl),
		userRepo:     mocks.NewMockUserRepositoryIface(ctrl),
		analysisRepo: mocks.NewMockAnalysisRepositoryIface(ctrl),
		recorder:     mocks.NewMockRecorder(ctrl),
	}
	f.svc = service.NewOrganizationService(f.orgRepo, f.userRepo, f.analysisRepo, f.recorder)
	f.svc.SetClock(fixedClock)
	return f
}

func TestCreateOrganization(t *testing.T) {
	ctx := context.Background()

	t.Run("creates organization with creator as admin", func(t *testing.T) {
		f := newOrgFixture(t)
		creator := newLoneUser("founder@acme.com")

		f.userRepo.EXPECT().FindByID(gomock.Any(), creator.ID).Return(creator, nil)
		f.orgRepo.EXPECT().FindByDomain(gomock.Any(), "acme.com").Return(nil, domain.ErrOrganizationNotFound)
		f.orgRepo.EXPECT().
			CreateWithAdmin(gomock.Any(), gomock.Any(), creator.ID, fixedNow).
			DoAndReturn(func(_ context.Context, org *model.Organization, _ uuid.UUID, _ time.Time) error {
				assert.Equal(t, "Acme", org.Name)
				require.NotNil(t, org.Domain)
				assert.Equal(t, "acme.com", *org.Domain)
				assert.Equal(t, model.PlanEnterprise, org.Plan)
				assert.Equal(t, 1, org.SeatCount)
				assert.Equal(t, "2026-10", org.UsagePeriod)
				return nil
			})
		f.recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e *model.AuditLog) {
			assert.Equal(t, model.AuditOrganizationCreated, e.Action)
			assert.Equal(t, creator.ID, e.ActorID)
			assert.Equal(t, "Acme", e.Details["name"])
			assert.Equal(t, "acme.com", e.Details["domain"])
		})

		org, err := f.svc.CreateOrganization(ctx, service.CreateOrganizationInput{
			Name:        "  Acme ",
			Domain:      "ACME.com",
			AdminUserID: creator.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "Acme", org.Name)
		assert.NotEqual(t, uuid.Nil, org.ID)
	})

	t.Run("domain taken", func(t *testing.T) {
		f := newOrgFixture(t)
		creator := newLoneUser("founder@acme.com")

		f.userRepo.EXPECT().FindByID(gomock.Any(), creator.ID).Return(creator, nil)
		f.orgRepo.EXPECT().FindByDomain(gomock.Any(), "acme.com").Return(&model.Organization{ID: uuid.New()}, nil)

		_, err := f.svc.CreateOrganization(ctx, service.CreateOrganizationInput{
			Name:        "Acme",
			Domain:      "acme.com",
			AdminUserID: creator.ID,
		})
		assert.ErrorIs(t, err, domain.ErrDomainTaken)
	})

	t.Run("creator already belongs to an organization", func(t *testing.T) {
		f := newOrgFixture(t)
		creator := newMember(uuid.New(), model.RoleViewer, "someone@acme.com")

		f.userRepo.EXPECT().FindByID(gomock.Any(), creator.ID).Return(creator, nil)

		_, err := f.svc.CreateOrganization(ctx, service.CreateOrganizationInput{
			Name:        "Acme",
			AdminUserID: creator.ID,
		})
		assert.ErrorIs(t, err, domain.ErrAlreadyInOrganization)
	})

	t.Run("without domain skips domain lookup", func(t *testing.T) {
		f := newOrgFixture(t)
		creator := newLoneUser("founder@acme.com")

		f.userRepo.EXPECT().FindByID(gomock.Any(), creator.ID).Return(creator, nil)
		f.orgRepo.EXPECT().
			CreateWithAdmin(gomock.Any(), gomock.Any(), creator.ID, fixedNow).
			DoAndReturn(func(_ context.Context, org *model.Organization, _ uuid.UUID, _ time.Time) error {
				assert.Nil(t, org.Domain)
				return nil
			})
		f.recorder.EXPECT().Record(gomock.Any(), gomock.Any())

		_, err := f.svc.CreateOrganization(ctx, service.CreateOrganizationInput{
			Name:        "Acme",
			AdminUserID: creator.ID,
		})
		require.NoError(t, err)
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newOrgFixture(t)

		_, err := f.svc.CreateOrganization(ctx, service.CreateOrganizationInput{
			Name:        "   ",
			AdminUserID: uuid.New(),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("store failure is not audited", func(t *testing.T) {
		f := newOrgFixture(t)
		creator := newLoneUser("founder@acme.com")

		f.userRepo.EXPECT().FindByID(gomock.Any(), creator.ID).Return(creator, nil)
		f.orgRepo.EXPECT().
			CreateWithAdmin(gomock.Any(), gomock.Any(), creator.ID, fixedNow).
			Return(domain.ErrAlreadyInOrganization)

		_, err := f.svc.CreateOrganization(ctx, service.CreateOrganizationInput{
			Name:        "Acme",
			AdminUserID: creator.ID,
		})
		assert.ErrorIs(t, err, domain.ErrAlreadyInOrganization)
	})
}

func TestGetOrganizationDetails(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("recomputes and persists usage", func(t *testing.T) {
		f := newOrgFixture(t)
		org := &model.Organization{ID: orgID, Name: "Acme", SeatCount: 7, UsagePeriod: "2026-09"}
		admin := newMember(orgID, model.RoleAdmin, "admin@acme.com")
		analyst := newMember(orgID, model.RoleAnalyst, "analyst@acme.com")
		viewer := newMember(orgID, model.RoleViewer, "viewer@acme.com")

		f.orgRepo.EXPECT().FindByID(gomock.Any(), orgID).Return(org, nil)
		f.userRepo.EXPECT().FindByOrganization(gomock.Any(), orgID).Return([]*model.User{admin, analyst, viewer}, nil)
		f.analysisRepo.EXPECT().
			CountByUsers(gomock.Any(), []uuid.UUID{admin.ID, analyst.ID, viewer.ID}, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)).
			Return(map[uuid.UUID]model.AnalysisCount{
				admin.ID:   {Total: 3, Monthly: 1},
				analyst.ID: {Total: 5, Monthly: 2},
			}, nil)
		f.orgRepo.EXPECT().UpdateUsage(gomock.Any(), orgID, model.OrganizationUsage{
			SeatCount:            3,
			AnalysisCount:        8,
			MonthlyAnalysisCount: 3,
			UsagePeriod:          "2026-10",
		}, fixedNow).Return(nil)

		details, err := f.svc.GetOrganizationDetails(ctx, orgID)
		require.NoError(t, err)

		assert.Equal(t, 3, details.Analytics.TotalUsers)
		assert.Equal(t, int64(8), details.Analytics.TotalAnalyses)
		assert.Equal(t, int64(3), details.Analytics.MonthlyAnalyses)
		assert.Equal(t, int64(2), details.Analytics.AverageAnalysesPerUser)

		require.Len(t, details.Members, 3)
		assert.Equal(t, model.RoleAnalyst, details.Members[1].Role)
		assert.Equal(t, int64(5), details.Members[1].AnalysisCount)
		assert.Equal(t, int64(0), details.Members[2].AnalysisCount)
		assert.Equal(t, "Test User", details.Members[0].Name)

		assert.Equal(t, 3, details.Organization.SeatCount)
		assert.Equal(t, "2026-10", details.Organization.UsagePeriod)
		require.NotNil(t, details.Organization.LastResetAt)
		assert.Equal(t, fixedNow, *details.Organization.LastResetAt)
	})

	t.Run("no members", func(t *testing.T) {
		f := newOrgFixture(t)

		f.orgRepo.EXPECT().FindByID(gomock.Any(), orgID).Return(&model.Organization{ID: orgID}, nil)
		f.userRepo.EXPECT().FindByOrganization(gomock.Any(), orgID).Return(nil, nil)
		f.analysisRepo.EXPECT().CountByUsers(gomock.Any(), gomock.Any(), gomock.Any()).Return(map[uuid.UUID]model.AnalysisCount{}, nil)
		f.orgRepo.EXPECT().UpdateUsage(gomock.Any(), orgID, gomock.Any(), fixedNow).Return(nil)

		details, err := f.svc.GetOrganizationDetails(ctx, orgID)
		require.NoError(t, err)
		assert.Equal(t, 0, details.Analytics.TotalUsers)
		assert.Equal(t, int64(0), details.Analytics.AverageAnalysesPerUser)
		assert.NotNil(t, details.Members)
	})

	t.Run("not found", func(t *testing.T) {
		f := newOrgFixture(t)
		f.orgRepo.EXPECT().FindByID(gomock.Any(), orgID).Return(nil, domain.ErrOrganizationNotFound)

		_, err := f.svc.GetOrganizationDetails(ctx, orgID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUpdateOrganizationSettings(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	strPtr := func(s string) *string { return &s }

	t.Run("only admins", func(t *testing.T) {
		for _, role := range []model.Role{model.RoleViewer, model.RoleAnalyst, model.RoleManager} {
			f := newOrgFixture(t)
			actor := newMember(orgID, role, "actor@acme.com")
			f.userRepo.EXPECT().FindByID(gomock.Any(), actor.ID).Return(actor, nil)

			_, err := f.svc.UpdateOrganizationSettings(ctx, orgID, service.OrganizationSettingsUpdate{Name: strPtr("New")}, actor.ID)
			assert.ErrorIs(t, err, domain.ErrPermissionDenied, role)
		}
	})

	t.Run("admin of another organization", func(t *testing.T) {
		f := newOrgFixture(t)
		actor := newMember(uuid.New(), model.RoleAdmin, "actor@other.com")
		f.userRepo.EXPECT().FindByID(gomock.Any(), actor.ID).Return(actor, nil)

		_, err := f.svc.UpdateOrganizationSettings(ctx, orgID, service.OrganizationSettingsUpdate{Name: strPtr("New")}, actor.ID)
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("applies allow-listed fields", func(t *testing.T) {
		f := newOrgFixture(t)
		admin := newMember(orgID, model.RoleAdmin, "admin@acme.com")
		current := &model.Organization{ID: orgID, Name: "Acme", Domain: strPtr("acme.com")}
		updated := &model.Organization{ID: orgID, Name: "Acme Corp", Domain: strPtr("acme.io")}

		f.userRepo.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
		gomock.InOrder(
			f.orgRepo.EXPECT().FindByID(gomock.Any(), orgID).Return(current, nil),
			f.orgRepo.EXPECT().FindByDomain(gomock.Any(), "acme.io").Return(nil, domain.ErrOrganizationNotFound),
			f.orgRepo.EXPECT().UpdateSettings(gomock.Any(), orgID, map[string]interface{}{
				"name":                   "Acme Corp",
				"domain":                 "acme.io",
				"branding_primary_color": "#112233",
			}).Return(nil),
			f.orgRepo.EXPECT().FindByID(gomock.Any(), orgID).Return(updated, nil),
		)
		f.recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e *model.AuditLog) {
			assert.Equal(t, model.AuditSettingsUpdated, e.Action)
			assert.Equal(t, []string{"branding_primary_color", "domain", "name"}, e.Details["fields"])
		})

		org, err := f.svc.UpdateOrganizationSettings(ctx, orgID, service.OrganizationSettingsUpdate{
			Name:     strPtr(" Acme Corp "),
			Domain:   strPtr("Acme.IO"),
			Branding: &service.BrandingUpdate{PrimaryColor: strPtr("#112233")},
		}, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, org)
	})

	t.Run("domain owned by another organization", func(t *testing.T) {
		f := newOrgFixture(t)
		admin := newMember(orgID, model.RoleAdmin, "admin@acme.com")

		f.userRepo.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
		f.orgRepo.EXPECT().FindByID(gomock.Any(), orgID).Return(&model.Organization{ID: orgID}, nil)
		f.orgRepo.EXPECT().FindByDomain(gomock.Any(), "taken.com").Return(&model.Organization{ID: uuid.New()}, nil)

		_, err := f.svc.UpdateOrganizationSettings(ctx, orgID, service.OrganizationSettingsUpdate{Domain: strPtr("taken.com")}, admin.ID)
		assert.ErrorIs(t, err, domain.ErrDomainTaken)
	})

	t.Run("unchanged domain skips uniqueness check", func(t *testing.T) {
		f := newOrgFixture(t)
		admin := newMember(orgID, model.RoleAdmin, "admin@acme.com")
		current := &model.Organization{ID: orgID, Domain: strPtr("acme.com")}

		f.userRepo.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
		f.orgRepo.EXPECT().FindByID(gomock.Any(), orgID).Return(current, nil).Times(2)
		f.orgRepo.EXPECT().UpdateSettings(gomock.Any(), orgID, map[string]interface{}{"domain": "acme.com"}).Return(nil)
		f.recorder.EXPECT().Record(gomock.Any(), gomock.Any())

		_, err := f.svc.UpdateOrganizationSettings(ctx, orgID, service.OrganizationSettingsUpdate{Domain: strPtr("acme.com")}, admin.ID)
		require.NoError(t, err)
	})

	t.Run("empty domain clears it", func(t *testing.T) {
		f := newOrgFixture(t)
		admin := newMember(orgID, model.RoleAdmin, "admin@acme.com")

		f.userRepo.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
		f.orgRepo.EXPECT().FindByID(gomock.Any(), orgID).Return(&model.Organization{ID: orgID, Domain: strPtr("acme.com")}, nil).Times(2)
		f.orgRepo.EXPECT().UpdateSettings(gomock.Any(), orgID, map[string]interface{}{"domain": nil}).Return(nil)
		f.recorder.EXPECT().Record(gomock.Any(), gomock.Any())

		_, err := f.svc.UpdateOrganizationSettings(ctx, orgID, service.OrganizationSettingsUpdate{Domain: strPtr("")}, admin.ID)
		require.NoError(t, err)
	})

	t.Run("nothing to change", func(t *testing.T) {
		f := newOrgFixture(t)
		admin := newMember(orgID, model.RoleAdmin, "admin@acme.com")
		current := &model.Organization{ID: orgID, Name: "Acme"}

		f.userRepo.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
		f.orgRepo.EXPECT().FindByID(gomock.Any(), orgID).Return(current, nil)

		org, err := f.svc.UpdateOrganizationSettings(ctx, orgID, service.OrganizationSettingsUpdate{}, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, current, org)
	})

	t.Run("organization vanished", func(t *testing.T) {
		f := newOrgFixture(t)
		admin := newMember(orgID, model.RoleAdmin, "admin@acme.com")

		f.userRepo.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
		f.orgRepo.EXPECT().FindByID(gomock.Any(), orgID).Return(&model.Organization{ID: orgID}, nil)
		f.orgRepo.EXPECT().UpdateSettings(gomock.Any(), orgID, gomock.Any()).Return(domain.ErrOrganizationNotFound)

		_, err := f.svc.UpdateOrganizationSettings(ctx, orgID, service.OrganizationSettingsUpdate{Name: strPtr("X")}, admin.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("invalid branding color", func(t *testing.T) {
		f := newOrgFixture(t)

		_, err := f.svc.UpdateOrganizationSettings(ctx, orgID, service.OrganizationSettingsUpdate{
			Branding: &service.BrandingUpdate{PrimaryColor: strPtr("blue-ish")},
		}, uuid.New())
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestGetOrganizationBilling(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("monthly cycle", func(t *testing.T) {
		f := newOrgFixture(t)
		manager := newMember(orgID, model.RoleManager, "manager@acme.com")

		f.userRepo.EXPECT().FindByID(gomock.Any(), manager.ID).Return(manager, nil)
		f.orgRepo.EXPECT().FindByID(gomock.Any(), orgID).Return(&model.Organization{
			ID:           orgID,
			Plan:         model.PlanEnterprise,
			SeatCount:    4,
			MaxSeats:     10,
			PricePerSeat: 10,
			BillingCycle: model.BillingMonthly,
		}, nil)

		bill, err := f.svc.GetOrganizationBilling(ctx, orgID, manager.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, bill.Seats)
		assert.Equal(t, 10, bill.MaxSeats)
		assert.InDelta(t, 40.0, bill.MonthlyTotal, 1e-9)
		assert.InDelta(t, 408.0, bill.YearlyTotal, 1e-9)
		assert.Equal(t, time.Date(2026, 11, 16, 12, 0, 0, 0, time.UTC), bill.NextBillingDate)
	})

	t.Run("yearly cycle", func(t *testing.T) {
		f := newOrgFixture(t)
		admin := newMember(orgID, model.RoleAdmin, "admin@acme.com")

		f.userRepo.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
		f.orgRepo.EXPECT().FindByID(gomock.Any(), orgID).Return(&model.Organization{
			ID:           orgID,
			BillingCycle: model.BillingYearly,
		}, nil)

		bill, err := f.svc.GetOrganizationBilling(ctx, orgID, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2027, 10, 16, 12, 0, 0, 0, time.UTC), bill.NextBillingDate)
	})

	t.Run("analysts are denied", func(t *testing.T) {
		f := newOrgFixture(t)
		analyst := newMember(orgID, model.RoleAnalyst, "analyst@acme.com")
		f.userRepo.EXPECT().FindByID(gomock.Any(), analyst.ID).Return(analyst, nil)

		_, err := f.svc.GetOrganizationBilling(ctx, orgID, analyst.ID)
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})
}

func TestRecordAnalysis(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("viewer denied", func(t *testing.T) {
		f := newOrgFixture(t)
		viewer := newMember(orgID, model.RoleViewer, "viewer@acme.com")
		f.userRepo.EXPECT().FindByID(gomock.Any(), viewer.ID).Return(viewer, nil)

		_, err := f.svc.RecordAnalysis(ctx, orgID, viewer.ID)
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("analyst counted", func(t *testing.T) {
		f := newOrgFixture(t)
		analyst := newMember(orgID, model.RoleAnalyst, "analyst@acme.com")

		f.userRepo.EXPECT().FindByID(gomock.Any(), analyst.ID).Return(analyst, nil)
		f.orgRepo.EXPECT().RecordAnalysis(gomock.Any(), orgID, analyst.ID, fixedNow).Return(&model.Organization{
			ID:                   orgID,
			SeatCount:            2,
			AnalysisCount:        11,
			MonthlyAnalysisCount: 1,
			UsagePeriod:          "2026-10",
		}, nil)
		f.recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e *model.AuditLog) {
			assert.Equal(t, model.AuditAnalysisCreated, e.Action)
			assert.Equal(t, "2026-10", e.Details["period"])
		})

		usage, err := f.svc.RecordAnalysis(ctx, orgID, analyst.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(11), usage.AnalysisCount)
		assert.Equal(t, int64(1), usage.MonthlyAnalysisCount)
	})
}

func TestMemberRole(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	f := newOrgFixture(t)

	member := newMember(orgID, model.RoleManager, "m@acme.com")
	outsider := newLoneUser("o@else.com")
	f.userRepo.EXPECT().FindByID(gomock.Any(), member.ID).Return(member, nil)
	f.userRepo.EXPECT().FindByID(gomock.Any(), outsider.ID).Return(outsider, nil)

	role, err := f.svc.MemberRole(ctx, member.ID, orgID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleManager, role)

	_, err = f.svc.MemberRole(ctx, outsider.ID, orgID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}
