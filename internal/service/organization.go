// internal/service/organization.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dangerclosesec/orgaccess/internal/audit"
	"github.com/dangerclosesec/orgaccess/internal/domain"
	"github.com/dangerclosesec/orgaccess/internal/model"
	"github.com/dangerclosesec/orgaccess/internal/policy"
	"github.com/dangerclosesec/orgaccess/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// yearlyDiscount is the fraction of the annualized price charged on yearly totals.
const yearlyDiscount = 0.85

type OrganizationService struct {
	orgRepo      repository.OrganizationRepositoryIface
	userRepo     repository.UserRepositoryIface
	analysisRepo repository.AnalysisRepositoryIface
	recorder     audit.Recorder
	validate     *validator.Validate
	now          clock
}

func NewOrganizationService(
	orgRepo repository.OrganizationRepositoryIface,
	userRepo repository.UserRepositoryIface,
	analysisRepo repository.AnalysisRepositoryIface,
	recorder audit.Recorder,
) *OrganizationService {
	return &OrganizationService{
		orgRepo:      orgRepo,
		userRepo:     userRepo,
		analysisRepo: analysisRepo,
		recorder:     recorder,
		validate:     validator.New(),
		now:          utcNow,
	}
}

// SetClock replaces the time source.
func (s *OrganizationService) SetClock(now func() time.Time) {
	s.now = now
}

type CreateOrganizationInput struct {
	Name        string         `json:"name" validate:"required,max=255"`
	Domain      string         `json:"domain" validate:"omitempty,fqdn"`
	AdminUserID uuid.UUID      `json:"-" validate:"required"`
	Branding    model.Branding `json:"branding"`
}

// CreateOrganization creates an enterprise organization with its creator as
// the first admin member.
func (s *OrganizationService) CreateOrganization(ctx context.Context, input CreateOrganizationInput) (*model.Organization, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Domain = normalizeDomain(input.Domain)
	if err := s.validate.Struct(input); err != nil {
		return nil, invalidInput(err)
	}

	creator, err := s.userRepo.FindByID(ctx, input.AdminUserID)
	if err != nil {
		return nil, err
	}
	if creator.InOrganization() {
		return nil, domain.ErrAlreadyInOrganization
	}

	var orgDomain *string
	if input.Domain != "" {
		if err := s.ensureDomainAvailable(ctx, input.Domain, uuid.Nil); err != nil {
			return nil, err
		}
		orgDomain = &input.Domain
	}

	now := s.now()
	org := &model.Organization{
		ID:           uuid.New(),
		Name:         input.Name,
		Domain:       orgDomain,
		Branding:     input.Branding,
		Plan:         model.PlanEnterprise,
		BillingCycle: model.BillingMonthly,
		SeatCount:    1,
		UsagePeriod:  model.UsagePeriod(now),
		LastResetAt:  &now,
	}

	if err := s.orgRepo.CreateWithAdmin(ctx, org, creator.ID, now); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, &model.AuditLog{
		ActorID:        creator.ID,
		OrganizationID: org.ID,
		Action:         model.AuditOrganizationCreated,
		ResourceType:   model.ResourceOrganization,
		ResourceID:     org.ID.String(),
		Details: model.JSONMap{
			"name":   org.Name,
			"domain": input.Domain,
		},
	})

	return org, nil
}

// MemberSummary is one row of an organization roster
type MemberSummary struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          model.Role `json:"role"`
	JoinedAt      *time.Time `json:"joined_at"`
	AnalysisCount int64      `json:"analysis_count"`
}

// OrganizationAnalytics aggregates member usage
type OrganizationAnalytics struct {
	TotalUsers             int   `json:"total_users"`
	TotalAnalyses          int64 `json:"total_analyses"`
	MonthlyAnalyses        int64 `json:"monthly_analyses"`
	AverageAnalysesPerUser int64 `json:"average_analyses_per_user"`
}

type OrganizationDetails struct {
	Organization *model.Organization   `json:"organization"`
	Members      []MemberSummary       `json:"members"`
	Analytics    OrganizationAnalytics `json:"analytics"`
}

// GetOrganizationDetails recomputes the organization's usage from its
// members, persists it and returns the organization with its roster.
func (s *OrganizationService) GetOrganizationDetails(ctx context.Context, orgID uuid.UUID) (*OrganizationDetails, error) {
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	members, err := s.userRepo.FindByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}

	now := s.now()
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}

	counts, err := s.analysisRepo.CountByUsers(ctx, ids, model.MonthStart(now))
	if err != nil {
		return nil, fmt.Errorf("counting analyses: %w", err)
	}

	details := &OrganizationDetails{
		Organization: org,
		Members:      make([]MemberSummary, 0, len(members)),
	}
	for _, m := range members {
		c := counts[m.ID]
		details.Analytics.TotalAnalyses += c.Total
		details.Analytics.MonthlyAnalyses += c.Monthly

		summary := MemberSummary{
			ID:            m.ID,
			Email:         m.Email,
			Name:          m.DisplayName(),
			JoinedAt:      m.JoinedOrganizationAt,
			AnalysisCount: c.Total,
		}
		if m.OrganizationRole != nil {
			summary.Role = *m.OrganizationRole
		}
		details.Members = append(details.Members, summary)
	}

	details.Analytics.TotalUsers = len(members)
	if len(members) > 0 {
		details.Analytics.AverageAnalysesPerUser = details.Analytics.TotalAnalyses / int64(len(members))
	}

	usage := model.OrganizationUsage{
		SeatCount:            len(members),
		AnalysisCount:        details.Analytics.TotalAnalyses,
		MonthlyAnalysisCount: details.Analytics.MonthlyAnalyses,
		UsagePeriod:          model.UsagePeriod(now),
	}
	if err := s.orgRepo.UpdateUsage(ctx, orgID, usage, now); err != nil {
		return nil, err
	}

	if org.UsagePeriod != usage.UsagePeriod {
		org.LastResetAt = &now
	}
	org.SeatCount = usage.SeatCount
	org.AnalysisCount = usage.AnalysisCount
	org.MonthlyAnalysisCount = usage.MonthlyAnalysisCount
	org.UsagePeriod = usage.UsagePeriod

	return details, nil
}

// BrandingUpdate carries the branding fields a settings update may change
type BrandingUpdate struct {
	LogoURL        *string `json:"logo_url" validate:"omitempty,url"`
	PrimaryColor   *string `json:"primary_color" validate:"omitempty,hexcolor"`
	SecondaryColor *string `json:"secondary_color" validate:"omitempty,hexcolor"`
	DisplayName    *string `json:"display_name" validate:"omitempty,max=255"`
}

// OrganizationSettingsUpdate lists every mutable organization setting. Nil
// fields are left unchanged; an empty Domain clears the domain.
type OrganizationSettingsUpdate struct {
	Name     *string         `json:"name" validate:"omitempty,max=255"`
	Domain   *string         `json:"domain" validate:"omitempty,fqdn"`
	Branding *BrandingUpdate `json:"branding"`
}

// UpdateOrganizationSettings applies update on behalf of an admin of orgID.
func (s *OrganizationService) UpdateOrganizationSettings(ctx context.Context, orgID uuid.UUID, update OrganizationSettingsUpdate, actorID uuid.UUID) (*model.Organization, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, invalidInput(errors.New("name must not be empty"))
		}
		update.Name = &name
	}
	if update.Domain != nil {
		d := normalizeDomain(*update.Domain)
		update.Domain = &d
	}
	if err := s.validate.Struct(update); err != nil {
		return nil, invalidInput(err)
	}

	_, role, ok, err := memberRole(ctx, s.userRepo, actorID, orgID)
	if err != nil {
		return nil, err
	}
	if !ok || !policy.CanManageSettings(policy.Rank(role)) {
		return nil, domain.ErrPermissionDenied
	}

	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if update.Name != nil {
		changes["name"] = *update.Name
	}
	if update.Domain != nil {
		if *update.Domain == "" {
			changes["domain"] = nil
		} else {
			if org.Domain == nil || !strings.EqualFold(*org.Domain, *update.Domain) {
				if err := s.ensureDomainAvailable(ctx, *update.Domain, orgID); err != nil {
					return nil, err
				}
			}
			changes["domain"] = *update.Domain
		}
	}
	if b := update.Branding; b != nil {
		if b.LogoURL != nil {
			changes["branding_logo_url"] = *b.LogoURL
		}
		if b.PrimaryColor != nil {
			changes["branding_primary_color"] = *b.PrimaryColor
		}
		if b.SecondaryColor != nil {
			changes["branding_secondary_color"] = *b.SecondaryColor
		}
		if b.DisplayName != nil {
			changes["branding_display_name"] = *b.DisplayName
		}
	}

	if len(changes) == 0 {
		return org, nil
	}

	if err := s.orgRepo.UpdateSettings(ctx, orgID, changes); err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(changes))
	for k := range changes {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	s.recorder.Record(ctx, &model.AuditLog{
		ActorID:        actorID,
		OrganizationID: orgID,
		Action:         model.AuditSettingsUpdated,
		ResourceType:   model.ResourceOrganization,
		ResourceID:     orgID.String(),
		Details:        model.JSONMap{"fields": fields},
	})

	return s.orgRepo.FindByID(ctx, orgID)
}

type BillingSummary struct {
	OrganizationID     uuid.UUID          `json:"organization_id"`
	Plan               model.PlanTag      `json:"plan"`
	BillingCustomerRef string             `json:"billing_customer_ref"`
	BillingCycle       model.BillingCycle `json:"billing_cycle"`
	Seats              int                `json:"seats"`
	MaxSeats           int                `json:"max_seats"`
	PricePerSeat       float64            `json:"price_per_seat"`
	MonthlyTotal       float64            `json:"monthly_total"`
	YearlyTotal        float64            `json:"yearly_total"`
	NextBillingDate    time.Time          `json:"next_billing_date"`
}

// GetOrganizationBilling computes the organization's current charges for a
// manager or admin. It never writes.
func (s *OrganizationService) GetOrganizationBilling(ctx context.Context, orgID, actorID uuid.UUID) (*BillingSummary, error) {
	_, role, ok, err := memberRole(ctx, s.userRepo, actorID, orgID)
	if err != nil {
		return nil, err
	}
	if !ok || !policy.CanViewBilling(policy.Rank(role)) {
		return nil, domain.ErrPermissionDenied
	}

	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cycle := org.BillingCycle
	if cycle == "" {
		cycle = model.BillingMonthly
	}
	next := now.AddDate(0, 1, 0)
	if cycle == model.BillingYearly {
		next = now.AddDate(1, 0, 0)
	}

	monthly := float64(org.SeatCount) * org.PricePerSeat

	return &BillingSummary{
		OrganizationID:     org.ID,
		Plan:               org.Plan,
		BillingCustomerRef: org.BillingCustomerRef,
		BillingCycle:       cycle,
		Seats:              org.SeatCount,
		MaxSeats:           org.MaxSeats,
		PricePerSeat:       org.PricePerSeat,
		MonthlyTotal:       monthly,
		YearlyTotal:        monthly * 12 * yearlyDiscount,
		NextBillingDate:    next,
	}, nil
}

// RecordAnalysis stores one document analysis run by actorID and returns the
// organization's lifetime and monthly usage derived from the analyses history.
func (s *OrganizationService) RecordAnalysis(ctx context.Context, orgID, actorID uuid.UUID) (*model.OrganizationUsage, error) {
	_, role, ok, err := memberRole(ctx, s.userRepo, actorID, orgID)
	if err != nil {
		return nil, err
	}
	if !ok || !policy.CanRecordAnalysis(policy.Rank(role)) {
		return nil, domain.ErrPermissionDenied
	}

	org, err := s.orgRepo.RecordAnalysis(ctx, orgID, actorID, s.now())
	if err != nil {
		return nil, err
	}

	usage := &model.OrganizationUsage{
		SeatCount:            org.SeatCount,
		AnalysisCount:        org.AnalysisCount,
		MonthlyAnalysisCount: org.MonthlyAnalysisCount,
		UsagePeriod:          org.UsagePeriod,
	}

	s.recorder.Record(ctx, &model.AuditLog{
		ActorID:        actorID,
		OrganizationID: orgID,
		Action:         model.AuditAnalysisCreated,
		ResourceType:   model.ResourceOrganization,
		ResourceID:     orgID.String(),
		Details: model.JSONMap{
			"analysis_count":         usage.AnalysisCount,
			"monthly_analysis_count": usage.MonthlyAnalysisCount,
			"period":                 usage.UsagePeriod,
		},
	})

	return usage, nil
}

// MemberRole returns userID's role in orgID, or domain.ErrPermissionDenied
// when the user is not a member.
func (s *OrganizationService) MemberRole(ctx context.Context, userID, orgID uuid.UUID) (model.Role, error) {
	_, role, ok, err := memberRole(ctx, s.userRepo, userID, orgID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrPermissionDenied
	}
	return role, nil
}

// ensureDomainAvailable fails with domain.ErrDomainTaken when d belongs to an
// organization other than self.
func (s *OrganizationService) ensureDomainAvailable(ctx context.Context, d string, self uuid.UUID) error {
	existing, err := s.orgRepo.FindByDomain(ctx, d)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return domain.ErrDomainTaken
	}
	return nil
}

func normalizeDomain(d string) string {
	return strings.ToLower(strings.TrimSpace(d))
}
