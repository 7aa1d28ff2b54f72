// internal/repository/organization.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dangerclosesec/orgaccess/internal/domain"
	"github.com/dangerclosesec/orgaccess/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrganizationRepositoryIface interface {
	// CreateWithAdmin inserts org and makes adminID its first admin member.
	CreateWithAdmin(ctx context.Context, org *model.Organization, adminID uuid.UUID, joinedAt time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	FindByDomain(ctx context.Context, domain string) (*model.Organization, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, changes map[string]interface{}) error
	UpdateUsage(ctx context.Context, id uuid.UUID, usage model.OrganizationUsage, now time.Time) error
	// RecordAnalysis stores one analysis by userID and rederives the
	// organization's usage counters from the analyses of its members.
	RecordAnalysis(ctx context.Context, id, userID uuid.UUID, now time.Time) (*model.Organization, error)
}

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) CreateWithAdmin(ctx context.Context, org *model.Organization, adminID uuid.UUID, joinedAt time.Time) error {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if org.Domain != nil {
			var count int64
			if err := tx.Model(&model.Organization{}).
				Where("domain = ?", *org.Domain).
				Count(&count).Error; err != nil {
				return fmt.Errorf("checking organization domain: %w", err)
			}
			if count > 0 {
				return domain.ErrDomainTaken
			}
		}

		if err := tx.Create(org).Error; err != nil {
			if isUniqueViolation(err, constraintOrganizationDomain) {
				return domain.ErrDomainTaken
			}
			return fmt.Errorf("creating organization: %w", err)
		}

		result := tx.Model(&model.User{}).
			Where("id = ? AND organization_id IS NULL", adminID).
			Updates(map[string]interface{}{
				"organization_id":        org.ID,
				"organization_role":      model.RoleAdmin,
				"organization_joined_at": joinedAt,
				"plan":                   org.Plan,
			})
		if result.Error != nil {
			return fmt.Errorf("assigning organization admin: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return membershipMissReason(tx, adminID)
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, domain.ErrDomainTaken) ||
			errors.Is(err, domain.ErrAlreadyInOrganization) ||
			errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

func (r *OrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("finding organization: %w", err)
	}
	return &org, nil
}

func (r *OrganizationRepository) FindByDomain(ctx context.Context, domainName string) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).First(&org, "domain = ?", domainName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("finding organization by domain: %w", err)
	}
	return &org, nil
}

// UpdateSettings applies changes, keyed by column name, to a single organization.
func (r *OrganizationRepository) UpdateSettings(ctx context.Context, id uuid.UUID, changes map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Organization{}).
		Where("id = ?", id).
		Updates(changes)
	if result.Error != nil {
		if isUniqueViolation(result.Error, constraintOrganizationDomain) {
			return domain.ErrDomainTaken
		}
		return fmt.Errorf("updating organization: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}

// UpdateUsage stores a recomputed usage snapshot. last_reset_at only moves
// when the snapshot starts a new period.
func (r *OrganizationRepository) UpdateUsage(ctx context.Context, id uuid.UUID, usage model.OrganizationUsage, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Organization{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"seat_count":             usage.SeatCount,
			"analysis_count":         usage.AnalysisCount,
			"monthly_analysis_count": usage.MonthlyAnalysisCount,
			"last_reset_at":          gorm.Expr("CASE WHEN usage_period = ? THEN last_reset_at ELSE ? END", usage.UsagePeriod, now),
			"usage_period":           usage.UsagePeriod,
		})
	if result.Error != nil {
		return fmt.Errorf("updating organization usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}

// RecordAnalysis inserts the analysis row and recomputes the counters from the
// analyses table, the same source GetOrganizationDetails reads, so the two
// never disagree. The user must still be a member of the organization.
func (r *OrganizationRepository) RecordAnalysis(ctx context.Context, id, userID uuid.UUID, now time.Time) (*model.Organization, error) {
	period := model.UsagePeriod(now)
	monthStart := model.MonthStart(now)

	var org model.Organization
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var members int64
		if err := tx.Model(&model.User{}).
			Where("id = ? AND organization_id = ?", userID, id).
			Count(&members).Error; err != nil {
			return fmt.Errorf("checking membership: %w", err)
		}
		if members == 0 {
			return domain.ErrConflict
		}

		if err := tx.Create(&model.Analysis{ID: uuid.New(), UserID: userID, CreatedAt: now}).Error; err != nil {
			return fmt.Errorf("recording analysis: %w", err)
		}

		memberAnalyses := tx.Model(&model.Analysis{}).
			Select("COUNT(*)").
			Joins("JOIN users ON users.id = analyses.user_id").
			Where("users.organization_id = ?", id)
		monthlyAnalyses := tx.Model(&model.Analysis{}).
			Select("COUNT(*)").
			Joins("JOIN users ON users.id = analyses.user_id").
			Where("users.organization_id = ? AND analyses.created_at >= ?", id, monthStart)

		result := tx.Model(&org).
			Clauses(clause.Returning{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"analysis_count":         memberAnalyses,
				"monthly_analysis_count": monthlyAnalyses,
				"last_reset_at":          gorm.Expr("CASE WHEN usage_period = ? THEN last_reset_at ELSE ? END", period, now),
				"usage_period":           period,
			})
		if result.Error != nil {
			return fmt.Errorf("recording analysis usage: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrOrganizationNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("transaction failed: %w", err)
	}
	return &org, nil
}

// membershipMissReason explains why a conditional membership update matched no
// row: either the user does not exist or already belongs to an organization.
func membershipMissReason(tx *gorm.DB, userID uuid.UUID) error {
	var count int64
	if err := tx.Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return fmt.Errorf("checking user: %w", err)
	}
	if count == 0 {
		return domain.ErrUserNotFound
	}
	return domain.ErrAlreadyInOrganization
}

// DB returns the underlying database connection
func (r *OrganizationRepository) DB() *gorm.DB {
	return r.db
}
