// internal/repository/user.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dangerclosesec/orgaccess/internal/domain"
	"github.com/dangerclosesec/orgaccess/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepositoryIface is the membership store. Users themselves are created
// by the identity provider; only the organization columns are written here.
type UserRepositoryIface interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.User, error)
	// UpdateRole moves the user from one role to another only while the user
	// still holds from in orgID. Returns domain.ErrConflict otherwise.
	UpdateRole(ctx context.Context, userID, orgID uuid.UUID, from, to model.Role) error
	// RemoveFromOrganization clears the membership under the same precondition
	// as UpdateRole, sets plan and releases the seat.
	RemoveFromOrganization(ctx context.Context, userID, orgID uuid.UUID, from model.Role, plan model.PlanTag) error
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	result := r.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", result.Error)
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	result := r.db.WithContext(ctx).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", result.Error)
	}
	return &user, nil
}

// FindByOrganization returns the organization's members, oldest first.
func (r *UserRepository) FindByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.User, error) {
	var users []*model.User
	result := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("organization_joined_at ASC").
		Find(&users)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find organization users: %w", result.Error)
	}
	return users, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, userID, orgID uuid.UUID, from, to model.Role) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND organization_id = ? AND organization_role = ?", userID, orgID, from).
		Update("organization_role", to)
	if result.Error != nil {
		return fmt.Errorf("failed to update user role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *UserRepository) RemoveFromOrganization(ctx context.Context, userID, orgID uuid.UUID, from model.Role, plan model.PlanTag) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.User{}).
			Where("id = ? AND organization_id = ? AND organization_role = ?", userID, orgID, from).
			Updates(map[string]interface{}{
				"organization_id":        nil,
				"organization_role":      nil,
				"organization_joined_at": nil,
				"plan":                   plan,
			})
		if result.Error != nil {
			return fmt.Errorf("clearing membership: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrConflict
		}

		if err := tx.Model(&model.Organization{}).
			Where("id = ?", orgID).
			Update("seat_count", gorm.Expr("GREATEST(seat_count - 1, 0)")).Error; err != nil {
			return fmt.Errorf("releasing seat: %w", err)
		}
		return nil
	})
}
