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

// InvitationRepositoryIface is the token-indexed invitation store.
type InvitationRepositoryIface interface {
	Create(ctx context.Context, inv *model.Invitation, now time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invitation, error)
	FindByToken(ctx context.Context, token string) (*model.Invitation, error)
	FindPending(ctx context.Context, email string, orgID uuid.UUID, now time.Time) (*model.Invitation, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.Invitation, error)
	MarkEmailSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	Cancel(ctx context.Context, orgID, id uuid.UUID, now time.Time) (*model.Invitation, error)
	Accept(ctx context.Context, id, userID uuid.UUID, now time.Time) (*model.Organization, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type InvitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// Create inserts a pending invitation. Pending rows for the same email and
// organization whose window has passed are labelled expired first so the
// partial unique index only guards live invitations.
func (r *InvitationRepository) Create(ctx context.Context, inv *model.Invitation, now time.Time) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Invitation{}).
			Where("email = ? AND organization_id = ? AND status = ? AND expires_at < ?",
				inv.Email, inv.OrganizationID, model.InvitationPending, now).
			Update("status", model.InvitationExpired).Error; err != nil {
			return fmt.Errorf("expiring stale invitations: %w", err)
		}

		if err := tx.Create(inv).Error; err != nil {
			if isUniqueViolation(err, constraintPendingInvitation) {
				return domain.ErrDuplicatePendingInvitation
			}
			return fmt.Errorf("creating invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicatePendingInvitation) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (r *InvitationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invitation, error) {
	var inv model.Invitation
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("finding invitation: %w", err)
	}
	return &inv, nil
}

func (r *InvitationRepository) FindByToken(ctx context.Context, token string) (*model.Invitation, error) {
	var inv model.Invitation
	if err := r.db.WithContext(ctx).First(&inv, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("finding invitation by token: %w", err)
	}
	return &inv, nil
}

// FindPending returns the live pending invitation for email in orgID.
func (r *InvitationRepository) FindPending(ctx context.Context, email string, orgID uuid.UUID, now time.Time) (*model.Invitation, error) {
	var inv model.Invitation
	err := r.db.WithContext(ctx).
		Where("email = ? AND organization_id = ? AND status = ? AND expires_at >= ?",
			email, orgID, model.InvitationPending, now).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("finding pending invitation: %w", err)
	}
	return &inv, nil
}

// ListByOrganization returns every invitation of the organization, newest first.
func (r *InvitationRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.Invitation, error) {
	var invs []*model.Invitation
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&invs).Error; err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	return invs, nil
}

func (r *InvitationRepository) MarkEmailSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&model.Invitation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"email_sent":    true,
			"email_sent_at": sentAt,
		}).Error; err != nil {
		return fmt.Errorf("marking invitation email sent: %w", err)
	}
	return nil
}

// Delete removes a pending invitation. Deleting an already removed or
// resolved invitation is a no-op.
func (r *InvitationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, model.InvitationPending).
		Delete(&model.Invitation{}).Error; err != nil {
		return fmt.Errorf("deleting invitation: %w", err)
	}
	return nil
}

// Cancel withdraws a live pending invitation. Lapsed invitations are already
// terminal whether or not the sweep relabelled them, so they report not found.
func (r *InvitationRepository) Cancel(ctx context.Context, orgID, id uuid.UUID, now time.Time) (*model.Invitation, error) {
	var inv model.Invitation
	result := r.db.WithContext(ctx).
		Model(&inv).
		Clauses(clause.Returning{}).
		Where("id = ? AND organization_id = ? AND status = ? AND expires_at >= ?", id, orgID, model.InvitationPending, now).
		Updates(map[string]interface{}{
			"status":       model.InvitationCancelled,
			"cancelled_at": now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("cancelling invitation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrInvitationNotFound
	}
	return &inv, nil
}

// Accept resolves the invitation and admits userID in one transaction: the
// invitation leaves pending, the user gains the membership and the
// organization's plan, and the seat counter is incremented in place.
func (r *InvitationRepository) Accept(ctx context.Context, id, userID uuid.UUID, now time.Time) (*model.Organization, error) {
	var org model.Organization

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv model.Invitation
		result := tx.Model(&inv).
			Clauses(clause.Returning{}).
			Where("id = ? AND status = ? AND expires_at >= ?", id, model.InvitationPending, now).
			Updates(map[string]interface{}{
				"status":         model.InvitationAccepted,
				"accepted_at":    now,
				"accepted_by_id": userID,
			})
		if result.Error != nil {
			return fmt.Errorf("accepting invitation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrInvalidOrExpiredInvitation
		}

		result = tx.Model(&org).
			Clauses(clause.Returning{}).
			Where("id = ?", inv.OrganizationID).
			Update("seat_count", gorm.Expr("seat_count + 1"))
		if result.Error != nil {
			return fmt.Errorf("claiming seat: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrOrganizationNotFound
		}

		result = tx.Model(&model.User{}).
			Where("id = ? AND organization_id IS NULL", userID).
			Updates(map[string]interface{}{
				"organization_id":        inv.OrganizationID,
				"organization_role":      inv.Role,
				"organization_joined_at": now,
				"plan":                   org.Plan,
			})
		if result.Error != nil {
			return fmt.Errorf("joining organization: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return membershipMissReason(tx, userID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrExpiredInvitation) ||
			errors.Is(err, domain.ErrAlreadyInOrganization) ||
			errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("transaction failed: %w", err)
	}

	return &org, nil
}

// ExpireStale labels every pending invitation past its window as expired and
// returns how many were relabelled.
func (r *InvitationRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Invitation{}).
		Where("status = ? AND expires_at < ?", model.InvitationPending, now).
		Update("status", model.InvitationExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("expiring invitations: %w", result.Error)
	}
	return result.RowsAffected, nil
}
