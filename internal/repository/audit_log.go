package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dangerclosesec/orgaccess/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLogRepositoryIface is the append-only audit store. It deliberately has
// no update or delete.
type AuditLogRepositoryIface interface {
	Create(ctx context.Context, log *model.AuditLog) error
	Query(ctx context.Context, params AuditQueryParams) ([]model.AuditLog, int64, error)
}

// AuditLogRepository handles database operations for audit logs
type AuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{
		db: db,
	}
}

// Create inserts a new audit log entry
func (r *AuditLogRepository) Create(ctx context.Context, log *model.AuditLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	result := r.db.WithContext(ctx).Create(log)
	if result.Error != nil {
		return fmt.Errorf("failed to create audit log: %w", result.Error)
	}

	return nil
}

// AuditQueryParams holds parameters for querying audit logs
type AuditQueryParams struct {
	OrganizationID uuid.UUID
	Action         model.AuditAction
	Limit          int
	Offset         int
}

// Query retrieves one organization's audit logs, newest first
func (r *AuditLogRepository) Query(ctx context.Context, params AuditQueryParams) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var count int64

	query := r.db.WithContext(ctx).
		Model(&model.AuditLog{}).
		Where("organization_id = ?", params.OrganizationID)

	if params.Action != "" {
		query = query.Where("action = ?", params.Action)
	}

	// Get total count for pagination
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	} else {
		query = query.Limit(100) // Default limit
	}

	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}

	result := query.Order("created_at DESC, id DESC").Find(&logs)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to query audit logs: %w", result.Error)
	}

	return logs, count, nil
}
