package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dangerclosesec/orgaccess/internal/audit"
	"github.com/dangerclosesec/orgaccess/internal/domain"
	"github.com/dangerclosesec/orgaccess/internal/metrics"
	"github.com/dangerclosesec/orgaccess/internal/model"
	"github.com/dangerclosesec/orgaccess/internal/policy"
	"github.com/dangerclosesec/orgaccess/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	defaultAuditPageSize = 20
	maxAuditPageSize     = 100
	// maxAuditPage keeps (page-1)*limit well inside int range.
	maxAuditPage = 1_000_000
)

// Ensure AuditLogService implements the audit.Recorder interface
var _ audit.Recorder = (*AuditLogService)(nil)

// AuditLogService records and reads the organization audit trail
type AuditLogService struct {
	repo     repository.AuditLogRepositoryIface
	userRepo repository.UserRepositoryIface
	validate *validator.Validate
	now      clock
}

// NewAuditLogService creates a new AuditLogService
func NewAuditLogService(repo repository.AuditLogRepositoryIface, userRepo repository.UserRepositoryIface) *AuditLogService {
	return &AuditLogService{
		repo:     repo,
		userRepo: userRepo,
		validate: validator.New(),
		now:      utcNow,
	}
}

// SetClock replaces the time source.
func (s *AuditLogService) SetClock(now func() time.Time) {
	s.now = now
}

// Record persists entry, stamping it with the request metadata carried by
// ctx. Failures are logged and counted, never returned.
func (s *AuditLogService) Record(ctx context.Context, entry *model.AuditLog) {
	meta := audit.MetaFromContext(ctx)
	if entry.IPAddress == "" {
		entry.IPAddress = meta.IPAddress
	}
	if entry.UserAgent == "" {
		entry.UserAgent = meta.UserAgent
	}
	if entry.RequestID == "" {
		entry.RequestID = meta.RequestID
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		slog.WarnContext(ctx, "failed to record audit log",
			"action", entry.Action,
			"organization_id", entry.OrganizationID,
			"actor_id", entry.ActorID,
			"error", err,
		)
		metrics.ObserveAuditFailure(string(entry.Action))
	}
}

// AuditLogQuery selects one page of an organization's audit trail
type AuditLogQuery struct {
	ActorID        uuid.UUID `validate:"required"`
	OrganizationID uuid.UUID `validate:"required"`
	Page           int       `validate:"gte=0"`
	Limit          int       `validate:"gte=0"`
	Action         string
}

// AuditLogPage is a page of audit entries, newest first
type AuditLogPage struct {
	Logs       []model.AuditLog `json:"logs"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}

// GetAuditLogs returns a page of the organization's audit trail to an admin
func (s *AuditLogService) GetAuditLogs(ctx context.Context, q AuditLogQuery) (*AuditLogPage, error) {
	if err := s.validate.Struct(q); err != nil {
		return nil, invalidInput(err)
	}

	action := model.AuditAction(q.Action)
	if action != "" && !action.Valid() {
		return nil, invalidInput(fmt.Errorf("unknown audit action %q", q.Action))
	}

	_, role, ok, err := memberRole(ctx, s.userRepo, q.ActorID, q.OrganizationID)
	if err != nil {
		return nil, err
	}
	if !ok || !policy.CanViewAudit(policy.Rank(role)) {
		return nil, domain.ErrPermissionDenied
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > maxAuditPage {
		page = maxAuditPage
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultAuditPageSize
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}

	logs, total, err := s.repo.Query(ctx, repository.AuditQueryParams{
		OrganizationID: q.OrganizationID,
		Action:         action,
		Limit:          limit,
		Offset:         (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("querying audit logs: %w", err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}

	return &AuditLogPage{
		Logs:       logs,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}
