package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// AuditLog is an immutable record of a privileged action within an organization.
type AuditLog struct {
	ID             uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ActorID        uuid.UUID   `json:"actor_id" gorm:"type:uuid;not null"`
	OrganizationID uuid.UUID   `json:"organization_id" gorm:"type:uuid;not null;index"`
	Action         AuditAction `json:"action" gorm:"type:text;not null"`
	Details        JSONMap     `json:"details" gorm:"type:jsonb"`
	IPAddress      string      `json:"ip_address"`
	UserAgent      string      `json:"user_agent"`
	RequestID      string      `json:"request_id"`
	TargetUserID   *uuid.UUID  `json:"target_user_id,omitempty" gorm:"type:uuid"`
	ResourceType   string      `json:"resource_type,omitempty"`
	ResourceID     string      `json:"resource_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at" gorm:"default:CURRENT_TIMESTAMP"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditAction is the closed set of audited actions. The comment on each value
// documents the keys its Details payload carries.
type AuditAction string

const (
	// {email, role, invitation_id}
	AuditUserInvited AuditAction = "user_invited"
	// {email, role, invitation_id}
	AuditUserJoined AuditAction = "user_joined"
	// {email, role, invitation_id}
	AuditInvitationCancelled AuditAction = "invitation_cancelled"
	// {email, old_role, new_role}
	AuditUserRoleChanged AuditAction = "user_role_changed"
	// {email, role}
	AuditUserRemoved AuditAction = "user_removed"
	// {name, domain}
	AuditOrganizationCreated AuditAction = "organization_created"
	// {fields}
	AuditSettingsUpdated AuditAction = "settings_updated"
	// {analysis_count, monthly_analysis_count, period}
	AuditAnalysisCreated AuditAction = "analysis_created"
	// reserved for the billing provider integration
	AuditBillingUpdated AuditAction = "billing_updated"
)

var auditActions = map[AuditAction]bool{
	AuditUserInvited:         true,
	AuditUserJoined:          true,
	AuditInvitationCancelled: true,
	AuditUserRoleChanged:     true,
	AuditUserRemoved:         true,
	AuditOrganizationCreated: true,
	AuditSettingsUpdated:     true,
	AuditAnalysisCreated:     true,
	AuditBillingUpdated:      true,
}

// Valid reports whether a is a known audit action.
func (a AuditAction) Valid() bool {
	return auditActions[a]
}

// Resource types referenced by AuditLog.ResourceType
const (
	ResourceInvitation   = "invitation"
	ResourceOrganization = "organization"
	ResourceUser         = "user"
)

// JSONMap represents a generic map stored as JSONB in the database
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface for JSONMap
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for JSONMap
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(JSONMap)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("type assertion failed: failed to decode JSONB")
	}

	return json.Unmarshal(bytes, m)
}
