package model

import (
	"time"

	"github.com/google/uuid"
)

// InvitationTTL is how long an invitation stays acceptable after creation.
const InvitationTTL = 7 * 24 * time.Hour

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationCancelled InvitationStatus = "cancelled"
	// InvitationExpired is only a display label; expiry is decided by ExpiresAt.
	InvitationExpired InvitationStatus = "expired"
)

// Invitation offers a role in an organization to an email address.
type Invitation struct {
	ID             uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Email          string           `gorm:"type:text;not null" json:"email"`
	Token          string           `gorm:"type:text;uniqueIndex;not null" json:"-"`
	OrganizationID uuid.UUID        `gorm:"type:uuid;not null;index" json:"organization_id"`
	Role           Role             `gorm:"type:organization_role;not null" json:"role"`
	InvitedByID    uuid.UUID        `gorm:"type:uuid;not null" json:"invited_by_id"`
	Status         InvitationStatus `gorm:"type:invitation_status;not null;default:'pending'" json:"status"`
	ExpiresAt      time.Time        `gorm:"not null" json:"expires_at"`
	Message        *string          `gorm:"type:text" json:"message,omitempty"`
	EmailSent      bool             `gorm:"not null;default:false" json:"email_sent"`
	EmailSentAt    *time.Time       `json:"email_sent_at,omitempty"`
	AcceptedAt     *time.Time       `json:"accepted_at,omitempty"`
	AcceptedByID   *uuid.UUID       `gorm:"type:uuid" json:"accepted_by_id,omitempty"`
	CancelledAt    *time.Time       `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// IsExpired reports whether the invitation's acceptance window has passed.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// IsValid reports whether the invitation can still be accepted.
func (i *Invitation) IsValid(now time.Time) bool {
	return i.Status == InvitationPending && !i.IsExpired(now)
}

// EffectiveStatus is the status a reader should see at now.
func (i *Invitation) EffectiveStatus(now time.Time) InvitationStatus {
	if i.Status == InvitationPending && i.IsExpired(now) {
		return InvitationExpired
	}
	return i.Status
}
