// internal/model/user.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the identity provider's user record. The organization columns form
// the user's membership and are owned by this service.
type User struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Email                string     `gorm:"type:citext;uniqueIndex;not null" json:"email"`
	FirstName            string     `gorm:"type:text;not null" json:"first_name"`
	LastName             string     `gorm:"type:text" json:"last_name"`
	Plan                 PlanTag    `gorm:"type:text;not null;default:'free'" json:"plan"`
	OrganizationID       *uuid.UUID `gorm:"type:uuid;index" json:"organization_id"`
	OrganizationRole     *Role      `gorm:"type:organization_role" json:"organization_role"`
	JoinedOrganizationAt *time.Time `gorm:"column:organization_joined_at" json:"organization_joined_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// DisplayName joins the user's first and last name.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Membership returns the user's role in orgID. ok is false when the user
// does not belong to that organization.
func (u *User) Membership(orgID uuid.UUID) (role Role, ok bool) {
	if u.OrganizationID == nil || *u.OrganizationID != orgID || u.OrganizationRole == nil {
		return "", false
	}
	return *u.OrganizationRole, true
}

// InOrganization reports whether the user belongs to any organization.
func (u *User) InOrganization() bool {
	return u.OrganizationID != nil
}
