package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Role is a member's role inside their organization.
type Role string

const (
	RoleViewer  Role = "viewer"
	RoleAnalyst Role = "analyst"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Roles lists every role in ascending rank order.
var Roles = []Role{RoleViewer, RoleAnalyst, RoleManager, RoleAdmin}

// Rank orders roles: viewer < analyst < manager < admin. Unknown roles rank -1
// so they never satisfy a permission comparison.
func (r Role) Rank() int {
	switch r {
	case RoleViewer:
		return 0
	case RoleAnalyst:
		return 1
	case RoleManager:
		return 2
	case RoleAdmin:
		return 3
	default:
		return -1
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.Rank() >= 0
}

func (r Role) String() string {
	return string(r)
}

// ParseRole normalizes s and returns the matching role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Scan implements the sql.Scanner interface
func (r *Role) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("unsupported Scan, storing driver.Value type %T into type %T", value, r)
	}

	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value implements the driver.Valuer interface
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %q", string(r))
	}
	return string(r), nil
}

// PlanTag is the subscription tier carried by users and organizations.
type PlanTag string

const (
	PlanFree       PlanTag = "free"
	PlanPro        PlanTag = "pro"
	PlanEnterprise PlanTag = "enterprise"
)
