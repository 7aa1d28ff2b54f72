// Package policy holds the role hierarchy predicates every workflow checks
// before mutating membership. All functions are pure.
package policy

import "github.com/dangerclosesec/orgaccess/internal/model"

var (
	rankViewer  = model.RoleViewer.Rank()
	rankAnalyst = model.RoleAnalyst.Rank()
	rankManager = model.RoleManager.Rank()
	rankAdmin   = model.RoleAdmin.Rank()
)

// Rank returns the role's position in viewer < analyst < manager < admin.
func Rank(role model.Role) int {
	return role.Rank()
}

// CanAssignRole reports whether an actor may move a target to requestedRank.
// The actor must reach the requested level and strictly outrank the target.
func CanAssignRole(actorRank, targetCurrentRank, requestedRank int) bool {
	if actorRank < rankViewer || requestedRank < rankViewer {
		return false
	}
	return actorRank >= requestedRank && actorRank > targetCurrentRank
}

// CanRemove reports whether an actor may remove a target from the organization.
func CanRemove(actorRank, targetRank int) bool {
	return actorRank >= rankViewer && actorRank > targetRank
}

// CanInvite reports whether an actor may send or cancel invitations.
func CanInvite(actorRank int) bool {
	return actorRank >= rankManager
}

// CanViewAudit reports whether an actor may read the audit trail.
func CanViewAudit(actorRank int) bool {
	return actorRank >= rankAdmin
}

// CanViewBilling reports whether an actor may read billing details.
func CanViewBilling(actorRank int) bool {
	return actorRank >= rankManager
}

// CanManageSettings reports whether an actor may edit organization settings.
func CanManageSettings(actorRank int) bool {
	return actorRank == rankAdmin
}

// CanRecordAnalysis reports whether an actor may run document analyses.
func CanRecordAnalysis(actorRank int) bool {
	return actorRank >= rankAnalyst
}
