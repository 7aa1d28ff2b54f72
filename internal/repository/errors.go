// internal/repository/errors.go
package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Constraint names from the migrations that carry domain meaning.
const (
	constraintOrganizationDomain = "idx_organizations_domain"
	constraintPendingInvitation  = "idx_invitations_pending_email_org"
)

// isUniqueViolation reports whether err is a PostgreSQL unique violation. When
// constraint is non-empty the violated constraint must also match.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
