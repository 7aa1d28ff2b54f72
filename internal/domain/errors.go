// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	// General errors
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflicting concurrent update")

	// Lookup errors, all of which satisfy errors.Is(err, ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrOrganizationNotFound = fmt.Errorf("organization %w", ErrNotFound)
	ErrInvitationNotFound   = fmt.Errorf("invitation %w", ErrNotFound)

	// Authorization errors
	ErrPermissionDenied          = errors.New("permission denied")
	ErrCrossOrganizationMismatch = errors.New("actor and target are not members of the same organization")

	// Organization errors
	ErrDomainTaken = errors.New("organization domain already taken")

	// Membership errors
	ErrAlreadyMember         = errors.New("user is already a member of this organization")
	ErrAlreadyInOrganization = errors.New("user already belongs to an organization")

	// Invitation errors
	ErrDuplicatePendingInvitation = errors.New("a pending invitation already exists for this email")
	ErrInvalidOrExpiredInvitation = errors.New("invitation is invalid or expired")
	ErrEmailMismatch              = errors.New("invitation email does not match user")
	ErrEmailDeliveryFailed        = errors.New("invitation email delivery failed")
)
