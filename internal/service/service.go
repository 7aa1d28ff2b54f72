package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dangerclosesec/orgaccess/internal/domain"
	"github.com/dangerclosesec/orgaccess/internal/model"
	"github.com/dangerclosesec/orgaccess/internal/repository"
	"github.com/google/uuid"
)

type clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

func invalidInput(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}

// memberRole loads userID and returns the user with its role in orgID. ok is
// false when the user is not a member of orgID.
func memberRole(ctx context.Context, users repository.UserRepositoryIface, userID, orgID uuid.UUID) (*model.User, model.Role, bool, error) {
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		return nil, "", false, err
	}
	role, ok := user.Membership(orgID)
	return user, role, ok, nil
}
