package service_test

import (
	"time"

	"github.com/dangerclosesec/orgaccess/internal/model"
	"github.com/google/uuid"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newMember(orgID uuid.UUID, role model.Role, email string) *model.User {
	joined := fixedNow.Add(-24 * time.Hour)
	return &model.User{
		ID:                   uuid.New(),
		Email:                email,
		FirstName:            "Test",
		LastName:             "User",
		Plan:                 model.PlanEnterprise,
		OrganizationID:       &orgID,
		OrganizationRole:     &role,
		JoinedOrganizationAt: &joined,
	}
}

func newLoneUser(email string) *model.User {
	return &model.User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: "Lone",
		LastName:  "User",
		Plan:      model.PlanFree,
	}
}
