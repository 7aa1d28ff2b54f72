package service

import (
	"context"

	"github.com/dangerclosesec/orgaccess/internal/email/mailer"
)

//go:generate mockgen -source=./interfaces.go -destination=../mocks/mock_service.go -package=mocks

// InvitationMailer delivers invitation emails. A returned error means the
// recipient was not notified.
type InvitationMailer interface {
	SendInvitation(ctx context.Context, to string, data mailer.InvitationTemplateData) error
}
