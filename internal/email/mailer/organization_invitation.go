// internal/email/mailer/organization_invitation.go
package mailer

import (
	"context"
	"fmt"

	"github.com/dangerclosesec/orgaccess/internal/email"
)

const invitationTemplate = "organization_invitation"

// InvitationTemplateData contains data for the organization invitation template
type InvitationTemplateData struct {
	OrganizationName string
	InviterName      string
	Role             string
	Message          string
	AcceptLink       string
	ExpiresAt        string
}

// Sender is the subset of email.Service used by the mailers.
type Sender interface {
	SendEmail(ctx context.Context, data email.EmailData) error
}

// InvitationMailer delivers organization invitations.
type InvitationMailer struct {
	sender   Sender
	fromName string
}

func NewInvitationMailer(sender Sender, fromName string) *InvitationMailer {
	return &InvitationMailer{sender: sender, fromName: fromName}
}

// SendInvitation sends an invitation to join an organization to the given address
func (m *InvitationMailer) SendInvitation(ctx context.Context, to string, data InvitationTemplateData) error {
	emailData := email.EmailData{
		To:           to,
		FromName:     m.fromName,
		Subject:      fmt.Sprintf("You're invited to join %s", data.OrganizationName),
		TemplateName: invitationTemplate,
		TemplateData: data,
	}

	return m.sender.SendEmail(ctx, emailData)
}
