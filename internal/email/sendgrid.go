package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendWithSendgrid sends an email using the Sendgrid API
func (s *Service) sendWithSendgrid(ctx context.Context, data EmailData, htmlContent, textContent string) error {
	from := mail.NewEmail(data.FromName, data.From)
	to := mail.NewEmail("", data.To)
	message := mail.NewSingleEmail(from, data.Subject, to, textContent, htmlContent)

	response, err := s.sendgridClient.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: sendgrid: %w", ErrDelivery, err)
	}

	if response.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: unexpected Sendgrid status code: %d, body: %s", ErrDelivery, response.StatusCode, response.Body)
	}

	return nil
}
