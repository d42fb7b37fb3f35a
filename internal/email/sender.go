// Package email delivers customer emails over SMTP.
package email

import "context"

// Sender sends transactional emails.
type Sender interface {
	SendOrderConfirmation(ctx context.Context, toEmail string, order OrderConfirmation) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender drops every email. It is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendOrderConfirmation(ctx context.Context, toEmail string, order OrderConfirmation) error {
	return nil
}

func (NoopSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}

var (
	_ Sender = NoopSender{}
	_ Sender = (*SMTPSender)(nil)
)
