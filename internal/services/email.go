package services

import (
	"context"
	"fmt"
	"time"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// EmailService delivers OTP codes through Resend. In development it only
// logs the code.
type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	logger    *zap.SugaredLogger
}

// NewEmailService creates the mailer. A missing API key leaves the client
// unset, which is an error outside development.
func NewEmailService(apiKey, fromEmail string, isDev bool, logger *zap.SugaredLogger) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}
	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		logger:    logger,
	}
}

func otpEmailTemplate(code string, ttl time.Duration) (subject, body string) {
	subject = "Your government portal login code"
	body = fmt.Sprintf(`Your one-time login code is %s.

It expires in %d minutes. If you did not request this code you can ignore this email.`, code, int(ttl.Minutes()))
	return subject, body
}

// SendOTP implements OTPSender
func (s *EmailService) SendOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	if s.isDev {
		s.logger.Warnw("OTP generated (dev mode, not emailed)", "email", email, "otp", code)
		return nil
	}
	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	subject, body := otpEmailTemplate(code, ttl)
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{email},
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	s.logger.Infow("OTP email sent", "email", email)
	return nil
}
