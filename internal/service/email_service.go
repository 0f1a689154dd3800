package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"tinysteps/internal/logger"
)

// sesAPI is the part of the SES v2 client the email service calls
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailConfig configures outgoing mail
type EmailConfig struct {
	Region      string
	FromEmail   string
	FromName    string
	FrontendURL string
	Debug       bool
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client      sesAPI
	fromEmail   string
	fromName    string
	frontendURL string
	enabled     bool
	debug       bool
	log         *zap.Logger
}

// NewEmailService creates a new email service. Without a sender address the
// service is disabled and every send is a logged no-op.
func NewEmailService(ctx context.Context, cfg EmailConfig, log *zap.Logger) (*EmailService, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.FromEmail == "" {
		log.Info("email service disabled: EMAIL_FROM not configured")
		return &EmailService{log: log, debug: cfg.Debug}, nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("email service enabled", zap.String("from", cfg.FromEmail), zap.String("region", cfg.Region))
	return newEmailService(sesv2.NewFromConfig(awsCfg), cfg, log), nil
}

func newEmailService(client sesAPI, cfg EmailConfig, log *zap.Logger) *EmailService {
	if log == nil {
		log = zap.NewNop()
	}
	return &EmailService{
		client:      client,
		fromEmail:   cfg.FromEmail,
		fromName:    cfg.FromName,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		enabled:     true,
		debug:       cfg.Debug,
		log:         log,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s != nil && s.enabled
}

// ResetLink builds the frontend link for a reset token
func (s *EmailService) ResetLink(token string) string {
	return fmt.Sprintf("%s/reset-password/%s", s.frontendURL, token)
}

// SendPasswordResetEmail sends a password reset email with a reset link
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error {
	if !s.IsEnabled() {
		s.log.Info("skipping password reset email (service disabled)", zap.String("to", logger.Redact(toEmail)))
		return nil
	}

	resetLink := s.ResetLink(resetToken)
	if s.debug {
		s.log.Debug("reset link generated", zap.String("link", resetLink))
	}

	subject := "Password Reset Request"
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p>Hi %s,</p>
	<p>You requested a password reset for your TinySteps account.</p>
	<p><a href="%s">Reset your password</a></p>
	<p style="word-break: break-all; font-size: 12px; color: #666;">%s</p>
	<p><strong>This link will expire in 1 hour.</strong></p>
	<p>If you didn't request a password reset, you can safely ignore this email.</p>
</body>
</html>
`, toName, resetLink, resetLink)

	textBody := fmt.Sprintf(`Hi %s,

You requested a password reset. Click the link below to reset your password:

%s

This link will expire in 1 hour.
`, toName, resetLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", logger.Redact(toEmail), err)
	}

	fields := []zap.Field{zap.String("to", logger.Redact(toEmail)), zap.String("subject", subject)}
	if s.debug && result != nil && result.MessageId != nil {
		fields = append(fields, zap.String("message_id", *result.MessageId))
	}
	s.log.Info("email sent", fields...)
	return nil
}
