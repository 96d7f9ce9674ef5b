package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/config"
	"github.com/Dan9191/cashflow-service/internal/models"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{
		cfg:    cfg,
		logger: logger,
	}
	s.send = s.sendSMTP
	return s
}

// Enabled reports whether SMTP delivery is configured
func (s *Sender) Enabled() bool {
	return s.cfg.SMTPHost != "" && len(s.cfg.AlertRecipients) > 0
}

// SendAlertDigest emails the given risk alerts to the configured recipients
func (s *Sender) SendAlertDigest(_ context.Context, segment string, alerts []models.RiskAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	if !s.Enabled() {
		s.logger.Debug("Alert digest skipped, SMTP not configured")
		return nil
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = s.cfg.AlertRecipients
	e.Subject = fmt.Sprintf("Cash-flow risk alerts: %s (%d)", segment, len(alerts))
	e.Text = []byte(formatDigest(segment, alerts, time.Now()))

	if err := s.send(e); err != nil {
		s.logger.WithError(err).WithField("segment", segment).Error("Failed to send alert digest")
		return fmt.Errorf("failed to send alert digest: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"segment":    segment,
		"alerts":     len(alerts),
		"recipients": len(e.To),
	}).Info("Alert digest sent")
	return nil
}

func (s *Sender) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	return e.Send(addr, auth)
}

func formatDigest(segment string, alerts []models.RiskAlert, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Risk alerts for %s as of %s\n\n", segment, at.Format("2006-01-02 15:04"))
	for _, a := range alerts {
		fmt.Fprintf(&b, "[%s] %s\n", a.Severity, a.Message)
	}
	b.WriteString("\nCash-flow Analytics Service")
	return b.String()
}
