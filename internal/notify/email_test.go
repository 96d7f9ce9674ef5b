package notify

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/config"
	"github.com/Dan9191/cashflow-service/internal/models"
)

func newTestSender(cfg *config.Config) (*Sender, *[]*email.Email) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := NewSender(cfg, logger)
	var sent []*email.Email
	s.send = func(e *email.Email) error {
		sent = append(sent, e)
		return nil
	}
	return s, &sent
}

var testAlerts = []models.RiskAlert{
	{Code: "RUNWAY_CRITICAL", Severity: models.SeverityCritical, Message: "Runway below 3 months"},
	{Code: "OVERDUE_RECEIVABLES", Severity: models.SeverityHigh, Message: "Overdue share 35%"},
}

func TestSendAlertDigest(t *testing.T) {
	s, sent := newTestSender(&config.Config{
		SMTPHost:        "smtp.example.com",
		SenderEmail:     "noreply@example.com",
		AlertRecipients: []string{"cfo@example.com"},
	})

	if err := s.SendAlertDigest(context.Background(), "all", testAlerts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*sent) != 1 {
		t.Fatalf("expected one email, got %d", len(*sent))
	}
	e := (*sent)[0]
	if e.To[0] != "cfo@example.com" || !strings.Contains(e.Subject, "(2)") {
		t.Errorf("unexpected email %+v", e)
	}
	if !strings.Contains(string(e.Text), "[CRITICAL] Runway below 3 months") {
		t.Errorf("unexpected body %s", e.Text)
	}
}

func TestSendAlertDigest_SkipsWhenDisabled(t *testing.T) {
	s, sent := newTestSender(&config.Config{})

	if err := s.SendAlertDigest(context.Background(), "all", testAlerts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*sent) != 0 {
		t.Errorf("expected no email")
	}
}

func TestSendAlertDigest_Error(t *testing.T) {
	s, _ := newTestSender(&config.Config{SMTPHost: "smtp", AlertRecipients: []string{"a@b.c"}})
	s.send = func(*email.Email) error { return errors.New("dial tcp: refused") }

	if err := s.SendAlertDigest(context.Background(), "all", testAlerts); err == nil {
		t.Fatalf("expected error")
	}
}
