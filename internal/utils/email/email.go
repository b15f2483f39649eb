package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/Dan9191/todo-service/internal/config"
	"github.com/Dan9191/todo-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendStatsDigest mails the store row counts to the report address
func (s *Sender) SendStatsDigest(stats models.StoreStats, at time.Time) error {
	e := NewStatsDigest(s.cfg.SenderEmail, s.cfg.ReportEmail, stats, at)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send stats digest to %s: %v", s.cfg.ReportEmail, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", s.cfg.ReportEmail, e.Subject)
	return nil
}

// NewStatsDigest builds the digest message
func NewStatsDigest(from, to string, stats models.StoreStats, at time.Time) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Todo service stats for %s", at.Format("2006-01-02"))

	body := fmt.Sprintf(
		"Store statistics as of %s:\n\n"+
			"Users: %d\n"+
			"Tasks: %d\n",
		at.Format("2006-01-02 15:04:05 MST"), stats.Users, stats.Todos,
	)
	if stats.Users > 0 {
		body += fmt.Sprintf("Average tasks per user: %.2f\n", float64(stats.Todos)/float64(stats.Users))
	}
	body += "\nTodo Service"
	e.Text = []byte(body)
	return e
}
