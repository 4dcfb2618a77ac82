package notify

import (
	"fmt"

	"qrtag-service/internal/util"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer sends transactional e-mails over SMTP. A Mailer without host is a no-op.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewMailer creates a mailer
func NewMailer(host string, port int, user, password, from string) *Mailer {
	m := &Mailer{from: from, logger: util.GetLogger()}
	if host != "" {
		m.dialer = gomail.NewDialer(host, port, user, password)
	}
	return m
}

// Enabled reports whether SMTP is configured
func (m *Mailer) Enabled() bool {
	return m.dialer != nil
}

// Send delivers a plain text and HTML message
func (m *Mailer) Send(to, subject, text, html string) error {
	if !m.Enabled() {
		m.logger.Debug("SMTP disabled, dropping mail", zap.String("to", to), zap.String("subject", subject))
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", text)
	if html != "" {
		msg.AddAlternative("text/html", html)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
