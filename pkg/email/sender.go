package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Sender delivers a plain-text message to one recipient.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	host string
	port int
	user string
	pass string
	from string
	name string
}

// NewSMTPSender creates an SMTP sender. Returns nil when host is empty so
// callers can treat "no SMTP configured" as log-only delivery.
func NewSMTPSender(host string, port int, user, pass, from, name string) *SMTPSender {
	if host == "" {
		return nil
	}
	return &SMTPSender{host: host, port: port, user: user, pass: pass, from: from, name: name}
}

// Send delivers one message. Auth is skipped when no user is configured
// (e.g. a local relay).
func (s *SMTPSender) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.name, s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender records messages to the log instead of delivering them. Used
// when SMTP is not configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send implements Sender by logging the message.
func (s *LogSender) Send(to, subject, body string) error {
	s.logger.Info("notification (smtp disabled)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
