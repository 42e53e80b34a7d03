package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends plain-text confirmation emails
type SMTPNotifier struct {
	config   SMTPConfig
	sendMail sendMailFunc
}

// NewSMTPNotifier creates an SMTPNotifier
func NewSMTPNotifier(config SMTPConfig) (*SMTPNotifier, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if config.FromEmail == "" {
		return nil, fmt.Errorf("from email is required")
	}
	if config.Port == 0 {
		config.Port = 587
	}
	return &SMTPNotifier{config: config, sendMail: smtp.SendMail}, nil
}

func (n *SMTPNotifier) Name() string { return "smtp" }

// Send delivers one email. net/smtp has no context support, so ctx is only
// checked before dialing.
func (n *SMTPNotifier) Send(ctx context.Context, to, subject string, fields map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient is required")
	}

	var auth smtp.Auth
	if n.config.Username != "" {
		auth = smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)
	}

	addr := net.JoinHostPort(n.config.Host, strconv.Itoa(n.config.Port))
	if err := n.sendMail(addr, auth, n.config.FromEmail, []string{to}, n.buildMessage(to, subject, fields)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (n *SMTPNotifier) buildMessage(to, subject string, fields map[string]string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", headerValue(n.config.FromEmail))
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(to))
	fmt.Fprintf(&b, "Subject: %s\r\n", headerValue(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(PlainText(fields), "\n", "\r\n"))
	return []byte(b.String())
}

var headerBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// headerValue keeps a value on a single header line
func headerValue(v string) string {
	return headerBreaks.Replace(v)
}
