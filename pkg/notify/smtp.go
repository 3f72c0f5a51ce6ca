package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTP sends notifications as plain-text email.
type SMTP struct {
	Addr     string // host:port
	From     string
	To       []string
	Username string
	Password string

	// Now stamps the Date header. Defaults to time.Now.
	Now func() time.Time

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP creates an SMTP notifier. Authentication is used when a username
// is set.
func NewSMTP(addr, from string, to []string, username, password string) (*SMTP, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return nil, fmt.Errorf("smtp address %q: %w", addr, err)
	}
	if from == "" || len(to) == 0 {
		return nil, fmt.Errorf("smtp notifier needs a sender and at least one recipient")
	}
	return &SMTP{Addr: addr, From: from, To: to, Username: username, Password: password, send: smtp.SendMail}, nil
}

// Send delivers the message. net/smtp has no context support, so a
// cancelled ctx abandons the attempt without waiting for the server.
func (s *SMTP) Send(ctx context.Context, subject, body string) error {
	var auth smtp.Auth
	if s.Username != "" {
		host, _, _ := net.SplitHostPort(s.Addr)
		auth = smtp.PlainAuth("", s.Username, s.Password, host)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	msg := buildMessage(s.From, s.To, subject, body, now())
	send := s.send
	if send == nil {
		send = smtp.SendMail
	}

	done := make(chan error, 1)
	go func() { done <- send(s.Addr, auth, s.From, s.To, msg) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail via %s: %w", s.Addr, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send mail via %s: %w", s.Addr, ctx.Err())
	}
}

func buildMessage(from string, to []string, subject, body string, date time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", headerSafe(subject))
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	for _, line := range strings.Split(body, "\n") {
		b.WriteString(strings.TrimRight(line, "\r"))
		b.WriteString("\r\n")
	}
	return []byte(b.String())
}

func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
