package actions

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	sasl "github.com/emersion/go-sasl"
	smtp "github.com/emersion/go-smtp"
)

type EmailConfig struct {
	Server   string // host:port
	Username string
	Password string
	From     string
	To       []string
	// Insecure skips STARTTLS, for local relays.
	Insecure bool
}

// Email sends reminders over SMTP.
type Email struct {
	config EmailConfig
}

func NewEmail(config EmailConfig) (*Email, error) {
	if config.Server == "" || config.From == "" || len(config.To) == 0 {
		return nil, fmt.Errorf("email notifier needs a server, a sender and at least one recipient")
	}
	return &Email{config: config}, nil
}

func (e *Email) Name() string { return "email" }

// headerValue folds CR and LF into spaces so that model-written names and
// titles stay inside a single header field.
func headerValue(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}

// Message builds the RFC 5322 message for a notification. Header values are
// RFC 2047 encoded when they are not plain ASCII.
func (e *Email) Message(n Notification) (string, error) {
	to := make([]*mail.Address, 0, len(e.config.To))
	for _, addr := range e.config.To {
		to = append(to, &mail.Address{Address: addr})
	}

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: headerValue(n.Agent), Address: e.config.From}})
	h.SetAddressList("To", to)
	h.SetSubject(headerValue(n.Subject))
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "8bit")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return "", fmt.Errorf("email message: %w", err)
	}
	body := strings.ReplaceAll(strings.ReplaceAll(n.Body, "\r\n", "\n"), "\n", "\r\n")
	if _, err := io.WriteString(w, body+"\r\n"); err != nil {
		return "", fmt.Errorf("email message: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("email message: %w", err)
	}
	return buf.String(), nil
}

func (e *Email) Notify(ctx context.Context, n Notification) error {
	var auth sasl.Client
	if e.config.Username != "" {
		auth = sasl.NewPlainClient("", e.config.Username, e.config.Password)
	}
	raw, err := e.Message(n)
	if err != nil {
		return err
	}
	msg := strings.NewReader(raw)

	if !e.config.Insecure {
		return smtp.SendMail(e.config.Server, auth, e.config.From, e.config.To, msg)
	}

	c, err := smtp.Dial(e.config.Server)
	if err != nil {
		return fmt.Errorf("email connection: %w", err)
	}
	defer c.Close()

	if err := c.Hello("localhost"); err != nil {
		return fmt.Errorf("email hello: %w", err)
	}
	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("email auth: %w", err)
		}
	}
	if err := c.SendMail(e.config.From, e.config.To, msg); err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	return c.Quit()
}
