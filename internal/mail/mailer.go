// Package mail dispatches verification emails. The service layer depends on
// the Mailer interface so tests can substitute a recording fake.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// Mailer sends a verification code to a user. The code is shown as a
// human-enterable value, not a clickable link.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, code string) error
}

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

// NewSMTPMailer creates a Mailer talking to the given SMTP host.
func NewSMTPMailer(host string, port int, username, password, from string) (*SMTPMailer, error) {
	opts := []gomail.Option{gomail.WithPort(port)}
	if username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(username),
			gomail.WithPassword(password),
		)
	}

	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: from}, nil
}

// SendVerification emails the verification code to the user.
func (m *SMTPMailer) SendVerification(ctx context.Context, to, name, code string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}

	msg.Subject("Verify email")
	msg.SetBodyString(gomail.TypeTextHTML, fmt.Sprintf(
		`<p>%s, please verify your account. Your verification code is <span style="color:blue; font-weight: 700">%s</span></p><p>With love your Phonebook App</p>`,
		name, code,
	))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}
