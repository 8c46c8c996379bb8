package mailer

import (
	"context"
	"fmt"
	"net/url"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"

	"github.com/retoro-app/retoro-backend/pkg/config"
)

// Sender delivers product email. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendMagicLink(ctx context.Context, to string, token string) error
	SendSupportRequest(ctx context.Context, fromEmail, subject, body string) error
}

// Mailgun sends through the Mailgun HTTP API.
type Mailgun struct {
	domain       string
	apiKey       string
	sender       string
	supportEmail string
	linkBaseURL  string
}

func NewMailgun(cfg config.MailgunConfig) *Mailgun {
	return &Mailgun{
		domain:       cfg.Domain,
		apiKey:       cfg.APIKey,
		sender:       cfg.Sender,
		supportEmail: cfg.SupportEmail,
		linkBaseURL:  cfg.LinkBaseURL,
	}
}

// SendMagicLink emails a single-use sign-in link. The token goes into the
// link URL only, never into the message body as plain text.
func (m *Mailgun) SendMagicLink(ctx context.Context, to string, token string) error {
	link := magicLinkURL(m.linkBaseURL, token)

	text := fmt.Sprintf("Sign in to Retoro by opening this link:\n\n%s\n\nThe link expires in 15 minutes. If you did not request it, ignore this email.", link)
	html := fmt.Sprintf(`<p>Sign in to Retoro:</p><p><a href="%s">Sign in</a></p><p>The link expires in 15 minutes. If you did not request it, ignore this email.</p>`, link)

	return m.send(ctx, to, "Your Retoro sign-in link", text, html, "")
}

// SendSupportRequest forwards a user message to the support inbox with the
// user's address as reply-to.
func (m *Mailgun) SendSupportRequest(ctx context.Context, fromEmail, subject, body string) error {
	text := fmt.Sprintf("Support request from %s\n\n%s", fromEmail, body)
	return m.send(ctx, m.supportEmail, "[Support] "+subject, text, "", fromEmail)
}

func magicLinkURL(base, token string) string {
	return fmt.Sprintf("%s/api/v1/auth/magic-link/verify?token=%s", base, url.QueryEscape(token))
}

func (m *Mailgun) send(ctx context.Context, to, subject, text, html, replyTo string) error {
	client := mg.NewMailgun(m.domain, m.apiKey)
	msg := client.NewMessage(m.sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	if replyTo != "" {
		msg.SetReplyTo(replyTo)
	}

	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, _, err := client.Send(c, msg); err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}
