package notify

import (
	"context"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"

	"lifeos/internal/models"
)

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailChannel sends plain-text mail through an SMTP relay.
type EmailChannel struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
}

// NewEmailChannel creates an SMTP channel. With no host configured every
// send reports ErrChannelUnavailable.
func NewEmailChannel(cfg SMTPConfig) *EmailChannel {
	return &EmailChannel{cfg: cfg, sendMail: smtp.SendMail}
}

func (c *EmailChannel) Name() models.Channel { return models.ChannelEmail }

func (c *EmailChannel) Send(ctx context.Context, msg Message) error {
	if c.cfg.Host == "" || c.cfg.From == "" {
		return ErrChannelUnavailable
	}
	if msg.Email == "" {
		return fmt.Errorf("user %s has no email address", msg.UserID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}
	sender := c.cfg.From
	if parsed, err := mail.ParseAddress(c.cfg.From); err == nil {
		sender = parsed.Address
	}
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
	return c.sendMail(addr, auth, sender, []string{msg.Email}, buildMail(c.cfg.From, msg))
}

func buildMail(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.Email + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(msg.Title) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	body := msg.Body
	if body == "" {
		body = msg.Title
	}
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
