package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/courseloop/campus-auth/internal/auth/domain"
)

// SMTPChannel delivers one-time codes by email through a plain SMTP
// relay.
type SMTPChannel struct {
	Addr     string // host:port
	From     string
	Username string
	Password string
}

func (c *SMTPChannel) Send(ctx context.Context, recipient string, purpose domain.PasscodePurpose, code string, expiresAt time.Time) error {
	msg := buildMessage(c.From, recipient, purpose, code, expiresAt)

	if err := c.send(ctx, recipient, msg); err != nil {
		return Classify(err)
	}
	return nil
}

func (c *SMTPChannel) send(ctx context.Context, recipient string, msg []byte) error {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	host, _, err := net.SplitHostPort(c.Addr)
	if err != nil {
		host = c.Addr
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()

	if c.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", c.Username, c.Password, host)
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	if err := client.Mail(c.From); err != nil {
		return err
	}
	if err := client.Rcpt(recipient); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildMessage(from, to string, purpose domain.PasscodePurpose, code string, expiresAt time.Time) []byte {
	subject := "Your verification code"
	intro := "Use this code to finish signing in."
	if purpose == domain.PurposePasswordReset {
		subject = "Your password reset code"
		intro = "Use this code to reset your password."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "%s\r\n\r\n", intro)
	fmt.Fprintf(&b, "Code: %s\r\n", code)
	fmt.Fprintf(&b, "Expires: %s\r\n", expiresAt.UTC().Format(time.RFC1123))
	return []byte(b.String())
}
