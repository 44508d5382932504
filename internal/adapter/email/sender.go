// Package email relays outgoing mail over SMTP with STARTTLS.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/config"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/mailer"
)

var (
	// ErrNotConfigured is returned by Send when relay settings are incomplete.
	ErrNotConfigured = errors.New("smtp relay not configured")
	// ErrInsecureRelay is returned when the relay offers no STARTTLS or no AUTH.
	ErrInsecureRelay = errors.New("smtp relay is not secure")
)

// Sender relays plain-text messages through an SMTP server. The login user is
// also the From address.
type Sender struct {
	cfg     config.SMTP
	timeout time.Duration
	now     func() time.Time
	rootCAs *x509.CertPool // nil uses the system pool
}

// NewSender creates a sender for the given relay.
func NewSender(cfg config.SMTP) *Sender {
	return &Sender{cfg: cfg, timeout: 30 * time.Second, now: time.Now}
}

// Configured reports whether host, user and password are all set.
func (s *Sender) Configured() bool { return s.cfg.Complete() }

// Send delivers msg. The relay must offer STARTTLS and AUTH: the connection
// is upgraded before anything else and authenticates with PLAIN.
func (s *Sender) Send(ctx context.Context, msg mailer.Message) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	data, err := s.build(to, msg)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	d := net.Dialer{Timeout: s.timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	deadline := s.now().Add(s.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if ok, _ := c.Extension("STARTTLS"); !ok {
		return fmt.Errorf("%w: relay does not support STARTTLS", ErrInsecureRelay)
	}
	if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12, RootCAs: s.rootCAs}); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}
	if ok, _ := c.Extension("AUTH"); !ok {
		return fmt.Errorf("%w: relay does not offer AUTH", ErrInsecureRelay)
	}
	if err := c.Auth(smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Mail(s.cfg.User); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(to.Address); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("end data: %w", err)
	}
	return c.Quit()
}

// build renders the RFC 5322 message. Header values containing line breaks
// are rejected.
func (s *Sender) build(to *mail.Address, msg mailer.Message) ([]byte, error) {
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return nil, errors.New("subject must be a single line")
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.User)
	fmt.Fprintf(&b, "To: %s\r\n", to.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(msg.Body, "\r\n", "\n"), "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes(), nil
}
