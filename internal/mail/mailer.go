package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoRecipients is returned when a message has no To address.
var ErrNoRecipients = errors.New("mail: no recipients")

// Config holds SMTP configuration.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	ImplicitTLS bool
	DialTimeout time.Duration
}

// Attachment is an in-memory file attached to a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a plain-text mail with optional attachments.
type Message struct {
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Transport delivers a raw RFC 5322 message.
type Transport func(ctx context.Context, from string, to []string, raw []byte) error

// Mailer sends mail over SMTP. Without credentials it skips delivery.
type Mailer struct {
	cfg       Config
	transport Transport
	logger    zerolog.Logger
}

// Option customises a Mailer.
type Option func(*Mailer)

// WithTransport replaces the SMTP transport.
func WithTransport(t Transport) Option {
	return func(m *Mailer) { m.transport = t }
}

// New creates a Mailer.
func New(cfg Config, logger zerolog.Logger, opts ...Option) *Mailer {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 15 * time.Second
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	m := &Mailer{
		cfg:    cfg,
		logger: logger.With().Str("component", "mail").Logger(),
	}
	m.transport = m.smtpTransport
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Configured reports whether SMTP credentials are present.
func (m *Mailer) Configured() bool {
	return m.cfg.Username != "" && m.cfg.Password != ""
}

// Send delivers msg. It returns delivered=false without error when SMTP
// credentials are missing.
func (m *Mailer) Send(ctx context.Context, msg Message) (bool, error) {
	if len(msg.To) == 0 {
		return false, ErrNoRecipients
	}
	if !m.Configured() {
		m.logger.Warn().Strs("to", msg.To).Str("subject", msg.Subject).Msg("smtp credentials not set, skipping delivery")
		return false, nil
	}

	raw, err := Compose(m.cfg.From, msg)
	if err != nil {
		return false, fmt.Errorf("compose message: %w", err)
	}
	if err := m.transport(ctx, m.cfg.From, msg.To, raw); err != nil {
		m.logger.Error().Err(err).Strs("to", msg.To).Msg("failed to send mail")
		return false, fmt.Errorf("send mail: %w", err)
	}

	m.logger.Info().Strs("to", msg.To).Str("subject", msg.Subject).Int("attachments", len(msg.Attachments)).Msg("mail sent")
	return true, nil
}

// Compose renders msg as a MIME message. Attachments produce multipart/mixed.
func Compose(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(msg.Attachments) == 0 {
		buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
		buf.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
		buf.WriteString(msg.Body)
		buf.WriteString("\r\n")
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	body, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := body.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}

	for _, att := range msg.Attachments {
		ct := att.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {fmt.Sprintf("%s; name=%q", ct, att.Filename)},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", att.Filename)},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64(part, att.Data); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBase64 wraps encoded output at 76 columns.
func writeBase64(w interface{ Write([]byte) (int, error) }, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 76 {
		if _, err := w.Write([]byte(enc[:76] + "\r\n")); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err := w.Write([]byte(enc + "\r\n"))
	return err
}

func (m *Mailer) smtpTransport(ctx context.Context, from string, to []string, raw []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	dialer := &net.Dialer{Timeout: m.cfg.DialTimeout}

	var conn net.Conn
	var err error
	if m.cfg.ImplicitTLS {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: m.cfg.Host}}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if !m.cfg.ImplicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}
	if ok, _ := client.Extension("AUTH"); ok {
		if err := client.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
