package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/argusmon/argus/internal/argerr"
)

// DefaultSendTimeout bounds one outbound notification call when the
// configuration does not say otherwise.
const DefaultSendTimeout = 10 * time.Second

// EmailConfig describes the SMTP relay notifications go through.
type EmailConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	SkipVerify bool
	Timeout    time.Duration
}

// EmailSender delivers plain-text notification mails over SMTP, using
// implicit TLS on port 465 and STARTTLS everywhere the server offers it.
type EmailSender struct {
	conf EmailConfig
}

func NewEmailSender(conf EmailConfig) (*EmailSender, error) {
	if conf.Host == "" {
		return nil, argerr.New(argerr.ErrConfiguration, nil, "smtp host is required")
	}
	if conf.Port == 0 {
		conf.Port = 587
	}
	if conf.From == "" {
		conf.From = conf.Username
	}
	if conf.From == "" {
		return nil, argerr.New(argerr.ErrConfiguration, nil, "smtp sender address is required")
	}
	if conf.Timeout <= 0 {
		conf.Timeout = DefaultSendTimeout
	}
	return &EmailSender{conf: conf}, nil
}

// Send delivers one message to one recipient. It never blocks past the
// configured timeout.
func (s *EmailSender) Send(ctx context.Context, to, subject, body string) error {
	ctx, cancel := context.WithTimeout(ctx, s.conf.Timeout)
	defer cancel()

	addr := net.JoinHostPort(s.conf.Host, fmt.Sprint(s.conf.Port))

	c, err := s.dial(ctx, addr)
	if err != nil {
		return argerr.New(argerr.ErrNotification, err, "failed to reach smtp server %s", addr)
	}
	defer c.Close()

	if ok, _ := c.Extension("AUTH"); ok && s.conf.Username != "" {
		auth := smtp.PlainAuth("", s.conf.Username, s.conf.Password, s.conf.Host)
		if err := c.Auth(auth); err != nil {
			return argerr.New(argerr.ErrNotification, err, "smtp authentication failed")
		}
	}

	if err := c.Mail(s.conf.From); err != nil {
		return argerr.New(argerr.ErrNotification, err, "smtp server rejected sender %s", s.conf.From)
	}
	if err := c.Rcpt(to); err != nil {
		return argerr.New(argerr.ErrNotification, err, "smtp server rejected recipient %s", to)
	}

	w, err := c.Data()
	if err != nil {
		return argerr.New(argerr.ErrNotification, err, "failed to start message body")
	}
	if _, err := w.Write([]byte(s.message(to, subject, body))); err != nil {
		w.Close()
		return argerr.New(argerr.ErrNotification, err, "failed to write message body")
	}
	if err := w.Close(); err != nil {
		return argerr.New(argerr.ErrNotification, err, "smtp server rejected message")
	}

	return c.Quit()
}

func (s *EmailSender) message(to, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.conf.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.String()
}

// dial connects to the relay. Port 465 means SMTPS with TLS from the first
// byte; on every other port it upgrades with STARTTLS when offered.
func (s *EmailSender) dial(ctx context.Context, addr string) (*smtp.Client, error) {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if t, ok := ctx.Deadline(); ok {
		conn.SetDeadline(t)
	}

	tlsConf := &tls.Config{
		ServerName:         s.conf.Host,
		InsecureSkipVerify: s.conf.SkipVerify,
	}

	if s.conf.Port == 465 {
		tc := tls.Client(conn, tlsConf)
		if err := tc.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		return smtp.NewClient(tc, s.conf.Host)
	}

	c, err := smtp.NewClient(conn, s.conf.Host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(tlsConf); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}
