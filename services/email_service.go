package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	texttemplate "text/template"
	"time"
)

//go:embed templates/emails/*.html templates/emails/*.txt
var emailTemplatesFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(emailTemplatesFS, "templates/emails/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(emailTemplatesFS, "templates/emails/*.txt"))
)

// Message: одно исходящее письмо. Bcc не попадает в заголовки.
type Message struct {
	To      []string
	Bcc     []string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

type smtpMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) Mailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	recipients := append(append([]string{}, msg.To...), msg.Bcc...)
	if len(recipients) == 0 {
		return errors.New("email has no recipients")
	}

	body, err := buildMIMEMessage(m.cfg.From, msg, time.Now())
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprint(m.cfg.Port))
	tlsconfig := &tls.Config{ServerName: m.cfg.Host}
	dialer := &net.Dialer{Timeout: 15 * time.Second}

	var conn net.Conn
	if m.cfg.Port == 465 {
		// Прямое TLS-соединение (обычно порт 465)
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsconfig}).DialContext(ctx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("smtp tls dial: %w", err)
		}
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("smtp dial: %w", err)
		}
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if m.cfg.Port != 465 {
		// STARTTLS (обычно порт 587)
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsconfig); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	if m.cfg.User != "" {
		if err := client.Auth(smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return client.Quit()
}

// buildMIMEMessage собирает multipart/alternative письмо с текстовой и HTML частями.
func buildMIMEMessage(from string, msg Message, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}
	header("From", from)
	if len(msg.To) > 0 {
		header("To", strings.Join(msg.To, ", "))
	}
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", "<"+randomToken()+"@"+domainOf(from)+">")
	header("MIME-Version", "1.0")
	header("Content-Type", `multipart/alternative; boundary="`+mw.Boundary()+`"`)
	buf.WriteString("\r\n")

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", p.contentType)
		h.Set("Content-Transfer-Encoding", "quoted-printable")
		pw, err := mw.CreatePart(h)
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(pw)
		if _, err := qp.Write([]byte(p.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func randomToken() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprint(time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return strings.Trim(addr[i+1:], "> ")
	}
	return "localhost"
}

// renderEmail выполняет пару шаблонов <name>.txt и <name>.html.
func renderEmail(name string, data interface{}) (text string, html string, err error) {
	var tb, hb bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&tb, name+".txt", data); err != nil {
		return "", "", fmt.Errorf("render %s.txt: %w", name, err)
	}
	if err := htmlTemplates.ExecuteTemplate(&hb, name+".html", data); err != nil {
		return "", "", fmt.Errorf("render %s.html: %w", name, err)
	}
	return tb.String(), hb.String(), nil
}

type logMailer struct {
	logger *slog.Logger
}

// NewLogMailer возвращает Mailer, который только пишет в лог (SMTP не настроен).
func NewLogMailer(logger *slog.Logger) Mailer {
	return &logMailer{logger: logger}
}

func (m *logMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("smtp not configured, email skipped",
		"subject", msg.Subject,
		"to", len(msg.To),
		"bcc", len(msg.Bcc),
	)
	return nil
}
