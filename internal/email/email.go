package email

import (
	"crypto/tls"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"contentboard/internal/config"
)

const boundary = "ContentBoardBoundary7f3a9c"

// Service handles sending email over SMTP.
type Service struct {
	cfg     *config.Config
	enabled bool
}

// NewService creates a new email service.
func NewService(cfg *config.Config) *Service {
	s := &Service{
		cfg:     cfg,
		enabled: cfg.IsEmailEnabled(),
	}

	if s.enabled {
		log.Info().Str("host", cfg.SMTPHost).Int("port", cfg.SMTPPort).Msg("email notifications enabled")
	} else {
		log.Info().Msg("email notifications disabled (SMTP not configured)")
	}

	return s
}

// IsEnabled returns true if email is enabled.
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// buildMessage renders a multipart/alternative MIME message.
func (s *Service) buildMessage(to []string, subject, htmlBody, textBody string) string {
	from := s.cfg.SMTPFrom
	if s.cfg.SMTPFromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.cfg.SMTPFromName), s.cfg.SMTPFrom)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	msg.WriteString("\r\n")

	if textBody != "" {
		fmt.Fprintf(&msg, "--%s\r\n", boundary)
		msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		msg.WriteString(textBody)
		msg.WriteString("\r\n")
	}

	if htmlBody != "" {
		fmt.Fprintf(&msg, "--%s\r\n", boundary)
		msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		msg.WriteString(htmlBody)
		msg.WriteString("\r\n")
	}

	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.String()
}

// Send sends an email to the specified recipients.
func (s *Service) Send(to []string, subject, htmlBody, textBody string) error {
	if !s.enabled || len(to) == 0 {
		return nil
	}

	msg := s.buildMessage(to, subject, htmlBody, textBody)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" && s.cfg.SMTPPassword != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	switch s.cfg.SMTPTLS {
	case "tls":
		return s.sendWithTLS(addr, auth, to, msg)
	case "starttls":
		return s.sendWithStartTLS(addr, auth, to, msg)
	default: // "none"
		return smtp.SendMail(addr, auth, s.cfg.SMTPFrom, to, []byte(msg))
	}
}

// sendWithTLS sends email using implicit TLS (port 465).
func (s *Service) sendWithTLS(addr string, auth smtp.Auth, to []string, msg string) error {
	conn, err := tls.Dial("tcp", addr, s.tlsConfig())
	if err != nil {
		return fmt.Errorf("TLS dial failed: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		return fmt.Errorf("SMTP client failed: %w", err)
	}
	defer client.Close()

	return s.deliver(client, auth, to, msg)
}

// sendWithStartTLS sends email using STARTTLS (port 587).
func (s *Service) sendWithStartTLS(addr string, auth smtp.Auth, to []string, msg string) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("SMTP dial failed: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(s.tlsConfig()); err != nil {
		return fmt.Errorf("STARTTLS failed: %w", err)
	}

	return s.deliver(client, auth, to, msg)
}

func (s *Service) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName: s.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}
}

func (s *Service) deliver(client *smtp.Client, auth smtp.Auth, to []string, msg string) error {
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("SMTP MAIL failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("SMTP RCPT failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA failed: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("SMTP write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("SMTP close failed: %w", err)
	}

	return client.Quit()
}

// SendAsync sends an email asynchronously (fire and forget with logging).
func (s *Service) SendAsync(to []string, subject, htmlBody, textBody string) {
	if !s.enabled || len(to) == 0 {
		return
	}

	go func() {
		if err := s.Send(to, subject, htmlBody, textBody); err != nil {
			log.Error().Err(err).Strs("to", to).Str("subject", subject).Msg("failed to send email")
			return
		}
		log.Debug().Strs("to", to).Str("subject", subject).Msg("email sent")
	}()
}
