package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"strconv"
	"time"

	"tourly/internal/shared/config"
)

// EmailService interface for sending emails
type EmailService interface {
	SendNotification(ctx context.Context, notification *EmailNotification) error
	SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	UseTLS    bool
}

// NewSMTPConfig builds SMTP settings from application config
func NewSMTPConfig(cfg *config.Config) *SMTPConfig {
	return &SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  "Tourly",
		UseTLS:    true,
	}
}

// SMTPEmailService is a real SMTP implementation of the EmailService interface
type SMTPEmailService struct {
	config    *SMTPConfig
	templates map[string]*template.Template
}

// NewSMTPEmailService creates a new SMTP email service
func NewSMTPEmailService(config *SMTPConfig) (*SMTPEmailService, error) {
	if err := validateSMTPConfig(config); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}

	service := &SMTPEmailService{
		config:    config,
		templates: make(map[string]*template.Template),
	}
	service.loadDefaultTemplates()
	return service, nil
}

func validateSMTPConfig(config *SMTPConfig) error {
	if config == nil {
		return fmt.Errorf("SMTP config is nil")
	}
	if config.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	}
	if config.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

// SendNotification renders the notification's template and sends it
func (s *SMTPEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	log.Printf("📧 [SMTP] Sending %s notification to %s", notification.Type, notification.RecipientEmail)

	htmlBody, textBody, err := s.generateContent(notification)
	if err != nil {
		return fmt.Errorf("failed to generate email content: %w", err)
	}

	return s.SendHTML(ctx, notification.RecipientEmail, notification.Subject, htmlBody, textBody)
}

// SendHTML sends an HTML email
func (s *SMTPEmailService) SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error {
	message := s.buildMessage(to, subject, htmlBody, textBody)

	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var err error
	if s.config.UseTLS {
		err = s.sendWithSTARTTLS(addr, auth, to, message)
	} else {
		err = smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, message)
	}
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("📧 [SMTP] Email sent successfully to %s", to)
	return nil
}

// sendWithSTARTTLS sends email with STARTTLS encryption
func (s *SMTPEmailService) sendWithSTARTTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	tlsconfig := &tls.Config{
		ServerName: s.config.Host,
	}
	if err = client.StartTLS(tlsconfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return w.Close()
}

// buildMessage creates the email message with proper headers
func (s *SMTPEmailService) buildMessage(to, subject, htmlBody, textBody string) []byte {
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Date"] = time.Now().Format(time.RFC1123Z)

	boundary := "boundary_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	headers["Content-Type"] = fmt.Sprintf("multipart/alternative; boundary=%s", boundary)

	message := ""
	for k, v := range headers {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n"

	if textBody != "" {
		message += fmt.Sprintf("--%s\r\n", boundary)
		message += "Content-Type: text/plain; charset=UTF-8\r\n"
		message += "\r\n"
		message += textBody + "\r\n"
	}

	message += fmt.Sprintf("--%s\r\n", boundary)
	message += "Content-Type: text/html; charset=UTF-8\r\n"
	message += "\r\n"
	message += htmlBody + "\r\n"
	message += fmt.Sprintf("--%s--\r\n", boundary)

	return []byte(message)
}

func (s *SMTPEmailService) generateContent(notification *EmailNotification) (string, string, error) {
	tmpl, exists := s.templates[string(notification.Type)]
	if !exists {
		// Plain fallback so an unknown type still reaches the recipient.
		text := fmt.Sprintf("Hello %s,\n\nYou have an update on your booking.\n", notification.RecipientName)
		return "<p>" + template.HTMLEscapeString(text) + "</p>", text, nil
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&htmlBuf, "html", notification.TemplateData); err != nil {
		return "", "", fmt.Errorf("failed to execute HTML template: %w", err)
	}
	if err := tmpl.ExecuteTemplate(&textBuf, "text", notification.TemplateData); err != nil {
		textBuf.Reset()
		textBuf.WriteString("Please view this email in HTML format.")
	}
	return htmlBuf.String(), textBuf.String(), nil
}

func (s *SMTPEmailService) loadDefaultTemplates() {
	bookingCreated := template.Must(template.New("booking_created").Parse(`
{{define "html"}}<h2>Booking received</h2>
<p>Hi {{.recipient_name}},</p>
<p>Your booking <strong>{{.booking_reference}}</strong> for your tour on {{.tour_date}} has been received and is awaiting confirmation.</p>
<p>Participants: {{.participants}} &middot; Total: {{.currency}} {{.total_amount}}</p>{{end}}
{{define "text"}}Hi {{.recipient_name}}, your booking {{.booking_reference}} for your tour on {{.tour_date}} has been received. Participants: {{.participants}}. Total: {{.currency}} {{.total_amount}}.{{end}}`))

	bookingConfirmed := template.Must(template.New("booking_confirmed").Parse(`
{{define "html"}}<h2>Booking confirmed</h2>
<p>Hi {{.recipient_name}},</p>
<p>Your booking <strong>{{.booking_reference}}</strong> for your tour on {{.tour_date}} is confirmed. See you there!</p>{{end}}
{{define "text"}}Hi {{.recipient_name}}, your booking {{.booking_reference}} for your tour on {{.tour_date}} is confirmed.{{end}}`))

	bookingCancelled := template.Must(template.New("booking_cancelled").Parse(`
{{define "html"}}<h2>Booking cancelled</h2>
<p>Hi {{.recipient_name}},</p>
<p>Your booking <strong>{{.booking_reference}}</strong> has been cancelled.{{if .refund_amount}} A refund of {{.currency}} {{.refund_amount}} is being processed.{{end}}</p>{{end}}
{{define "text"}}Hi {{.recipient_name}}, your booking {{.booking_reference}} has been cancelled.{{end}}`))

	registrationApproved := template.Must(template.New("registration_approved").Parse(`
{{define "html"}}<h2>Registration approved</h2>
<p>Hi {{.recipient_name}},</p>
<p>Your registration for <strong>{{.tour_title}}</strong> ({{.start_date}} to {{.end_date}}) has been approved. Your spot is reserved.</p>
<p>Price per person: {{.currency}} {{.price_per_person}}</p>{{end}}
{{define "text"}}Hi {{.recipient_name}}, your registration for {{.tour_title}} ({{.start_date}} to {{.end_date}}) has been approved. Price per person: {{.currency}} {{.price_per_person}}.{{end}}`))

	s.templates[string(NotificationTypeBookingCreated)] = bookingCreated
	s.templates[string(NotificationTypeBookingConfirmed)] = bookingConfirmed
	s.templates[string(NotificationTypeBookingCancelled)] = bookingCancelled
	s.templates[string(NotificationTypeRegistrationApproved)] = registrationApproved
}
