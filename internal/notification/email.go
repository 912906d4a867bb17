// Package notification sends transactional email to restaurant owners.
package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"mime"
	"net/smtp"
	"strings"
)

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailService struct {
	config EmailConfig
	send   sendFunc
}

func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{config: config, send: smtp.SendMail}
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<html><body>
		<h2>Welcome to DigiMenu, {{.Name}}!</h2>
		<p>Your restaurant account is ready. Start by adding categories and menu items from your dashboard.</p>
		<p>Your public menu lives at <a href="{{.MenuURL}}">{{.MenuURL}}</a>.</p>
		<p>Print the QR code from the Share page so guests can open it from their table.</p>
	</body></html>`))

// SendWelcomeEmail greets a newly registered owner with their public menu
// address.
func (s *EmailService) SendWelcomeEmail(to, restaurantName, menuURL string) error {
	var body bytes.Buffer
	err := welcomeTemplate.Execute(&body, struct{ Name, MenuURL string }{restaurantName, menuURL})
	if err != nil {
		return fmt.Errorf("render welcome email: %w", err)
	}
	return s.sendEmail(to, "Your DigiMenu is ready", body.String())
}

func (s *EmailService) sendEmail(to, subject, body string) error {
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("invalid recipient address")
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.config.FromName), s.config.From)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, mime.QEncoding.Encode("utf-8", subject), body)

	var auth smtp.Auth
	if s.config.User != "" {
		auth = smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	return s.send(addr, auth, s.config.From, []string{to}, []byte(msg))
}
