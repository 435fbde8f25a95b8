package services

import (
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendReminderDigest(email string, lines []string) error
	SendPasswordResetEmail(email, token string) error
}

// mailDialer is satisfied by *gomail.Dialer.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	dialer mailDialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) SendReminderDigest(email string, lines []string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "リマインダー: 今日のタスク")

	var items strings.Builder
	for _, l := range lines {
		items.WriteString("<li>" + html.EscapeString(l) + "</li>")
	}
	body := fmt.Sprintf(`
		<h3>Upcoming tasks</h3>
		<ul>%s</ul>
		<p>Open your calendar for details.</p>
	`, items.String())

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send reminder email: %w", err)
	}

	return nil
}

func (s *emailService) SendPasswordResetEmail(email, token string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "パスワード再設定")
	m.SetBody("text/html", fmt.Sprintf(`
		<p>Use this code to set a new password. It expires in one hour.</p>
		<p><b>%s</b></p>
		<p>If you did not ask for a reset, ignore this message.</p>
	`, html.EscapeString(token)))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}
