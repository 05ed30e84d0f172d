// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendWelcome(toEmail, name string) error
	SendSessionAccepted(toEmail, studentName, mentorName, sessionLink string) error
	SendGoodbye(toEmail, name string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

// NewEmailService returns a no-op mailer when host is empty, so local setups
// run without SMTP credentials.
func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	if host == "" {
		return nopEmailService{}
	}
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

func (s *emailService) send(toEmail, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send %q to %s: %v\n", subject, toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] %q sent to %s\n", subject, toEmail)
	return nil
}

func (s *emailService) SendWelcome(toEmail, name string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Welcome to Wizzmo, %s!</h2>
			<p>Ask anything. Real college mentors answer in private chats.</p>
		</div>
	`, name)
	return s.send(toEmail, "Welcome to Wizzmo", body)
}

func (s *emailService) SendSessionAccepted(toEmail, studentName, mentorName, sessionLink string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Hi %s, a mentor picked up your question</h2>
			<p>%s accepted your question and is ready to chat.</p>
			<a href="%s" style="background-color: #FF4F81; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Open chat</a>
		</div>
	`, studentName, mentorName, sessionLink)
	return s.send(toEmail, "Your question was accepted", body)
}

func (s *emailService) SendGoodbye(toEmail, name string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Goodbye, %s</h2>
			<p>Your Wizzmo account and profile were deleted.</p>
		</div>
	`, name)
	return s.send(toEmail, "Your Wizzmo account was deleted", body)
}

type nopEmailService struct{}

func (nopEmailService) SendWelcome(string, string) error                         { return nil }
func (nopEmailService) SendSessionAccepted(string, string, string, string) error { return nil }
func (nopEmailService) SendGoodbye(string, string) error                         { return nil }
