// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendIngestionFailed(toEmail, filename, reason string) error
	SendIngestionCompleted(toEmail, filename string, chunkCount int) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

func (s *emailService) SendIngestionFailed(toEmail, filename, reason string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Document processing failed: %s", filename))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Document Processing Failed</h2>
			<p>Your document <strong>%s</strong> could not be processed.</p>
			<p>Reason: %s</p>
			<p>The document will not be used to answer questions. You can fix the file and upload it again.</p>
		</div>
	`, filename, reason)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send failure notice to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Failure notice sent to %s\n", toEmail)
	return nil
}

func (s *emailService) SendIngestionCompleted(toEmail, filename string, chunkCount int) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Document ready: %s", filename))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Document Ready</h2>
			<p>Your document <strong>%s</strong> has been processed into %d searchable sections.</p>
			<p>It is now available for questions in your assistant.</p>
		</div>
	`, filename, chunkCount)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send completion notice to %s: %v\n", toEmail, err)
		return err
	}

	return nil
}
