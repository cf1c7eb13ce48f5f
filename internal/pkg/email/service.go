// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/config"
	"github.com/Kyac99/finance-gestion-app/internal/domain/sale"
	"github.com/sirupsen/logrus"
)

var invoiceTmpl = template.Must(template.New("invoice").Parse(invoiceTemplate))

// EmailService sends outgoing mail over SMTP
type EmailService struct {
	config *config.Config
	log    logrus.FieldLogger
	send   sendFunc
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.Config, log logrus.FieldLogger) *EmailService {
	s := &EmailService{
		config: cfg,
		log:    log,
	}
	s.send = s.sendSMTP
	return s
}

// SendEmail delivers an email
func (s *EmailService) SendEmail(ctx context.Context, email *Email) error {
	if !s.config.Email.Enabled {
		return fmt.Errorf("email delivery is disabled")
	}
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := buildMessage(s.fromHeader(), email)
	if err != nil {
		return fmt.Errorf("failed to build email: %w", err)
	}

	if err := s.send(s.config.Email.FromEmail, email.To, msg); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"type":        email.Type,
		"to":          email.To,
		"attachments": len(email.Attachments),
	}).Info("Email sent")
	return nil
}

// SendInvoiceEmail mails an invoice to its customer with the PDF attached
func (s *EmailService) SendInvoiceEmail(ctx context.Context, msg *sale.InvoiceMessage) error {
	data := InvoiceEmailData{
		CompanyName:   s.config.Company.Name,
		CompanyEmail:  s.config.Company.Email,
		CustomerName:  msg.CustomerName,
		InvoiceNumber: msg.InvoiceNumber,
		TotalAmount:   msg.TotalAmount,
		Currency:      s.config.Business.Currency,
		DueDate:       msg.DueDate,
		Year:          time.Now().Year(),
	}

	var body bytes.Buffer
	if err := invoiceTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render invoice email: %w", err)
	}

	email := &Email{
		To:          []string{msg.To},
		Subject:     fmt.Sprintf("Invoice %s from %s", msg.InvoiceNumber, s.config.Company.Name),
		HTMLContent: body.String(),
		Type:        EmailTypeInvoice,
	}
	if len(msg.Attachment) > 0 {
		email.Attachments = append(email.Attachments, Attachment{
			Filename:    msg.InvoiceNumber + ".pdf",
			ContentType: "application/pdf",
			Content:     msg.Attachment,
		})
	}

	return s.SendEmail(ctx, email)
}

func (s *EmailService) fromHeader() string {
	if s.config.Email.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.config.Email.FromName, s.config.Email.FromEmail)
	}
	return s.config.Email.FromEmail
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invoice {{.InvoiceNumber}}</title>
</head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
        <h1 style="color: #333;">{{.CompanyName}}</h1>
        <p>Hello {{.CustomerName}},</p>
        <p>Please find attached invoice <strong>{{.InvoiceNumber}}</strong> for <strong>{{.TotalAmount}} {{.Currency}}</strong>.</p>
        {{if .DueDate}}<p>Payment is due by {{.DueDate}}.</p>{{end}}
        {{if .CompanyEmail}}<p>If you have any questions, reply to this email or write to {{.CompanyEmail}}.</p>{{end}}
        <p>Best regards,<br>{{.CompanyName}}</p>
        <hr>
        <p style="font-size: 12px; color: #666;">&copy; {{.Year}} {{.CompanyName}}</p>
    </div>
</body>
</html>`
