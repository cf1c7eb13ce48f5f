// internal/pkg/email/types.go
package email

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeInvoice EmailType = "invoice"
	EmailTypeCheck   EmailType = "check"
)

// Email represents an email message
type Email struct {
	To          []string
	Subject     string
	HTMLContent string
	TextContent string
	Type        EmailType
	Attachments []Attachment
}

// Attachment is a file sent along with an email
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// InvoiceEmailData contains data for the invoice email template
type InvoiceEmailData struct {
	CompanyName   string
	CompanyEmail  string
	CustomerName  string
	InvoiceNumber string
	TotalAmount   string
	Currency      string
	DueDate       string
	Year          int
}
