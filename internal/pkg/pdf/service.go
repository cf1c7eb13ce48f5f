// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Kyac99/finance-gestion-app/internal/config"
	"github.com/Kyac99/finance-gestion-app/internal/domain/sale"
	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopspring/decimal"
)

var invoiceTmpl = template.Must(template.New("invoice").Parse(invoiceTemplate))

// Service handles PDF generation
type Service struct {
	config *config.Config
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	if cfg.PDF.WkhtmltopdfPath != "" {
		wkhtmltopdf.SetPath(cfg.PDF.WkhtmltopdfPath)
	}
	return &Service{
		config: cfg,
	}
}

// GenerateInvoice renders an invoice to PDF with wkhtmltopdf
func (s *Service) GenerateInvoice(detail *sale.InvoiceDetail) (*bytes.Buffer, error) {
	htmlContent, err := s.RenderHTML(detail)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)
	pageSize := s.config.PDF.PageSize
	if pageSize == "" {
		pageSize = wkhtmltopdf.PageSizeA4
	}
	pdfg.PageSize.Set(pageSize)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(htmlContent))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// RenderHTML fills the invoice template
func (s *Service) RenderHTML(detail *sale.InvoiceDetail) ([]byte, error) {
	data := s.templateData(detail)

	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// InvoiceData represents the data passed to the invoice template
type InvoiceData struct {
	InvoiceNumber string
	IssueDate     string
	DueDate       string
	Status        string
	SaleReference string
	Customer      CustomerInfo
	Company       CompanyInfo
	Currency      string
	Lines         []LineData
	Total         string
	Paid          string
	BalanceDue    string
	Notes         string
}

// CustomerInfo is the billed party
type CustomerInfo struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string
	Address string
	Phone   string
	Email   string
	TaxID   string
}

// LineData is one printed invoice line
type LineData struct {
	Product   string
	Quantity  int
	UnitPrice string
	Discount  string
	Total     string
}

func (s *Service) templateData(detail *sale.InvoiceDetail) InvoiceData {
	data := InvoiceData{
		InvoiceNumber: detail.InvoiceNumber,
		IssueDate:     detail.IssueDate.String(),
		Status:        string(detail.Status),
		SaleReference: detail.SaleReference,
		Customer: CustomerInfo{
			Name:  detail.CustomerName,
			Email: detail.CustomerEmail,
		},
		Company: CompanyInfo{
			Name:    s.config.Company.Name,
			Address: s.config.Company.Address,
			Phone:   s.config.Company.Phone,
			Email:   s.config.Company.Email,
			TaxID:   s.config.Company.TaxID,
		},
		Currency:   s.config.Business.Currency,
		Total:      formatMoney(detail.TotalAmount),
		Paid:       formatMoney(decimal.Zero),
		BalanceDue: formatMoney(detail.TotalAmount),
		Notes:      detail.Notes,
	}
	if detail.DueDate != nil {
		data.DueDate = detail.DueDate.String()
	}

	if detail.Sale != nil {
		if detail.Sale.Customer != nil {
			data.Customer.Phone = detail.Sale.Customer.Phone
			data.Customer.Address = detail.Sale.Customer.Address
		}
		for _, item := range detail.Sale.Items {
			data.Lines = append(data.Lines, LineData{
				Product:   item.ProductName,
				Quantity:  item.Quantity,
				UnitPrice: formatMoney(item.UnitPrice),
				Discount:  formatMoney(item.Discount),
				Total:     formatMoney(item.TotalPrice),
			})
		}
		data.Paid = formatMoney(detail.Sale.TotalPaid)
		data.BalanceDue = formatMoney(detail.Sale.BalanceDue)
	}

	return data
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Invoice HTML template
const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invoice {{.InvoiceNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { overflow: hidden; margin-bottom: 30px; border-bottom: 2px solid #eee; padding-bottom: 20px; }
        .company-info { float: left; width: 50%; }
        .invoice-info { float: right; width: 50%; text-align: right; }
        .invoice-title { font-size: 28px; font-weight: bold; color: #2563eb; margin-bottom: 10px; }
        .section-title { font-size: 16px; font-weight: bold; margin-bottom: 10px; color: #374151; }
        .items-table { width: 100%; border-collapse: collapse; margin: 30px 0; }
        .items-table th, .items-table td { border: 1px solid #ddd; padding: 10px 8px; text-align: left; }
        .items-table th { background-color: #f8f9fa; }
        .num { text-align: right !important; }
        .totals { float: right; width: 300px; }
        .totals table { width: 100%; border-collapse: collapse; }
        .totals td { padding: 8px; border-bottom: 1px solid #eee; text-align: right; }
        .total-row { font-size: 18px; font-weight: bold; }
        .status-badge { display: inline-block; padding: 4px 8px; border-radius: 4px; font-size: 12px; font-weight: bold; text-transform: uppercase; background-color: #fef3c7; color: #92400e; }
        .status-paid { background-color: #dcfce7; color: #166534; }
        .footer { clear: both; margin-top: 50px; padding-top: 20px; border-top: 1px solid #eee; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <div class="company-info">
            <h1>{{.Company.Name}}</h1>
            {{if .Company.Address}}<p>{{.Company.Address}}</p>{{end}}
            {{if .Company.Phone}}<p>Phone: {{.Company.Phone}}</p>{{end}}
            {{if .Company.Email}}<p>Email: {{.Company.Email}}</p>{{end}}
            {{if .Company.TaxID}}<p>Tax ID: {{.Company.TaxID}}</p>{{end}}
        </div>
        <div class="invoice-info">
            <div class="invoice-title">INVOICE</div>
            <p><strong>Invoice #:</strong> {{.InvoiceNumber}}</p>
            <p><strong>Issue Date:</strong> {{.IssueDate}}</p>
            {{if .DueDate}}<p><strong>Due Date:</strong> {{.DueDate}}</p>{{end}}
            {{if .SaleReference}}<p><strong>Sale:</strong> {{.SaleReference}}</p>{{end}}
            <p><span class="status-badge {{if eq .Status "paid"}}status-paid{{end}}">{{.Status}}</span></p>
        </div>
    </div>

    <div class="billing">
        <div class="section-title">Bill To:</div>
        <p><strong>{{.Customer.Name}}</strong></p>
        {{if .Customer.Address}}<p>{{.Customer.Address}}</p>{{end}}
        {{if .Customer.Phone}}<p>Phone: {{.Customer.Phone}}</p>{{end}}
        {{if .Customer.Email}}<p>Email: {{.Customer.Email}}</p>{{end}}
    </div>

    <table class="items-table">
        <thead>
            <tr>
                <th>Item</th>
                <th class="num">Qty</th>
                <th class="num">Unit price</th>
                <th class="num">Discount</th>
                <th class="num">Total</th>
            </tr>
        </thead>
        <tbody>
            {{range .Lines}}
            <tr>
                <td>{{.Product}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{.UnitPrice}}</td>
                <td class="num">{{.Discount}}</td>
                <td class="num">{{.Total}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <div class="totals">
        <table>
            <tr class="total-row"><td>Total:</td><td>{{.Total}} {{.Currency}}</td></tr>
            <tr><td>Paid:</td><td>{{.Paid}} {{.Currency}}</td></tr>
            <tr><td>Balance due:</td><td>{{.BalanceDue}} {{.Currency}}</td></tr>
        </table>
    </div>

    <div class="footer">
        {{if .Notes}}<p>{{.Notes}}</p>{{end}}
        <p>Thank you for your business!</p>
        {{if .Company.Email}}<p>If you have any questions about this invoice, please contact us at {{.Company.Email}}</p>{{end}}
    </div>
</body>
</html>
`
