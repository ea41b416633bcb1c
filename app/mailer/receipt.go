package mailer

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type ReceiptData struct {
	DonorName         string
	ReceiptNumber     string
	OrderID           string
	Amount            decimal.Decimal
	Currency          string
	DonationType      string
	PaymentID         string
	PaymentMethod     string
	DedicationMessage string
	CompletedAt       time.Time
	TrustName         string
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>{{.TrustName}}</h2>
  <p>Dear {{if .DonorName}}{{.DonorName}}{{else}}Devotee{{end}},</p>
  <p>Thank you for your generous contribution towards the temple construction.</p>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><td><strong>Receipt number</strong></td><td>{{.ReceiptNumber}}</td></tr>
    <tr><td><strong>Order</strong></td><td>{{.OrderID}}</td></tr>
    <tr><td><strong>Amount</strong></td><td>{{.FormattedAmount}}</td></tr>
    <tr><td><strong>Purpose</strong></td><td>{{.DonationType}}</td></tr>
    {{if .PaymentID}}<tr><td><strong>Payment reference</strong></td><td>{{.PaymentID}}</td></tr>{{end}}
    {{if .PaymentMethod}}<tr><td><strong>Payment method</strong></td><td>{{.PaymentMethod}}</td></tr>{{end}}
    <tr><td><strong>Date</strong></td><td>{{.Date}}</td></tr>
  </table>
  {{if .DedicationMessage}}<p><em>{{.DedicationMessage}}</em></p>{{end}}
  <p>With gratitude,<br>{{.TrustName}}</p>
</body>
</html>`))

var testTemplate = template.Must(template.New("test").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <p>This is a test email from {{.}}.</p>
  <p>If you received it, outgoing email is configured correctly.</p>
</body>
</html>`))

// FormatAmount renders amount with the currency symbol and locale grouping.
func FormatAmount(amount decimal.Decimal, code string) string {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return amount.StringFixed(2) + " " + strings.ToUpper(code)
	}
	tag := language.English
	if unit.String() == "INR" {
		tag = language.MustParse("en-IN")
	}
	printer := message.NewPrinter(tag)
	return printer.Sprint(currency.Symbol(unit.Amount(amount.Round(2).InexactFloat64())))
}

func RenderReceipt(data ReceiptData) (string, error) {
	view := struct {
		ReceiptData
		FormattedAmount string
		Date            string
	}{
		ReceiptData:     data,
		FormattedAmount: FormatAmount(data.Amount, data.Currency),
		Date:            data.CompletedAt.Format("02 Jan 2006"),
	}

	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func RenderTestEmail(trustName string) (string, error) {
	var buf bytes.Buffer
	if err := testTemplate.Execute(&buf, trustName); err != nil {
		return "", err
	}
	return buf.String(), nil
}
