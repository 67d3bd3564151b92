// Package render produces printable HTML for guardian invoices.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/elimisoft/shulefees/internal/invoice/domain"
)

const invoiceHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Invoice.InvoiceNumber}}</title>
  <style>
    body {
      margin: 0;
      padding: 40px;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      color: #1a1f36;
      background: #f7f9fc;
    }
    .invoice-card {
      background: #ffffff;
      max-width: 760px;
      margin: 0 auto;
      padding: 60px;
      box-shadow: 0 2px 5px rgba(0,0,0,0.04);
      border-radius: 4px;
    }
    .header {
      display: flex;
      justify-content: space-between;
      margin-bottom: 40px;
    }
    .header-left h1 { margin: 0; font-size: 24px; font-weight: 700; }
    .header-right { text-align: right; font-weight: 600; color: #8792a2; font-size: 16px; }
    .meta-grid { display: flex; justify-content: space-between; margin-bottom: 40px; }
    .col { flex: 1; }
    .label {
      font-size: 11px;
      text-transform: uppercase;
      color: #8792a2;
      margin-bottom: 6px;
      font-weight: 600;
      letter-spacing: 0.3px;
    }
    .value { font-size: 14px; line-height: 1.5; }
    .amount-large { font-size: 32px; font-weight: 700; margin-bottom: 4px; }
    table { width: 100%; border-collapse: collapse; margin-bottom: 30px; }
    th {
      text-align: left;
      text-transform: uppercase;
      font-size: 11px;
      color: #8792a2;
      border-bottom: 1px solid #e3e8ee;
      padding: 10px 0;
      font-weight: 600;
    }
    td { padding: 16px 0; border-bottom: 1px solid #e3e8ee; font-size: 14px; vertical-align: top; }
    .td-right { text-align: right; }
    .item-title { font-weight: 600; margin-bottom: 2px; }
    .item-sub { font-size: 12px; color: #697386; }
    .totals { display: flex; flex-direction: column; align-items: flex-end; }
    .total-row { display: flex; justify-content: space-between; width: 280px; padding: 6px 0; font-size: 14px; }
    .total-label { color: #697386; }
    .total-value { text-align: right; font-weight: 500; }
    .total-final {
      border-top: 1px solid #e3e8ee;
      margin-top: 10px;
      padding-top: 10px;
      font-weight: 700;
      font-size: 16px;
    }
    .footer { margin-top: 60px; font-size: 12px; color: #8792a2; border-top: 1px solid #e3e8ee; padding-top: 20px; }
  </style>
</head>
<body>
  <div class="invoice-card">
    <div class="header">
      <div class="header-left">
        <h1>Fee Invoice</h1>
        <div class="label" style="margin-top: 12px;">Invoice number</div>
        <div class="value">{{.Invoice.InvoiceNumber}}</div>
      </div>
      <div class="header-right">{{.SchoolName}}</div>
    </div>

    <div class="meta-grid">
      <div class="col">
        <div class="label">Bill to</div>
        <div class="value">
          <strong>{{.GuardianName}}</strong><br>
          {{.TermLabel}}
        </div>
      </div>
      <div class="col" style="flex: 0 0 200px;">
        <div class="label">Date due</div>
        <div class="value">{{formatDate .Invoice.DueDate}}</div>

        <div class="label" style="margin-top: 16px;">Date issued</div>
        <div class="value">{{formatDate .Invoice.CreatedAt}}</div>
      </div>
    </div>

    <div class="amount-large">{{formatMoney .Invoice.BalanceDue}}</div>
    <div class="value" style="color: #697386; margin-bottom: 24px;">due {{formatDate .Invoice.DueDate}}</div>

    <table>
      <thead>
        <tr>
          <th style="width: 40%;">Student</th>
          <th>Fees</th>
          <th class="td-right">Amount</th>
        </tr>
      </thead>
      <tbody>
        {{range .Items}}
        <tr>
          <td>
            <div class="item-title">{{.StudentName}}</div>
            <div class="item-sub">{{.GradeName}}</div>
          </td>
          <td>
            {{range breakdownLines .FeeBreakdown}}
            <div class="item-sub">{{.Name}}: {{formatMoney .Amount}}</div>
            {{end}}
          </td>
          <td class="td-right" style="font-weight: 500;">{{formatMoney .TotalAmount}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <div class="totals">
      <div class="total-row">
        <span class="total-label">Subtotal</span>
        <span class="total-value">{{formatMoney .Invoice.SubtotalAmount}}</span>
      </div>
      {{if gt .Invoice.DiscountAmount 0}}
      <div class="total-row">
        <span class="total-label">Discount ({{printf "%.1f" .Invoice.DiscountPercentage}}%)</span>
        <span class="total-value">-{{formatMoney .Invoice.DiscountAmount}}</span>
      </div>
      {{end}}
      <div class="total-row total-final">
        <span class="total-label" style="color: #1a1f36;">Total</span>
        <span class="total-value">{{formatMoney .Invoice.TotalAmount}}</span>
      </div>
      <div class="total-row">
        <span class="total-label">Amount paid</span>
        <span class="total-value">{{formatMoney .Invoice.AmountPaid}}</span>
      </div>
      <div class="total-row">
        <span class="total-label">Balance due</span>
        <span class="total-value">{{formatMoney .Invoice.BalanceDue}}</span>
      </div>
    </div>

    <div class="footer">
      Pay via the school office or mobile money, quoting the invoice number above.
    </div>
  </div>
</body>
</html>
`

// RenderInput carries everything the template needs. Names are passed in
// rather than looked up so rendering stays side-effect free.
type RenderInput struct {
	Invoice      domain.GuardianInvoice
	Items        []domain.InvoiceLineItem
	SchoolName   string
	GuardianName string
	TermLabel    string
}

type Renderer interface {
	RenderHTML(input RenderInput) (string, error)
}

type HTMLRenderer struct {
	tpl *template.Template
}

func NewHTMLRenderer() Renderer {
	funcs := template.FuncMap{
		"formatMoney":    formatMoney,
		"formatDate":     formatDate,
		"breakdownLines": breakdownLines,
	}
	return &HTMLRenderer{
		tpl: template.Must(template.New("invoice").Funcs(funcs).Parse(invoiceHTMLTemplate)),
	}
}

func (r *HTMLRenderer) RenderHTML(input RenderInput) (string, error) {
	if input.SchoolName == "" {
		input.SchoolName = "Fee Invoice"
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, input); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type breakdownLine struct {
	Name   string
	Amount int64
}

// breakdownLines flattens a stored fee breakdown map into stable ordering.
func breakdownLines(breakdown map[string]interface{}) []breakdownLine {
	lines := make([]breakdownLine, 0, len(breakdown))
	for name, value := range breakdown {
		var amount int64
		switch v := value.(type) {
		case float64:
			amount = int64(v)
		case int64:
			amount = v
		case int:
			amount = int64(v)
		default:
			continue
		}
		lines = append(lines, breakdownLine{Name: name, Amount: amount})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	return lines
}

func formatMoney(amount int64) string {
	value := float64(amount) / 100.0
	return fmt.Sprintf("KES %s", withThousands(fmt.Sprintf("%.2f", value)))
}

func withThousands(value string) string {
	parts := strings.SplitN(value, ".", 2)
	digits := parts[0]
	var out []string
	for len(digits) > 3 {
		out = append([]string{digits[len(digits)-3:]}, out...)
		digits = digits[:len(digits)-3]
	}
	out = append([]string{digits}, out...)
	joined := strings.Join(out, ",")
	if len(parts) == 2 {
		return joined + "." + parts[1]
	}
	return joined
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.UTC().Format("2006-01-02")
}
