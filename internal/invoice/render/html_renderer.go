package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/internal/money"
)

const invoiceHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Invoice.InvoiceNumber}}</title>
  <style>
    :root {
      --font: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 40px;
      font-family: var(--font);
      color: #1a1f36;
      background: #f7f9fc;
      -webkit-font-smoothing: antialiased;
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
    .header-left h1 {
      margin: 0;
      font-size: 24px;
      font-weight: 700;
    }
    .status {
      text-transform: uppercase;
      font-size: 12px;
      font-weight: 600;
      letter-spacing: 0.5px;
      padding: 4px 10px;
      border-radius: 12px;
      background: #e3e8ee;
      color: #3c4257;
      align-self: flex-start;
    }
    .status-paid { background: #d6f5e3; color: #0e6245; }
    .status-overdue { background: #fde2dd; color: #a41c0d; }
    .meta-grid {
      display: flex;
      justify-content: space-between;
      margin-bottom: 40px;
    }
    .col { flex: 1; }
    .label {
      font-size: 11px;
      text-transform: uppercase;
      color: #8792a2;
      margin-bottom: 6px;
      font-weight: 600;
      letter-spacing: 0.3px;
    }
    .value {
      font-size: 14px;
      line-height: 1.5;
    }
    .amount-section { margin-bottom: 40px; }
    .amount-large {
      font-size: 32px;
      font-weight: 700;
      margin-bottom: 4px;
    }
    .pay-link {
      font-size: 13px;
      color: #006aff;
      text-decoration: none;
      font-weight: 500;
    }
    table {
      width: 100%;
      border-collapse: collapse;
      margin-bottom: 30px;
    }
    th {
      text-align: left;
      text-transform: uppercase;
      font-size: 11px;
      color: #8792a2;
      border-bottom: 1px solid #e3e8ee;
      padding: 10px 0;
      font-weight: 600;
      letter-spacing: 0.3px;
    }
    td {
      padding: 16px 0;
      border-bottom: 1px solid #e3e8ee;
      font-size: 14px;
      vertical-align: top;
    }
    .td-right { text-align: right; }
    .totals {
      width: 100%;
      display: flex;
      flex-direction: column;
      align-items: flex-end;
    }
    .total-row {
      display: flex;
      justify-content: space-between;
      width: 280px;
      padding: 6px 0;
      font-size: 14px;
    }
    .total-label { color: #697386; }
    .total-value { text-align: right; font-weight: 500; }
    .total-final {
      border-top: 1px solid #e3e8ee;
      margin-top: 10px;
      padding-top: 10px;
      font-weight: 700;
      font-size: 16px;
    }
    .footer {
      margin-top: 60px;
      font-size: 12px;
      color: #8792a2;
      border-top: 1px solid #e3e8ee;
      padding-top: 20px;
    }
  </style>
</head>
<body>
  <div class="invoice-card">
    <div class="header">
      <div class="header-left">
        <h1>Invoice</h1>
        <div class="label" style="margin-top: 12px;">Invoice number</div>
        <div class="value">{{.Invoice.InvoiceNumber}}</div>
      </div>
      <div class="status status-{{.Invoice.Status}}">{{statusLabel .Invoice.Status}}</div>
    </div>

    <div class="meta-grid">
      <div class="col">
        <div class="label">Billed to</div>
        <div class="value"><strong>{{.Invoice.ClientName}}</strong></div>
      </div>
      <div class="col" style="flex: 0 0 200px;">
        <div class="label">Issue date</div>
        <div class="value">{{formatDate .Invoice.IssueDate}}</div>
        <div class="label" style="margin-top: 16px;">Due date</div>
        <div class="value">{{formatDate .Invoice.DueDate}}</div>
      </div>
    </div>

    <div class="amount-section">
      <div class="amount-large">{{formatMoney .Invoice.BalanceDue .Currency}}</div>
      <div class="value" style="color: #697386; margin-bottom: 8px;">due {{formatDate .Invoice.DueDate}}</div>
      {{if .Payable}}<a href="{{.Invoice.PaymentLink}}" class="pay-link">Pay online &rarr;</a>{{end}}
    </div>

    <table>
      <thead>
        <tr>
          <th style="width: 50%;">Description</th>
          <th class="td-right">Qty</th>
          <th class="td-right">Unit Price</th>
          <th class="td-right">GST</th>
          <th class="td-right">Amount</th>
        </tr>
      </thead>
      <tbody>
        {{range .Invoice.Items}}
        <tr>
          <td>{{.Description}}{{if .HSNCode}} <span style="color: #8a8f98;">(HSN {{.HSNCode}})</span>{{end}}</td>
          <td class="td-right">{{formatQuantity .Quantity}}</td>
          <td class="td-right">{{formatMoney .UnitPrice $.Currency}}</td>
          <td class="td-right">{{.GSTRate}}%</td>
          <td class="td-right" style="font-weight: 500;">{{formatMoney .Amount $.Currency}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <div class="totals">
      <div class="total-row">
        <span class="total-label">Subtotal</span>
        <span class="total-value">{{formatMoney .Invoice.SubtotalAmount .Currency}}</span>
      </div>
      {{if .Invoice.InterState}}
      <div class="total-row">
        <span class="total-label">IGST</span>
        <span class="total-value">{{formatMoney .Invoice.GST.IGST .Currency}}</span>
      </div>
      {{else}}
      <div class="total-row">
        <span class="total-label">CGST</span>
        <span class="total-value">{{formatMoney .Invoice.GST.CGST .Currency}}</span>
      </div>
      <div class="total-row">
        <span class="total-label">SGST</span>
        <span class="total-value">{{formatMoney .Invoice.GST.SGST .Currency}}</span>
      </div>
      {{end}}
      <div class="total-row total-final">
        <span class="total-label" style="color: #1a1f36;">Total</span>
        <span class="total-value">{{formatMoney .Invoice.TotalAmount .Currency}}</span>
      </div>
      {{if .Invoice.Payments}}
      <div class="total-row">
        <span class="total-label">Amount paid</span>
        <span class="total-value">{{formatMoney .Invoice.AmountPaid .Currency}}</span>
      </div>
      {{end}}
      <div class="total-row">
        <span class="total-label">Balance due</span>
        <span class="total-value">{{formatMoney .Invoice.BalanceDue .Currency}}</span>
      </div>
    </div>

    {{if .Invoice.Payments}}
    <table>
      <thead>
        <tr>
          <th style="width: 40%;">Payment</th>
          <th>Reference</th>
          <th class="td-right">Paid on</th>
          <th class="td-right">Amount</th>
        </tr>
      </thead>
      <tbody>
        {{range .Invoice.Payments}}
        <tr>
          <td>{{.Mode}}</td>
          <td>{{.Reference}}</td>
          <td class="td-right">{{formatDate .PaidAt}}</td>
          <td class="td-right" style="font-weight: 500;">{{formatMoney .Amount $.Currency}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{end}}

    {{if .Invoice.Notes}}
    <div class="footer">{{.Invoice.Notes}}</div>
    {{end}}
  </div>
</body>
</html>
`

type HTMLRenderer struct {
	tpl *template.Template
}

func NewRenderer() Renderer {
	funcs := template.FuncMap{
		"formatMoney":    formatMoney,
		"formatDate":     formatDate,
		"formatQuantity": formatQuantity,
		"statusLabel":    statusLabel,
	}
	return &HTMLRenderer{
		tpl: template.Must(template.New("invoice").Funcs(funcs).Parse(invoiceHTMLTemplate)),
	}
}

func (r *HTMLRenderer) RenderHTML(input RenderInput) (string, error) {
	if input.Currency == "" {
		input.Currency = "INR"
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, input); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func formatMoney(amount int64, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "INR"
	}
	return fmt.Sprintf("%s %.2f", currency, money.ToMajor(amount))
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.UTC().Format("02 Jan 2006")
}

func formatQuantity(value float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
}

func statusLabel(status invoicedomain.InvoiceStatus) string {
	return strings.ReplaceAll(string(status), "_", " ")
}
