package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/internal/money"
	paymentdomain "github.com/invosync/invosync/internal/payment/domain"
	"github.com/invosync/invosync/pkg/db/pagination"
)

// Response DTOs expose monetary fields in major units; the domain
// stores minor units throughout.

type gstResponse struct {
	CGST  float64 `json:"cgst"`
	SGST  float64 `json:"sgst"`
	IGST  float64 `json:"igst"`
	Total float64 `json:"total"`
}

type invoiceItemResponse struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	HSNCode     string  `json:"hsn_code,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	GSTRate     int     `json:"gst_rate"`
	Amount      float64 `json:"amount"`
}

type paymentResponse struct {
	ID        string    `json:"id"`
	InvoiceID string    `json:"invoice_id"`
	Amount    float64   `json:"amount"`
	Mode      string    `json:"mode"`
	Status    string    `json:"status"`
	Reference string    `json:"reference,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	PaidAt    time.Time `json:"paid_at"`
}

type invoiceResponse struct {
	ID            string                `json:"id,omitempty"`
	InvoiceNumber string                `json:"invoice_number"`
	ClientID      string                `json:"client_id,omitempty"`
	ClientName    string                `json:"client_name"`
	InterState    bool                  `json:"inter_state"`
	Status        string                `json:"status"`
	Subtotal      float64               `json:"subtotal_amount"`
	GST           gstResponse           `json:"gst"`
	TotalAmount   float64               `json:"total_amount"`
	AmountPaid    float64               `json:"amount_paid"`
	BalanceDue    float64               `json:"balance_due"`
	IssueDate     time.Time             `json:"issue_date"`
	DueDate       time.Time             `json:"due_date"`
	Notes         string                `json:"notes,omitempty"`
	ShareURL      string                `json:"share_url,omitempty"`
	PaymentLink   string                `json:"payment_link,omitempty"`
	Items         []invoiceItemResponse `json:"items"`
	Payments      []paymentResponse     `json:"payments"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func newPaymentResponse(p paymentdomain.Payment) paymentResponse {
	return paymentResponse{
		ID:        p.ID.String(),
		InvoiceID: p.InvoiceID.String(),
		Amount:    money.ToMajor(p.Amount),
		Mode:      p.Mode,
		Status:    string(p.Status),
		Reference: p.Reference,
		Notes:     p.Notes,
		PaidAt:    p.PaidAt,
	}
}

func (s *Server) newInvoiceResponse(inv invoicedomain.Invoice) invoiceResponse {
	items := make([]invoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, invoiceItemResponse{
			ID:          item.ID.String(),
			Description: item.Description,
			HSNCode:     item.HSNCode,
			Quantity:    item.Quantity,
			UnitPrice:   money.ToMajor(item.UnitPrice),
			GSTRate:     item.GSTRate,
			Amount:      money.ToMajor(item.Amount),
		})
	}

	payments := make([]paymentResponse, 0, len(inv.Payments))
	for _, p := range inv.Payments {
		payments = append(payments, newPaymentResponse(p))
	}

	shareURL := ""
	if inv.ShareToken != "" {
		shareURL = s.cfg.PublicBaseURL + "/public/invoices/" + inv.ShareToken
	}

	return invoiceResponse{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		ClientID:      inv.ClientID.String(),
		ClientName:    inv.ClientName,
		InterState:    inv.InterState,
		Status:        string(inv.Status),
		Subtotal:      money.ToMajor(inv.SubtotalAmount),
		GST: gstResponse{
			CGST:  money.ToMajor(inv.GST.CGST),
			SGST:  money.ToMajor(inv.GST.SGST),
			IGST:  money.ToMajor(inv.GST.IGST),
			Total: money.ToMajor(inv.GST.Total),
		},
		TotalAmount: money.ToMajor(inv.TotalAmount),
		AmountPaid:  money.ToMajor(inv.AmountPaid()),
		BalanceDue:  money.ToMajor(inv.BalanceDue),
		IssueDate:   inv.IssueDate,
		DueDate:     inv.DueDate,
		Notes:       inv.Notes,
		ShareURL:    shareURL,
		PaymentLink: inv.PaymentLink,
		Items:       items,
		Payments:    payments,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoicedomain.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": s.newInvoiceResponse(resp)})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query invoicedomain.ListInvoiceRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items := make([]invoiceResponse, 0, len(resp.Items))
	for _, inv := range resp.Items {
		items = append(items, s.newInvoiceResponse(inv))
	}

	c.JSON(http.StatusOK, gin.H{"data": pagination.Page[invoiceResponse]{
		Items:      items,
		Total:      resp.Total,
		PageNumber: resp.PageNumber,
		Limit:      resp.Limit,
	}})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.newInvoiceResponse(resp)})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req invoicedomain.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.invoiceSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.newInvoiceResponse(resp)})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	if err := s.invoiceSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) SendInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.MarkSent(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.newInvoiceResponse(resp)})
}

func (s *Server) CancelInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.MarkCancelled(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.newInvoiceResponse(resp)})
}

func (s *Server) SetInvoiceStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.AdminSetStatus(
		c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		invoicedomain.InvoiceStatus(strings.TrimSpace(req.Status)),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.newInvoiceResponse(resp)})
}
