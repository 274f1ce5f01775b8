package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/invosync/invosync/internal/money"
	paymentdomain "github.com/invosync/invosync/internal/payment/domain"
)

type applyResultResponse struct {
	Payment       paymentResponse `json:"payment"`
	InvoiceStatus string          `json:"invoice_status"`
	BalanceDue    float64         `json:"balance_due"`
	TotalAmount   float64         `json:"total_amount"`
}

func newApplyResultResponse(result paymentdomain.ApplyResult) applyResultResponse {
	return applyResultResponse{
		Payment:       newPaymentResponse(result.Payment),
		InvoiceStatus: result.InvoiceStatus,
		BalanceDue:    money.ToMajor(result.BalanceDue),
		TotalAmount:   money.ToMajor(result.TotalAmount),
	}
}

func (s *Server) RecordPayment(c *gin.Context) {
	var req paymentdomain.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.InvoiceID = strings.TrimSpace(c.Param("id"))

	result, err := s.paymentSvc.Record(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": newApplyResultResponse(result)})
}

func (s *Server) SimulatePayment(c *gin.Context) {
	result, err := s.paymentSvc.Simulate(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := gin.H{
		"applied": result.Applied,
	}
	if result.Applied {
		resp["data"] = newApplyResultResponse(result.ApplyResult)
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreatePaymentLink(c *gin.Context) {
	link, err := s.paymentSvc.IssueLink(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"payment_link": link}})
}

func (s *Server) ListInvoicePayments(c *gin.Context) {
	payments, err := s.paymentSvc.ListByInvoice(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		items = append(items, newPaymentResponse(p))
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
