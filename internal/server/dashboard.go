package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/internal/money"
)

type statsResponse struct {
	CountsByStatus map[invoicedomain.InvoiceStatus]int `json:"counts_by_status"`
	TotalAmount    float64                             `json:"total_amount"`
	PaidAmount     float64                             `json:"paid_amount"`
	PendingAmount  float64                             `json:"pending_amount"`
}

type monthRevenueResponse struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

func (s *Server) DashboardSummary(c *gin.Context) {
	stats, err := s.dashboardSvc.Summary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": statsResponse{
		CountsByStatus: stats.CountsByStatus,
		TotalAmount:    money.ToMajor(stats.TotalAmount),
		PaidAmount:     money.ToMajor(stats.PaidAmount),
		PendingAmount:  money.ToMajor(stats.PendingAmount),
	}})
}

func (s *Server) MonthlyRevenue(c *gin.Context) {
	monthsBack := 0
	if raw := c.Query("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 60 {
			AbortWithError(c, invoicedomain.ValidationErrors{{Field: "months", Message: "must be between 1 and 60"}})
			return
		}
		monthsBack = parsed
	}

	series, err := s.dashboardSvc.MonthlyRevenue(c.Request.Context(), monthsBack)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items := make([]monthRevenueResponse, 0, len(series))
	for _, bucket := range series {
		items = append(items, monthRevenueResponse{
			Month:   bucket.Month,
			Revenue: money.ToMajor(bucket.Revenue),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
