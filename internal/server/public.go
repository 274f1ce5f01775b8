package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/invosync/invosync/internal/invoice/render"
)

// GetPublicInvoice serves the read-only JSON view behind the share
// token. No authentication; the token is the capability.
func (s *Server) GetPublicInvoice(c *gin.Context) {
	inv, err := s.invoiceSvc.GetByShareToken(c.Request.Context(), strings.TrimSpace(c.Param("token")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := s.newInvoiceResponse(inv)
	// The share link itself must not leak internal identifiers.
	resp.ID = ""
	resp.ClientID = ""

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ViewPublicInvoice serves the printable HTML rendering of the same
// invoice.
func (s *Server) ViewPublicInvoice(c *gin.Context) {
	inv, err := s.invoiceSvc.GetByShareToken(c.Request.Context(), strings.TrimSpace(c.Param("token")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	html, err := s.renderer.RenderHTML(render.NewRenderInput(inv, s.policy.Current()))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
