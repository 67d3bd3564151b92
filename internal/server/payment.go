package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/elimisoft/shulefees/internal/ledger/domain"
)

type recordPaymentRequest struct {
	Amount     int64  `json:"amount"`
	Method     string `json:"method"`
	Reference  string `json:"reference"`
	Notes      string `json:"notes"`
	RecordedBy string `json:"recorded_by"`
	PaidAt     string `json:"paid_at"`
}

func (s *Server) RecordPayment(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	invoiceID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	recordedBy, err := parseID(req.RecordedBy)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var paidAt *time.Time
	if raw := strings.TrimSpace(req.PaidAt); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		paidAt = &t
	}

	payment, invoice, err := s.ledgerSvc.RecordPayment(c.Request.Context(), ledgerdomain.RecordPaymentRequest{
		SchoolID:   schoolID,
		InvoiceID:  invoiceID,
		Amount:     req.Amount,
		Method:     ledgerdomain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.Method))),
		Reference:  strings.TrimSpace(req.Reference),
		Notes:      strings.TrimSpace(req.Notes),
		RecordedBy: recordedBy,
		PaidAt:     paidAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{
		"payment": payment,
		"invoice": invoice,
	}})
}

func (s *Server) ListPayments(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	invoiceID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payments, err := s.ledgerSvc.ListPayments(c.Request.Context(), schoolID, invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payments})
}

func (s *Server) VoidPayment(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	paymentID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	voidedBy, err := parseID(c.Query("voided_by"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoice, err := s.ledgerSvc.VoidPayment(c.Request.Context(), schoolID, paymentID, voidedBy)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}
