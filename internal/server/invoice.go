package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/elimisoft/shulefees/internal/invoice/domain"
	"github.com/elimisoft/shulefees/internal/invoice/render"
)

type generateInvoiceRequest struct {
	GuardianID         string  `json:"guardian_id"`
	AcademicTermID     string  `json:"academic_term_id"`
	GeneratedBy        string  `json:"generated_by"`
	DiscountPercentage float64 `json:"discount_percentage"`
	PaymentPlan        string  `json:"payment_plan"`
}

func (s *Server) GenerateInvoice(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req generateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	guardianID, err := parseID(req.GuardianID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	termID, err := parseID(req.AcademicTermID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	generatedBy, err := parseID(req.GeneratedBy)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoice, err := s.invoiceSvc.Generate(c.Request.Context(), invoicedomain.GenerateRequest{
		SchoolID:           schoolID,
		GuardianID:         guardianID,
		AcademicTermID:     termID,
		GeneratedBy:        generatedBy,
		DiscountPercentage: req.DiscountPercentage,
		PaymentPlan:        invoicedomain.PaymentPlan(strings.ToLower(strings.TrimSpace(req.PaymentPlan))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": invoice})
}

func (s *Server) ListInvoices(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	req := invoicedomain.ListRequest{SchoolID: schoolID}
	if raw := c.Query("guardian_id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.GuardianID = &id
	}
	if raw := c.Query("academic_term_id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.AcademicTermID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status := invoicedomain.InvoiceStatus(strings.ToLower(strings.TrimSpace(raw)))
		req.Status = &status
	}

	invoices, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
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

	invoice, items, err := s.invoiceSvc.Get(c.Request.Context(), schoolID, invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"invoice":    invoice,
		"line_items": items,
	}})
}

func (s *Server) RenderInvoice(c *gin.Context) {
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

	invoice, items, err := s.invoiceSvc.Get(c.Request.Context(), schoolID, invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	guardian, err := s.academicsSvc.GetGuardian(c.Request.Context(), schoolID, invoice.GuardianID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	termCtx, err := s.academicsSvc.TermContext(c.Request.Context(), schoolID, invoice.AcademicTermID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var schoolName string
	if err := s.db.WithContext(c.Request.Context()).
		Raw(`SELECT name FROM schools WHERE id = ?`, schoolID).
		Scan(&schoolName).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	html, err := s.renderer.RenderHTML(render.RenderInput{
		Invoice:      *invoice,
		Items:        items,
		SchoolName:   schoolName,
		GuardianName: guardian.FullName,
		TermLabel:    termLabel(termCtx.Year.Year, termCtx.Term.TermNumber),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (s *Server) DeleteInvoice(c *gin.Context) {
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
	deletedBy, err := parseID(c.Query("deleted_by"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.invoiceSvc.Delete(c.Request.Context(), schoolID, invoiceID, deletedBy); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func termLabel(year, termNumber int) string {
	return fmt.Sprintf("Term %d, %d", termNumber, year)
}
