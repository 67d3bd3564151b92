package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	adjustmentdomain "github.com/elimisoft/shulefees/internal/adjustment/domain"
)

type putAdjustmentRequest struct {
	GuardianID         string   `json:"guardian_id"`
	AcademicTermID     string   `json:"academic_term_id"`
	CategoryName       string   `json:"category_name"`
	AdjustmentType     string   `json:"adjustment_type"`
	CustomAmount       *int64   `json:"custom_amount"`
	DiscountPercentage *float64 `json:"discount_percentage"`
	Reason             string   `json:"reason"`
	CreatedBy          string   `json:"created_by"`
}

func (s *Server) PutAdjustment(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req putAdjustmentRequest
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
	createdBy, err := parseID(req.CreatedBy)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	adjustment, err := s.adjustmentSvc.Put(c.Request.Context(), adjustmentdomain.PutAdjustmentRequest{
		SchoolID:           schoolID,
		GuardianID:         guardianID,
		AcademicTermID:     termID,
		CategoryName:       strings.TrimSpace(req.CategoryName),
		AdjustmentType:     adjustmentdomain.AdjustmentType(strings.ToLower(strings.TrimSpace(req.AdjustmentType))),
		CustomAmount:       req.CustomAmount,
		DiscountPercentage: req.DiscountPercentage,
		Reason:             strings.TrimSpace(req.Reason),
		CreatedBy:          createdBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": adjustment})
}

func (s *Server) ListAdjustments(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	guardianID, err := parseID(c.Query("guardian_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	termID, err := parseID(c.Query("academic_term_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	adjustments, err := s.adjustmentSvc.List(c.Request.Context(), schoolID, guardianID, termID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": adjustments})
}
