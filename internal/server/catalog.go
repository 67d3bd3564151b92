package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	academicsdomain "github.com/elimisoft/shulefees/internal/academics/domain"
	catalogdomain "github.com/elimisoft/shulefees/internal/catalog/domain"
)

type upsertTuitionFeeRequest struct {
	AcademicYearID string `json:"academic_year_id"`
	Grade          string `json:"grade"`
	AmountFullDay  int64  `json:"amount_full_day"`
	AmountHalfDay  int64  `json:"amount_half_day"`
}

func (s *Server) UpsertTuitionFee(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req upsertTuitionFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	yearID, err := parseID(req.AcademicYearID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	grade, err := academicsdomain.ParseGrade(req.Grade)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	fee, err := s.catalogSvc.UpsertTuitionFee(c.Request.Context(), catalogdomain.UpsertTuitionFeeRequest{
		SchoolID:       schoolID,
		AcademicYearID: yearID,
		Grade:          grade,
		AmountFullDay:  req.AmountFullDay,
		AmountHalfDay:  req.AmountHalfDay,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": fee})
}

type upsertTransportRouteRequest struct {
	RouteName    string `json:"route_name"`
	AmountOneWay int64  `json:"amount_one_way"`
	AmountTwoWay int64  `json:"amount_two_way"`
}

func (s *Server) UpsertTransportRoute(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req upsertTransportRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	route, err := s.catalogSvc.UpsertTransportRoute(c.Request.Context(), catalogdomain.UpsertTransportRouteRequest{
		SchoolID:     schoolID,
		RouteName:    strings.TrimSpace(req.RouteName),
		AmountOneWay: req.AmountOneWay,
		AmountTwoWay: req.AmountTwoWay,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": route})
}

type upsertUniversalFeeRequest struct {
	AcademicYearID string  `json:"academic_year_id"`
	FeeType        string  `json:"fee_type"`
	FeeName        *string `json:"fee_name"`
	Amount         int64   `json:"amount"`
}

func (s *Server) UpsertUniversalFee(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req upsertUniversalFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	yearID, err := parseID(req.AcademicYearID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	fee, err := s.catalogSvc.UpsertUniversalFee(c.Request.Context(), catalogdomain.UpsertUniversalFeeRequest{
		SchoolID:       schoolID,
		AcademicYearID: yearID,
		FeeType:        catalogdomain.UniversalFeeType(strings.ToLower(strings.TrimSpace(req.FeeType))),
		FeeName:        req.FeeName,
		Amount:         req.Amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": fee})
}

type createFeeCategoryRequest struct {
	Name        string `json:"name"`
	IsUniversal bool   `json:"is_universal"`
}

func (s *Server) CreateFeeCategory(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createFeeCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	category, err := s.catalogSvc.CreateFeeCategory(c.Request.Context(), catalogdomain.CreateFeeCategoryRequest{
		SchoolID:    schoolID,
		Name:        strings.TrimSpace(req.Name),
		IsUniversal: req.IsUniversal,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": category})
}

type upsertFeeAmountRequest struct {
	CategoryID     string  `json:"category_id"`
	AcademicYearID string  `json:"academic_year_id"`
	GradeRange     *string `json:"grade_range"`
	Amount         int64   `json:"amount"`
}

func (s *Server) UpsertFeeAmount(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req upsertFeeAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	categoryID, err := parseID(req.CategoryID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	yearID, err := parseID(req.AcademicYearID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	amount, err := s.catalogSvc.UpsertFeeAmount(c.Request.Context(), catalogdomain.UpsertFeeAmountRequest{
		SchoolID:       schoolID,
		CategoryID:     categoryID,
		AcademicYearID: yearID,
		GradeRange:     req.GradeRange,
		Amount:         req.Amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": amount})
}
