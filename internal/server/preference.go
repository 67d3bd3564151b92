package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	preferencedomain "github.com/elimisoft/shulefees/internal/preference/domain"
)

type upsertPreferenceRequest struct {
	StudentID        string  `json:"student_id"`
	AcademicTermID   string  `json:"academic_term_id"`
	TuitionType      string  `json:"tuition_type"`
	TransportRouteID *string `json:"transport_route_id"`
	TransportType    *string `json:"transport_type"`
	IncludeFood      *bool   `json:"include_food"`
	IncludeSports    *bool   `json:"include_sports"`
	UpdatedBy        string  `json:"updated_by"`
}

func (s *Server) UpsertPreference(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req upsertPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	studentID, err := parseID(req.StudentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	termID, err := parseID(req.AcademicTermID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	updatedBy, err := parseID(req.UpdatedBy)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var routeID *snowflake.ID
	if req.TransportRouteID != nil {
		id, err := parseID(*req.TransportRouteID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		routeID = &id
	}
	var transportType *preferencedomain.TransportType
	if req.TransportType != nil {
		t := preferencedomain.TransportType(strings.ToLower(strings.TrimSpace(*req.TransportType)))
		transportType = &t
	}

	tuitionType := preferencedomain.TuitionFullDay
	if req.TuitionType != "" {
		tuitionType = preferencedomain.TuitionType(strings.ToLower(strings.TrimSpace(req.TuitionType)))
	}

	// Food and sports are opt-out: absent flags mean included.
	includeFood := true
	if req.IncludeFood != nil {
		includeFood = *req.IncludeFood
	}
	includeSports := true
	if req.IncludeSports != nil {
		includeSports = *req.IncludeSports
	}

	pref, err := s.preferenceSvc.Upsert(c.Request.Context(), preferencedomain.UpsertPreferenceRequest{
		SchoolID:         schoolID,
		StudentID:        studentID,
		AcademicTermID:   termID,
		TuitionType:      tuitionType,
		TransportRouteID: routeID,
		TransportType:    transportType,
		IncludeFood:      includeFood,
		IncludeSports:    includeSports,
		UpdatedBy:        updatedBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pref})
}

func (s *Server) GetPreference(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	studentID, err := parseID(c.Query("student_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	termID, err := parseID(c.Query("academic_term_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pref, err := s.preferenceSvc.Get(c.Request.Context(), schoolID, studentID, termID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if pref == nil {
		AbortWithError(c, preferencedomain.ErrPreferenceNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pref})
}

func (s *Server) GetPreferenceHistory(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	preferenceID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	history, err := s.preferenceSvc.History(c.Request.Context(), schoolID, preferenceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}
