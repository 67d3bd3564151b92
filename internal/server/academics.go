package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetActiveTerm(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	term, err := s.academicsSvc.ActiveTerm(c.Request.Context(), schoolID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": term})
}

func (s *Server) ActivateTerm(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	termID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.academicsSvc.ActivateTerm(c.Request.Context(), schoolID, termID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"activated": true}})
}

func (s *Server) GetGuardian(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	guardianID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	guardian, err := s.academicsSvc.GetGuardian(c.Request.Context(), schoolID, guardianID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": guardian})
}

func (s *Server) ListGuardianStudents(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	guardianID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	students, err := s.academicsSvc.ActiveStudents(c.Request.Context(), schoolID, guardianID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": students})
}
