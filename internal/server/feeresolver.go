package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResolveStudentFees returns the resolved fee breakdown for one student in
// one term without persisting anything. Admins use it to preview charges.
func (s *Server) ResolveStudentFees(c *gin.Context) {
	schoolID, ok := s.schoolID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	studentID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	termID, err := parseID(c.Query("academic_term_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	breakdown, err := s.resolverSvc.Resolve(c.Request.Context(), schoolID, studentID, termID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"lines": breakdown,
		"total": breakdown.Total(),
	}})
}
