package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/elimisoft/shulefees/pkg/schoolctx"
)

const schoolHeader = "X-School-ID"

// SchoolRequired resolves the tenant school from the request header and
// stores it on the request context. Every /api route runs behind it.
func (s *Server) SchoolRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(schoolHeader)
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		schoolID, err := snowflake.ParseString(raw)
		if err != nil || schoolID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Request = c.Request.WithContext(schoolctx.WithSchoolID(c.Request.Context(), schoolID))
		c.Next()
	}
}

// schoolID reads the tenant set by SchoolRequired.
func (s *Server) schoolID(c *gin.Context) (snowflake.ID, bool) {
	return schoolctx.SchoolID(c.Request.Context())
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, ErrInvalidRequest
	}
	return id, nil
}
