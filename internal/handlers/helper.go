package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParseUintIDParam parses a numeric path parameter. On failure it writes a
// 400 response and returns 0, which no persisted row ever uses.
func ParseUintIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: err.Error(),
		})
		return 0
	}
	return uint(id)
}

// StudentIDFromContext returns the caller identity placed on the context by
// the authentication middleware. Identity verification itself happens
// upstream of this service.
func StudentIDFromContext(c *gin.Context) string {
	if studentID, exists := c.Get("student_id"); exists {
		if s, ok := studentID.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return strings.TrimSpace(c.GetHeader("X-Student-ID"))
}
