package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// ParseStringIDParam reads a non-empty path parameter. On failure the 400 is
// already written and "" is returned.
func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
			Code:    CodeBadRequest,
		})
		return ""
	}
	return idStr
}

// ParseUintIDParam reads a positive numeric path parameter. On failure the
// 400 is already written and 0 is returned.
func ParseUintIDParam(c *gin.Context, param string) uint {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID must be a positive integer",
			Code:    CodeBadRequest,
		})
		return 0
	}
	return uint(id)
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	if n, err := strconv.Atoi(c.Query(key)); err == nil {
		return n
	}
	return defaultValue
}

// parseBoolQuery returns nil when the parameter is absent or unparsable
func parseBoolQuery(c *gin.Context, key string) *bool {
	b, err := strconv.ParseBool(c.Query(key))
	if err != nil {
		return nil
	}
	return &b
}

// parseDurationQuery accepts "90m" style durations or whole seconds
func parseDurationQuery(c *gin.Context, key string) (time.Duration, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, d >= 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second, n >= 0
	}
	return 0, false
}
