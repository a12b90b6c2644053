// README: HTTP helper utilities for error mapping and query parsing.
package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freightdesk/internal/modules/directory"
	"freightdesk/internal/modules/trip"
)

// writeError maps the module sentinels to status codes. Empty result sets
// never come through here; they are success with an empty array.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trip.ErrBadCursor):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, trip.ErrValidation), errors.Is(err, directory.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, trip.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, trip.ErrNotFound), errors.Is(err, directory.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, trip.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// parseTimeParam accepts a date ("2006-01-02") or a full RFC 3339 timestamp.
// A date used as a range end covers the whole day.
func parseTimeParam(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Second)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
