package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/infobox/infrastructure/logger"
	"github.com/jonesrussell/infobox/internal/domain"
	"github.com/jonesrussell/infobox/internal/service"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNotFound       = "NOT_FOUND"
	CodeSlugTaken      = "SLUG_TAKEN"
	CodeUnsafeContent  = "UNSAFE_CONTENT"
	CodeInternal       = "INTERNAL_ERROR"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, ErrorResponse{
		Error:     msg,
		Code:      code,
		Timestamp: time.Now().UTC(),
	})
}

// respondServiceError maps service and repository sentinels to HTTP statuses.
// Anything unrecognized is logged and reported as a 500 without detail.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(c, http.StatusNotFound, CodeNotFound, "content not found")
	case errors.Is(err, domain.ErrSlugTaken):
		respondError(c, http.StatusConflict, CodeSlugTaken, "slug already in use")
	case errors.Is(err, service.ErrUnsafeContent):
		respondError(c, http.StatusUnprocessableEntity, CodeUnsafeContent, "content rejected by sanitizer")
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
	default:
		logger.FromContext(c.Request.Context()).Error("Request failed",
			logger.Error(err),
			logger.String("path", c.FullPath()),
		)
		respondError(c, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}
