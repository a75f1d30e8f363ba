package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"secretsanta/internal/draw"
	"secretsanta/internal/models"
	"secretsanta/internal/services"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func statusFor(err error) int {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, draw.ErrInsufficientParticipants):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrAlreadyDrawn):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNoDraw), errors.Is(err, services.ErrParticipantNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail aborts the request with a JSON error derived from err.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: status})
}

func failWith(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Code: status})
}
