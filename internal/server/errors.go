package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/logging"
)

// errorResponse is the JSON body of every error.
type errorResponse struct {
	Error  string              `json:"error"`
	Fields []engine.FieldError `json:"fields,omitempty"`
}

// statusFor maps engine sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Internal errors are logged and not echoed.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := errorResponse{Error: err.Error()}

	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Errors
	}
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error().
			Str("component", "server").
			Err(err).
			Msg("request failed")
		body = errorResponse{Error: "internal server error"}
	}
	c.JSON(status, body)
}
