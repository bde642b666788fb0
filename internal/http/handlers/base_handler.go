// Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"drover/internal/modules/bid"
)

type errorResponse struct {
	Error        string `json:"error"`
	Code         string `json:"code,omitempty"`
	RetrySeconds int    `json:"retry_seconds,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeBidError(c *gin.Context, err error) {
	var ve *bid.ValidationError
	if errors.As(err, &ve) {
		writeError(c, http.StatusBadRequest, ve.Error())
		return
	}
	var se *bid.SubmitError
	if errors.As(err, &se) {
		writeSubmitError(c, se)
		return
	}
	switch {
	case errors.Is(err, bid.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, bid.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, bid.ErrSessionActive),
		errors.Is(err, bid.ErrSessionClosed),
		errors.Is(err, bid.ErrInvalidState),
		errors.Is(err, bid.ErrSubmitInFlight):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeSubmitError(c *gin.Context, se *bid.SubmitError) {
	resp := errorResponse{Error: se.Error(), Code: string(se.Code), RetrySeconds: se.RetrySeconds}
	switch se.Code {
	case bid.CodeCooldown:
		writeJSON(c, http.StatusTooManyRequests, resp)
	case bid.CodeLocked:
		writeJSON(c, http.StatusLocked, resp)
	default:
		writeJSON(c, http.StatusBadGateway, resp)
	}
}
