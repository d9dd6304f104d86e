package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"toolforge/internal/action"
	"toolforge/internal/sandbox"
	"toolforge/internal/tools"
	"toolforge/internal/validator"
)

// ErrHistoryDisabled is returned by history endpoints when the service
// runs without an invocation history store.
var ErrHistoryDisabled = errors.New("history is disabled")

// writeError maps service errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	resp := ErrorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var verr *validator.Error
	var eerr *sandbox.ExecError
	switch {
	case errors.Is(err, ErrHistoryDisabled):
		status = http.StatusServiceUnavailable
		resp.Kind = "HistoryDisabled"
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		resp.Kind = string(verr.Kind)
		resp.Line = verr.Line
	case errors.Is(err, tools.ErrUnknownTool):
		status = http.StatusNotFound
		resp.Kind = "UnknownTool"
	case errors.Is(err, tools.ErrInvalidArguments):
		status = http.StatusBadRequest
		resp.Kind = "InvalidArguments"
	case errors.As(err, &eerr):
		status = http.StatusBadGateway
		if eerr.Kind == sandbox.KindTimeout {
			status = http.StatusGatewayTimeout
		}
		resp.Kind = string(eerr.Kind)
	case errors.Is(err, action.ErrNoAction), errors.Is(err, action.ErrUnknownAction), errors.Is(err, action.ErrIncomplete):
		status = http.StatusBadRequest
		resp.Kind = "BadAction"
	}
	c.AbortWithStatusJSON(status, resp)
}

func writeBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "bind request: " + err.Error(), Kind: "BadRequest"})
}
