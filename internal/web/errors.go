package web

// errors.go turns pipeline errors into JSON responses. The technical error
// is logged with the request id; the client gets the mapped user message.

import (
	"context"
	"errors"
	"net/http"

	"github.com/Stas2664/x2-backend/internal/core"
	"github.com/Stas2664/x2-backend/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Stage   string `json:"stage,omitempty"`
}

// respondError logs err and writes its user-facing form with statusCode.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)
	stage := core.StageOf(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"stage", stage,
	)

	// Unmapped errors may carry driver or network internals.
	detail := userMsg.Message
	if core.IsUserFacing(err) {
		detail = err.Error()
	}

	writeJSON(w, statusCode, ErrorResponse{
		Error:   detail,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
		Stage:   string(stage),
	})
}

// importStatus picks the HTTP status for a failed import.
func importStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrImportInProgress):
		return http.StatusConflict
	case errors.Is(err, core.ErrUnsupportedSource), errors.Is(err, core.ErrEmptySource):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrFetch):
		return http.StatusBadGateway
	case core.StageOf(err) == core.StageCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
