package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler receives an error from core.Service
//  2. Calls respondError(w, r, err)
//  3. Error is mapped via core.MapError to get the user message and code
//  4. The code picks the HTTP status
//  5. Technical error is logged with the request ID; the user message is
//     rendered as an HTMX fragment or JSON

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/fileparse/internal/core"
	"github.com/JonMunkholm/fileparse/internal/logging"
	"github.com/JonMunkholm/fileparse/internal/web/templates"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusByCode maps error codes to HTTP status. Unlisted codes are 500.
var statusByCode = map[string]int{
	"FILE001": http.StatusRequestEntityTooLarge,
	"FILE002": http.StatusUnprocessableEntity,
	"FILE003": http.StatusUnprocessableEntity,
	"FILE004": http.StatusBadRequest,
	"FILE005": http.StatusUnprocessableEntity,
	"FILE006": http.StatusNotFound,
	"FILE007": http.StatusBadRequest,
	"JOB001":  http.StatusServiceUnavailable,
	"JOB002":  http.StatusRequestTimeout,
	"JOB003":  http.StatusGatewayTimeout,
	"RATE001": http.StatusTooManyRequests,
}

// statusFor returns the HTTP status for a mapped error.
func statusFor(msg core.UserMessage) int {
	if status, ok := statusByCode[msg.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError logs err with request context and writes the user-facing
// message in the format the client asked for.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := core.MapError(err)
	status := statusFor(userMsg)

	logging.FromContext(r.Context()).Warn("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if wantsHTML(r) {
		renderErrorPartial(w, r, userMsg, status)
		return
	}
	respondErrorJSON(w, userMsg, status)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsHTML reports whether the response should be an HTML fragment
// rather than JSON: HTMX requests, or an Accept header preferring HTML.
func wantsHTML(r *http.Request) bool {
	if isHTMX(r) {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
