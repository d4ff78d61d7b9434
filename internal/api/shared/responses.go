package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/pokedex-api/internal/platform/logger"
	"github.com/phrazzld/pokedex-api/internal/redact"
)

// ErrorResponse defines the standard error response structure.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Code    int    `json:"-"` // Not serialized to JSON, used for logging
	TraceID string `json:"trace_id,omitempty"`
}

// ResponseOption defines a function to customize response behavior.
type ResponseOption func(*responseOptions)

type responseOptions struct {
	elevateLogLevel bool
	detail          string
	sanitized       bool
}

func (o responseOptions) errorDetail() string {
	if o.sanitized {
		return o.detail
	}
	return redact.String(o.detail)
}

// WithElevatedLogLevel raises 4xx errors to WARN level instead of the
// default DEBUG level.
func WithElevatedLogLevel() ResponseOption {
	return func(opts *responseOptions) {
		opts.elevateLogLevel = true
	}
}

// WithDetail sets the "error" field of the response. The detail is passed
// through redact.String before it is sent.
func WithDetail(detail string) ResponseOption {
	return func(opts *responseOptions) {
		opts.detail = detail
	}
}

// WithSanitizedDetail sets the "error" field to a message the server built
// itself, such as SanitizeValidationError output. It is sent unredacted.
func WithSanitizedDetail(detail string) ResponseOption {
	return func(opts *responseOptions) {
		opts.detail = detail
		opts.sanitized = true
	}
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithError writes a JSON error response with the given status code
// and message, stamped with the request's trace ID.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string, opts ...ResponseOption) {
	var o responseOptions
	for _, opt := range opts {
		opt(&o)
	}

	traceID := GetTraceID(r.Context())
	resp := ErrorResponse{
		Message: message,
		Code:    status,
		TraceID: traceID,
	}
	if o.detail != "" {
		resp.Error = o.errorDetail()
	}

	logger.FromContext(r.Context()).Debug("sending error response",
		"status_code", status,
		"message", message,
		"trace_id", traceID,
		"path", r.URL.Path,
		"method", r.Method)

	RespondWithJSON(w, r, status, resp)
}

// RespondWithErrorAndLog writes a JSON error response and logs the detailed
// error. The raw error never reaches the client; only a WithDetail string
// does.
//
// Log level strategy:
//   - 5xx errors: ERROR
//   - 4xx errors: DEBUG, or WARN with WithElevatedLogLevel
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userMessage string,
	err error,
	opts ...ResponseOption,
) {
	var o responseOptions
	for _, opt := range opts {
		opt(&o)
	}

	traceID := GetTraceID(r.Context())
	attrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("user_message", userMessage),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}

	level := slog.LevelDebug
	switch {
	case status >= http.StatusInternalServerError:
		level = slog.LevelError
	case status == http.StatusTooManyRequests:
		level = slog.LevelWarn
	case o.elevateLogLevel && status >= http.StatusBadRequest:
		level = slog.LevelWarn
	}

	logger.FromContext(r.Context()).LogAttrs(r.Context(), level, "API error response", attrs...)

	resp := ErrorResponse{
		Message: userMessage,
		Code:    status,
		TraceID: traceID,
	}
	if o.detail != "" {
		resp.Error = o.errorDetail()
	}
	RespondWithJSON(w, r, status, resp)
}
