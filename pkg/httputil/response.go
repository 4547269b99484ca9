package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/rajmohan-121/Ai-Tool-Finder/pkg/errors"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/logger"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/validator"
)

// Response is the error envelope. Successful responses are written bare.
type Response struct {
	Error *ErrorResponse `json:"error"`
}

// ErrorResponse represents an error in the standard response format.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// Message is the {"message": ...} body returned by mutating endpoints.
type Message struct {
	Message string `json:"message"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes a 200 {"message": msg} body.
func WriteMessage(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusOK, Message{Message: msg})
}

// WriteErrorCode writes an error envelope with an explicit status and code.
func WriteErrorCode(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteJSON(w, status, Response{Error: &ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}})
}

// WriteError maps err to an error envelope using apperrors.Classify. Server
// errors are logged with their full text and reported generically.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, r, valErr)
		return
	}

	status, code, message := apperrors.Classify(err)
	if status >= http.StatusInternalServerError {
		logInternal(r, err, fallback)
	}
	WriteErrorCode(w, r, status, code, message)
}

// WriteValidationError writes a 400 for a failed decode or validation.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, r, valErr)
		return
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		WriteErrorCode(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large")
		return
	}

	WriteErrorCode(w, r, http.StatusBadRequest, "INVALID_INPUT", err.Error())
}

func writeValidation(w http.ResponseWriter, r *http.Request, valErr *validator.ValidationError) {
	WriteJSON(w, http.StatusBadRequest, Response{Error: &ErrorResponse{
		Code:      "VALIDATION_ERROR",
		Message:   "request validation failed",
		Fields:    valErr.Fields(),
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}})
}

func logInternal(r *http.Request, err error, fallback *slog.Logger) {
	// Prefer the request-scoped logger installed by the RequestLogger middleware.
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	l.ErrorContext(r.Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

// ParseID parses a positive integer path parameter. On failure it writes a
// 400 INVALID_PARAMETER response and returns false.
func ParseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil || id <= 0 {
		WriteErrorCode(w, r, http.StatusBadRequest, "INVALID_PARAMETER", "invalid id: "+param)
		return 0, false
	}
	return id, true
}
