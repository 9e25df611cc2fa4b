package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"printvault/internal/api"
	"printvault/internal/models"
)

// apiError binds an error to the HTTP status and numeric code it is
// reported with.
type apiError struct {
	status int
	code   int
	err    error
}

func (e apiError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e apiError) Unwrap() error {
	return e.err
}

func invalidArgument(code int, format string, args ...any) error {
	return apiError{status: http.StatusBadRequest, code: code, err: fmt.Errorf(format, args...)}
}

func unauthorized(format string, args ...any) error {
	return apiError{status: http.StatusUnauthorized, code: ErrCodeUnauthorized, err: fmt.Errorf(format, args...)}
}

func throttled(format string, args ...any) error {
	return apiError{status: http.StatusTooManyRequests, code: ErrCodeResourceExhausted, err: fmt.Errorf(format, args...)}
}

// classify resolves err to an apiError. Domain sentinels map to 400 and
// 404, with notFoundCode naming the missing entity; anything else is a
// store failure.
func classify(err error, notFoundCode int) apiError {
	var known apiError
	switch {
	case errors.As(err, &known):
		return known
	case errors.Is(err, models.ErrValidation):
		return apiError{status: http.StatusBadRequest, code: ErrCodeInvalidID, err: err}
	case errors.Is(err, models.ErrNotFound):
		return apiError{status: http.StatusNotFound, code: notFoundCode, err: err}
	default:
		return apiError{status: http.StatusInternalServerError, code: ErrCodeStoreFailure, err: err}
	}
}

// writeError reports err as a JSON error body. Internal failures are logged
// in full and hidden from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, notFoundCode int) {
	if err == nil {
		err = errors.New("unknown error")
	}
	ae := classify(err, notFoundCode)
	named := statusCodes[ae.status]
	numeric := ae.code
	if numeric == 0 {
		numeric = named.numeric
	}

	fields := []any{"status", ae.status, "code", named.name, "error_code", numeric, "error", err}
	if r != nil {
		fields = append(fields, "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
	}

	message := ae.Error()
	switch ae.status {
	case http.StatusInternalServerError:
		s.log().Error("request error", fields...)
		message = "internal error"
	case http.StatusUnauthorized, http.StatusTooManyRequests:
		s.log().Warn("request rejected", fields...)
	default:
		s.log().Debug("request rejected", fields...)
	}

	s.writeJSON(w, ae.status, api.ErrorResponse{Error: message, Code: named.name, ErrorCode: numeric})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("write json response", "status", status, "error", err)
	}
}

// queryInt parses a non-negative integer query parameter.
func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, invalidArgument(ErrCodeInvalidQuery, "%s must be a non-negative integer", key)
	}
	return n, nil
}
