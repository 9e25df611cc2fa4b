package api

import (
	"fmt"
	"net/http"
)

// APIError is an error body returned by the printvault server.
type APIError struct {
	Status    int
	Code      string
	ErrorCode int
	Message   string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	message := e.Message
	if message == "" {
		message = http.StatusText(e.Status)
	}
	switch {
	case e.Code != "" && e.ErrorCode > 0:
		return fmt.Sprintf("%s (%d): %s", e.Code, e.ErrorCode, message)
	case e.Code != "":
		return fmt.Sprintf("%s: %s", e.Code, message)
	case message != "":
		return message
	default:
		return "api error"
	}
}

// NotFound reports whether the server answered 404.
func (e *APIError) NotFound() bool {
	return e != nil && e.Status == http.StatusNotFound
}
