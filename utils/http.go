package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// errorCodes maps HTTP statuses to the machine-readable error field.
// Statuses missing here are reported as internal_error.
var errorCodes = map[int]string{
	http.StatusBadRequest:       "bad_request",
	http.StatusUnauthorized:     "unauthorized",
	http.StatusForbidden:        "forbidden",
	http.StatusNotFound:         "not_found",
	http.StatusMethodNotAllowed: "method_not_allowed",
	http.StatusConflict:         "conflict",
	http.StatusTooManyRequests:  "rate_limited",
	http.StatusBadGateway:       "bad_gateway",
}

// defaultMessages fill in an empty message for the single-purpose writers
var defaultMessages = map[int]string{
	http.StatusUnauthorized:        "Authentication required",
	http.StatusForbidden:           "Access forbidden",
	http.StatusNotFound:            "Resource not found",
	http.StatusBadGateway:          "Upstream service unavailable",
	http.StatusInternalServerError: "Internal server error",
}

// ErrorCode returns the error field written for status
func ErrorCode(status int) string {
	if code, ok := errorCodes[status]; ok {
		return code
	}
	return "internal_error"
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK wraps data in the success envelope with 200
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// WriteCreated wraps data in the success envelope with 201
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

// WriteError writes the error envelope, deriving the error field from status
func WriteError(w http.ResponseWriter, status int, message string, details map[string]interface{}) error {
	return writeProblem(w, status, ErrorCode(status), message, details)
}

// WriteConflictType writes a 409 with a domain-specific error field,
// e.g. capacity_exceeded or invalid_transition
func WriteConflictType(w http.ResponseWriter, errorType, message string, details map[string]interface{}) error {
	return writeProblem(w, http.StatusConflict, errorType, message, details)
}

// WriteBadRequest writes a 400 carrying per-field details
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return WriteError(w, http.StatusBadRequest, message, details)
}

func WriteUnauthorized(w http.ResponseWriter, message string) error {
	return writeWithDefault(w, http.StatusUnauthorized, message)
}

func WriteForbidden(w http.ResponseWriter, message string) error {
	return writeWithDefault(w, http.StatusForbidden, message)
}

func WriteNotFound(w http.ResponseWriter, message string) error {
	return writeWithDefault(w, http.StatusNotFound, message)
}

// WriteBadGateway reports a failed upstream call, such as an insight provider
func WriteBadGateway(w http.ResponseWriter, message string) error {
	return writeWithDefault(w, http.StatusBadGateway, message)
}

func WriteInternalServerError(w http.ResponseWriter, message string) error {
	return writeWithDefault(w, http.StatusInternalServerError, message)
}

func writeWithDefault(w http.ResponseWriter, status int, message string) error {
	if message == "" {
		message = defaultMessages[status]
	}
	return WriteError(w, status, message, nil)
}

func writeProblem(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) error {
	return WriteJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	})
}
