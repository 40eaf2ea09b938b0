// Package http provides the JSON API server and its handlers.
//
// This file implements the Builder Pattern for constructing JSON responses,
// so every handler emits the same envelope for data and errors.

package http

import (
	"encoding/json"
	"net/http"
)

// Error codes carried in ErrorDetail.Code.
const (
	CodeBadRequest    = "bad_request"
	CodeInvalidField  = "invalid_field"
	CodeNotFound      = "not_found"
	CodeRateLimited   = "rate_limited"
	CodeInternal      = "internal_error"
	CodeUnavailable   = "unavailable"
	CodePersistFailed = "persist_failed"
	CodeRemoteFailed  = "remote_failed"
)

const (
	contentTypeJSON   = "application/json; charset=utf-8"
	contentTypeCSV    = "text/csv; charset=utf-8"
	contentTypePlain  = "text/plain; charset=utf-8"
	headerContentType = "Content-Type"
)

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes what went wrong. Field is set for input errors.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response to the http.ResponseWriter. Encoding
// happens before the status line so a marshal failure still yields a 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	var body []byte
	if b.payload != nil {
		var err error
		body, err = json.Marshal(b.payload)
		if err != nil {
			b.statusCode = http.StatusInternalServerError
			body = []byte(`{"error":{"code":"internal_error","message":"response encoding failed"}}`)
		}
		body = append(body, '\n')
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if body != nil {
		w.Header().Set(headerContentType, contentTypeJSON)
	}
	w.WriteHeader(b.statusCode)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Data(ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeBadRequest, message)
}

// FieldError creates a 422 response naming the rejected input field.
func FieldError(field, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		Data(ErrorBody{Error: ErrorDetail{Code: CodeInvalidField, Message: message, Field: field}})
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, CodeNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, CodeInternal, message)
}

// ServiceUnavailableError creates a 503 response.
func ServiceUnavailableError(code, message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, code, message)
}

// TooManyRequestsError creates the 429 returned by the rate limiter.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded. Please try again later.")
}
