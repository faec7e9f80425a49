// Package http serves the dashboard page, its JSON API and SVG exports.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"findash/internal/core"
	"findash/internal/dashboard"
	"findash/internal/render"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
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

// NoStore marks the response as uncacheable.
func (b *JSONResponseBuilder) NoStore() *JSONResponseBuilder {
	return b.Header("Cache-Control", "no-store")
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Error sets an {"error": msg} body.
func (b *JSONResponseBuilder) Error(msg string) *JSONResponseBuilder {
	return b.Body(errorBody{Error: msg})
}

// Write sends the response. Encoding happens before the header is written
// so a marshal failure still produces a clean 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) error {
	payload, err := json.Marshal(b.body)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return err
	}
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, err = w.Write(append(payload, '\n'))
	return err
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	_ = NewJSONResponse().Status(status).Body(v).Write(w)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = NewJSONResponse().Status(status).NoStore().Error(msg).Write(w)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidSelection):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnknownChart):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnsupportedChart), errors.Is(err, render.ErrNothingToDraw):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dashboard.ErrNotLoaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError answers with the mapped status. Internal errors are not
// echoed to the client.
func writeDomainError(w http.ResponseWriter, err error) int {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, status, msg)
	return status
}
