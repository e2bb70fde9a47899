package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HeaderPersistenceWarning is set when a mutation was applied but could not
// be written to durable storage.
const HeaderPersistenceWarning = "X-Persistence-Warning"

// JSONResponseBuilder assembles a JSON response with a fluent API.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	warning    string
	headers    map[string]string
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{statusCode: http.StatusOK, headers: make(map[string]string)}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body. A nil body writes none.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Warning attaches a non-fatal problem, sent as the persistence warning header.
func (b *JSONResponseBuilder) Warning(msg string) *JSONResponseBuilder {
	b.warning = msg
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.warning != "" {
		w.Header().Set(HeaderPersistenceWarning, b.warning)
	}

	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n"))
}

// errorBody is the shape of every error response.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ValidationFailed lists the offending fields by their JSON names.
func ValidationFailed(fields map[string]string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		Body(errorBody{Error: "validation failed", Fields: fields})
}
