// Package apierror provides the error envelopes written by the HTTP layer.
// Internal details (DB errors, stack traces) never reach these structs.
package apierror

// Machine-readable codes for the rejections a client is expected to handle.
const (
	CodeNoEncontrado  = "no_encontrado"
	CodeStockNegativo = "stock_negativo"
	CodeValidacion    = "validacion"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// WithCode returns a copy of e tagged with code.
func (e APIError) WithCode(code string) *APIError {
	e.Code = code
	return &e
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Code: CodeValidacion, Fields: fields}
}
