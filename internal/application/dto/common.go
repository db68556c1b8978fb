package dto

// ErrorResponse cuerpo de error HTTP.
// Fields detalla los parámetros rechazados por validación (nombre → regla).
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
