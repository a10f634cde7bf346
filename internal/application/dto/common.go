package dto

import (
	"time"

	"github.com/jhoicas/billing-core/internal/domain"
)

// DateLayout formato de fechas de negocio en la API (solo día).
const DateLayout = "2006-01-02"

// APIResponse sobre estándar de todas las respuestas HTTP.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError cuerpo de error HTTP. Fields trae violaciones por campo cuando el
// error es de validación.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Hint    string            `json:"hint,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// OK envuelve una respuesta exitosa.
func OK(data any) APIResponse {
	return APIResponse{Success: true, Data: data}
}

// Fail envuelve un error de dominio en el sobre estándar.
func Fail(err error) APIResponse {
	return APIResponse{
		Success: false,
		Error: &APIError{
			Code:    domain.CodeOf(err),
			Message: err.Error(),
			Hint:    domain.HintOf(err),
			Fields:  domain.FieldsOf(err),
		},
	}
}

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas de listado.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// ParseDate interpreta una fecha de negocio "YYYY-MM-DD" en UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate serializa una fecha de negocio; vacío para el cero.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatTime serializa un instante en RFC3339; vacío para nil o cero.
func FormatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
