package domain

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinel clasifica un error de negocio. Se adjunta con errors.Mark y se
// consulta con errors.Is, de modo que el wrapping no pierda la categoría.
type Sentinel struct {
	code    string
	message string
	status  int
}

func (s *Sentinel) Error() string { return s.message }

// Code devuelve el código estable de la categoría (para respuestas HTTP y logs).
func (s *Sentinel) Code() string { return s.code }

// Taxonomía cerrada de errores del núcleo de facturación.
var (
	// ErrValidation entrada malformada o incompleta; nunca se persiste nada.
	ErrValidation = &Sentinel{code: "VALIDATION", message: "datos de entrada inválidos", status: http.StatusBadRequest}
	// ErrNotFound la factura/pago/plantilla/cuota referenciada no existe.
	ErrNotFound = &Sentinel{code: "NOT_FOUND", message: "recurso no encontrado", status: http.StatusNotFound}
	// ErrInvalidOperation entrada legal pero ilegal contra el estado actual.
	ErrInvalidOperation = &Sentinel{code: "INVALID_OPERATION", message: "operación inválida para el estado actual", status: http.StatusConflict}
	// ErrDuplicate violación de unicidad (número de factura, nombre de método).
	ErrDuplicate = &Sentinel{code: "DUPLICATE", message: "recurso duplicado", status: http.StatusConflict}
	// ErrExternalService fallo del notificador; se registra y no revierte el ledger.
	ErrExternalService = &Sentinel{code: "EXTERNAL_SERVICE", message: "fallo de servicio externo", status: http.StatusBadGateway}
	// ErrDatabase error de infraestructura de persistencia.
	ErrDatabase = &Sentinel{code: "DATABASE", message: "error de base de datos", status: http.StatusInternalServerError}
)

var sentinels = []*Sentinel{ErrValidation, ErrNotFound, ErrInvalidOperation, ErrDuplicate, ErrExternalService, ErrDatabase}

// fieldsError transporta el detalle campo→mensaje de una validación.
type fieldsError struct {
	cause  error
	fields map[string]string
}

func (e *fieldsError) Error() string { return e.cause.Error() }
func (e *fieldsError) Unwrap() error { return e.cause }

// Builder construye errores de negocio de forma fluida:
//
//	domain.NewError("factura inválida").WithField("due_date", "requerido").Mark(domain.ErrValidation)
type Builder struct {
	err    error
	fields map[string]string
}

// NewError inicia un builder con el mensaje dado.
func NewError(format string, args ...any) *Builder {
	return &Builder{err: errors.Newf(format, args...)}
}

// WithHint añade una sugerencia legible para quien corrige la petición.
func (b *Builder) WithHint(hint string) *Builder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

// WithField registra un campo violado con su mensaje.
func (b *Builder) WithField(field, msg string) *Builder {
	if b.fields == nil {
		b.fields = make(map[string]string)
	}
	b.fields[field] = msg
	return b
}

// WithFields registra varios campos violados de una vez.
func (b *Builder) WithFields(fields map[string]string) *Builder {
	for k, v := range fields {
		b.WithField(k, v)
	}
	return b
}

// Mark cierra el builder marcando la categoría del error.
func (b *Builder) Mark(s *Sentinel) error {
	err := b.err
	if len(b.fields) > 0 {
		err = &fieldsError{cause: err, fields: b.fields}
	}
	return errors.Mark(err, s)
}

// Wrap envuelve un error de infraestructura conservando la causa. Si la causa
// ya trae categoría la respeta; si no, la marca como ErrDatabase.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	wrapped := errors.Wrapf(err, format, args...)
	if SentinelOf(err) != nil {
		return wrapped
	}
	return errors.Mark(wrapped, ErrDatabase)
}

// Consultas de categoría.
func IsValidation(err error) bool       { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool         { return errors.Is(err, ErrNotFound) }
func IsInvalidOperation(err error) bool { return errors.Is(err, ErrInvalidOperation) }
func IsDuplicate(err error) bool        { return errors.Is(err, ErrDuplicate) }
func IsExternalService(err error) bool  { return errors.Is(err, ErrExternalService) }

// SentinelOf devuelve la categoría del error, o nil si no está marcada.
func SentinelOf(err error) *Sentinel {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s
		}
	}
	return nil
}

// CodeOf devuelve el código de la categoría (INTERNAL si no hay marca).
func CodeOf(err error) string {
	if s := SentinelOf(err); s != nil {
		return s.code
	}
	return "INTERNAL"
}

// HTTPStatus mapea la categoría al status HTTP de respuesta.
func HTTPStatus(err error) int {
	if s := SentinelOf(err); s != nil {
		return s.status
	}
	return http.StatusInternalServerError
}

// FieldsOf devuelve el detalle campo→mensaje si el error lo transporta.
func FieldsOf(err error) map[string]string {
	var fe *fieldsError
	if errors.As(err, &fe) {
		return fe.fields
	}
	return nil
}

// HintOf devuelve las sugerencias acumuladas del error ("" si no hay).
func HintOf(err error) string {
	return errors.FlattenHints(err)
}
