package entity

import "time"

// PaymentMethod método de pago del registro configurable.
// Un método referenciado por pagos no se borra: se desactiva (IsActive=false).
type PaymentMethod struct {
	ID                   string
	Name                 string // único (cash, bank_transfer, card, check, ...)
	RequiresConfirmation bool   // true: el pago queda pendiente de confirmación manual
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
