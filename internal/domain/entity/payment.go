package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment evento financiero inmutable aplicado a una factura.
// El monto siempre cuenta para amount_paid; Confirmed solo gobierna el recibo
// de cara al cliente cuando el método exige confirmación manual.
type Payment struct {
	ID          string
	InvoiceID   string
	MethodID    string
	Amount      decimal.Decimal
	PaymentDate time.Time
	Reference   string
	Notes       string
	Confirmed   bool
	ConfirmedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
