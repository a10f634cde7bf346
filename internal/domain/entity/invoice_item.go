package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceItem línea de una factura; pertenece en exclusiva a su Invoice.
// Amount = Quantity × UnitPrice × (1 + TaxRate/100), redondeado a 2 decimales.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal // porcentaje (19 = 19%)
	Amount      decimal.Decimal
	Position    int
	IsLateFee   bool // línea añadida por el motor de mora
	CreatedAt   time.Time
}
