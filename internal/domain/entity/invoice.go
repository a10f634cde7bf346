package entity

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/domain"
)

// InvoiceStatus estado del ciclo de vida de una factura.
type InvoiceStatus string

const (
	InvoiceStatusDraft    InvoiceStatus = "draft"    // borrador, aún no emitida
	InvoiceStatusPending  InvoiceStatus = "pending"  // emitida, sin enviar al cliente
	InvoiceStatusSent     InvoiceStatus = "sent"     // enviada al cliente
	InvoiceStatusPartial  InvoiceStatus = "partial"  // con pagos parciales
	InvoiceStatusPaid     InvoiceStatus = "paid"     // saldada (terminal)
	InvoiceStatusOverdue  InvoiceStatus = "overdue"  // vencida con saldo pendiente
	InvoiceStatusCanceled InvoiceStatus = "canceled" // anulada (terminal, solo desde pending)
)

func (s InvoiceStatus) String() string { return string(s) }

// Validate rechaza estados fuera del conjunto cerrado.
func (s InvoiceStatus) Validate() error {
	valid := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusPending,
		InvoiceStatusSent,
		InvoiceStatusPartial,
		InvoiceStatusPaid,
		InvoiceStatusOverdue,
		InvoiceStatusCanceled,
	}
	if !lo.Contains(valid, s) {
		return domain.NewError("estado de factura inválido: %s", s).
			WithHint("estados válidos: draft, pending, sent, partial, paid, overdue, canceled").
			Mark(domain.ErrValidation)
	}
	return nil
}

// IsTerminal indica si el estado no admite más transiciones.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCanceled
}

// Invoice documento de cobro emitido a un cliente.
// Invariantes: 0 ≤ AmountPaid ≤ TotalAmount; TotalAmount = Σ Items[i].Amount.
type Invoice struct {
	ID          string
	ClientID    string
	EstimateID  string // referencia opcional al estimado de origen
	Number      string // consecutivo legible (INV-2025-0001); único
	Title       string
	Description string
	Status      InvoiceStatus
	TotalAmount decimal.Decimal
	AmountPaid  decimal.Decimal
	DueDate     time.Time
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []InvoiceItem
}

// RemainingBalance saldo pendiente de pago.
func (i *Invoice) RemainingBalance() decimal.Decimal {
	return i.TotalAmount.Sub(i.AmountPaid)
}

// IsPayable indica si la factura admite registrar pagos.
func (i *Invoice) IsPayable() bool {
	return i.Status != InvoiceStatusPaid && i.Status != InvoiceStatusCanceled
}

// HasPayments indica si ya se aplicó algún pago.
func (i *Invoice) HasPayments() bool {
	return i.AmountPaid.GreaterThan(decimal.Zero)
}
