package entity

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/domain"
)

// PaymentPlanStatus estado de un plan de cuotas.
type PaymentPlanStatus string

const (
	PaymentPlanStatusActive    PaymentPlanStatus = "active"
	PaymentPlanStatusCompleted PaymentPlanStatus = "completed"
	PaymentPlanStatusCanceled  PaymentPlanStatus = "canceled"
)

func (s PaymentPlanStatus) String() string { return string(s) }

// Validate rechaza estados fuera del conjunto cerrado.
func (s PaymentPlanStatus) Validate() error {
	valid := []PaymentPlanStatus{PaymentPlanStatusActive, PaymentPlanStatusCompleted, PaymentPlanStatusCanceled}
	if !lo.Contains(valid, s) {
		return domain.NewError("estado de plan inválido: %s", s).Mark(domain.ErrValidation)
	}
	return nil
}

// InstallmentStatus estado de una cuota. Cada cuota pasa pending→paid una sola vez.
type InstallmentStatus string

const (
	InstallmentStatusPending  InstallmentStatus = "pending"
	InstallmentStatusPaid     InstallmentStatus = "paid"
	InstallmentStatusCanceled InstallmentStatus = "canceled"
)

func (s InstallmentStatus) String() string { return string(s) }

// Validate rechaza estados fuera del conjunto cerrado.
func (s InstallmentStatus) Validate() error {
	valid := []InstallmentStatus{InstallmentStatusPending, InstallmentStatusPaid, InstallmentStatusCanceled}
	if !lo.Contains(valid, s) {
		return domain.NewError("estado de cuota inválido: %s", s).Mark(domain.ErrValidation)
	}
	return nil
}

// PaymentPlan descomposición del saldo pendiente de una factura en cuotas.
// Invariante al crearlo: Σ cuotas = total_amount − amount_paid de la factura.
type PaymentPlan struct {
	ID                string
	InvoiceID         string
	Status            PaymentPlanStatus
	InstallmentsTotal int
	InstallmentsPaid  int
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Installments      []Installment
}

// IsCompleted indica si todas las cuotas fueron pagadas.
func (p *PaymentPlan) IsCompleted() bool {
	return p.InstallmentsTotal > 0 && p.InstallmentsPaid >= p.InstallmentsTotal
}

// Installment cuota fechada de un plan; enlaza al Payment que la satisfizo.
type Installment struct {
	ID        string
	PlanID    string
	Position  int
	Amount    decimal.Decimal
	DueDate   time.Time
	Status    InstallmentStatus
	PaymentID string // pago que la saldó; vacío mientras esté pendiente
	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
