package repository

import (
	"context"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// PaymentPlanRepository define el puerto de persistencia para planes de pago
// y sus cuotas.
type PaymentPlanRepository interface {
	Create(ctx context.Context, plan *entity.PaymentPlan) error
	CreateInstallment(ctx context.Context, inst *entity.Installment) error
	GetByID(ctx context.Context, id string) (*entity.PaymentPlan, error)
	GetByInvoice(ctx context.Context, invoiceID string) (*entity.PaymentPlan, error)
	GetInstallments(ctx context.Context, planID string) ([]entity.Installment, error)
	GetInstallment(ctx context.Context, id string) (*entity.Installment, error)
	// HasActivePlan evita dos planes activos sobre la misma factura.
	HasActivePlan(ctx context.Context, invoiceID string) (bool, error)
	Update(ctx context.Context, plan *entity.PaymentPlan) error
	UpdateInstallment(ctx context.Context, inst *entity.Installment) error
	CancelPendingInstallments(ctx context.Context, planID string) error
}
