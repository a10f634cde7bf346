package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// PaymentRepository define el puerto de persistencia para Payment.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id string) (*entity.Payment, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Payment, error)
	Update(ctx context.Context, payment *entity.Payment) error
	Delete(ctx context.Context, id string) error
	// SumByInvoice suma de pagos vigentes; fuente de verdad al revertir un pago.
	SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error)
	CountByMethod(ctx context.Context, methodID string) (int, error)
}
