package repository

import (
	"context"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// PaymentMethodRepository define el puerto de persistencia para PaymentMethod.
type PaymentMethodRepository interface {
	Create(ctx context.Context, method *entity.PaymentMethod) error
	GetByID(ctx context.Context, id string) (*entity.PaymentMethod, error)
	GetByName(ctx context.Context, name string) (*entity.PaymentMethod, error)
	List(ctx context.Context, includeInactive bool) ([]*entity.PaymentMethod, error)
	Update(ctx context.Context, method *entity.PaymentMethod) error
	Delete(ctx context.Context, id string) error
}
