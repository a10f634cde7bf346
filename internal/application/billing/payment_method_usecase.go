package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/application/ports"
	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/domain/repository"
)

// PaymentMethodUseCase administra el catálogo de métodos de pago. Un método
// referenciado por pagos nunca se borra: se desactiva para preservar el
// historial contable.
type PaymentMethodUseCase struct {
	methods  repository.PaymentMethodRepository
	payments repository.PaymentRepository
	clock    ports.Clock
}

// NewPaymentMethodUseCase construye el caso de uso.
func NewPaymentMethodUseCase(
	methods repository.PaymentMethodRepository,
	payments repository.PaymentRepository,
	clock ports.Clock,
) *PaymentMethodUseCase {
	return &PaymentMethodUseCase{methods: methods, payments: payments, clock: clock}
}

// Create registra un método con nombre único.
func (uc *PaymentMethodUseCase) Create(ctx context.Context, in dto.PaymentMethodRequest) (*dto.PaymentMethodResponse, error) {
	if in.Name == "" {
		return nil, domain.NewError("método de pago inválido").
			WithField("name", "es obligatorio").
			Mark(domain.ErrValidation)
	}
	if existing, err := uc.methods.GetByName(ctx, in.Name); err == nil && existing != nil {
		return nil, domain.NewError("ya existe un método de pago llamado %s", in.Name).
			Mark(domain.ErrDuplicate)
	}

	now := uc.clock.Now()
	method := &entity.PaymentMethod{
		ID:                   uuid.New().String(),
		Name:                 in.Name,
		RequiresConfirmation: in.RequiresConfirmation,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if in.IsActive != nil {
		method.IsActive = *in.IsActive
	}
	if err := uc.methods.Create(ctx, method); err != nil {
		return nil, err
	}
	return dto.PaymentMethodResponseFrom(method), nil
}

// Update cambia nombre, confirmación requerida o bandera de activo.
func (uc *PaymentMethodUseCase) Update(ctx context.Context, id string, in dto.PaymentMethodRequest) (*dto.PaymentMethodResponse, error) {
	method, err := uc.methods.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" && in.Name != method.Name {
		if existing, err := uc.methods.GetByName(ctx, in.Name); err == nil && existing != nil {
			return nil, domain.NewError("ya existe un método de pago llamado %s", in.Name).
				Mark(domain.ErrDuplicate)
		}
		method.Name = in.Name
	}
	method.RequiresConfirmation = in.RequiresConfirmation
	if in.IsActive != nil {
		method.IsActive = *in.IsActive
	}
	method.UpdatedAt = uc.clock.Now()
	if err := uc.methods.Update(ctx, method); err != nil {
		return nil, err
	}
	return dto.PaymentMethodResponseFrom(method), nil
}

// List métodos del catálogo; por defecto solo los activos.
func (uc *PaymentMethodUseCase) List(ctx context.Context, includeInactive bool) ([]*dto.PaymentMethodResponse, error) {
	list, err := uc.methods.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.PaymentMethodResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.PaymentMethodResponseFrom(m))
	}
	return out, nil
}

// Delete borra el método si ningún pago lo referencia; si no, lo desactiva y
// lo informa en la respuesta.
func (uc *PaymentMethodUseCase) Delete(ctx context.Context, id string) (*dto.DeleteMethodResponse, error) {
	method, err := uc.methods.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := uc.payments.CountByMethod(ctx, id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		method.IsActive = false
		method.UpdatedAt = uc.clock.Now()
		if err := uc.methods.Update(ctx, method); err != nil {
			return nil, err
		}
		return &dto.DeleteMethodResponse{Deactivated: true}, nil
	}
	if err := uc.methods.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &dto.DeleteMethodResponse{Deleted: true}, nil
}
