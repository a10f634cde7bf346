package repository

import (
	"context"
	"time"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// RecurringFilter criterios de listado de plantillas recurrentes.
type RecurringFilter struct {
	ClientID string
	Status   entity.RecurringStatus
	Limit    int
	Offset   int
}

// RecurringRepository define el puerto de persistencia para plantillas
// recurrentes, sus líneas y el historial de generaciones.
type RecurringRepository interface {
	Create(ctx context.Context, tpl *entity.RecurringTemplate) error
	CreateItem(ctx context.Context, item *entity.RecurringItem) error
	GetByID(ctx context.Context, id string) (*entity.RecurringTemplate, error)
	// GetForUpdate bloquea la plantilla durante la generación de factura.
	GetForUpdate(ctx context.Context, id string) (*entity.RecurringTemplate, error)
	GetItems(ctx context.Context, templateID string) ([]entity.RecurringItem, error)
	List(ctx context.Context, filter RecurringFilter) ([]*entity.RecurringTemplate, int, error)
	// ListDue plantillas activas con next_date en o antes de today.
	ListDue(ctx context.Context, today time.Time) ([]*entity.RecurringTemplate, error)
	Update(ctx context.Context, tpl *entity.RecurringTemplate) error
	ReplaceItems(ctx context.Context, templateID string, items []entity.RecurringItem) error
	Delete(ctx context.Context, id string) error

	AppendGeneration(ctx context.Context, gen *entity.RecurringGeneration) error
	ListGenerations(ctx context.Context, templateID string) ([]*entity.RecurringGeneration, error)
	CountGenerations(ctx context.Context, templateID string) (int, error)
}
