package repository

import (
	"context"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// OverdueConfigRepository define el puerto para la configuración de cobranza.
// Es una fila única sembrada en la migración inicial.
type OverdueConfigRepository interface {
	Get(ctx context.Context) (*entity.OverdueConfig, error)
	Update(ctx context.Context, cfg *entity.OverdueConfig) error
}
