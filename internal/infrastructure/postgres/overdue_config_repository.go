package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/domain/repository"
)

var _ repository.OverdueConfigRepository = (*OverdueConfigRepo)(nil)

// OverdueConfigRepo implementación de OverdueConfigRepository. La fila única
// (id=1) se siembra en la migración inicial.
type OverdueConfigRepo struct {
	q Querier
}

// NewOverdueConfigRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOverdueConfigRepository(q Querier) *OverdueConfigRepo {
	return &OverdueConfigRepo{q: q}
}

// Get lee la configuración de cobranza.
func (r *OverdueConfigRepo) Get(ctx context.Context) (*entity.OverdueConfig, error) {
	query := `
		SELECT grace_period_days, reminder_frequency_days, max_reminders,
		       late_fee_type, late_fee_amount, auto_late_fee, updated_at
		FROM overdue_config WHERE id = 1`
	var c entity.OverdueConfig
	err := r.q.QueryRow(ctx, query).Scan(
		&c.GracePeriodDays, &c.ReminderFrequencyDays, &c.MaxReminders,
		&c.LateFeeType, &c.LateFeeAmount, &c.AutoLateFee, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError("configuración de mora no sembrada").Mark(domain.ErrNotFound)
		}
		return nil, domain.Wrap(err, "get overdue config")
	}
	return &c, nil
}

// Update reemplaza la configuración de cobranza.
func (r *OverdueConfigRepo) Update(ctx context.Context, cfg *entity.OverdueConfig) error {
	query := `
		UPDATE overdue_config
		SET grace_period_days       = $1,
		    reminder_frequency_days = $2,
		    max_reminders           = $3,
		    late_fee_type           = $4,
		    late_fee_amount         = $5,
		    auto_late_fee           = $6,
		    updated_at              = $7
		WHERE id = 1`
	_, err := r.q.Exec(ctx, query,
		cfg.GracePeriodDays, cfg.ReminderFrequencyDays, cfg.MaxReminders,
		cfg.LateFeeType, cfg.LateFeeAmount, cfg.AutoLateFee, cfg.UpdatedAt,
	)
	if err != nil {
		return domain.Wrap(err, "update overdue config")
	}
	return nil
}
