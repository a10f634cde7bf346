package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/billing-core/internal/application/ports"
	"github.com/jhoicas/billing-core/internal/domain"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con el paquete completo de repos
// atados a la tx y hace Commit o Rollback según el error devuelto.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ports.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := ports.Repos{
		Invoices:      NewInvoiceRepository(tx),
		Payments:      NewPaymentRepository(tx),
		Methods:       NewPaymentMethodRepository(tx),
		Plans:         NewPaymentPlanRepository(tx),
		Recurring:     NewRecurringRepository(tx),
		Reminders:     NewReminderLogRepository(tx),
		Config:        NewOverdueConfigRepository(tx),
		Notifications: NewNotificationRepository(tx),
	}

	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Wrap(err, "commit transaction")
	}
	return nil
}

// Bundle arma el paquete de repos sobre el pool, para las lecturas del request
// path que no necesitan transacción.
func Bundle(pool *pgxpool.Pool) ports.Repos {
	return ports.Repos{
		Invoices:      NewInvoiceRepository(pool),
		Payments:      NewPaymentRepository(pool),
		Methods:       NewPaymentMethodRepository(pool),
		Plans:         NewPaymentPlanRepository(pool),
		Recurring:     NewRecurringRepository(pool),
		Reminders:     NewReminderLogRepository(pool),
		Config:        NewOverdueConfigRepository(pool),
		Notifications: NewNotificationRepository(pool),
	}
}
