package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/domain/repository"
)

var _ repository.ReminderLogRepository = (*ReminderLogRepo)(nil)

// ReminderLogRepo implementación de ReminderLogRepository (usable con pool o tx).
type ReminderLogRepo struct {
	q Querier
}

// NewReminderLogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReminderLogRepository(q Querier) *ReminderLogRepo {
	return &ReminderLogRepo{q: q}
}

// Append registra un intento de recordatorio (exitoso o no).
func (r *ReminderLogRepo) Append(ctx context.Context, log *entity.ReminderLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	query := `
		INSERT INTO reminder_logs (id, invoice_id, tier, sent_at, success, error_detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		log.ID, log.InvoiceID, log.Tier, log.SentAt, log.Success, log.ErrorDetail, log.CreatedAt,
	)
	if err != nil {
		return domain.Wrap(err, "insert reminder log")
	}
	return nil
}

// ListByInvoice historial de recordatorios de una factura en orden cronológico.
func (r *ReminderLogRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.ReminderLog, error) {
	query := `
		SELECT id, invoice_id, tier, sent_at, success, error_detail, created_at
		FROM reminder_logs WHERE invoice_id = $1 ORDER BY sent_at`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, domain.Wrap(err, "list reminder logs")
	}
	defer rows.Close()
	var list []*entity.ReminderLog
	for rows.Next() {
		var l entity.ReminderLog
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Tier, &l.SentAt, &l.Success, &l.ErrorDetail, &l.CreatedAt); err != nil {
			return nil, domain.Wrap(err, "scan reminder log")
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
