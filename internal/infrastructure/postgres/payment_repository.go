package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo implementación de PaymentRepository (usable con pool o tx).
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

const paymentColumns = `id, invoice_id, method_id, amount, payment_date, reference, notes,
	       confirmed, confirmed_at, created_at, updated_at`

// Create persiste un pago.
func (r *PaymentRepo) Create(ctx context.Context, payment *entity.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	query := `
		INSERT INTO payments (id, invoice_id, method_id, amount, payment_date, reference, notes, confirmed, confirmed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		payment.ID, payment.InvoiceID, payment.MethodID, payment.Amount, payment.PaymentDate,
		payment.Reference, payment.Notes, payment.Confirmed, payment.ConfirmedAt,
		payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		return domain.Wrap(err, "insert payment")
	}
	return nil
}

// GetByID obtiene un pago por ID.
func (r *PaymentRepo) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	var p entity.Payment
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.InvoiceID, &p.MethodID, &p.Amount, &p.PaymentDate, &p.Reference, &p.Notes,
		&p.Confirmed, &p.ConfirmedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError("pago %s no encontrado", id).Mark(domain.ErrNotFound)
		}
		return nil, domain.Wrap(err, "get payment")
	}
	return &p, nil
}

// ListByInvoice obtiene los pagos de una factura en orden cronológico.
func (r *PaymentRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE invoice_id = $1 ORDER BY payment_date, created_at`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, domain.Wrap(err, "list payments")
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(
			&p.ID, &p.InvoiceID, &p.MethodID, &p.Amount, &p.PaymentDate, &p.Reference, &p.Notes,
			&p.Confirmed, &p.ConfirmedAt, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, domain.Wrap(err, "scan payment")
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// Update persiste metadatos y confirmación. El monto nunca cambia.
func (r *PaymentRepo) Update(ctx context.Context, payment *entity.Payment) error {
	query := `
		UPDATE payments
		SET payment_date = $2,
		    reference    = $3,
		    notes        = $4,
		    confirmed    = $5,
		    confirmed_at = $6,
		    updated_at   = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		payment.ID, payment.PaymentDate, payment.Reference, payment.Notes,
		payment.Confirmed, payment.ConfirmedAt, payment.UpdatedAt,
	)
	if err != nil {
		return domain.Wrap(err, "update payment")
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError("pago %s no encontrado", payment.ID).Mark(domain.ErrNotFound)
	}
	return nil
}

// Delete elimina un pago.
func (r *PaymentRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return domain.Wrap(err, "delete payment")
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError("pago %s no encontrado", id).Mark(domain.ErrNotFound)
	}
	return nil
}

// SumByInvoice suma los pagos vigentes de una factura (fuente de verdad al
// revertir un pago).
func (r *PaymentRepo) SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`
	var sum decimal.Decimal
	if err := r.q.QueryRow(ctx, query, invoiceID).Scan(&sum); err != nil {
		return decimal.Zero, domain.Wrap(err, "sum payments")
	}
	return sum, nil
}

// CountByMethod cuenta los pagos que referencian un método.
func (r *PaymentRepo) CountByMethod(ctx context.Context, methodID string) (int, error) {
	var count int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE method_id = $1`, methodID).Scan(&count); err != nil {
		return 0, domain.Wrap(err, "count payments by method")
	}
	return count, nil
}
