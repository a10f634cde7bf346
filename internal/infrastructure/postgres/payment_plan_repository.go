package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/domain/repository"
)

var _ repository.PaymentPlanRepository = (*PaymentPlanRepo)(nil)

// PaymentPlanRepo implementación de PaymentPlanRepository (usable con pool o tx).
type PaymentPlanRepo struct {
	q Querier
}

// NewPaymentPlanRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentPlanRepository(q Querier) *PaymentPlanRepo {
	return &PaymentPlanRepo{q: q}
}

const planColumns = `id, invoice_id, status, installments_total, installments_paid, created_at, updated_at`
const installmentColumns = `id, plan_id, position, amount, due_date, status, payment_id, paid_at, created_at, updated_at`

// Create persiste la cabecera del plan.
func (r *PaymentPlanRepo) Create(ctx context.Context, plan *entity.PaymentPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	query := `
		INSERT INTO payment_plans (id, invoice_id, status, installments_total, installments_paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		plan.ID, plan.InvoiceID, plan.Status, plan.InstallmentsTotal, plan.InstallmentsPaid,
		plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return domain.Wrap(err, "insert payment plan")
	}
	return nil
}

// CreateInstallment persiste una cuota del plan.
func (r *PaymentPlanRepo) CreateInstallment(ctx context.Context, inst *entity.Installment) error {
	if inst.ID == "" {
		inst.ID = uuid.New().String()
	}
	query := `
		INSERT INTO installments (id, plan_id, position, amount, due_date, status, payment_id, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		inst.ID, inst.PlanID, inst.Position, inst.Amount, inst.DueDate, inst.Status,
		nullIfEmpty(inst.PaymentID), inst.PaidAt, inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		return domain.Wrap(err, "insert installment")
	}
	return nil
}

// GetByID obtiene un plan por ID (sin cuotas; ver GetInstallments).
func (r *PaymentPlanRepo) GetByID(ctx context.Context, id string) (*entity.PaymentPlan, error) {
	query := `SELECT ` + planColumns + ` FROM payment_plans WHERE id = $1`
	return r.scanPlan(r.q.QueryRow(ctx, query, id), id)
}

// GetByInvoice obtiene el plan más reciente de una factura.
func (r *PaymentPlanRepo) GetByInvoice(ctx context.Context, invoiceID string) (*entity.PaymentPlan, error) {
	query := `SELECT ` + planColumns + ` FROM payment_plans WHERE invoice_id = $1 ORDER BY created_at DESC LIMIT 1`
	return r.scanPlan(r.q.QueryRow(ctx, query, invoiceID), invoiceID)
}

func (r *PaymentPlanRepo) scanPlan(row pgx.Row, ref string) (*entity.PaymentPlan, error) {
	var p entity.PaymentPlan
	err := row.Scan(&p.ID, &p.InvoiceID, &p.Status, &p.InstallmentsTotal, &p.InstallmentsPaid, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError("plan de pago de %s no encontrado", ref).Mark(domain.ErrNotFound)
		}
		return nil, domain.Wrap(err, "get payment plan")
	}
	return &p, nil
}

// GetInstallments obtiene las cuotas del plan en orden.
func (r *PaymentPlanRepo) GetInstallments(ctx context.Context, planID string) ([]entity.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE plan_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, planID)
	if err != nil {
		return nil, domain.Wrap(err, "list installments")
	}
	defer rows.Close()
	var list []entity.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *inst)
	}
	return list, rows.Err()
}

// GetInstallment obtiene una cuota por ID.
func (r *PaymentPlanRepo) GetInstallment(ctx context.Context, id string) (*entity.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE id = $1`
	row := r.q.QueryRow(ctx, query, id)
	inst, err := scanInstallment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError("cuota %s no encontrada", id).Mark(domain.ErrNotFound)
		}
		return nil, err
	}
	return inst, nil
}

func scanInstallment(row pgx.Row) (*entity.Installment, error) {
	var inst entity.Installment
	var paymentID *string
	err := row.Scan(
		&inst.ID, &inst.PlanID, &inst.Position, &inst.Amount, &inst.DueDate, &inst.Status,
		&paymentID, &inst.PaidAt, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, domain.Wrap(err, "scan installment")
	}
	inst.PaymentID = strOrEmpty(paymentID)
	return &inst, nil
}

// HasActivePlan indica si la factura ya tiene un plan activo.
func (r *PaymentPlanRepo) HasActivePlan(ctx context.Context, invoiceID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM payment_plans WHERE invoice_id = $1 AND status = 'active')`
	var exists bool
	if err := r.q.QueryRow(ctx, query, invoiceID).Scan(&exists); err != nil {
		return false, domain.Wrap(err, "check active plan")
	}
	return exists, nil
}

// Update persiste estado y contador de cuotas pagadas del plan.
func (r *PaymentPlanRepo) Update(ctx context.Context, plan *entity.PaymentPlan) error {
	query := `
		UPDATE payment_plans
		SET status            = $2,
		    installments_paid = $3,
		    updated_at        = $4
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, plan.ID, plan.Status, plan.InstallmentsPaid, plan.UpdatedAt)
	if err != nil {
		return domain.Wrap(err, "update payment plan")
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError("plan de pago %s no encontrado", plan.ID).Mark(domain.ErrNotFound)
	}
	return nil
}

// UpdateInstallment persiste estado, pago asociado y fecha de pago de la cuota.
func (r *PaymentPlanRepo) UpdateInstallment(ctx context.Context, inst *entity.Installment) error {
	query := `
		UPDATE installments
		SET status     = $2,
		    payment_id = $3,
		    paid_at    = $4,
		    updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		inst.ID, inst.Status, nullIfEmpty(inst.PaymentID), inst.PaidAt, inst.UpdatedAt,
	)
	if err != nil {
		return domain.Wrap(err, "update installment")
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError("cuota %s no encontrada", inst.ID).Mark(domain.ErrNotFound)
	}
	return nil
}

// CancelPendingInstallments marca como canceladas las cuotas aún pendientes.
func (r *PaymentPlanRepo) CancelPendingInstallments(ctx context.Context, planID string) error {
	query := `
		UPDATE installments
		SET status = 'canceled', updated_at = now()
		WHERE plan_id = $1 AND status = 'pending'`
	if _, err := r.q.Exec(ctx, query, planID); err != nil {
		return domain.Wrap(err, "cancel pending installments")
	}
	return nil
}
