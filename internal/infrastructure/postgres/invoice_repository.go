package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// Estados en los que una factura vencida con saldo cuenta como cartera en mora.
const overdueStatuses = `('sent', 'partial', 'overdue')`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `id, client_id, estimate_id, number, title, description, status,
	       total_amount, amount_paid, due_date, paid_at, created_at, updated_at`

// Create persiste la cabecera de la factura.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoices (id, client_id, estimate_id, number, title, description, status, total_amount, amount_paid, due_date, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.ClientID, nullIfEmpty(invoice.EstimateID), invoice.Number,
		invoice.Title, invoice.Description, invoice.Status,
		invoice.TotalAmount, invoice.AmountPaid, invoice.DueDate, invoice.PaidAt,
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewError("el número de factura %s ya existe", invoice.Number).Mark(domain.ErrDuplicate)
		}
		return domain.Wrap(err, "insert invoice")
	}
	return nil
}

// CreateItem persiste una línea de la factura.
func (r *InvoiceRepo) CreateItem(ctx context.Context, item *entity.InvoiceItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoice_items (id, invoice_id, description, quantity, unit_price, tax_rate, amount, position, is_late_fee, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.InvoiceID, item.Description, item.Quantity, item.UnitPrice,
		item.TaxRate, item.Amount, item.Position, item.IsLateFee, item.CreatedAt,
	)
	if err != nil {
		return domain.Wrap(err, "insert invoice item")
	}
	return nil
}

// GetByID obtiene una factura por ID (sin líneas; ver GetItems).
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	return r.scanInvoice(r.q.QueryRow(ctx, query, id), id)
}

// GetForUpdate obtiene la factura bloqueando la fila (SELECT FOR UPDATE).
// Solo tiene sentido dentro de una transacción.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 FOR UPDATE`
	return r.scanInvoice(r.q.QueryRow(ctx, query, id), id)
}

func (r *InvoiceRepo) scanInvoice(row pgx.Row, id string) (*entity.Invoice, error) {
	var inv entity.Invoice
	var estimateID *string
	err := row.Scan(
		&inv.ID, &inv.ClientID, &estimateID, &inv.Number, &inv.Title, &inv.Description,
		&inv.Status, &inv.TotalAmount, &inv.AmountPaid, &inv.DueDate, &inv.PaidAt,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError("factura %s no encontrada", id).Mark(domain.ErrNotFound)
		}
		return nil, domain.Wrap(err, "get invoice")
	}
	inv.EstimateID = strOrEmpty(estimateID)
	return &inv, nil
}

// GetItems obtiene las líneas de una factura en orden.
func (r *InvoiceRepo) GetItems(ctx context.Context, invoiceID string) ([]entity.InvoiceItem, error) {
	query := `
		SELECT id, invoice_id, description, quantity, unit_price, tax_rate, amount, position, is_late_fee, created_at
		FROM invoice_items WHERE invoice_id = $1 ORDER BY position, created_at`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, domain.Wrap(err, "list invoice items")
	}
	defer rows.Close()
	var items []entity.InvoiceItem
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &it.Quantity, &it.UnitPrice,
			&it.TaxRate, &it.Amount, &it.Position, &it.IsLateFee, &it.CreatedAt); err != nil {
			return nil, domain.Wrap(err, "scan invoice item")
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// List devuelve facturas filtradas y el total sin paginar.
func (r *InvoiceRepo) List(ctx context.Context, filter repository.InvoiceFilter) ([]*entity.Invoice, int, error) {
	where, args := buildInvoiceWhere(filter)

	countQuery := `SELECT COUNT(*) FROM invoices` + where
	var total int
	if err := r.q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, domain.Wrap(err, "count invoices")
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, domain.Wrap(err, "list invoices")
	}
	defer rows.Close()

	invoices, err := scanInvoiceRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func buildInvoiceWhere(filter repository.InvoiceFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.ClientID != "" {
		add("client_id = $%d", filter.ClientID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.DateFrom != nil {
		add("created_at >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("created_at <= $%d", *filter.DateTo)
	}
	if filter.DueFrom != nil {
		add("due_date >= $%d", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		add("due_date <= $%d", *filter.DueTo)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanInvoiceRows(rows pgx.Rows) ([]*entity.Invoice, error) {
	var list []*entity.Invoice
	for rows.Next() {
		var inv entity.Invoice
		var estimateID *string
		if err := rows.Scan(
			&inv.ID, &inv.ClientID, &estimateID, &inv.Number, &inv.Title, &inv.Description,
			&inv.Status, &inv.TotalAmount, &inv.AmountPaid, &inv.DueDate, &inv.PaidAt,
			&inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, domain.Wrap(err, "scan invoice")
		}
		inv.EstimateID = strOrEmpty(estimateID)
		list = append(list, &inv)
	}
	return list, rows.Err()
}

// Update persiste los campos mutables de la factura.
func (r *InvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET title        = $2,
		    description  = $3,
		    status       = $4,
		    total_amount = $5,
		    amount_paid  = $6,
		    due_date     = $7,
		    paid_at      = $8,
		    updated_at   = $9
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.Title, invoice.Description, invoice.Status,
		invoice.TotalAmount, invoice.AmountPaid, invoice.DueDate, invoice.PaidAt,
		invoice.UpdatedAt,
	)
	if err != nil {
		return domain.Wrap(err, "update invoice")
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError("factura %s no encontrada", invoice.ID).Mark(domain.ErrNotFound)
	}
	return nil
}

// ReplaceItems borra todas las líneas y escribe el juego nuevo.
func (r *InvoiceRepo) ReplaceItems(ctx context.Context, invoiceID string, items []entity.InvoiceItem) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID); err != nil {
		return domain.Wrap(err, "delete invoice items")
	}
	for i := range items {
		items[i].InvoiceID = invoiceID
		if err := r.CreateItem(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

// Delete elimina la factura; las líneas y pagos caen por cascada.
func (r *InvoiceRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return domain.Wrap(err, "delete invoice")
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError("factura %s no encontrada", id).Mark(domain.ErrNotFound)
	}
	return nil
}

// ListOverdue facturas cobrables vencidas con saldo pendiente.
func (r *InvoiceRepo) ListOverdue(ctx context.Context, today time.Time, clientID string) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE status IN ` + overdueStatuses + `
		  AND due_date < $1::date
		  AND amount_paid < total_amount`
	args := []any{today}
	if clientID != "" {
		query += ` AND client_id = $2`
		args = append(args, clientID)
	}
	query += ` ORDER BY due_date ASC`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Wrap(err, "list overdue invoices")
	}
	defer rows.Close()
	return scanInvoiceRows(rows)
}

// HasLateFeeSince indica si ya existe una línea de recargo creada desde since.
func (r *InvoiceRepo) HasLateFeeSince(ctx context.Context, invoiceID string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM invoice_items
			WHERE invoice_id = $1 AND is_late_fee AND created_at >= $2
		)`
	var exists bool
	if err := r.q.QueryRow(ctx, query, invoiceID, since).Scan(&exists); err != nil {
		return false, domain.Wrap(err, "check late fee window")
	}
	return exists, nil
}

// MaxNumberForYear secuencia más alta usada en la numeración INV-YYYY-NNNN.
func (r *InvoiceRepo) MaxNumberForYear(ctx context.Context, year int) (int, error) {
	prefix := fmt.Sprintf("INV-%04d-", year)
	query := `
		SELECT COALESCE(MAX(CAST(SUBSTRING(number FROM $2) AS INT)), 0)
		FROM invoices
		WHERE number LIKE $1 AND SUBSTRING(number FROM $2) ~ '^[0-9]+$'`
	var maxSeq int
	err := r.q.QueryRow(ctx, query, prefix+"%", len(prefix)+1).Scan(&maxSeq)
	if err != nil {
		return 0, domain.Wrap(err, "max invoice number")
	}
	return maxSeq, nil
}

// AgingBuckets agrupa la cartera vencida en tramos de antigüedad (una pasada).
func (r *InvoiceRepo) AgingBuckets(ctx context.Context, today time.Time) ([]repository.AgingBucket, error) {
	query := `
		SELECT
			CASE
				WHEN $1::date - due_date <= 30 THEN '1-30'
				WHEN $1::date - due_date <= 60 THEN '31-60'
				WHEN $1::date - due_date <= 90 THEN '61-90'
				ELSE '90+'
			END AS bucket,
			COUNT(*),
			COALESCE(SUM(total_amount - amount_paid), 0)
		FROM invoices
		WHERE status IN ` + overdueStatuses + `
		  AND due_date < $1::date
		  AND amount_paid < total_amount
		GROUP BY bucket`
	rows, err := r.q.Query(ctx, query, today)
	if err != nil {
		return nil, domain.Wrap(err, "aging buckets")
	}
	defer rows.Close()

	buckets := []repository.AgingBucket{
		{Label: "1-30", MinDays: 1, MaxDays: 30, TotalAmount: decimal.Zero},
		{Label: "31-60", MinDays: 31, MaxDays: 60, TotalAmount: decimal.Zero},
		{Label: "61-90", MinDays: 61, MaxDays: 90, TotalAmount: decimal.Zero},
		{Label: "90+", MinDays: 91, MaxDays: 0, TotalAmount: decimal.Zero},
	}
	byLabel := make(map[string]*repository.AgingBucket, len(buckets))
	for i := range buckets {
		byLabel[buckets[i].Label] = &buckets[i]
	}
	for rows.Next() {
		var label string
		var count int
		var total decimal.Decimal
		if err := rows.Scan(&label, &count, &total); err != nil {
			return nil, domain.Wrap(err, "scan aging bucket")
		}
		if b, ok := byLabel[label]; ok {
			b.Count = count
			b.TotalAmount = total
		}
	}
	return buckets, rows.Err()
}
