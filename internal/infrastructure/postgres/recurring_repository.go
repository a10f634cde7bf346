package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/domain/repository"
)

var _ repository.RecurringRepository = (*RecurringRepo)(nil)

// RecurringRepo implementación de RecurringRepository (usable con pool o tx).
type RecurringRepo struct {
	q Querier
}

// NewRecurringRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRecurringRepository(q Querier) *RecurringRepo {
	return &RecurringRepo{q: q}
}

const templateColumns = `id, client_id, title, description, frequency, interval_count,
	       next_date, end_date, due_days, auto_send, status, created_at, updated_at`

// Create persiste la cabecera de la plantilla.
func (r *RecurringRepo) Create(ctx context.Context, tpl *entity.RecurringTemplate) error {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	query := `
		INSERT INTO recurring_templates (id, client_id, title, description, frequency, interval_count, next_date, end_date, due_days, auto_send, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		tpl.ID, tpl.ClientID, tpl.Title, tpl.Description, tpl.Frequency, tpl.Interval,
		tpl.NextDate, tpl.EndDate, tpl.DueDays, tpl.AutoSend, tpl.Status,
		tpl.CreatedAt, tpl.UpdatedAt,
	)
	if err != nil {
		return domain.Wrap(err, "insert recurring template")
	}
	return nil
}

// CreateItem persiste una línea plantilla.
func (r *RecurringRepo) CreateItem(ctx context.Context, item *entity.RecurringItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	query := `
		INSERT INTO recurring_items (id, template_id, description, quantity, unit_price, tax_rate, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.TemplateID, item.Description, item.Quantity, item.UnitPrice, item.TaxRate, item.Position,
	)
	if err != nil {
		return domain.Wrap(err, "insert recurring item")
	}
	return nil
}

// GetByID obtiene una plantilla por ID (sin líneas; ver GetItems).
func (r *RecurringRepo) GetByID(ctx context.Context, id string) (*entity.RecurringTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM recurring_templates WHERE id = $1`
	return scanTemplate(r.q.QueryRow(ctx, query, id), id)
}

// GetForUpdate obtiene la plantilla bloqueando la fila durante la generación.
func (r *RecurringRepo) GetForUpdate(ctx context.Context, id string) (*entity.RecurringTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM recurring_templates WHERE id = $1 FOR UPDATE`
	return scanTemplate(r.q.QueryRow(ctx, query, id), id)
}

func scanTemplate(row pgx.Row, id string) (*entity.RecurringTemplate, error) {
	var t entity.RecurringTemplate
	err := row.Scan(
		&t.ID, &t.ClientID, &t.Title, &t.Description, &t.Frequency, &t.Interval,
		&t.NextDate, &t.EndDate, &t.DueDays, &t.AutoSend, &t.Status,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError("plantilla %s no encontrada", id).Mark(domain.ErrNotFound)
		}
		return nil, domain.Wrap(err, "get recurring template")
	}
	return &t, nil
}

func scanTemplateRows(rows pgx.Rows) ([]*entity.RecurringTemplate, error) {
	var list []*entity.RecurringTemplate
	for rows.Next() {
		var t entity.RecurringTemplate
		if err := rows.Scan(
			&t.ID, &t.ClientID, &t.Title, &t.Description, &t.Frequency, &t.Interval,
			&t.NextDate, &t.EndDate, &t.DueDays, &t.AutoSend, &t.Status,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, domain.Wrap(err, "scan recurring template")
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

// GetItems obtiene las líneas plantilla en orden.
func (r *RecurringRepo) GetItems(ctx context.Context, templateID string) ([]entity.RecurringItem, error) {
	query := `
		SELECT id, template_id, description, quantity, unit_price, tax_rate, position
		FROM recurring_items WHERE template_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, templateID)
	if err != nil {
		return nil, domain.Wrap(err, "list recurring items")
	}
	defer rows.Close()
	var items []entity.RecurringItem
	for rows.Next() {
		var it entity.RecurringItem
		if err := rows.Scan(&it.ID, &it.TemplateID, &it.Description, &it.Quantity, &it.UnitPrice, &it.TaxRate, &it.Position); err != nil {
			return nil, domain.Wrap(err, "scan recurring item")
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// List devuelve plantillas filtradas y el total sin paginar.
func (r *RecurringRepo) List(ctx context.Context, filter repository.RecurringFilter) ([]*entity.RecurringTemplate, int, error) {
	var conds []string
	var args []any
	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		conds = append(conds, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM recurring_templates`+where, args...).Scan(&total); err != nil {
		return nil, 0, domain.Wrap(err, "count recurring templates")
	}

	query := `SELECT ` + templateColumns + ` FROM recurring_templates` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, domain.Wrap(err, "list recurring templates")
	}
	defer rows.Close()

	list, err := scanTemplateRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListDue plantillas activas con next_date en o antes de today.
func (r *RecurringRepo) ListDue(ctx context.Context, today time.Time) ([]*entity.RecurringTemplate, error) {
	query := `SELECT ` + templateColumns + `
		FROM recurring_templates
		WHERE status = 'active' AND next_date <= $1::date
		ORDER BY next_date`
	rows, err := r.q.Query(ctx, query, today)
	if err != nil {
		return nil, domain.Wrap(err, "list due templates")
	}
	defer rows.Close()
	return scanTemplateRows(rows)
}

// Update persiste los campos mutables de la plantilla.
func (r *RecurringRepo) Update(ctx context.Context, tpl *entity.RecurringTemplate) error {
	query := `
		UPDATE recurring_templates
		SET title          = $2,
		    description    = $3,
		    frequency      = $4,
		    interval_count = $5,
		    next_date      = $6,
		    end_date       = $7,
		    due_days       = $8,
		    auto_send      = $9,
		    status         = $10,
		    updated_at     = $11
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		tpl.ID, tpl.Title, tpl.Description, tpl.Frequency, tpl.Interval,
		tpl.NextDate, tpl.EndDate, tpl.DueDays, tpl.AutoSend, tpl.Status, tpl.UpdatedAt,
	)
	if err != nil {
		return domain.Wrap(err, "update recurring template")
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError("plantilla %s no encontrada", tpl.ID).Mark(domain.ErrNotFound)
	}
	return nil
}

// ReplaceItems borra todas las líneas plantilla y escribe el juego nuevo.
func (r *RecurringRepo) ReplaceItems(ctx context.Context, templateID string, items []entity.RecurringItem) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM recurring_items WHERE template_id = $1`, templateID); err != nil {
		return domain.Wrap(err, "delete recurring items")
	}
	for i := range items {
		items[i].TemplateID = templateID
		if err := r.CreateItem(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

// Delete elimina la plantilla; sus líneas caen por cascada. El caso de uso
// verifica antes que no existan generaciones.
func (r *RecurringRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM recurring_templates WHERE id = $1`, id)
	if err != nil {
		return domain.Wrap(err, "delete recurring template")
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError("plantilla %s no encontrada", id).Mark(domain.ErrNotFound)
	}
	return nil
}

// AppendGeneration registra plantilla → factura generada.
func (r *RecurringRepo) AppendGeneration(ctx context.Context, gen *entity.RecurringGeneration) error {
	if gen.ID == "" {
		gen.ID = uuid.New().String()
	}
	query := `
		INSERT INTO recurring_generations (id, template_id, invoice_id, generated_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := r.q.Exec(ctx, query, gen.ID, gen.TemplateID, gen.InvoiceID, gen.GeneratedAt); err != nil {
		return domain.Wrap(err, "insert generation")
	}
	return nil
}

// ListGenerations historial de generaciones de una plantilla (reciente primero).
func (r *RecurringRepo) ListGenerations(ctx context.Context, templateID string) ([]*entity.RecurringGeneration, error) {
	query := `
		SELECT id, template_id, invoice_id, generated_at
		FROM recurring_generations WHERE template_id = $1 ORDER BY generated_at DESC`
	rows, err := r.q.Query(ctx, query, templateID)
	if err != nil {
		return nil, domain.Wrap(err, "list generations")
	}
	defer rows.Close()
	var list []*entity.RecurringGeneration
	for rows.Next() {
		var g entity.RecurringGeneration
		if err := rows.Scan(&g.ID, &g.TemplateID, &g.InvoiceID, &g.GeneratedAt); err != nil {
			return nil, domain.Wrap(err, "scan generation")
		}
		list = append(list, &g)
	}
	return list, rows.Err()
}

// CountGenerations cuenta las facturas generadas por una plantilla.
func (r *RecurringRepo) CountGenerations(ctx context.Context, templateID string) (int, error) {
	var count int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM recurring_generations WHERE template_id = $1`, templateID).Scan(&count); err != nil {
		return 0, domain.Wrap(err, "count generations")
	}
	return count, nil
}
