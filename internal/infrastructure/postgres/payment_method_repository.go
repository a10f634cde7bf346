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

var _ repository.PaymentMethodRepository = (*PaymentMethodRepo)(nil)

// PaymentMethodRepo implementación de PaymentMethodRepository (usable con pool o tx).
type PaymentMethodRepo struct {
	q Querier
}

// NewPaymentMethodRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentMethodRepository(q Querier) *PaymentMethodRepo {
	return &PaymentMethodRepo{q: q}
}

const methodColumns = `id, name, requires_confirmation, is_active, created_at, updated_at`

// Create persiste un método de pago.
func (r *PaymentMethodRepo) Create(ctx context.Context, method *entity.PaymentMethod) error {
	if method.ID == "" {
		method.ID = uuid.New().String()
	}
	query := `
		INSERT INTO payment_methods (id, name, requires_confirmation, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		method.ID, method.Name, method.RequiresConfirmation, method.IsActive,
		method.CreatedAt, method.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewError("el método de pago %s ya existe", method.Name).Mark(domain.ErrDuplicate)
		}
		return domain.Wrap(err, "insert payment method")
	}
	return nil
}

// GetByID obtiene un método por ID.
func (r *PaymentMethodRepo) GetByID(ctx context.Context, id string) (*entity.PaymentMethod, error) {
	return r.getBy(ctx, `id = $1`, id)
}

// GetByName obtiene un método por su nombre único.
func (r *PaymentMethodRepo) GetByName(ctx context.Context, name string) (*entity.PaymentMethod, error) {
	return r.getBy(ctx, `name = $1`, name)
}

func (r *PaymentMethodRepo) getBy(ctx context.Context, cond string, arg any) (*entity.PaymentMethod, error) {
	query := `SELECT ` + methodColumns + ` FROM payment_methods WHERE ` + cond
	var m entity.PaymentMethod
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&m.ID, &m.Name, &m.RequiresConfirmation, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError("método de pago %v no encontrado", arg).Mark(domain.ErrNotFound)
		}
		return nil, domain.Wrap(err, "get payment method")
	}
	return &m, nil
}

// List obtiene los métodos registrados; por defecto solo los activos.
func (r *PaymentMethodRepo) List(ctx context.Context, includeInactive bool) ([]*entity.PaymentMethod, error) {
	query := `SELECT ` + methodColumns + ` FROM payment_methods`
	if !includeInactive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, domain.Wrap(err, "list payment methods")
	}
	defer rows.Close()
	var list []*entity.PaymentMethod
	for rows.Next() {
		var m entity.PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.RequiresConfirmation, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, domain.Wrap(err, "scan payment method")
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// Update persiste nombre, confirmación y estado activo.
func (r *PaymentMethodRepo) Update(ctx context.Context, method *entity.PaymentMethod) error {
	query := `
		UPDATE payment_methods
		SET name                  = $2,
		    requires_confirmation = $3,
		    is_active             = $4,
		    updated_at            = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		method.ID, method.Name, method.RequiresConfirmation, method.IsActive, method.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewError("el método de pago %s ya existe", method.Name).Mark(domain.ErrDuplicate)
		}
		return domain.Wrap(err, "update payment method")
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError("método de pago %s no encontrado", method.ID).Mark(domain.ErrNotFound)
	}
	return nil
}

// Delete elimina un método sin pagos asociados. El caso de uso decide antes
// si corresponde borrar o desactivar.
func (r *PaymentMethodRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM payment_methods WHERE id = $1`, id)
	if err != nil {
		return domain.Wrap(err, "delete payment method")
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError("método de pago %s no encontrado", id).Mark(domain.ErrNotFound)
	}
	return nil
}
