package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/billing-core/internal/application/ports"
	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
)

var _ ports.ClientDirectory = (*ClientDirectoryRepo)(nil)

// ClientDirectoryRepo adaptador de solo lectura del directorio de clientes.
// La tabla clients pertenece a otro sistema; aquí solo se consulta.
type ClientDirectoryRepo struct {
	q Querier
}

// NewClientDirectory construye el adaptador. Pasar pool o tx (Querier).
func NewClientDirectory(q Querier) *ClientDirectoryRepo {
	return &ClientDirectoryRepo{q: q}
}

// FindByID obtiene un cliente por ID.
func (r *ClientDirectoryRepo) FindByID(ctx context.Context, id string) (*entity.Client, error) {
	query := `SELECT id, name, email, phone, created_at FROM clients WHERE id = $1`
	var c entity.Client
	err := r.q.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError("cliente %s no encontrado", id).Mark(domain.ErrNotFound)
		}
		return nil, domain.Wrap(err, "get client")
	}
	return &c, nil
}

// Search busca clientes por nombre o correo (case-insensitive, subcadena).
func (r *ClientDirectoryRepo) Search(ctx context.Context, query string) ([]*entity.Client, error) {
	sql := `
		SELECT id, name, email, phone, created_at
		FROM clients
		WHERE name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		ORDER BY name LIMIT 50`
	rows, err := r.q.Query(ctx, sql, query)
	if err != nil {
		return nil, domain.Wrap(err, "search clients")
	}
	defer rows.Close()
	var list []*entity.Client
	for rows.Next() {
		var c entity.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
			return nil, domain.Wrap(err, "scan client")
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
