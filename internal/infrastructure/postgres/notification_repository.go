package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

// NotificationRepo implementación de NotificationRepository (usable con pool o tx).
type NotificationRepo struct {
	q Querier
}

// NewNotificationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

// Create persiste una notificación interna.
func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	query := `
		INSERT INTO notifications (id, type, title, message, entity_id, entity_type, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		n.ID, n.Type, n.Title, n.Message, n.EntityID, n.EntityType, n.Read, n.CreatedAt,
	)
	if err != nil {
		return domain.Wrap(err, "insert notification")
	}
	return nil
}

// ListRecent notificaciones más recientes primero.
func (r *NotificationRepo) ListRecent(ctx context.Context, limit int) ([]*entity.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, type, title, message, entity_id, entity_type, is_read, created_at
		FROM notifications ORDER BY created_at DESC LIMIT $1`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, domain.Wrap(err, "list notifications")
	}
	defer rows.Close()
	var list []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.EntityID, &n.EntityType, &n.Read, &n.CreatedAt); err != nil {
			return nil, domain.Wrap(err, "scan notification")
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}

// MarkRead marca una notificación como leída.
func (r *NotificationRepo) MarkRead(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id)
	if err != nil {
		return domain.Wrap(err, "mark notification read")
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError("notificación %s no encontrada", id).Mark(domain.ErrNotFound)
	}
	return nil
}
