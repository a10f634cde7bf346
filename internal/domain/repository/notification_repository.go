package repository

import (
	"context"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// NotificationRepository define el puerto de persistencia para notificaciones
// internas (campana del panel).
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListRecent(ctx context.Context, limit int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id string) error
}
