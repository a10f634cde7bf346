package repository

import (
	"context"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// ReminderLogRepository define el puerto de persistencia para el historial de
// recordatorios. Solo se agrega: los intentos fallidos también quedan.
type ReminderLogRepository interface {
	Append(ctx context.Context, log *entity.ReminderLog) error
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.ReminderLog, error)
}
