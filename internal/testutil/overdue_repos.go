package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// ReminderLogRepo implementación en memoria de repository.ReminderLogRepository.
type ReminderLogRepo struct {
	mu   sync.RWMutex
	logs []*entity.ReminderLog
}

// NewReminderLogRepo construye el historial vacío.
func NewReminderLogRepo() *ReminderLogRepo {
	return &ReminderLogRepo{}
}

// Append agrega el intento; nunca se borra ni se edita.
func (r *ReminderLogRepo) Append(ctx context.Context, log *entity.ReminderLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *log
	r.logs = append(r.logs, &c)
	return nil
}

// ListByInvoice intentos de la factura en orden cronológico.
func (r *ReminderLogRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.ReminderLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.ReminderLog
	for _, l := range r.logs {
		if l.InvoiceID == invoiceID {
			c := *l
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *entity.ReminderLog) int {
		if c := a.SentAt.Compare(b.SentAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────

// OverdueConfigRepo implementación en memoria de repository.OverdueConfigRepository.
type OverdueConfigRepo struct {
	mu  sync.RWMutex
	cfg *entity.OverdueConfig
}

// NewOverdueConfigRepo construye el repositorio con la fila única sembrada.
func NewOverdueConfigRepo(cfg *entity.OverdueConfig) *OverdueConfigRepo {
	c := *cfg
	return &OverdueConfigRepo{cfg: &c}
}

func (r *OverdueConfigRepo) Get(ctx context.Context) (*entity.OverdueConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cfg == nil {
		return nil, domain.NewError("configuración de mora no inicializada").Mark(domain.ErrNotFound)
	}
	c := *r.cfg
	return &c, nil
}

func (r *OverdueConfigRepo) Update(ctx context.Context, cfg *entity.OverdueConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *cfg
	r.cfg = &c
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────

// NotificationRepo implementación en memoria de repository.NotificationRepository.
type NotificationRepo struct {
	mu            sync.RWMutex
	notifications []*entity.Notification
}

// NewNotificationRepo construye el repositorio vacío.
func NewNotificationRepo() *NotificationRepo {
	return &NotificationRepo{}
}

func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *n
	r.notifications = append(r.notifications, &c)
	return nil
}

// ListRecent últimas notificaciones, la más nueva primero.
func (r *NotificationRepo) ListRecent(ctx context.Context, limit int) ([]*entity.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Notification, 0, len(r.notifications))
	for _, n := range r.notifications {
		c := *n
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *entity.Notification) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return domain.NewError("notificación %s no encontrada", id).Mark(domain.ErrNotFound)
}
