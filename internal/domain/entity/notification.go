package entity

import (
	"time"

	"github.com/samber/lo"

	"github.com/jhoicas/billing-core/internal/domain"
)

// NotificationType tipo de notificación in-app emitida por el núcleo.
type NotificationType string

const (
	NotificationPaymentReceived     NotificationType = "payment_received"
	NotificationPaymentConfirmation NotificationType = "payment_confirmation_pending"
	NotificationInvoiceGenerated    NotificationType = "invoice_generated"
	NotificationInvoiceReminder     NotificationType = "invoice_reminder"
	NotificationLateFeeApplied      NotificationType = "late_fee_applied"
)

func (t NotificationType) String() string { return string(t) }

// Validate rechaza tipos fuera del conjunto cerrado.
func (t NotificationType) Validate() error {
	valid := []NotificationType{
		NotificationPaymentReceived,
		NotificationPaymentConfirmation,
		NotificationInvoiceGenerated,
		NotificationInvoiceReminder,
		NotificationLateFeeApplied,
	}
	if !lo.Contains(valid, t) {
		return domain.NewError("tipo de notificación inválido: %s", t).Mark(domain.ErrValidation)
	}
	return nil
}

// Notification aviso in-app persistido por el notificador.
type Notification struct {
	ID         string
	Type       NotificationType
	Title      string
	Message    string
	EntityID   string // factura/pago/plantilla relacionada
	EntityType string // "invoice", "payment", "recurring_template"
	Read       bool
	CreatedAt  time.Time
}
