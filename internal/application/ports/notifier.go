package ports

import (
	"context"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// EmailRequest correo saliente a un cliente.
type EmailRequest struct {
	To      string
	Subject string
	Body    string
	HTML    bool
}

// EmailResult resultado del envío. Success en false con Error describiendo la
// falla cuando el transporte no pudo entregar (el llamador decide qué hacer).
type EmailResult struct {
	Success   bool
	MessageID string
	Error     string
}

// NotificationRequest aviso in-app a persistir.
type NotificationRequest struct {
	Type       entity.NotificationType
	Title      string
	Message    string
	EntityID   string
	EntityType string
}

// Notifier define el puerto de salida para correo y notificaciones internas.
// Contrato de mejor esfuerzo: las fallas de entrega van en EmailResult, nunca
// como error, para que los barridos continúen con la siguiente factura y las
// escrituras contables jamás se reviertan por un aviso fallido.
type Notifier interface {
	SendEmail(ctx context.Context, req EmailRequest) EmailResult
	CreateNotification(ctx context.Context, req NotificationRequest) error
}
