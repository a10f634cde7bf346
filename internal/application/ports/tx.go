package ports

import (
	"context"

	"github.com/jhoicas/billing-core/internal/domain/repository"
)

// Repos agrupa los repositorios atados a una misma transacción. El runner
// entrega el paquete completo; cada caso de uso toma los que necesita.
type Repos struct {
	Invoices      repository.InvoiceRepository
	Payments      repository.PaymentRepository
	Methods       repository.PaymentMethodRepository
	Plans         repository.PaymentPlanRepository
	Recurring     repository.RecurringRepository
	Reminders     repository.ReminderLogRepository
	Config        repository.OverdueConfigRepository
	Notifications repository.NotificationRepository
}

// TxRunner ejecuta fn dentro de una transacción: Commit si devuelve nil,
// Rollback si devuelve error. Los repos recibidos solo valen dentro de fn.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}
