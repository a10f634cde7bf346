// Package testutil ofrece dobles en memoria de los puertos del núcleo de
// facturación: repositorios, reloj, notificador, directorio y caché. Los usan
// los tests de los casos de uso para ejercitar reglas de negocio sin Postgres.
package testutil

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/application/ports"
	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// Store agrupa los repositorios en memoria sobre un estado compartido.
type Store struct {
	Invoices      *InvoiceRepo
	Payments      *PaymentRepo
	Methods       *PaymentMethodRepo
	Plans         *PaymentPlanRepo
	Recurring     *RecurringRepo
	Reminders     *ReminderLogRepo
	Config        *OverdueConfigRepo
	Notifications *NotificationRepo
}

// NewStore construye un almacén vacío con la configuración de mora sembrada
// con los mismos valores que la migración inicial.
func NewStore() *Store {
	return &Store{
		Invoices:      NewInvoiceRepo(),
		Payments:      NewPaymentRepo(),
		Methods:       NewPaymentMethodRepo(),
		Plans:         NewPaymentPlanRepo(),
		Recurring:     NewRecurringRepo(),
		Reminders:     NewReminderLogRepo(),
		Config: NewOverdueConfigRepo(&entity.OverdueConfig{
			GracePeriodDays:       3,
			ReminderFrequencyDays: 7,
			MaxReminders:          3,
			LateFeeType:           entity.LateFeeTypePercentage,
			LateFeeAmount:         decimal.NewFromInt(5),
			AutoLateFee:           false,
		}),
		Notifications: NewNotificationRepo(),
	}
}

// Bundle entrega los repositorios como el paquete transaccional que esperan
// los casos de uso.
func (s *Store) Bundle() ports.Repos {
	return ports.Repos{
		Invoices:      s.Invoices,
		Payments:      s.Payments,
		Methods:       s.Methods,
		Plans:         s.Plans,
		Recurring:     s.Recurring,
		Reminders:     s.Reminders,
		Config:        s.Config,
		Notifications: s.Notifications,
	}
}

// Runner devuelve un TxRunner sobre este almacén.
func (s *Store) Runner() *Runner {
	return &Runner{repos: s.Bundle()}
}

// Runner ejecuta fn directamente sobre los repositorios en memoria. No hay
// rollback real: un fn que falla a mitad de camino deja lo ya escrito, así
// que los tests de fallo verifican estado antes de la primera escritura.
type Runner struct {
	repos ports.Repos
	Calls int
	// FailWith corta la transacción antes de ejecutar fn.
	FailWith error
}

// Run cuenta la llamada y delega en fn con el paquete de repos.
func (r *Runner) Run(ctx context.Context, fn func(ports.Repos) error) error {
	r.Calls++
	if r.FailWith != nil {
		return r.FailWith
	}
	return fn(r.repos)
}
