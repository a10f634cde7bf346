package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-core/internal/application/billing"
	"github.com/jhoicas/billing-core/internal/application/overdue"
	"github.com/jhoicas/billing-core/internal/application/ports"
	"github.com/jhoicas/billing-core/internal/application/recurring"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	InvoiceUC   *billing.InvoiceUseCase
	PaymentUC   *billing.PaymentUseCase
	MethodUC    *billing.PaymentMethodUseCase
	PlanUC      *billing.PaymentPlanUseCase
	RecurringUC *recurring.UseCase
	OverdueUC   *overdue.UseCase
	Directory   ports.ClientDirectory
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Facturas
	invoices := api.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Put("/:id", invoiceHandler.Update)
	invoices.Delete("/:id", invoiceHandler.Delete)
	invoices.Post("/:id/mark-paid", invoiceHandler.MarkAsPaid)

	// Pagos (anidados en la factura; operaciones por id de pago al nivel raíz)
	paymentHandler := NewPaymentHandler(deps.PaymentUC)
	invoices.Post("/:id/payments", paymentHandler.Record)
	invoices.Get("/:id/payments", paymentHandler.ListByInvoice)
	payments := api.Group("/payments")
	payments.Put("/:id", paymentHandler.Update)
	payments.Delete("/:id", paymentHandler.Delete)
	payments.Post("/:id/confirm", paymentHandler.Confirm)

	// Métodos de pago
	methods := api.Group("/payment-methods")
	methodHandler := NewPaymentMethodHandler(deps.MethodUC)
	methods.Get("/", methodHandler.List)
	methods.Post("/", methodHandler.Create)
	methods.Put("/:id", methodHandler.Update)
	methods.Delete("/:id", methodHandler.Delete)

	// Planes de pago y cuotas
	planHandler := NewPaymentPlanHandler(deps.PlanUC)
	invoices.Post("/:id/payment-plan", planHandler.Create)
	invoices.Get("/:id/payment-plan", planHandler.GetByInvoice)
	api.Post("/installments/:id/pay", planHandler.PayInstallment)
	api.Post("/payment-plans/:id/cancel", planHandler.Cancel)

	// Plantillas recurrentes
	recurringGroup := api.Group("/recurring")
	recurringHandler := NewRecurringHandler(deps.RecurringUC)
	recurringGroup.Get("/", recurringHandler.List)
	recurringGroup.Post("/", recurringHandler.Create)
	recurringGroup.Post("/process-due", recurringHandler.ProcessDue)
	recurringGroup.Get("/:id", recurringHandler.GetByID)
	recurringGroup.Put("/:id", recurringHandler.Update)
	recurringGroup.Delete("/:id", recurringHandler.Delete)
	recurringGroup.Post("/:id/cancel", recurringHandler.Cancel)
	recurringGroup.Post("/:id/reactivate", recurringHandler.Reactivate)
	recurringGroup.Post("/:id/generate", recurringHandler.Generate)

	// Cartera vencida
	overdueGroup := api.Group("/overdue")
	overdueHandler := NewOverdueHandler(deps.OverdueUC)
	overdueGroup.Get("/", overdueHandler.List)
	overdueGroup.Post("/process", overdueHandler.Process)
	overdueGroup.Get("/statistics", overdueHandler.Statistics)
	overdueGroup.Get("/config", overdueHandler.GetConfig)
	overdueGroup.Put("/config", overdueHandler.UpdateConfig)
	invoices.Post("/:id/reminder", overdueHandler.SendReminder)
	invoices.Get("/:id/reminders", overdueHandler.ListReminders)
	invoices.Post("/:id/late-fee", overdueHandler.ApplyLateFee)

	// Directorio de clientes (solo lectura)
	clientHandler := NewClientHandler(deps.Directory)
	api.Get("/clients/search", clientHandler.Search)
}
