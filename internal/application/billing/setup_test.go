package billing_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billing-core/internal/application/billing"
	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/testutil"
	"github.com/jhoicas/billing-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Arnés compartido: repositorios en memoria, reloj fijo y dobles de correo y
// directorio, con los casos de uso cableados igual que en cmd/api.
// ──────────────────────────────────────────────────────────────────────────────

const (
	clienteAcme      = "c1000000-0000-4000-8000-000000000001"
	clienteSinCorreo = "c1000000-0000-4000-8000-000000000002"
)

type harness struct {
	store    *testutil.Store
	clock    *testutil.FixedClock
	notifier *testutil.FakeNotifier

	invoices *billing.InvoiceUseCase
	payments *billing.PaymentUseCase
	methods  *billing.PaymentMethodUseCase
	plans    *billing.PaymentPlanUseCase
}

// newHarness arranca el 10 de mayo de 2025; las facturas del arnés vencen el
// día 20, de modo que nada está en mora hasta que la prueba avance el reloj.
func newHarness(t *testing.T) *harness {
	t.Helper()

	store := testutil.NewStore()
	runner := store.Runner()
	clock := testutil.NewClock("2025-05-10")
	notifier := testutil.NewNotifier()
	directory := testutil.NewDirectory(
		&entity.Client{ID: clienteAcme, Name: "Acme Corp", Email: "facturas@acme.test"},
		&entity.Client{ID: clienteSinCorreo, Name: "Initech Ltda."},
	)
	log := logger.New(logger.Config{Level: "error"})

	payments := billing.NewPaymentUseCase(runner, store.Invoices, store.Payments, store.Methods, directory, notifier, clock, log)

	return &harness{
		store:    store,
		clock:    clock,
		notifier: notifier,
		invoices: billing.NewInvoiceUseCase(runner, store.Invoices, directory, payments, clock),
		payments: payments,
		methods:  billing.NewPaymentMethodUseCase(store.Methods, store.Payments, clock),
		plans:    billing.NewPaymentPlanUseCase(runner, payments, clock),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// seedMethod inserta el método directo en el repositorio, sin pasar por el
// caso de uso, para no acoplar las demás pruebas a su validación.
func (h *harness) seedMethod(t *testing.T, name string, requiresConfirmation bool) *entity.PaymentMethod {
	t.Helper()
	now := h.clock.Now()
	m := &entity.PaymentMethod{
		ID:                   uuid.New().String(),
		Name:                 name,
		RequiresConfirmation: requiresConfirmation,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	require.NoError(t, h.store.Methods.Create(context.Background(), m))
	return m
}

// createInvoice factura pending de una sola línea sin IVA por el total dado,
// a nombre de Acme y con vencimiento el 20 de mayo.
func (h *harness) createInvoice(t *testing.T, total string) *dto.InvoiceResponse {
	t.Helper()
	resp, err := h.invoices.Create(context.Background(), dto.CreateInvoiceRequest{
		ClientID: clienteAcme,
		Title:    "Servicios profesionales",
		DueDate:  "2025-05-20",
		Items: []dto.InvoiceItemRequest{
			{Description: "Honorarios", Quantity: dec("1"), UnitPrice: dec(total), TaxRate: dec("0")},
		},
	})
	require.NoError(t, err)
	return resp
}

// recordPayment registra un pago por el monto dado con el método indicado.
func (h *harness) recordPayment(t *testing.T, invoiceID, methodID, amount string) *dto.RecordPaymentResponse {
	t.Helper()
	res, err := h.payments.Record(context.Background(), invoiceID, dto.RecordPaymentRequest{
		MethodID: methodID,
		Amount:   dec(amount),
	})
	require.NoError(t, err)
	return res
}
