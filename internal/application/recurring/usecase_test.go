package recurring_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/application/recurring"
	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/testutil"
	"github.com/jhoicas/billing-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Plantillas recurrentes: la generación materializa la factura con el
// consecutivo del año y avanza next_date con aritmética de calendario, lo que
// hace inocuo repetir el barrido dentro del mismo día.
// ──────────────────────────────────────────────────────────────────────────────

const (
	clienteGlobex    = "c1000000-0000-4000-8000-000000000001"
	clienteSinCorreo = "c1000000-0000-4000-8000-000000000002"
)

type harness struct {
	store    *testutil.Store
	clock    *testutil.FixedClock
	notifier *testutil.FakeNotifier
	uc       *recurring.UseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := testutil.NewStore()
	clock := testutil.NewClock("2025-02-01")
	notifier := testutil.NewNotifier()
	directory := testutil.NewDirectory(
		&entity.Client{ID: clienteGlobex, Name: "Globex S.A.S.", Email: "pagos@globex.test"},
		&entity.Client{ID: clienteSinCorreo, Name: "Initech Ltda."},
	)
	log := logger.New(logger.Config{Level: "error"})

	return &harness{
		store:    store,
		clock:    clock,
		notifier: notifier,
		uc:       recurring.NewUseCase(store.Runner(), store.Recurring, store.Invoices, directory, notifier, clock, log),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// createTemplate plantilla mensual de Globex vencida desde el 31 de enero;
// mutate ajusta el request antes de enviarlo.
func (h *harness) createTemplate(t *testing.T, mutate func(*dto.CreateRecurringRequest)) *dto.RecurringResponse {
	t.Helper()
	in := dto.CreateRecurringRequest{
		ClientID:  clienteGlobex,
		Title:     "Retainer de soporte",
		Frequency: "monthly",
		Interval:  1,
		StartDate: "2025-01-31",
		DueDays:   15,
		Items: []dto.RecurringItemRequest{
			{Description: "Bolsa de soporte", Quantity: dec("10"), UnitPrice: dec("80.00"), TaxRate: dec("19")},
		},
	}
	if mutate != nil {
		mutate(&in)
	}
	resp, err := h.uc.Create(context.Background(), in)
	require.NoError(t, err)
	return resp
}

func TestCreate_AcumulaTodasLasViolaciones(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.Create(context.Background(), dto.CreateRecurringRequest{
		Frequency: "cada luna llena",
		Interval:  -1,
		DueDays:   -5,
	})

	require.True(t, domain.IsValidation(err))
	fields := domain.FieldsOf(err)
	for _, campo := range []string{"client_id", "title", "frequency", "interval", "start_date", "due_days", "items"} {
		assert.Contains(t, fields, campo)
	}
}

func TestCreate_FinAntesDelInicio(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.Create(context.Background(), dto.CreateRecurringRequest{
		ClientID:  clienteGlobex,
		Title:     "Invertida",
		Frequency: "monthly",
		StartDate: "2025-03-01",
		EndDate:   "2025-02-01",
		Items: []dto.RecurringItemRequest{
			{Description: "Bolsa", Quantity: dec("1"), UnitPrice: dec("10.00"), TaxRate: dec("0")},
		},
	})
	require.True(t, domain.IsValidation(err))
	assert.Contains(t, domain.FieldsOf(err), "end_date")
}

func TestCreate_NormalizaIntervalo(t *testing.T) {
	h := newHarness(t)

	tpl := h.createTemplate(t, func(in *dto.CreateRecurringRequest) { in.Interval = 0 })

	assert.Equal(t, 1, tpl.Interval, "intervalo cero se normaliza a 1")
	assert.Equal(t, "active", tpl.Status)
	assert.Equal(t, "2025-01-31", tpl.NextDate, "next_date arranca en start_date")
	assert.Equal(t, "Globex S.A.S.", tpl.ClientName)
}

func TestGenerateInvoice_MaterializaYAjustaFinDeMes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tpl := h.createTemplate(t, nil)

	inv, err := h.uc.GenerateInvoice(ctx, tpl.ID)
	require.NoError(t, err)

	assert.Equal(t, "INV-2025-0001", inv.Number)
	assert.Equal(t, "pending", inv.Status)
	assert.Equal(t, "2025-02-16", inv.DueDate, "vence hoy + due_days")
	assert.Equal(t, "952.00", inv.TotalAmount.StringFixed(2), "10×80×1.19")
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Bolsa de soporte", inv.Items[0].Description)

	// El 31 de enero + 1 mes cae en el último día de febrero.
	refrescada, err := h.uc.GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-28", refrescada.NextDate)
	require.Len(t, refrescada.Generations, 1)
	assert.Equal(t, inv.ID, refrescada.Generations[0].InvoiceID)
}

func TestProcessDue_RepetirElDiaNoDuplica(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.createTemplate(t, func(in *dto.CreateRecurringRequest) { in.StartDate = "2025-02-01" })
	// Esta aún no vence; el barrido no la toca.
	h.createTemplate(t, func(in *dto.CreateRecurringRequest) { in.StartDate = "2025-03-01" })

	primera, err := h.uc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, primera.Processed)
	assert.Equal(t, 1, primera.Generated)
	assert.Zero(t, primera.Failed)

	// El avance de next_date deja la plantilla fuera del segundo barrido.
	segunda, err := h.uc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, segunda.Processed)
	assert.Zero(t, segunda.Generated)
}

func TestProcessDue_AutoSendMarcaEnviada(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tpl := h.createTemplate(t, func(in *dto.CreateRecurringRequest) {
		in.StartDate = "2025-02-01"
		in.AutoSend = true
	})

	res, err := h.uc.ProcessDue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Generated)

	correo := h.notifier.LastEmail()
	require.NotNil(t, correo)
	assert.Equal(t, "pagos@globex.test", correo.To)
	assert.Contains(t, correo.Subject, "Nueva factura INV-2025-0001")

	refrescada, err := h.uc.GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, refrescada.Generations, 1)
	generada, err := h.store.Invoices.GetByID(ctx, refrescada.Generations[0].InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusSent, generada.Status)
}

func TestProcessDue_CorreoCaidoDejaLaFacturaPendiente(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.notifier.FailEmails = true
	tpl := h.createTemplate(t, func(in *dto.CreateRecurringRequest) {
		in.StartDate = "2025-02-01"
		in.AutoSend = true
	})

	res, err := h.uc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Generated, "la factura existe aunque el correo falle")
	assert.Zero(t, res.Failed)

	refrescada, err := h.uc.GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	generada, err := h.store.Invoices.GetByID(ctx, refrescada.Generations[0].InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPending, generada.Status,
		"sin entrega confirmada no se marca como enviada")
}

func TestProcessDue_UnaFallaNoDetieneElBarrido(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.createTemplate(t, func(in *dto.CreateRecurringRequest) { in.StartDate = "2025-02-01" })

	// Plantilla corrupta sembrada directo en el repositorio: activa, vencida y
	// sin líneas.
	rota := &entity.RecurringTemplate{
		ID:        uuid.New().String(),
		ClientID:  clienteGlobex,
		Title:     "Sin líneas",
		Frequency: entity.FrequencyMonthly,
		Interval:  1,
		NextDate:  h.clock.Now().AddDate(0, 0, -3),
		DueDays:   10,
		Status:    entity.RecurringStatusActive,
	}
	require.NoError(t, h.store.Recurring.Create(ctx, rota))

	res, err := h.uc.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Generated)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], rota.ID)
}

func TestCancelYReactivate_AvanzaNextDate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tpl := h.createTemplate(t, func(in *dto.CreateRecurringRequest) { in.StartDate = "2024-12-01" })

	cancelada, err := h.uc.Cancel(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "canceled", cancelada.Status)

	_, err = h.uc.GenerateInvoice(ctx, tpl.ID)
	assert.True(t, domain.IsInvalidOperation(err), "una cancelada no genera facturas")

	titulo := "Nuevo título"
	_, err = h.uc.Update(ctx, tpl.ID, dto.UpdateRecurringRequest{Title: &titulo})
	assert.True(t, domain.IsInvalidOperation(err), "reactivar antes de modificar")

	// Al reactivar, los periodos perdidos no se facturan: next_date salta
	// mes a mes hasta hoy o después.
	reactivada, err := h.uc.Reactivate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", reactivada.Status)
	assert.Equal(t, "2025-02-01", reactivada.NextDate)

	_, err = h.uc.Reactivate(ctx, tpl.ID)
	assert.True(t, domain.IsInvalidOperation(err), "solo se reactiva una cancelada")
}

func TestDelete_SoloSinGeneraciones(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	intacta := h.createTemplate(t, nil)
	require.NoError(t, h.uc.Delete(ctx, intacta.ID))
	_, err := h.uc.GetByID(ctx, intacta.ID)
	assert.True(t, domain.IsNotFound(err))

	usada := h.createTemplate(t, nil)
	_, err = h.uc.GenerateInvoice(ctx, usada.ID)
	require.NoError(t, err)

	err = h.uc.Delete(ctx, usada.ID)
	require.True(t, domain.IsInvalidOperation(err))
	assert.Contains(t, err.Error(), "ya generó 1 facturas")
}

func TestUpdate_ReviveUnaCompletada(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tpl := h.createTemplate(t, func(in *dto.CreateRecurringRequest) {
		in.StartDate = "2025-02-01"
		in.EndDate = "2025-02-15"
	})

	// La generación avanza next_date más allá de end_date: completada.
	_, err := h.uc.GenerateInvoice(ctx, tpl.ID)
	require.NoError(t, err)
	refrescada, err := h.uc.GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	require.Equal(t, "completed", refrescada.Status)
	assert.Equal(t, "2025-03-01", refrescada.NextDate)

	_, err = h.uc.GenerateInvoice(ctx, tpl.ID)
	assert.True(t, domain.IsInvalidOperation(err), "una completada ya no genera")

	// Extender el horizonte la devuelve a activa.
	nuevoFin := "2025-12-31"
	revivida, err := h.uc.Update(ctx, tpl.ID, dto.UpdateRecurringRequest{EndDate: &nuevoFin})
	require.NoError(t, err)
	assert.Equal(t, "active", revivida.Status)
}
