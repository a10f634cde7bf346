package overdue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/application/overdue"
	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/testutil"
	"github.com/jhoicas/billing-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Cobranza: recordatorios que escalan y nunca regresan, recargos que suben el
// total sin tocar lo pagado, y el barrido diario que combina ambos sin
// detenerse ante una factura que falla.
// ──────────────────────────────────────────────────────────────────────────────

const (
	clienteAcme      = "c1000000-0000-4000-8000-000000000001"
	clienteSinCorreo = "c1000000-0000-4000-8000-000000000002"
)

type harness struct {
	store    *testutil.Store
	clock    *testutil.FixedClock
	notifier *testutil.FakeNotifier
	cache    *testutil.FakeCache
	uc       *overdue.UseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := testutil.NewStore()
	clock := testutil.NewClock("2025-03-10")
	notifier := testutil.NewNotifier()
	cache := testutil.NewCache()
	directory := testutil.NewDirectory(
		&entity.Client{ID: clienteAcme, Name: "Acme Corp", Email: "facturas@acme.test"},
		&entity.Client{ID: clienteSinCorreo, Name: "Initech Ltda."},
	)
	log := logger.New(logger.Config{Level: "error"})

	return &harness{
		store:    store,
		clock:    clock,
		notifier: notifier,
		cache:    cache,
		uc: overdue.NewUseCase(store.Runner(), store.Invoices, store.Reminders, store.Config,
			cache, 5*time.Minute, directory, notifier, clock, log),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fecha(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

// seedInvoice siembra la factura con una sola línea por el total, a nombre de
// Acme, directo en el repositorio.
func (h *harness) seedInvoice(t *testing.T, number, total, due string, status entity.InvoiceStatus) *entity.Invoice {
	t.Helper()
	ctx := context.Background()
	now := h.clock.Now()
	inv := &entity.Invoice{
		ID:          uuid.New().String(),
		ClientID:    clienteAcme,
		Number:      number,
		Title:       "Servicios profesionales",
		Status:      status,
		TotalAmount: dec(total),
		DueDate:     fecha(due),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, h.store.Invoices.Create(ctx, inv))
	require.NoError(t, h.store.Invoices.CreateItem(ctx, &entity.InvoiceItem{
		ID:          uuid.New().String(),
		InvoiceID:   inv.ID,
		Description: "Honorarios",
		Quantity:    dec("1"),
		UnitPrice:   dec(total),
		TaxRate:     decimal.Zero,
		Amount:      dec(total),
		Position:    1,
		CreatedAt:   now,
	}))
	return inv
}

func TestListOverdue_AnotaDiasYFiltra(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	vieja := h.seedInvoice(t, "INV-2025-0001", "1000.00", "2025-03-01", entity.InvoiceStatusSent)
	h.seedInvoice(t, "INV-2025-0002", "500.00", "2025-03-08", entity.InvoiceStatusSent)
	h.seedInvoice(t, "INV-2025-0003", "900.00", "2025-02-01", entity.InvoiceStatusPaid)
	h.seedInvoice(t, "INV-2025-0004", "400.00", "2025-03-01", entity.InvoiceStatusPending)

	list, err := h.uc.ListOverdue(ctx, dto.ListOverdueRequest{})
	require.NoError(t, err)
	require.Len(t, list, 2, "paid nunca aparece y pending no escala sola")
	assert.Equal(t, "INV-2025-0001", list[0].Number, "la más antigua primero")
	assert.Equal(t, 9, list[0].DaysOverdue)
	assert.Equal(t, 2, list[1].DaysOverdue)

	filtrada, err := h.uc.ListOverdue(ctx, dto.ListOverdueRequest{MinDays: 5})
	require.NoError(t, err)
	require.Len(t, filtrada, 1)
	assert.Equal(t, vieja.ID, filtrada[0].ID)
}

func TestSendReminder_EscaleraCompleta(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	// Config sembrada: gracia 3, frecuencia 7, máximo 3.
	inv := h.seedInvoice(t, "INV-2025-0010", "800.00", "2025-03-05", entity.InvoiceStatusSent)

	primero, err := h.uc.SendReminder(ctx, inv.ID, dto.SendReminderRequest{})
	require.NoError(t, err)
	assert.True(t, primero.Sent)
	assert.Equal(t, "gentle", primero.Tier)
	assert.Contains(t, h.notifier.LastEmail().Subject, "Recordatorio de pago")

	repetido, err := h.uc.SendReminder(ctx, inv.ID, dto.SendReminderRequest{})
	require.NoError(t, err)
	assert.False(t, repetido.Sent)
	assert.Equal(t, "dentro de la ventana de frecuencia", repetido.Reason)

	h.clock.AdvanceDays(7)
	segundo, err := h.uc.SendReminder(ctx, inv.ID, dto.SendReminderRequest{})
	require.NoError(t, err)
	assert.Equal(t, "firm", segundo.Tier)
	assert.Contains(t, h.notifier.LastEmail().Subject, "Aviso de vencimiento")

	h.clock.AdvanceDays(7)
	tercero, err := h.uc.SendReminder(ctx, inv.ID, dto.SendReminderRequest{})
	require.NoError(t, err)
	assert.Equal(t, "firm", tercero.Tier, "urgent llega en el cuarto, no en el tercero")

	h.clock.AdvanceDays(7)
	tope, err := h.uc.SendReminder(ctx, inv.ID, dto.SendReminderRequest{})
	require.NoError(t, err)
	assert.False(t, tope.Sent)
	assert.Equal(t, "máximo de recordatorios alcanzado", tope.Reason)

	historial, err := h.uc.ListReminders(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, historial, 3, "los no enviados por política no dejan registro")
	assert.Equal(t, "gentle", historial[0].Tier)
	assert.Equal(t, "firm", historial[1].Tier)
	assert.Equal(t, "firm", historial[2].Tier)
}

func TestSendReminder_DentroDeGracia(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := h.seedInvoice(t, "INV-2025-0011", "800.00", "2025-03-08", entity.InvoiceStatusSent)

	res, err := h.uc.SendReminder(ctx, inv.ID, dto.SendReminderRequest{})
	require.NoError(t, err)
	assert.False(t, res.Sent)
	assert.Equal(t, "dentro del periodo de gracia", res.Reason)

	logs, err := h.store.Reminders.ListByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestSendReminder_NivelExplicitoIgnoraPolitica(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := h.seedInvoice(t, "INV-2025-0012", "800.00", "2025-03-08", entity.InvoiceStatusSent)

	res, err := h.uc.SendReminder(ctx, inv.ID, dto.SendReminderRequest{Tier: "urgent"})
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Equal(t, "urgent", res.Tier)
	assert.Contains(t, h.notifier.LastEmail().Subject, "URGENTE")

	_, err = h.uc.SendReminder(ctx, inv.ID, dto.SendReminderRequest{Tier: "amistoso"})
	assert.True(t, domain.IsValidation(err))
}

func TestSendReminder_SinSaldoNoRecuerda(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := h.seedInvoice(t, "INV-2025-0013", "800.00", "2025-03-01", entity.InvoiceStatusPaid)
	inv.AmountPaid = inv.TotalAmount
	require.NoError(t, h.store.Invoices.Update(ctx, inv))

	_, err := h.uc.SendReminder(ctx, inv.ID, dto.SendReminderRequest{})
	assert.True(t, domain.IsInvalidOperation(err))
}

func TestSendReminder_CorreoCaidoConsumeTurno(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := h.seedInvoice(t, "INV-2025-0014", "800.00", "2025-03-05", entity.InvoiceStatusSent)

	h.notifier.FailEmails = true
	res, err := h.uc.SendReminder(ctx, inv.ID, dto.SendReminderRequest{})
	require.NoError(t, err, "la falla de entrega no es un error de la operación")
	assert.False(t, res.Sent)
	assert.Equal(t, "gentle", res.Tier)
	assert.Equal(t, "smtp no disponible", res.Error)

	logs, err := h.store.Reminders.ListByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Success)

	// El intento fallido consumió el turno: el siguiente ya es firm.
	h.notifier.FailEmails = false
	h.clock.AdvanceDays(7)
	res, err = h.uc.SendReminder(ctx, inv.ID, dto.SendReminderRequest{})
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Equal(t, "firm", res.Tier)
}

func TestApplyLateFee_PorcentajeSobreElTotal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := h.seedInvoice(t, "INV-2025-0020", "1000.00", "2025-03-01", entity.InvoiceStatusSent)

	resp, err := h.uc.ApplyLateFee(ctx, inv.ID, dto.ApplyLateFeeRequest{})
	require.NoError(t, err)

	assert.Equal(t, "1050.00", resp.TotalAmount.StringFixed(2), "5% de 1000 por defecto")
	assert.True(t, resp.AmountPaid.IsZero(), "el recargo no toca lo pagado")
	assert.Equal(t, "overdue", resp.Status)
	require.Len(t, resp.Items, 2)
	recargo := resp.Items[1]
	assert.True(t, recargo.IsLateFee)
	assert.Equal(t, "Recargo por mora (9 días)", recargo.Description)
	assert.Equal(t, "50.00", recargo.Amount.StringFixed(2))

	ultima := h.notifier.Notes[len(h.notifier.Notes)-1]
	assert.Equal(t, entity.NotificationLateFeeApplied, ultima.Type)

	// Monto y tipo explícitos mandan sobre la configuración.
	fijo := "fixed"
	monto := dec("25.00")
	resp, err = h.uc.ApplyLateFee(ctx, inv.ID, dto.ApplyLateFeeRequest{Type: &fijo, Amount: &monto})
	require.NoError(t, err)
	assert.Equal(t, "1075.00", resp.TotalAmount.StringFixed(2))
}

func TestApplyLateFee_EstadosExcluidos(t *testing.T) {
	cases := []struct {
		name   string
		status entity.InvoiceStatus
	}{
		{"borrador", entity.InvoiceStatusDraft},
		{"pagada", entity.InvoiceStatusPaid},
		{"anulada", entity.InvoiceStatusCanceled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			inv := h.seedInvoice(t, "INV-2025-0021", "1000.00", "2025-03-01", tc.status)

			_, err := h.uc.ApplyLateFee(context.Background(), inv.ID, dto.ApplyLateFeeRequest{})
			assert.True(t, domain.IsInvalidOperation(err))
		})
	}
}

func TestApplyLateFee_RecargoCeroSeRechaza(t *testing.T) {
	h := newHarness(t)
	inv := h.seedInvoice(t, "INV-2025-0022", "1000.00", "2025-03-01", entity.InvoiceStatusSent)

	cero := dec("0")
	_, err := h.uc.ApplyLateFee(context.Background(), inv.ID, dto.ApplyLateFeeRequest{Amount: &cero})
	require.True(t, domain.IsInvalidOperation(err))
	assert.Contains(t, err.Error(), "el recargo calculado es cero")
}

func TestProcessOverdue_BarridoCombinado(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.uc.UpdateConfig(ctx, dto.OverdueConfigRequest{
		GracePeriodDays:       3,
		ReminderFrequencyDays: 7,
		MaxReminders:          3,
		LateFeeType:           "percentage",
		LateFeeAmount:         dec("5"),
		AutoLateFee:           true,
	})
	require.NoError(t, err)

	madura := h.seedInvoice(t, "INV-2025-0030", "1000.00", "2025-03-05", entity.InvoiceStatusSent)
	h.seedInvoice(t, "INV-2025-0031", "500.00", "2025-03-08", entity.InvoiceStatusSent)

	res, err := h.uc.ProcessOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.RemindersSent, "la de 2 días sigue en gracia")
	assert.Equal(t, 1, res.FeesApplied, "recargo solo pasada la gracia")
	assert.Zero(t, res.Failed)

	actualizada, err := h.store.Invoices.GetByID(ctx, madura.ID)
	require.NoError(t, err)
	assert.Equal(t, "1050.00", actualizada.TotalAmount.StringFixed(2))
	assert.Equal(t, entity.InvoiceStatusOverdue, actualizada.Status)

	// Repetir el barrido el mismo día no duplica nada: el recordatorio cae en
	// la ventana de frecuencia y el recargo en la ventana de 30 días.
	res, err = h.uc.ProcessOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.RemindersSent)
	assert.Zero(t, res.FeesApplied)
}

func TestProcessOverdue_VentanaDeRecargoDe30Dias(t *testing.T) {
	cases := []struct {
		name     string
		haceDias int
		aplica   bool
	}{
		{"recargo de hace 40 días permite otro", 40, true},
		{"recargo de hace 10 días lo bloquea", 10, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			_, err := h.uc.UpdateConfig(ctx, dto.OverdueConfigRequest{
				GracePeriodDays:       3,
				ReminderFrequencyDays: 7,
				MaxReminders:          3,
				LateFeeType:           "percentage",
				LateFeeAmount:         dec("5"),
				AutoLateFee:           true,
			})
			require.NoError(t, err)

			inv := h.seedInvoice(t, "INV-2025-0040", "1000.00", "2025-01-09", entity.InvoiceStatusOverdue)
			require.NoError(t, h.store.Invoices.CreateItem(ctx, &entity.InvoiceItem{
				ID:          uuid.New().String(),
				InvoiceID:   inv.ID,
				Description: "Recargo por mora (20 días)",
				Quantity:    dec("1"),
				UnitPrice:   dec("50.00"),
				TaxRate:     decimal.Zero,
				Amount:      dec("50.00"),
				Position:    2,
				IsLateFee:   true,
				CreatedAt:   h.clock.Now().AddDate(0, 0, -tc.haceDias),
			}))
			inv.TotalAmount = dec("1050.00")
			require.NoError(t, h.store.Invoices.Update(ctx, inv))

			res, err := h.uc.ProcessOverdue(ctx)
			require.NoError(t, err)
			if tc.aplica {
				assert.Equal(t, 1, res.FeesApplied)
			} else {
				assert.Zero(t, res.FeesApplied)
			}
		})
	}
}

func TestStatistics_TramosYCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.seedInvoice(t, "INV-2025-0050", "100.00", "2025-03-05", entity.InvoiceStatusSent)
	h.seedInvoice(t, "INV-2025-0051", "200.00", "2025-01-24", entity.InvoiceStatusSent)
	h.seedInvoice(t, "INV-2025-0052", "300.00", "2024-12-05", entity.InvoiceStatusSent)

	stats, err := h.uc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, "600.00", stats.TotalAmount.StringFixed(2))
	require.Len(t, stats.Buckets, 4)
	assert.Equal(t, 1, stats.Buckets[0].Count, "1-30")
	assert.Equal(t, 1, stats.Buckets[1].Count, "31-60")
	assert.Zero(t, stats.Buckets[2].Count, "61-90")
	assert.Equal(t, 1, stats.Buckets[3].Count, "90+")
	assert.Equal(t, "300.00", stats.Buckets[3].TotalAmount.StringFixed(2))

	// La segunda lectura sale del caché aunque la cartera cambie.
	h.seedInvoice(t, "INV-2025-0053", "400.00", "2025-03-02", entity.InvoiceStatusSent)
	cacheadas, err := h.uc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, cacheadas.Count)
	assert.Equal(t, 1, h.cache.Hits)

	// Cambiar la configuración invalida el tablero.
	_, err = h.uc.UpdateConfig(ctx, dto.OverdueConfigRequest{
		GracePeriodDays:       3,
		ReminderFrequencyDays: 7,
		MaxReminders:          3,
		LateFeeType:           "percentage",
		LateFeeAmount:         dec("5"),
	})
	require.NoError(t, err)
	frescas, err := h.uc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, frescas.Count)
}

func TestStatistics_BordesDeLosTramos(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Hoy es 2025-03-10; cada vencimiento cae exactamente en un borde.
	bordes := []struct {
		number string
		due    string // días de mora: 1, 30, 31, 60, 61, 90, 91
	}{
		{"INV-2025-0060", "2025-03-09"},
		{"INV-2025-0061", "2025-02-08"},
		{"INV-2025-0062", "2025-02-07"},
		{"INV-2025-0063", "2025-01-09"},
		{"INV-2025-0064", "2025-01-08"},
		{"INV-2025-0065", "2024-12-10"},
		{"INV-2025-0066", "2024-12-09"},
	}
	for _, b := range bordes {
		h.seedInvoice(t, b.number, "100.00", b.due, entity.InvoiceStatusSent)
	}

	stats, err := h.uc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Count)
	assert.Equal(t, 2, stats.Buckets[0].Count, "días 1 y 30")
	assert.Equal(t, 2, stats.Buckets[1].Count, "días 31 y 60")
	assert.Equal(t, 2, stats.Buckets[2].Count, "días 61 y 90")
	assert.Equal(t, 1, stats.Buckets[3].Count, "día 91")
}

func TestUpdateConfig_ValidaEInvalidaElCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Primer GetConfig puebla el caché con la configuración sembrada.
	antes, err := h.uc.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, antes.GracePeriodDays)

	_, err = h.uc.UpdateConfig(ctx, dto.OverdueConfigRequest{
		GracePeriodDays:       10,
		ReminderFrequencyDays: 5,
		MaxReminders:          2,
		LateFeeType:           "fixed",
		LateFeeAmount:         dec("15.00"),
	})
	require.NoError(t, err)

	despues, err := h.uc.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, despues.GracePeriodDays)
	assert.Equal(t, "fixed", despues.LateFeeType)

	_, err = h.uc.UpdateConfig(ctx, dto.OverdueConfigRequest{
		GracePeriodDays:       -1,
		ReminderFrequencyDays: 0,
		MaxReminders:          3,
		LateFeeType:           "castigo",
		LateFeeAmount:         dec("5"),
	})
	require.True(t, domain.IsValidation(err))
	fields := domain.FieldsOf(err)
	assert.Contains(t, fields, "grace_period_days")
	assert.Contains(t, fields, "reminder_frequency_days")
	assert.Contains(t, fields, "late_fee_type")
}
