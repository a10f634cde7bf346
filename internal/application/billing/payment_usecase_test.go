package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Pagos: conservación del dinero (amount_paid = Σ pagos), sobrepago imposible,
// confirmación manual y avisos post-commit que nunca revierten el pago.
// ──────────────────────────────────────────────────────────────────────────────

func TestPaymentRecord_ParcialYLuegoSalda(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	metodo := h.seedMethod(t, "transferencia", false)
	inv := h.createInvoice(t, "1000.00")

	parcial := h.recordPayment(t, inv.ID, metodo.ID, "400.00")
	assert.Equal(t, "partial", parcial.Invoice.Status)
	assert.Equal(t, "600.00", parcial.Invoice.RemainingBalance.StringFixed(2))
	assert.True(t, parcial.Payment.Confirmed, "sin confirmación manual el pago nace confirmado")
	assert.Empty(t, parcial.Invoice.PaidAt)

	saldo := h.recordPayment(t, inv.ID, metodo.ID, "600.00")
	assert.Equal(t, "paid", saldo.Invoice.Status)
	assert.True(t, saldo.Invoice.RemainingBalance.IsZero())
	assert.NotEmpty(t, saldo.Invoice.PaidAt)

	// Conservación: lo abonado es exactamente la suma de los pagos.
	sum, err := h.store.Payments.SumByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(dec("1000.00")))

	// Saldada no admite más pagos.
	_, err = h.payments.Record(ctx, inv.ID, dto.RecordPaymentRequest{
		MethodID: metodo.ID, Amount: dec("1.00"),
	})
	assert.True(t, domain.IsInvalidOperation(err))
}

func TestPaymentRecord_RechazaSobrepago(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	metodo := h.seedMethod(t, "transferencia", false)
	inv := h.createInvoice(t, "1000.00")
	h.recordPayment(t, inv.ID, metodo.ID, "400.00")

	_, err := h.payments.Record(ctx, inv.ID, dto.RecordPaymentRequest{
		MethodID: metodo.ID, Amount: dec("700.00"),
	})
	require.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "excede el saldo pendiente")

	// El rechazo no dejó rastro: ni pago ni cambio de saldo.
	pagos, err := h.store.Payments.ListByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, pagos, 1)
	stored, err := h.store.Invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, stored.AmountPaid.Equal(dec("400.00")))
}

func TestPaymentRecord_ValidacionDeEntrada(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := h.createInvoice(t, "100.00")

	_, err := h.payments.Record(ctx, inv.ID, dto.RecordPaymentRequest{Amount: dec("0")})
	require.True(t, domain.IsValidation(err))
	fields := domain.FieldsOf(err)
	assert.Contains(t, fields, "amount")
	assert.Contains(t, fields, "method_id")

	metodo := h.seedMethod(t, "transferencia", false)
	_, err = h.payments.Record(ctx, inv.ID, dto.RecordPaymentRequest{
		MethodID: metodo.ID, Amount: dec("50.00"), PaymentDate: "10/05/2025",
	})
	require.True(t, domain.IsValidation(err))
	assert.Contains(t, domain.FieldsOf(err), "payment_date")
}

func TestPaymentRecord_MetodoInactivo(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	metodo := h.seedMethod(t, "cheque", false)
	metodo.IsActive = false
	require.NoError(t, h.store.Methods.Update(ctx, metodo))
	inv := h.createInvoice(t, "100.00")

	_, err := h.payments.Record(ctx, inv.ID, dto.RecordPaymentRequest{
		MethodID: metodo.ID, Amount: dec("50.00"),
	})
	require.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "está inactivo")
}

func TestPaymentRecord_FacturaAnulada(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	metodo := h.seedMethod(t, "transferencia", false)
	inv := h.createInvoice(t, "100.00")
	anulada := "canceled"
	_, err := h.invoices.Update(ctx, inv.ID, dto.UpdateInvoiceRequest{Status: &anulada})
	require.NoError(t, err)

	_, err = h.payments.Record(ctx, inv.ID, dto.RecordPaymentRequest{
		MethodID: metodo.ID, Amount: dec("50.00"),
	})
	assert.True(t, domain.IsInvalidOperation(err))
}

func TestPaymentRecord_MetodoConfirmable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cheque := h.seedMethod(t, "cheque", true)
	inv := h.createInvoice(t, "1000.00")

	res := h.recordPayment(t, inv.ID, cheque.ID, "1000.00")

	assert.False(t, res.Payment.Confirmed)
	assert.Empty(t, res.Payment.ConfirmedAt)
	// El monto cuenta de inmediato aunque falte la confirmación.
	assert.Equal(t, "paid", res.Invoice.Status)

	// Queda el aviso interno de confirmación pendiente y ningún recibo.
	require.Len(t, h.notifier.Notes, 1)
	assert.Equal(t, entity.NotificationPaymentConfirmation, h.notifier.Notes[0].Type)
	assert.Nil(t, h.notifier.LastEmail())

	confirmado, err := h.payments.Confirm(ctx, res.Payment.ID)
	require.NoError(t, err)
	assert.True(t, confirmado.Confirmed)
	assert.NotEmpty(t, confirmado.ConfirmedAt)

	// La confirmación despacha el recibo al cliente.
	recibo := h.notifier.LastEmail()
	require.NotNil(t, recibo)
	assert.Equal(t, "facturas@acme.test", recibo.To)
	assert.Contains(t, recibo.Subject, "Pago recibido - factura "+inv.Number)

	_, err = h.payments.Confirm(ctx, res.Payment.ID)
	assert.True(t, domain.IsInvalidOperation(err), "no se confirma dos veces")
}

func TestPaymentRecord_FallaDeCorreoNoRevierte(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.notifier.FailEmails = true
	metodo := h.seedMethod(t, "transferencia", false)
	inv := h.createInvoice(t, "500.00")

	res := h.recordPayment(t, inv.ID, metodo.ID, "500.00")

	assert.False(t, res.Notified)
	assert.Equal(t, "smtp no disponible", res.NotifyError)

	// El pago quedó firme a pesar del correo caído.
	sum, err := h.store.Payments.SumByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(dec("500.00")))
	stored, err := h.store.Invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, stored.Status)
}

func TestPaymentRecord_ClienteSinCorreo(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	metodo := h.seedMethod(t, "transferencia", false)

	inv, err := h.invoices.Create(ctx, dto.CreateInvoiceRequest{
		ClientID: clienteSinCorreo,
		Title:    "Sin correo",
		DueDate:  "2025-05-20",
		Items: []dto.InvoiceItemRequest{
			{Description: "Honorarios", Quantity: dec("1"), UnitPrice: dec("100.00"), TaxRate: dec("0")},
		},
	})
	require.NoError(t, err)

	res := h.recordPayment(t, inv.ID, metodo.ID, "100.00")

	assert.False(t, res.Notified)
	assert.Equal(t, "el cliente no tiene correo registrado", res.NotifyError)
	assert.Equal(t, "paid", res.Invoice.Status)
	assert.Nil(t, h.notifier.LastEmail())
}

func TestPaymentDelete_RevierteYRederiva(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	metodo := h.seedMethod(t, "transferencia", false)

	t.Run("borrar el único pago regresa a pending", func(t *testing.T) {
		inv := h.createInvoice(t, "300.00")
		res := h.recordPayment(t, inv.ID, metodo.ID, "300.00")
		require.Equal(t, "paid", res.Invoice.Status)

		resp, err := h.payments.Delete(ctx, res.Payment.ID)
		require.NoError(t, err)
		assert.Equal(t, "pending", resp.Status)
		assert.True(t, resp.AmountPaid.IsZero())
		assert.Empty(t, resp.PaidAt, "paid_at se limpia al perder el estado paid")
	})

	t.Run("con la factura vencida el retroceso cae en overdue", func(t *testing.T) {
		inv := h.createInvoice(t, "1000.00")
		h.recordPayment(t, inv.ID, metodo.ID, "400.00")
		res := h.recordPayment(t, inv.ID, metodo.ID, "600.00")

		h.clock.Set("2025-06-01") // la factura venció el 20 de mayo

		resp, err := h.payments.Delete(ctx, res.Payment.ID)
		require.NoError(t, err)
		assert.Equal(t, "overdue", resp.Status)
		assert.True(t, resp.AmountPaid.Equal(dec("400.00")),
			"amount_paid es la suma de los pagos que quedan")
	})
}

func TestPaymentUpdate_SoloMetadatos(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	metodo := h.seedMethod(t, "transferencia", false)
	inv := h.createInvoice(t, "200.00")
	res := h.recordPayment(t, inv.ID, metodo.ID, "200.00")

	otraFecha := "2025-05-09"
	referencia := "TRF-4471"
	resp, err := h.payments.Update(ctx, res.Payment.ID, dto.UpdatePaymentRequest{
		PaymentDate: &otraFecha,
		Reference:   &referencia,
	})
	require.NoError(t, err)

	assert.Equal(t, otraFecha, resp.PaymentDate)
	assert.Equal(t, referencia, resp.Reference)
	assert.True(t, resp.Amount.Equal(dec("200.00")), "el monto registrado no se corrige")
}

func TestPaymentListByInvoice_OrdenCronologico(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	metodo := h.seedMethod(t, "transferencia", false)
	inv := h.createInvoice(t, "300.00")

	for _, p := range []struct{ fecha, monto string }{
		{"2025-05-08", "100.00"},
		{"2025-05-02", "150.00"},
		{"2025-05-05", "50.00"},
	} {
		_, err := h.payments.Record(ctx, inv.ID, dto.RecordPaymentRequest{
			MethodID: metodo.ID, Amount: dec(p.monto), PaymentDate: p.fecha,
		})
		require.NoError(t, err)
	}

	pagos, err := h.payments.ListByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, pagos, 3)
	assert.Equal(t, "2025-05-02", pagos[0].PaymentDate)
	assert.Equal(t, "2025-05-05", pagos[1].PaymentDate)
	assert.Equal(t, "2025-05-08", pagos[2].PaymentDate)
}
