package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// Ciclo de vida de facturas: numeración consecutiva, validación acumulada,
// transiciones manuales cerradas y el atajo de marcar como pagada.
// ──────────────────────────────────────────────────────────────────────────────

func TestInvoiceCreate_AsignaConsecutivo(t *testing.T) {
	h := newHarness(t)

	primera := h.createInvoice(t, "1000.00")
	segunda := h.createInvoice(t, "500.00")

	assert.Equal(t, "INV-2025-0001", primera.Number)
	assert.Equal(t, "INV-2025-0002", segunda.Number)
	assert.Equal(t, "pending", primera.Status)
	assert.Equal(t, "Acme Corp", primera.ClientName)
}

func TestInvoiceCreate_ContinuaTrasNumeroExplicito(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.invoices.Create(ctx, dto.CreateInvoiceRequest{
		ClientID: clienteAcme,
		Number:   "INV-2025-0007",
		Title:    "Numerada a mano",
		DueDate:  "2025-05-20",
		Items: []dto.InvoiceItemRequest{
			{Description: "Honorarios", Quantity: dec("1"), UnitPrice: dec("100.00"), TaxRate: dec("0")},
		},
	})
	require.NoError(t, err)

	siguiente := h.createInvoice(t, "100.00")
	assert.Equal(t, "INV-2025-0008", siguiente.Number,
		"el consecutivo continúa después del número explícito más alto")
}

func TestInvoiceCreate_NumeroDuplicado(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	in := dto.CreateInvoiceRequest{
		ClientID: clienteAcme,
		Number:   "INV-2025-0001",
		Title:    "Original",
		DueDate:  "2025-05-20",
		Items: []dto.InvoiceItemRequest{
			{Description: "Honorarios", Quantity: dec("1"), UnitPrice: dec("100.00"), TaxRate: dec("0")},
		},
	}
	_, err := h.invoices.Create(ctx, in)
	require.NoError(t, err)

	_, err = h.invoices.Create(ctx, in)
	assert.True(t, domain.IsDuplicate(err))
}

func TestInvoiceCreate_AcumulaTodasLasViolaciones(t *testing.T) {
	h := newHarness(t)

	_, err := h.invoices.Create(context.Background(), dto.CreateInvoiceRequest{
		Status:  "sent",
		DueDate: "20/05/2025",
		Items: []dto.InvoiceItemRequest{
			{Description: "", Quantity: dec("0"), UnitPrice: dec("-1"), TaxRate: dec("0")},
		},
	})

	require.True(t, domain.IsValidation(err))
	fields := domain.FieldsOf(err)
	for _, campo := range []string{
		"client_id", "title", "due_date", "status",
		"items[0].description", "items[0].quantity", "items[0].unit_price",
	} {
		assert.Contains(t, fields, campo)
	}
}

func TestInvoiceCreate_ClienteDesconocido(t *testing.T) {
	h := newHarness(t)

	_, err := h.invoices.Create(context.Background(), dto.CreateInvoiceRequest{
		ClientID: "no-existe",
		Title:    "Sin cliente",
		DueDate:  "2025-05-20",
		Items: []dto.InvoiceItemRequest{
			{Description: "Honorarios", Quantity: dec("1"), UnitPrice: dec("100.00"), TaxRate: dec("0")},
		},
	})
	assert.True(t, domain.IsNotFound(err))
}

func TestInvoiceCreate_CalculaImportesConIVA(t *testing.T) {
	h := newHarness(t)

	resp, err := h.invoices.Create(context.Background(), dto.CreateInvoiceRequest{
		ClientID: clienteAcme,
		Title:    "Implantación del portal",
		DueDate:  "2025-06-10",
		Items: []dto.InvoiceItemRequest{
			{Description: "Consultoría", Quantity: dec("40"), UnitPrice: dec("95.00"), TaxRate: dec("19")},
			{Description: "Licencia anual", Quantity: dec("1"), UnitPrice: dec("1200.00"), TaxRate: dec("19")},
		},
	})
	require.NoError(t, err)

	// 40×95×1.19 = 4522.00; 1200×1.19 = 1428.00
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "4522.00", resp.Items[0].Amount.StringFixed(2))
	assert.Equal(t, "1428.00", resp.Items[1].Amount.StringFixed(2))
	assert.Equal(t, "5950.00", resp.TotalAmount.StringFixed(2))
	assert.Equal(t, "5950.00", resp.RemainingBalance.StringFixed(2))
}

func TestInvoiceUpdate_TransicionesManuales(t *testing.T) {
	cases := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"draft pasa a pending", "draft", "pending", true},
		{"pending pasa a sent", "pending", "sent", true},
		{"pending se anula", "pending", "canceled", true},
		{"draft no salta a sent", "draft", "sent", false},
		{"pending no regresa a draft", "pending", "draft", false},
		{"sent no regresa a pending", "sent", "pending", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()

			// sent no es un estado de creación: se llega desde pending.
			status := tc.from
			if status == "sent" {
				status = "pending"
			}
			inv, err := h.invoices.Create(ctx, dto.CreateInvoiceRequest{
				ClientID: clienteAcme,
				Title:    "Transiciones",
				Status:   status,
				DueDate:  "2025-05-20",
				Items: []dto.InvoiceItemRequest{
					{Description: "Honorarios", Quantity: dec("1"), UnitPrice: dec("100.00"), TaxRate: dec("0")},
				},
			})
			require.NoError(t, err)
			if tc.from == "sent" {
				enviado := "sent"
				inv, err = h.invoices.Update(ctx, inv.ID, dto.UpdateInvoiceRequest{Status: &enviado})
				require.NoError(t, err)
			}

			resp, err := h.invoices.Update(ctx, inv.ID, dto.UpdateInvoiceRequest{Status: &tc.to})
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.to, resp.Status)
			} else {
				assert.True(t, domain.IsInvalidOperation(err))
			}
		})
	}
}

func TestInvoiceCreate_SoloDraftOPending(t *testing.T) {
	h := newHarness(t)

	_, err := h.invoices.Create(context.Background(), dto.CreateInvoiceRequest{
		ClientID: clienteAcme,
		Title:    "Nace enviada",
		Status:   "sent",
		DueDate:  "2025-05-20",
		Items: []dto.InvoiceItemRequest{
			{Description: "Honorarios", Quantity: dec("1"), UnitPrice: dec("100.00"), TaxRate: dec("0")},
		},
	})

	require.True(t, domain.IsValidation(err))
	assert.Contains(t, domain.FieldsOf(err), "status")
}

func TestInvoiceUpdate_TerminalNoSeModifica(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	inv := h.createInvoice(t, "100.00")
	_, err := h.invoices.MarkAsPaid(ctx, inv.ID, dto.MarkInvoicePaidRequest{})
	require.NoError(t, err)

	titulo := "Ya no se puede"
	_, err = h.invoices.Update(ctx, inv.ID, dto.UpdateInvoiceRequest{Title: &titulo})
	assert.True(t, domain.IsInvalidOperation(err))
}

func TestInvoiceUpdate_ReemplazoDeLineasRecalculaTotal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	metodo := h.seedMethod(t, "transferencia", false)

	inv := h.createInvoice(t, "100.00")
	h.recordPayment(t, inv.ID, metodo.ID, "40.00")

	resp, err := h.invoices.Update(ctx, inv.ID, dto.UpdateInvoiceRequest{
		Items: []dto.InvoiceItemRequest{
			{Description: "Bolsa de horas", Quantity: dec("2"), UnitPrice: dec("125.00"), TaxRate: dec("0")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "250.00", resp.TotalAmount.StringFixed(2))
	assert.Equal(t, "40.00", resp.AmountPaid.StringFixed(2), "los pagos aplicados no se tocan")
	assert.Equal(t, "partial", resp.Status)

	// El nuevo total no puede quedar por debajo de lo ya pagado.
	_, err = h.invoices.Update(ctx, inv.ID, dto.UpdateInvoiceRequest{
		Items: []dto.InvoiceItemRequest{
			{Description: "Rebaja imposible", Quantity: dec("1"), UnitPrice: dec("30.00"), TaxRate: dec("0")},
		},
	})
	require.True(t, domain.IsValidation(err))
	assert.Contains(t, domain.FieldsOf(err), "items")
}

func TestInvoiceDelete_SoloPendingSinPagos(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	t.Run("pending sin pagos se elimina", func(t *testing.T) {
		inv := h.createInvoice(t, "100.00")
		require.NoError(t, h.invoices.Delete(ctx, inv.ID))

		_, err := h.invoices.GetByID(ctx, inv.ID)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("enviada no se elimina", func(t *testing.T) {
		inv := h.createInvoice(t, "100.00")
		enviado := "sent"
		_, err := h.invoices.Update(ctx, inv.ID, dto.UpdateInvoiceRequest{Status: &enviado})
		require.NoError(t, err)

		assert.True(t, domain.IsInvalidOperation(h.invoices.Delete(ctx, inv.ID)))
	})

	t.Run("parcialmente pagada no se elimina", func(t *testing.T) {
		metodo := h.seedMethod(t, "efectivo", false)
		inv := h.createInvoice(t, "100.00")
		h.recordPayment(t, inv.ID, metodo.ID, "40.00")

		err := h.invoices.Delete(ctx, inv.ID)
		assert.True(t, domain.IsInvalidOperation(err))
	})

	t.Run("pending con pagos registrados tampoco", func(t *testing.T) {
		// Estado anómalo posible en datos históricos: pending con amount_paid.
		inv := h.createInvoice(t, "100.00")
		stored, err := h.store.Invoices.GetByID(ctx, inv.ID)
		require.NoError(t, err)
		stored.AmountPaid = dec("40.00")
		require.NoError(t, h.store.Invoices.Update(ctx, stored))

		err = h.invoices.Delete(ctx, inv.ID)
		require.True(t, domain.IsInvalidOperation(err))
		assert.Contains(t, err.Error(), "pagos aplicados")
	})
}

func TestInvoiceMarkAsPaid_SinMetodoFuerzaElEstado(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	inv := h.createInvoice(t, "350.00")
	resp, err := h.invoices.MarkAsPaid(ctx, inv.ID, dto.MarkInvoicePaidRequest{})
	require.NoError(t, err)

	assert.Equal(t, "paid", resp.Status)
	assert.Equal(t, "350.00", resp.AmountPaid.StringFixed(2))
	assert.True(t, resp.RemainingBalance.IsZero())
	assert.NotEmpty(t, resp.PaidAt)

	_, err = h.invoices.MarkAsPaid(ctx, inv.ID, dto.MarkInvoicePaidRequest{})
	assert.True(t, domain.IsInvalidOperation(err), "una factura pagada no se vuelve a marcar")
}

func TestInvoiceMarkAsPaid_ConMetodoRegistraElPago(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	metodo := h.seedMethod(t, "transferencia", false)

	inv := h.createInvoice(t, "1000.00")
	_, err := h.payments.Record(ctx, inv.ID, dto.RecordPaymentRequest{
		MethodID: metodo.ID, Amount: dec("400.00"), PaymentDate: "2025-05-09",
	})
	require.NoError(t, err)

	resp, err := h.invoices.MarkAsPaid(ctx, inv.ID, dto.MarkInvoicePaidRequest{MethodID: metodo.ID})
	require.NoError(t, err)
	assert.Equal(t, "paid", resp.Status)

	// El saldo se cubrió con un pago real, no con un ajuste de montos.
	pagos, err := h.payments.ListByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, pagos, 2)
	assert.Equal(t, "600.00", pagos[1].Amount.StringFixed(2))
}

func TestInvoiceMarkAsPaid_AnuladaNoSePaga(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	inv := h.createInvoice(t, "100.00")
	anulada := "canceled"
	_, err := h.invoices.Update(ctx, inv.ID, dto.UpdateInvoiceRequest{Status: &anulada})
	require.NoError(t, err)

	_, err = h.invoices.MarkAsPaid(ctx, inv.ID, dto.MarkInvoicePaidRequest{})
	assert.True(t, domain.IsInvalidOperation(err))
}

func TestInvoiceList_FiltraPorEstadoYPagina(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.createInvoice(t, "100.00")
	h.createInvoice(t, "200.00")
	_, err := h.invoices.Create(ctx, dto.CreateInvoiceRequest{
		ClientID: clienteAcme,
		Title:    "Borrador",
		Status:   "draft",
		DueDate:  "2025-05-20",
		Items: []dto.InvoiceItemRequest{
			{Description: "Honorarios", Quantity: dec("1"), UnitPrice: dec("50.00"), TaxRate: dec("0")},
		},
	})
	require.NoError(t, err)

	pendientes, err := h.invoices.List(ctx, dto.ListInvoicesRequest{Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, pendientes.Invoices, 2)
	assert.Equal(t, 2, pendientes.Page.Total)

	pagina, err := h.invoices.List(ctx, dto.ListInvoicesRequest{
		PageRequest: dto.PageRequest{Limit: 2},
	})
	require.NoError(t, err)
	assert.Len(t, pagina.Invoices, 2)
	assert.Equal(t, 3, pagina.Page.Total)

	_, err = h.invoices.List(ctx, dto.ListInvoicesRequest{Status: "inventado"})
	assert.True(t, domain.IsValidation(err))
}
