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
// Catálogo de métodos de pago: nombre único y borrado seguro (un método con
// pagos solo se desactiva, el historial contable no pierde su referencia).
// ──────────────────────────────────────────────────────────────────────────────

func TestMethodCreate_NombreUnico(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	creado, err := h.methods.Create(ctx, dto.PaymentMethodRequest{Name: "efectivo"})
	require.NoError(t, err)
	assert.True(t, creado.IsActive, "activo por defecto")

	_, err = h.methods.Create(ctx, dto.PaymentMethodRequest{Name: "efectivo"})
	assert.True(t, domain.IsDuplicate(err))

	_, err = h.methods.Create(ctx, dto.PaymentMethodRequest{})
	require.True(t, domain.IsValidation(err))
	assert.Contains(t, domain.FieldsOf(err), "name")
}

func TestMethodCreate_RespetaBanderaInactiva(t *testing.T) {
	h := newHarness(t)
	inactivo := false

	creado, err := h.methods.Create(context.Background(), dto.PaymentMethodRequest{
		Name:     "pasarela vieja",
		IsActive: &inactivo,
	})
	require.NoError(t, err)
	assert.False(t, creado.IsActive)
}

func TestMethodUpdate_RenombradoConChoque(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.methods.Create(ctx, dto.PaymentMethodRequest{Name: "efectivo"})
	require.NoError(t, err)
	tarjeta, err := h.methods.Create(ctx, dto.PaymentMethodRequest{Name: "tarjeta"})
	require.NoError(t, err)

	_, err = h.methods.Update(ctx, tarjeta.ID, dto.PaymentMethodRequest{Name: "efectivo"})
	assert.True(t, domain.IsDuplicate(err))

	renombrado, err := h.methods.Update(ctx, tarjeta.ID, dto.PaymentMethodRequest{
		Name:                 "tarjeta corporativa",
		RequiresConfirmation: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "tarjeta corporativa", renombrado.Name)
	assert.True(t, renombrado.RequiresConfirmation)
}

func TestMethodDelete_ConPagosSoloDesactiva(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	metodo := h.seedMethod(t, "transferencia", false)
	inv := h.createInvoice(t, "100.00")
	h.recordPayment(t, inv.ID, metodo.ID, "100.00")

	res, err := h.methods.Delete(ctx, metodo.ID)
	require.NoError(t, err)
	assert.True(t, res.Deactivated)
	assert.False(t, res.Deleted)

	// Desaparece del catálogo activo pero sigue existiendo.
	activos, err := h.methods.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, activos)
	todos, err := h.methods.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.False(t, todos[0].IsActive)

	// El pago conserva su referencia al método.
	pagos, err := h.payments.ListByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, pagos, 1)
	assert.Equal(t, metodo.ID, pagos[0].MethodID)
}

func TestMethodDelete_SinPagosElimina(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	metodo := h.seedMethod(t, "paypal", false)

	res, err := h.methods.Delete(ctx, metodo.ID)
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.False(t, res.Deactivated)

	_, err = h.methods.Delete(ctx, metodo.ID)
	assert.True(t, domain.IsNotFound(err))
}
