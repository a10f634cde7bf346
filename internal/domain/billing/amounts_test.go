package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billing-core/internal/domain/billing"
	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Importes: línea = cantidad × precio × (1 + IVA/100) a 2 decimales; las cuotas
// de un plan deben sumar exactamente el saldo repartido (ley de conservación).
// ──────────────────────────────────────────────────────────────────────────────

func TestItemAmount(t *testing.T) {
	cases := []struct {
		name     string
		qty      string
		price    string
		tax      string
		expected string
	}{
		{"sin impuesto", "2", "100.00", "0", "200.00"},
		{"IVA 19", "2", "100.00", "19", "238.00"},
		{"cantidad fraccionaria", "1.5", "10.00", "0", "15.00"},
		{"redondeo a 2 decimales", "3", "0.333", "0", "1.00"},
		{"precio con centavos e IVA", "1", "99.99", "19", "118.99"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := billing.ItemAmount(dec(tc.qty), dec(tc.price), dec(tc.tax))
			assert.Equal(t, tc.expected, got.StringFixed(2))
		})
	}
}

func TestInvoiceTotal_SumaLineas(t *testing.T) {
	items := []entity.InvoiceItem{
		{Amount: dec("238.00")},
		{Amount: dec("15.00")},
		{Amount: dec("0.50")},
	}
	assert.Equal(t, "253.50", billing.InvoiceTotal(items).StringFixed(2))
}

func TestInvoiceTotal_SinLineasEsCero(t *testing.T) {
	assert.True(t, billing.InvoiceTotal(nil).IsZero())
}

// ── recargos por mora ─────────────────────────────────────────────────────────

func TestLateFee_Porcentaje(t *testing.T) {
	fee := billing.LateFee(entity.LateFeeTypePercentage, dec("5"), dec("1000.00"))
	assert.Equal(t, "50.00", fee.StringFixed(2), "5% de 1000 debe ser 50.00")
}

func TestLateFee_PorcentajeRedondea(t *testing.T) {
	fee := billing.LateFee(entity.LateFeeTypePercentage, dec("2.5"), dec("999.99"))
	assert.Equal(t, "25.00", fee.StringFixed(2), "24.999750 debe redondear a 25.00")
}

func TestLateFee_Fijo(t *testing.T) {
	fee := billing.LateFee(entity.LateFeeTypeFixed, dec("25.00"), dec("1000.00"))
	assert.Equal(t, "25.00", fee.StringFixed(2))
}

// ── reparto en cuotas ─────────────────────────────────────────────────────────

func TestInstallmentSplit_SumaExacta(t *testing.T) {
	cases := []struct {
		name      string
		remaining string
		n         int
		expected  []string
	}{
		{"divide exacto", "900.00", 3, []string{"300.00", "300.00", "300.00"}},
		{"residuo a la última", "1000.00", 3, []string{"333.33", "333.33", "333.34"}},
		{"dos cuotas impares", "0.03", 2, []string{"0.01", "0.02"}},
		{"una sola cuota", "450.75", 1, []string{"450.75"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parts := billing.InstallmentSplit(dec(tc.remaining), tc.n)
			require.Len(t, parts, tc.n)

			sum := decimal.Zero
			for i, p := range parts {
				assert.Equal(t, tc.expected[i], p.StringFixed(2))
				sum = sum.Add(p)
			}
			assert.True(t, sum.Equal(dec(tc.remaining)),
				"las cuotas deben sumar exactamente el saldo: %s != %s", sum, tc.remaining)
		})
	}
}

func TestInstallmentSplit_NInvalido(t *testing.T) {
	assert.Nil(t, billing.InstallmentSplit(dec("100.00"), 0))
	assert.Nil(t, billing.InstallmentSplit(dec("100.00"), -1))
}

func TestInvoiceNumber_Formato(t *testing.T) {
	assert.Equal(t, "INV-2025-0001", billing.InvoiceNumber(2025, 1))
	assert.Equal(t, "INV-2025-0042", billing.InvoiceNumber(2025, 42))
	assert.Equal(t, "INV-2026-10000", billing.InvoiceNumber(2026, 10000))
}
