package billing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// ItemAmount importe de una línea (servicio de dominio).
// Amount = Cantidad × PrecioUnitario × (1 + TasaImpuesto/100), redondeado a 2 decimales.
func ItemAmount(quantity, unitPrice, taxRate decimal.Decimal) decimal.Decimal {
	base := quantity.Mul(unitPrice)
	factor := decimal.NewFromInt(1).Add(taxRate.Div(hundred))
	return base.Mul(factor).Round(2)
}

// InvoiceTotal suma de los importes de las líneas.
func InvoiceTotal(items []entity.InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}

// LateFee importe del recargo por mora: porcentaje del total de la factura o
// monto fijo según el tipo, redondeado a 2 decimales.
func LateFee(feeType entity.LateFeeType, amount, invoiceTotal decimal.Decimal) decimal.Decimal {
	if feeType == entity.LateFeeTypePercentage {
		return invoiceTotal.Mul(amount).Div(hundred).Round(2)
	}
	return amount.Round(2)
}

// InstallmentSplit reparte un saldo en n cuotas que suman exactamente el saldo:
// n−1 cuotas iguales truncadas a 2 decimales y la última absorbe el residuo.
func InstallmentSplit(remaining decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	parts := make([]decimal.Decimal, n)
	base := remaining.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	acc := decimal.Zero
	for i := 0; i < n-1; i++ {
		parts[i] = base
		acc = acc.Add(base)
	}
	parts[n-1] = remaining.Sub(acc)
	return parts
}
