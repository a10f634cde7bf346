package billing

import "fmt"

// InvoiceNumber consecutivo legible de factura: INV-YYYY-NNNN.
func InvoiceNumber(year, seq int) string {
	return fmt.Sprintf("INV-%04d-%04d", year, seq)
}
