package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// ComputeStatus deriva el estado de una factura a partir de sus montos y su
// vencimiento (función pura; se invoca tras cada mutación de pagos y en el
// barrido de mora). Reglas, en orden:
//  1. canceled es terminal: nunca cambia.
//  2. pagado completo (total > 0) ⇒ paid.
//  3. con pagos parciales: vencida ⇒ overdue; si no ⇒ partial.
//  4. sin pagos: sent vencida ⇒ overdue; paid/partial/overdue que perdieron
//     sus pagos retroceden a pending (u overdue si ya venció); draft y
//     pending nunca escalan solas.
func ComputeStatus(current entity.InvoiceStatus, total, paid decimal.Decimal, dueDate, today time.Time) entity.InvoiceStatus {
	if current == entity.InvoiceStatusCanceled {
		return current
	}
	if total.GreaterThan(decimal.Zero) && paid.GreaterThanOrEqual(total) {
		return entity.InvoiceStatusPaid
	}
	pastDue := IsPastDue(dueDate, today)
	if paid.GreaterThan(decimal.Zero) {
		if pastDue {
			return entity.InvoiceStatusOverdue
		}
		return entity.InvoiceStatusPartial
	}
	switch current {
	case entity.InvoiceStatusPaid, entity.InvoiceStatusPartial, entity.InvoiceStatusOverdue:
		if pastDue {
			return entity.InvoiceStatusOverdue
		}
		return entity.InvoiceStatusPending
	case entity.InvoiceStatusSent:
		if pastDue {
			return entity.InvoiceStatusOverdue
		}
		return current
	default:
		return current
	}
}

// CanTransition valida las transiciones manuales del ciclo de vida (las
// derivadas por pagos no pasan por aquí): draft→pending, pending→sent y
// pending→canceled.
func CanTransition(from, to entity.InvoiceStatus) bool {
	switch from {
	case entity.InvoiceStatusDraft:
		return to == entity.InvoiceStatusPending
	case entity.InvoiceStatusPending:
		return to == entity.InvoiceStatusSent || to == entity.InvoiceStatusCanceled
	}
	return false
}
