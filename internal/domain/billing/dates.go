package billing

import (
	"time"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// day normaliza un instante a su fecha de calendario (UTC, medianoche).
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalendarDays diferencia en días de calendario entre dos instantes (to − from).
// Ignora la hora del día; puede ser negativa si to es anterior.
func CalendarDays(from, to time.Time) int {
	return int(day(to).Sub(day(from)).Hours() / 24)
}

// DaysOverdue días de mora de una factura: 0 si aún no vence (incluido el
// mismo día del vencimiento), la diferencia de calendario después.
func DaysOverdue(dueDate, today time.Time) int {
	d := CalendarDays(dueDate, today)
	if d < 0 {
		return 0
	}
	return d
}

// IsPastDue indica si la fecha de vencimiento ya quedó en el pasado.
func IsPastDue(dueDate, today time.Time) bool {
	return DaysOverdue(dueDate, today) > 0
}

// NextOccurrence avanza una fecha un periodo según frecuencia e intervalo.
// daily/weekly suman días fijos; monthly/quarterly/yearly desplazan meses o
// años con ajuste a fin de mes: 2025-01-31 + 1 mes = 2025-02-28, nunca una
// fecha inválida ni un desborde al mes siguiente.
func NextOccurrence(from time.Time, frequency entity.RecurringFrequency, interval int) time.Time {
	if interval < 1 {
		interval = 1
	}
	switch frequency {
	case entity.FrequencyDaily:
		return from.AddDate(0, 0, interval)
	case entity.FrequencyWeekly:
		return from.AddDate(0, 0, 7*interval)
	case entity.FrequencyMonthly:
		return addClampedMonths(from, interval)
	case entity.FrequencyQuarterly:
		return addClampedMonths(from, 3*interval)
	case entity.FrequencyYearly:
		return addClampedMonths(from, 12*interval)
	}
	return from
}

// addClampedMonths suma meses anclándose al día 1 para evitar la
// normalización de AddDate (ene-31 + 1 mes = mar-3) y ajusta el día al último
// del mes destino cuando el original no existe en él.
func addClampedMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	target := first.AddDate(0, months, 0)
	if last := lastDayOfMonth(target); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, 0, 0, 0, 0, t.Location())
}

// lastDayOfMonth último día del mes del instante dado.
func lastDayOfMonth(t time.Time) int {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}
