package billing

import (
	"time"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// ReminderDecision resultado de evaluar la política de recordatorios.
type ReminderDecision struct {
	Send   bool
	Tier   entity.ReminderTier
	Reason string // por qué no se envía (vacío cuando Send es true)
}

// TierForCount nivel según recordatorios ya registrados: el primero es
// gentle, el segundo y el tercero firm, del cuarto en adelante urgent.
func TierForCount(sent int) entity.ReminderTier {
	switch {
	case sent <= 0:
		return entity.ReminderTierGentle
	case sent <= 2:
		return entity.ReminderTierFirm
	default:
		return entity.ReminderTierUrgent
	}
}

// NextReminder evalúa la política de escalamiento para una factura vencida.
// Sin recordatorios previos se envía gentle solo pasado el periodo de gracia;
// alcanzado max_reminders no se envía más; dentro de la ventana de frecuencia
// desde el último intento se espera; si no, escala según el conteo previo.
// Todos los registros cuentan (exitosos o no): un intento fallido consumió su
// turno de escalamiento y sigue visible para el operador.
func NextReminder(daysOverdue int, logs []*entity.ReminderLog, cfg *entity.OverdueConfig, today time.Time) ReminderDecision {
	if len(logs) == 0 {
		if daysOverdue > cfg.GracePeriodDays {
			return ReminderDecision{Send: true, Tier: entity.ReminderTierGentle}
		}
		return ReminderDecision{Reason: "dentro del periodo de gracia"}
	}
	if len(logs) >= cfg.MaxReminders {
		return ReminderDecision{Reason: "máximo de recordatorios alcanzado"}
	}
	last := logs[0].SentAt
	for _, l := range logs[1:] {
		if l.SentAt.After(last) {
			last = l.SentAt
		}
	}
	if CalendarDays(last, today) < cfg.ReminderFrequencyDays {
		return ReminderDecision{Reason: "dentro de la ventana de frecuencia"}
	}
	return ReminderDecision{Send: true, Tier: TierForCount(len(logs))}
}
