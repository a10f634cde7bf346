package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billing-core/internal/domain/billing"
	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Política de recordatorios: gracia antes del primero, ventana de frecuencia
// entre envíos, tope de max_reminders y escalamiento gentle → firm → urgent.
// ──────────────────────────────────────────────────────────────────────────────

func politicaDePrueba() *entity.OverdueConfig {
	return &entity.OverdueConfig{
		GracePeriodDays:       3,
		ReminderFrequencyDays: 3,
		MaxReminders:          3,
	}
}

func TestNextReminder_PrimerRecordatorioPasadaLaGracia(t *testing.T) {
	d := billing.NextReminder(5, nil, politicaDePrueba(), fecha("2025-03-10"))

	require.True(t, d.Send, "con 5 días de mora y gracia de 3 debe enviarse")
	assert.Equal(t, entity.ReminderTierGentle, d.Tier)
	assert.Empty(t, d.Reason)
}

func TestNextReminder_DentroDelPeriodoDeGracia(t *testing.T) {
	cases := []struct {
		name        string
		daysOverdue int
	}{
		{"sin mora", 0},
		{"mora menor que la gracia", 2},
		{"mora igual a la gracia", 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := billing.NextReminder(tc.daysOverdue, nil, politicaDePrueba(), fecha("2025-03-10"))

			assert.False(t, d.Send)
			assert.Equal(t, "dentro del periodo de gracia", d.Reason)
		})
	}
}

func TestNextReminder_MaximoDeRecordatoriosAlcanzado(t *testing.T) {
	logs := []*entity.ReminderLog{
		registro("2025-03-01", entity.ReminderTierGentle, true),
		registro("2025-03-04", entity.ReminderTierFirm, true),
		registro("2025-03-07", entity.ReminderTierFirm, true),
	}

	d := billing.NextReminder(20, logs, politicaDePrueba(), fecha("2025-03-20"))

	assert.False(t, d.Send)
	assert.Equal(t, "máximo de recordatorios alcanzado", d.Reason)
}

func TestNextReminder_DentroDeLaVentanaDeFrecuencia(t *testing.T) {
	logs := []*entity.ReminderLog{
		registro("2025-03-08", entity.ReminderTierGentle, true),
	}

	d := billing.NextReminder(7, logs, politicaDePrueba(), fecha("2025-03-10"))

	assert.False(t, d.Send, "pasaron 2 días y la frecuencia es 3")
	assert.Equal(t, "dentro de la ventana de frecuencia", d.Reason)
}

func TestNextReminder_VentanaUsaElRegistroMasReciente(t *testing.T) {
	// Desordenados a propósito: el más nuevo manda aunque no venga primero.
	logs := []*entity.ReminderLog{
		registro("2025-03-01", entity.ReminderTierGentle, true),
		registro("2025-03-08", entity.ReminderTierFirm, true),
	}

	d := billing.NextReminder(9, logs, politicaDePrueba(), fecha("2025-03-09"))

	assert.False(t, d.Send)
	assert.Equal(t, "dentro de la ventana de frecuencia", d.Reason)
}

func TestNextReminder_EscalaSegunConteoPrevio(t *testing.T) {
	cfg := politicaDePrueba()
	cfg.MaxReminders = 10

	cases := []struct {
		name     string
		logs     []*entity.ReminderLog
		expected entity.ReminderTier
	}{
		{
			"segundo recordatorio es firm",
			[]*entity.ReminderLog{registro("2025-03-01", entity.ReminderTierGentle, true)},
			entity.ReminderTierFirm,
		},
		{
			"tercer recordatorio sigue firm",
			[]*entity.ReminderLog{
				registro("2025-03-01", entity.ReminderTierGentle, true),
				registro("2025-03-04", entity.ReminderTierFirm, true),
			},
			entity.ReminderTierFirm,
		},
		{
			"cuarto recordatorio es urgent",
			[]*entity.ReminderLog{
				registro("2025-03-01", entity.ReminderTierGentle, true),
				registro("2025-03-04", entity.ReminderTierFirm, true),
				registro("2025-03-07", entity.ReminderTierFirm, true),
			},
			entity.ReminderTierUrgent,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := billing.NextReminder(15, tc.logs, cfg, fecha("2025-03-20"))

			require.True(t, d.Send)
			assert.Equal(t, tc.expected, d.Tier)
		})
	}
}

func TestNextReminder_IntentosFallidosTambienCuentan(t *testing.T) {
	cfg := politicaDePrueba()
	logs := []*entity.ReminderLog{
		registro("2025-03-01", entity.ReminderTierGentle, false),
	}

	d := billing.NextReminder(10, logs, cfg, fecha("2025-03-10"))

	require.True(t, d.Send)
	assert.Equal(t, entity.ReminderTierFirm, d.Tier,
		"un intento fallido consume su turno de escalamiento")

	// Y también consumen cupo del máximo.
	logs = append(logs,
		registro("2025-03-04", entity.ReminderTierFirm, false),
		registro("2025-03-07", entity.ReminderTierFirm, false),
	)
	d = billing.NextReminder(15, logs, cfg, fecha("2025-03-15"))
	assert.False(t, d.Send)
	assert.Equal(t, "máximo de recordatorios alcanzado", d.Reason)
}

func TestTierForCount_NuncaRegresa(t *testing.T) {
	previo := billing.TierForCount(0).Rank()
	for sent := 1; sent <= 6; sent++ {
		actual := billing.TierForCount(sent).Rank()
		assert.GreaterOrEqual(t, actual, previo,
			"el nivel no puede bajar al aumentar los envíos (sent=%d)", sent)
		previo = actual
	}
}

func TestTierForCount_Escalera(t *testing.T) {
	assert.Equal(t, entity.ReminderTierGentle, billing.TierForCount(0))
	assert.Equal(t, entity.ReminderTierFirm, billing.TierForCount(1))
	assert.Equal(t, entity.ReminderTierFirm, billing.TierForCount(2))
	assert.Equal(t, entity.ReminderTierUrgent, billing.TierForCount(3))
	assert.Equal(t, entity.ReminderTierUrgent, billing.TierForCount(7))
}

// ── helper ────────────────────────────────────────────────────────────────────

func registro(sentAt string, tier entity.ReminderTier, ok bool) *entity.ReminderLog {
	return &entity.ReminderLog{
		InvoiceID: "inv-1",
		Tier:      tier,
		SentAt:    fecha(sentAt),
		Success:   ok,
		CreatedAt: fecha(sentAt),
	}
}
