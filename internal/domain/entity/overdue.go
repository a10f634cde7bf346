package entity

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/domain"
)

// LateFeeType forma de calcular el recargo por mora.
type LateFeeType string

const (
	LateFeeTypePercentage LateFeeType = "percentage" // porcentaje del total de la factura
	LateFeeTypeFixed      LateFeeType = "fixed"      // monto fijo
)

func (t LateFeeType) String() string { return string(t) }

// Validate rechaza tipos fuera del conjunto cerrado.
func (t LateFeeType) Validate() error {
	valid := []LateFeeType{LateFeeTypePercentage, LateFeeTypeFixed}
	if !lo.Contains(valid, t) {
		return domain.NewError("tipo de recargo inválido: %s", t).
			WithHint("tipos válidos: percentage, fixed").
			Mark(domain.ErrValidation)
	}
	return nil
}

// ReminderTier nivel de escalamiento de un recordatorio de mora.
// La secuencia es gentle→firm→firm→urgent y nunca retrocede.
type ReminderTier string

const (
	ReminderTierGentle ReminderTier = "gentle"
	ReminderTierFirm   ReminderTier = "firm"
	ReminderTierUrgent ReminderTier = "urgent"
)

func (t ReminderTier) String() string { return string(t) }

// Validate rechaza niveles fuera del conjunto cerrado.
func (t ReminderTier) Validate() error {
	valid := []ReminderTier{ReminderTierGentle, ReminderTierFirm, ReminderTierUrgent}
	if !lo.Contains(valid, t) {
		return domain.NewError("nivel de recordatorio inválido: %s", t).Mark(domain.ErrValidation)
	}
	return nil
}

// Rank orden del nivel (gentle < firm < urgent) para comparar escalamientos.
func (t ReminderTier) Rank() int {
	switch t {
	case ReminderTierGentle:
		return 1
	case ReminderTierFirm:
		return 2
	case ReminderTierUrgent:
		return 3
	}
	return 0
}

// OverdueConfig configuración global (fila única) del motor de mora.
type OverdueConfig struct {
	GracePeriodDays       int // días de gracia antes del primer recordatorio
	ReminderFrequencyDays int // días entre escalamientos
	MaxReminders          int
	LateFeeType           LateFeeType
	LateFeeAmount         decimal.Decimal // porcentaje o monto fijo según el tipo
	AutoLateFee           bool            // el barrido aplica recargos automáticamente
	UpdatedAt             time.Time
}

// Validate revisa rangos y enumeraciones de la configuración.
func (c *OverdueConfig) Validate() error {
	b := domain.NewError("configuración de mora inválida")
	invalid := false
	if c.GracePeriodDays < 0 {
		b.WithField("grace_period_days", "debe ser ≥ 0")
		invalid = true
	}
	if c.ReminderFrequencyDays < 1 {
		b.WithField("reminder_frequency_days", "debe ser ≥ 1")
		invalid = true
	}
	if c.MaxReminders < 0 {
		b.WithField("max_reminders", "debe ser ≥ 0")
		invalid = true
	}
	if err := c.LateFeeType.Validate(); err != nil {
		b.WithField("late_fee_type", "tipo inválido")
		invalid = true
	}
	if c.LateFeeAmount.IsNegative() {
		b.WithField("late_fee_amount", "debe ser ≥ 0")
		invalid = true
	}
	if invalid {
		return b.Mark(domain.ErrValidation)
	}
	return nil
}

// ReminderLog registro de un intento de recordatorio (exitoso o no).
type ReminderLog struct {
	ID          string
	InvoiceID   string
	Tier        ReminderTier
	SentAt      time.Time
	Success     bool
	ErrorDetail string
	CreatedAt   time.Time
}
