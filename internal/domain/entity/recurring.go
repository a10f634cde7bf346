package entity

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/domain"
)

// RecurringFrequency frecuencia de generación de una plantilla recurrente.
type RecurringFrequency string

const (
	FrequencyDaily     RecurringFrequency = "daily"
	FrequencyWeekly    RecurringFrequency = "weekly"
	FrequencyMonthly   RecurringFrequency = "monthly"
	FrequencyQuarterly RecurringFrequency = "quarterly"
	FrequencyYearly    RecurringFrequency = "yearly"
)

func (f RecurringFrequency) String() string { return string(f) }

// Validate rechaza frecuencias fuera del conjunto cerrado.
func (f RecurringFrequency) Validate() error {
	valid := []RecurringFrequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly}
	if !lo.Contains(valid, f) {
		return domain.NewError("frecuencia inválida: %s", f).
			WithHint("frecuencias válidas: daily, weekly, monthly, quarterly, yearly").
			Mark(domain.ErrValidation)
	}
	return nil
}

// RecurringStatus estado de una plantilla recurrente.
type RecurringStatus string

const (
	RecurringStatusActive    RecurringStatus = "active"
	RecurringStatusCompleted RecurringStatus = "completed"
	RecurringStatusCanceled  RecurringStatus = "canceled"
)

func (s RecurringStatus) String() string { return string(s) }

// Validate rechaza estados fuera del conjunto cerrado.
func (s RecurringStatus) Validate() error {
	valid := []RecurringStatus{RecurringStatusActive, RecurringStatusCompleted, RecurringStatusCanceled}
	if !lo.Contains(valid, s) {
		return domain.NewError("estado de plantilla inválido: %s", s).Mark(domain.ErrValidation)
	}
	return nil
}

// RecurringTemplate plantilla que genera facturas concretas en cada ocurrencia.
// NextDate avanza un periodo por generación (aritmética de calendario con
// ajuste a fin de mes); al superar EndDate la plantilla pasa a completed.
type RecurringTemplate struct {
	ID          string
	ClientID    string
	Title       string
	Description string
	Frequency   RecurringFrequency
	Interval    int // multiplicador de la frecuencia (cada N periodos)
	NextDate    time.Time
	EndDate     *time.Time
	DueDays     int // vencimiento de la factura generada: hoy + DueDays
	AutoSend    bool
	Status      RecurringStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []RecurringItem
}

// RecurringItem línea plantilla; se copia a cada factura generada.
type RecurringItem struct {
	ID          string
	TemplateID  string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	Position    int
}

// RecurringGeneration registro histórico plantilla → factura generada.
type RecurringGeneration struct {
	ID          string
	TemplateID  string
	InvoiceID   string
	GeneratedAt time.Time
}
