package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// OverdueInvoiceResponse factura vencida anotada con mora y saldo.
type OverdueInvoiceResponse struct {
	*InvoiceResponse
	DaysOverdue int `json:"days_overdue"`
}

// ListOverdueRequest filtros de GET /api/overdue.
type ListOverdueRequest struct {
	ClientID string `query:"client_id"`
	MinDays  int    `query:"min_days"`
}

// SendReminderRequest body opcional de POST /api/invoices/:id/reminder.
// Tier vacío deja que la política de escalamiento decida.
type SendReminderRequest struct {
	Tier string `json:"tier,omitempty"`
}

// ApplyLateFeeRequest body opcional de POST /api/invoices/:id/late-fee.
// Campos nil usan la configuración global vigente.
type ApplyLateFeeRequest struct {
	Type   *string          `json:"type,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// SendReminderResponse resultado de evaluar y, si aplica, enviar recordatorio.
// Reason explica por qué no se envió; Error trae la falla de entrega cuando
// sí se intentó (la operación no falla por eso).
type SendReminderResponse struct {
	Sent   bool   `json:"sent"`
	Tier   string `json:"tier,omitempty"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// OverdueConfigRequest body para PUT /api/overdue/config.
type OverdueConfigRequest struct {
	GracePeriodDays       int             `json:"grace_period_days"`
	ReminderFrequencyDays int             `json:"reminder_frequency_days"`
	MaxReminders          int             `json:"max_reminders"`
	LateFeeType           string          `json:"late_fee_type"`
	LateFeeAmount         decimal.Decimal `json:"late_fee_amount"`
	AutoLateFee           bool            `json:"auto_late_fee"`
}

// OverdueConfigResponse configuración de cobranza en respuestas.
type OverdueConfigResponse struct {
	GracePeriodDays       int             `json:"grace_period_days"`
	ReminderFrequencyDays int             `json:"reminder_frequency_days"`
	MaxReminders          int             `json:"max_reminders"`
	LateFeeType           string          `json:"late_fee_type"`
	LateFeeAmount         decimal.Decimal `json:"late_fee_amount"`
	AutoLateFee           bool            `json:"auto_late_fee"`
}

// OverdueConfigResponseFrom mapea la configuración a la respuesta.
func OverdueConfigResponseFrom(cfg *entity.OverdueConfig) *OverdueConfigResponse {
	return &OverdueConfigResponse{
		GracePeriodDays:       cfg.GracePeriodDays,
		ReminderFrequencyDays: cfg.ReminderFrequencyDays,
		MaxReminders:          cfg.MaxReminders,
		LateFeeType:           cfg.LateFeeType.String(),
		LateFeeAmount:         cfg.LateFeeAmount,
		AutoLateFee:           cfg.AutoLateFee,
	}
}

// AgingBucketResponse tramo de antigüedad en las estadísticas.
type AgingBucketResponse struct {
	Label       string          `json:"label"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// OverdueStatisticsResponse tablero de cartera vencida.
type OverdueStatisticsResponse struct {
	Count       int                   `json:"count"`
	TotalAmount decimal.Decimal       `json:"total_amount"`
	Buckets     []AgingBucketResponse `json:"buckets"`
}

// ReminderLogResponse registro del historial de recordatorios.
type ReminderLogResponse struct {
	ID          string `json:"id"`
	InvoiceID   string `json:"invoice_id"`
	Tier        string `json:"tier"`
	SentAt      string `json:"sent_at"`
	Success     bool   `json:"success"`
	ErrorDetail string `json:"error_detail,omitempty"`
}

// ReminderLogResponseFrom mapea el registro a la respuesta.
func ReminderLogResponseFrom(l *entity.ReminderLog) *ReminderLogResponse {
	return &ReminderLogResponse{
		ID:          l.ID,
		InvoiceID:   l.InvoiceID,
		Tier:        l.Tier.String(),
		SentAt:      FormatTime(&l.SentAt),
		Success:     l.Success,
		ErrorDetail: l.ErrorDetail,
	}
}

// ProcessOverdueResponse saldo del barrido de cobranza.
type ProcessOverdueResponse struct {
	Processed     int      `json:"processed"`
	RemindersSent int      `json:"reminders_sent"`
	FeesApplied   int      `json:"fees_applied"`
	Failed        int      `json:"failed"`
	Errors        []string `json:"errors,omitempty"`
}
