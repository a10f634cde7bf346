package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// RecordPaymentRequest body para POST /api/invoices/:id/payments y
// POST /api/installments/:id/pay (la factura o cuota va en la ruta).
type RecordPaymentRequest struct {
	MethodID    string          `json:"method_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date,omitempty"`
	Reference   string          `json:"reference,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

// UpdatePaymentRequest body para PUT /api/payments/:id. Solo metadatos: el
// monto de un pago registrado no se edita, se elimina y se registra de nuevo.
type UpdatePaymentRequest struct {
	MethodID    *string `json:"method_id,omitempty"`
	PaymentDate *string `json:"payment_date,omitempty"`
	Reference   *string `json:"reference,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// PaymentResponse pago en respuestas.
type PaymentResponse struct {
	ID          string          `json:"id"`
	InvoiceID   string          `json:"invoice_id"`
	MethodID    string          `json:"method_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"`
	Reference   string          `json:"reference,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	Confirmed   bool            `json:"confirmed"`
	ConfirmedAt string          `json:"confirmed_at,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

// RecordPaymentResponse pago registrado junto con la factura actualizada.
// Notified informa si el aviso posterior al commit salió; su falla nunca
// revierte el pago.
type RecordPaymentResponse struct {
	Payment     *PaymentResponse `json:"payment"`
	Invoice     *InvoiceResponse `json:"invoice"`
	Notified    bool             `json:"notified"`
	NotifyError string           `json:"notify_error,omitempty"`
}

// PaymentResponseFrom mapea la entidad a la respuesta.
func PaymentResponseFrom(p *entity.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:          p.ID,
		InvoiceID:   p.InvoiceID,
		MethodID:    p.MethodID,
		Amount:      p.Amount,
		PaymentDate: FormatDate(p.PaymentDate),
		Reference:   p.Reference,
		Notes:       p.Notes,
		Confirmed:   p.Confirmed,
		ConfirmedAt: FormatTime(p.ConfirmedAt),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

// ── métodos de pago ───────────────────────────────────────────────────────────

// PaymentMethodRequest body para crear/actualizar un método de pago.
type PaymentMethodRequest struct {
	Name                 string `json:"name"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	IsActive             *bool  `json:"is_active,omitempty"`
}

// PaymentMethodResponse método de pago en respuestas.
type PaymentMethodResponse struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	IsActive             bool   `json:"is_active"`
}

// PaymentMethodResponseFrom mapea la entidad a la respuesta.
func PaymentMethodResponseFrom(m *entity.PaymentMethod) *PaymentMethodResponse {
	return &PaymentMethodResponse{
		ID:                   m.ID,
		Name:                 m.Name,
		RequiresConfirmation: m.RequiresConfirmation,
		IsActive:             m.IsActive,
	}
}

// DeleteMethodResponse informa si el método se borró o solo se desactivó
// (cuando hay pagos que lo referencian).
type DeleteMethodResponse struct {
	Deleted     bool `json:"deleted"`
	Deactivated bool `json:"deactivated"`
}

// ── planes de pago ────────────────────────────────────────────────────────────

// CreatePaymentPlanRequest body para POST /api/invoices/:id/payment-plan.
// O se piden Count cuotas generadas (reparto automático del saldo desde
// FirstDueDate cada IntervalDays días), o se mandan cuotas explícitas cuya
// suma debe igualar el saldo exacto.
type CreatePaymentPlanRequest struct {
	Count        int                      `json:"count,omitempty"`
	FirstDueDate string                   `json:"first_due_date,omitempty"`
	IntervalDays int                      `json:"interval_days,omitempty"`
	Installments []PlanInstallmentRequest `json:"installments,omitempty"`
}

// PlanInstallmentRequest cuota explícita al crear un plan.
type PlanInstallmentRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	DueDate string          `json:"due_date"`
}

// InstallmentResponse cuota en respuestas.
type InstallmentResponse struct {
	ID       string          `json:"id"`
	Position int             `json:"position"`
	Amount   decimal.Decimal `json:"amount"`
	DueDate  string          `json:"due_date"`
	Status   string          `json:"status"`
	PaidAt   string          `json:"paid_at,omitempty"`
}

// PaymentPlanResponse plan con cuotas en respuestas.
type PaymentPlanResponse struct {
	ID                string                `json:"id"`
	InvoiceID         string                `json:"invoice_id"`
	Status            string                `json:"status"`
	InstallmentsTotal int                   `json:"installments_total"`
	InstallmentsPaid  int                   `json:"installments_paid"`
	Installments      []InstallmentResponse `json:"installments"`
}

// PaymentPlanResponseFrom mapea el plan (con cuotas cargadas) a la respuesta.
func PaymentPlanResponseFrom(plan *entity.PaymentPlan) *PaymentPlanResponse {
	insts := make([]InstallmentResponse, 0, len(plan.Installments))
	for _, in := range plan.Installments {
		insts = append(insts, InstallmentResponse{
			ID:       in.ID,
			Position: in.Position,
			Amount:   in.Amount,
			DueDate:  FormatDate(in.DueDate),
			Status:   in.Status.String(),
			PaidAt:   FormatTime(in.PaidAt),
		})
	}
	return &PaymentPlanResponse{
		ID:                plan.ID,
		InvoiceID:         plan.InvoiceID,
		Status:            plan.Status.String(),
		InstallmentsTotal: plan.InstallmentsTotal,
		InstallmentsPaid:  plan.InstallmentsPaid,
		Installments:      insts,
	}
}
