package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// CreateInvoiceRequest body para POST /api/invoices. Number vacío genera el
// consecutivo; Status vacío crea en pending (draft si se pide explícito).
type CreateInvoiceRequest struct {
	ClientID    string               `json:"client_id"`
	EstimateID  string               `json:"estimate_id,omitempty"`
	Number      string               `json:"number,omitempty"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Status      string               `json:"status,omitempty"`
	DueDate     string               `json:"due_date"`
	Items       []InvoiceItemRequest `json:"items"`
}

// InvoiceItemRequest línea de factura. TaxRate es porcentaje (19 = 19%).
type InvoiceItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// UpdateInvoiceRequest body para PUT /api/invoices/:id. Punteros nil no tocan
// el campo; Items nil conserva las líneas actuales.
type UpdateInvoiceRequest struct {
	Title       *string              `json:"title,omitempty"`
	Description *string              `json:"description,omitempty"`
	DueDate     *string              `json:"due_date,omitempty"`
	Status      *string              `json:"status,omitempty"`
	Items       []InvoiceItemRequest `json:"items,omitempty"`
}

// MarkInvoicePaidRequest body para POST /api/invoices/:id/mark-paid.
type MarkInvoicePaidRequest struct {
	MethodID    string `json:"method_id,omitempty"`
	PaymentDate string `json:"payment_date,omitempty"`
	Reference   string `json:"reference,omitempty"`
}

// ListInvoicesRequest filtros de GET /api/invoices.
type ListInvoicesRequest struct {
	PageRequest
	ClientID string `query:"client_id"`
	Status   string `query:"status"`
	DateFrom string `query:"date_from"`
	DateTo   string `query:"date_to"`
	DueFrom  string `query:"due_from"`
	DueTo    string `query:"due_to"`
}

// InvoiceResponse factura con líneas para respuestas.
type InvoiceResponse struct {
	ID               string                `json:"id"`
	ClientID         string                `json:"client_id"`
	ClientName       string                `json:"client_name,omitempty"`
	EstimateID       string                `json:"estimate_id,omitempty"`
	Number           string                `json:"number"`
	Title            string                `json:"title"`
	Description      string                `json:"description,omitempty"`
	Status           string                `json:"status"`
	TotalAmount      decimal.Decimal       `json:"total_amount"`
	AmountPaid       decimal.Decimal       `json:"amount_paid"`
	RemainingBalance decimal.Decimal       `json:"remaining_balance"`
	DueDate          string                `json:"due_date"`
	PaidAt           string                `json:"paid_at,omitempty"`
	CreatedAt        string                `json:"created_at"`
	UpdatedAt        string                `json:"updated_at"`
	Items            []InvoiceItemResponse `json:"items"`
}

// InvoiceItemResponse línea de factura en respuestas.
type InvoiceItemResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Amount      decimal.Decimal `json:"amount"`
	IsLateFee   bool            `json:"is_late_fee,omitempty"`
}

// InvoiceListResponse página de facturas.
type InvoiceListResponse struct {
	Invoices []*InvoiceResponse `json:"invoices"`
	Page     PageResponse       `json:"page"`
}

// InvoiceResponseFrom mapea la entidad (con líneas cargadas) a la respuesta.
func InvoiceResponseFrom(inv *entity.Invoice) *InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, InvoiceItemResponse{
			ID:          it.ID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			Amount:      it.Amount,
			IsLateFee:   it.IsLateFee,
		})
	}
	return &InvoiceResponse{
		ID:               inv.ID,
		ClientID:         inv.ClientID,
		EstimateID:       inv.EstimateID,
		Number:           inv.Number,
		Title:            inv.Title,
		Description:      inv.Description,
		Status:           inv.Status.String(),
		TotalAmount:      inv.TotalAmount,
		AmountPaid:       inv.AmountPaid,
		RemainingBalance: inv.RemainingBalance(),
		DueDate:          FormatDate(inv.DueDate),
		PaidAt:           FormatTime(inv.PaidAt),
		CreatedAt:        inv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        inv.UpdatedAt.Format(time.RFC3339),
		Items:            items,
	}
}
