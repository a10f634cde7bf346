package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// CreateRecurringRequest body para POST /api/recurring.
type CreateRecurringRequest struct {
	ClientID    string                 `json:"client_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Frequency   string                 `json:"frequency"`
	Interval    int                    `json:"interval"`
	StartDate   string                 `json:"start_date"`
	EndDate     string                 `json:"end_date,omitempty"`
	DueDays     int                    `json:"due_days"`
	AutoSend    bool                   `json:"auto_send"`
	Items       []RecurringItemRequest `json:"items"`
}

// RecurringItemRequest línea de plantilla recurrente.
type RecurringItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// UpdateRecurringRequest body para PUT /api/recurring/:id. Punteros nil no
// tocan el campo; Items nil conserva las líneas actuales.
type UpdateRecurringRequest struct {
	Title       *string                `json:"title,omitempty"`
	Description *string                `json:"description,omitempty"`
	Frequency   *string                `json:"frequency,omitempty"`
	Interval    *int                   `json:"interval,omitempty"`
	NextDate    *string                `json:"next_date,omitempty"`
	EndDate     *string                `json:"end_date,omitempty"`
	DueDays     *int                   `json:"due_days,omitempty"`
	AutoSend    *bool                  `json:"auto_send,omitempty"`
	Items       []RecurringItemRequest `json:"items,omitempty"`
}

// ListRecurringRequest filtros de GET /api/recurring.
type ListRecurringRequest struct {
	PageRequest
	ClientID string `query:"client_id"`
	Status   string `query:"status"`
}

// RecurringResponse plantilla recurrente en respuestas.
type RecurringResponse struct {
	ID          string                  `json:"id"`
	ClientID    string                  `json:"client_id"`
	ClientName  string                  `json:"client_name,omitempty"`
	Title       string                  `json:"title"`
	Description string                  `json:"description,omitempty"`
	Frequency   string                  `json:"frequency"`
	Interval    int                     `json:"interval"`
	NextDate    string                  `json:"next_date"`
	EndDate     string                  `json:"end_date,omitempty"`
	DueDays     int                     `json:"due_days"`
	AutoSend    bool                    `json:"auto_send"`
	Status      string                  `json:"status"`
	CreatedAt   string                  `json:"created_at"`
	UpdatedAt   string                  `json:"updated_at"`
	Items       []RecurringItemResponse `json:"items"`
	Generations []*GenerationResponse   `json:"generations,omitempty"`
}

// RecurringItemResponse línea de plantilla en respuestas.
type RecurringItemResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// RecurringListResponse página de plantillas.
type RecurringListResponse struct {
	Templates []*RecurringResponse `json:"templates"`
	Page      PageResponse         `json:"page"`
}

// GenerationResponse registro de factura generada desde una plantilla.
type GenerationResponse struct {
	ID          string `json:"id"`
	InvoiceID   string `json:"invoice_id"`
	GeneratedAt string `json:"generated_at"`
}

// ProcessDueResponse saldo del barrido de plantillas vencidas.
type ProcessDueResponse struct {
	Processed int      `json:"processed"`
	Generated int      `json:"generated"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// RecurringResponseFrom mapea la plantilla (con líneas cargadas) a la respuesta.
func RecurringResponseFrom(tpl *entity.RecurringTemplate) *RecurringResponse {
	items := make([]RecurringItemResponse, 0, len(tpl.Items))
	for _, it := range tpl.Items {
		items = append(items, RecurringItemResponse{
			ID:          it.ID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
		})
	}
	endDate := ""
	if tpl.EndDate != nil {
		endDate = FormatDate(*tpl.EndDate)
	}
	return &RecurringResponse{
		ID:          tpl.ID,
		ClientID:    tpl.ClientID,
		Title:       tpl.Title,
		Description: tpl.Description,
		Frequency:   tpl.Frequency.String(),
		Interval:    tpl.Interval,
		NextDate:    FormatDate(tpl.NextDate),
		EndDate:     endDate,
		DueDays:     tpl.DueDays,
		AutoSend:    tpl.AutoSend,
		Status:      tpl.Status.String(),
		CreatedAt:   tpl.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   tpl.UpdatedAt.Format(time.RFC3339),
		Items:       items,
	}
}
