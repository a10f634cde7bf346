package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/application/overdue"
	"github.com/jhoicas/billing-core/internal/domain"
)

// OverdueHandler maneja la cartera vencida: listados, recordatorios, recargos,
// estadísticas y configuración de cobranza.
type OverdueHandler struct {
	uc *overdue.UseCase
}

// NewOverdueHandler construye el handler.
func NewOverdueHandler(uc *overdue.UseCase) *OverdueHandler {
	return &OverdueHandler{uc: uc}
}

// List GET /api/overdue?client_id=&min_days=
func (h *OverdueHandler) List(c *fiber.Ctx) error {
	var in dto.ListOverdueRequest
	if err := c.QueryParser(&in); err != nil {
		return respondErr(c, domain.NewError("filtros inválidos").Mark(domain.ErrValidation))
	}
	list, err := h.uc.ListOverdue(c.Context(), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, list)
}

// Process POST /api/overdue/process. Barrido manual de recordatorios y
// recargos; misma rutina que ejecuta el scheduler.
func (h *OverdueHandler) Process(c *fiber.Ctx) error {
	result, err := h.uc.ProcessOverdue(c.Context())
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, result)
}

// SendReminder POST /api/invoices/:id/reminder
func (h *OverdueHandler) SendReminder(c *fiber.Ctx) error {
	var in dto.SendReminderRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	result, err := h.uc.SendReminder(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, result)
}

// ApplyLateFee POST /api/invoices/:id/late-fee
func (h *OverdueHandler) ApplyLateFee(c *fiber.Ctx) error {
	var in dto.ApplyLateFeeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	invoice, err := h.uc.ApplyLateFee(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, invoice)
}

// ListReminders GET /api/invoices/:id/reminders
func (h *OverdueHandler) ListReminders(c *fiber.Ctx) error {
	logs, err := h.uc.ListReminders(c.Context(), c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, logs)
}

// Statistics GET /api/overdue/statistics
func (h *OverdueHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.uc.Statistics(c.Context())
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, stats)
}

// GetConfig GET /api/overdue/config
func (h *OverdueHandler) GetConfig(c *fiber.Ctx) error {
	cfg, err := h.uc.GetConfig(c.Context())
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, cfg)
}

// UpdateConfig PUT /api/overdue/config
func (h *OverdueHandler) UpdateConfig(c *fiber.Ctx) error {
	var in dto.OverdueConfigRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	cfg, err := h.uc.UpdateConfig(c.Context(), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, cfg)
}
