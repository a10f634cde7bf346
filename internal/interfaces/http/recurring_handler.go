package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/application/recurring"
	"github.com/jhoicas/billing-core/internal/domain"
)

// RecurringHandler maneja plantillas recurrentes y su barrido manual.
type RecurringHandler struct {
	uc *recurring.UseCase
}

// NewRecurringHandler construye el handler.
func NewRecurringHandler(uc *recurring.UseCase) *RecurringHandler {
	return &RecurringHandler{uc: uc}
}

// Create POST /api/recurring
func (h *RecurringHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRecurringRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	tpl, err := h.uc.Create(c.Context(), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondCreated(c, tpl)
}

// List GET /api/recurring?client_id=&status=&limit=&offset=
func (h *RecurringHandler) List(c *fiber.Ctx) error {
	var in dto.ListRecurringRequest
	if err := c.QueryParser(&in); err != nil {
		return respondErr(c, domain.NewError("filtros inválidos").Mark(domain.ErrValidation))
	}
	list, err := h.uc.List(c.Context(), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, list)
}

// GetByID GET /api/recurring/:id
func (h *RecurringHandler) GetByID(c *fiber.Ctx) error {
	tpl, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, tpl)
}

// Update PUT /api/recurring/:id
func (h *RecurringHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateRecurringRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	tpl, err := h.uc.Update(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, tpl)
}

// Delete DELETE /api/recurring/:id
func (h *RecurringHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), c.Params("id")); err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, fiber.Map{"deleted": true})
}

// Cancel POST /api/recurring/:id/cancel
func (h *RecurringHandler) Cancel(c *fiber.Ctx) error {
	tpl, err := h.uc.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, tpl)
}

// Reactivate POST /api/recurring/:id/reactivate
func (h *RecurringHandler) Reactivate(c *fiber.Ctx) error {
	tpl, err := h.uc.Reactivate(c.Context(), c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, tpl)
}

// Generate POST /api/recurring/:id/generate. Genera la factura de la
// plantilla fuera del barrido programado.
func (h *RecurringHandler) Generate(c *fiber.Ctx) error {
	invoice, err := h.uc.GenerateInvoice(c.Context(), c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respondCreated(c, invoice)
}

// ProcessDue POST /api/recurring/process-due. Barrido manual de plantillas
// vencidas; misma rutina que ejecuta el scheduler.
func (h *RecurringHandler) ProcessDue(c *fiber.Ctx) error {
	result, err := h.uc.ProcessDue(c.Context())
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, result)
}
