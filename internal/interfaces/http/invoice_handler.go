package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-core/internal/application/billing"
	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/domain"
)

// InvoiceHandler maneja las peticiones HTTP del ciclo de vida de facturas.
type InvoiceHandler struct {
	uc *billing.InvoiceUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *billing.InvoiceUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// Create POST /api/invoices
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	invoice, err := h.uc.Create(c.Context(), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondCreated(c, invoice)
}

// List GET /api/invoices?client_id=&status=&date_from=&date_to=&due_from=&due_to=&limit=&offset=
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	var in dto.ListInvoicesRequest
	if err := c.QueryParser(&in); err != nil {
		return respondErr(c, domain.NewError("filtros inválidos").Mark(domain.ErrValidation))
	}
	list, err := h.uc.List(c.Context(), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, list)
}

// GetByID GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	invoice, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, invoice)
}

// Update PUT /api/invoices/:id
func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	invoice, err := h.uc.Update(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, invoice)
}

// Delete DELETE /api/invoices/:id
func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), c.Params("id")); err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, fiber.Map{"deleted": true})
}

// MarkAsPaid POST /api/invoices/:id/mark-paid
func (h *InvoiceHandler) MarkAsPaid(c *fiber.Ctx) error {
	var in dto.MarkInvoicePaidRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	invoice, err := h.uc.MarkAsPaid(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, invoice)
}
