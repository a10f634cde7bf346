package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-core/internal/application/billing"
	"github.com/jhoicas/billing-core/internal/application/dto"
)

// PaymentHandler maneja las peticiones HTTP de pagos.
type PaymentHandler struct {
	uc *billing.PaymentUseCase
}

// NewPaymentHandler construye el handler.
func NewPaymentHandler(uc *billing.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

// Record POST /api/invoices/:id/payments
func (h *PaymentHandler) Record(c *fiber.Ctx) error {
	var in dto.RecordPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	result, err := h.uc.Record(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondCreated(c, result)
}

// ListByInvoice GET /api/invoices/:id/payments
func (h *PaymentHandler) ListByInvoice(c *fiber.Ctx) error {
	payments, err := h.uc.ListByInvoice(c.Context(), c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, payments)
}

// Confirm POST /api/payments/:id/confirm
func (h *PaymentHandler) Confirm(c *fiber.Ctx) error {
	payment, err := h.uc.Confirm(c.Context(), c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, payment)
}

// Update PUT /api/payments/:id
func (h *PaymentHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdatePaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	payment, err := h.uc.Update(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, payment)
}

// Delete DELETE /api/payments/:id. Revierte el pago y devuelve la factura
// con el saldo y estado recalculados.
func (h *PaymentHandler) Delete(c *fiber.Ctx) error {
	invoice, err := h.uc.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, invoice)
}
