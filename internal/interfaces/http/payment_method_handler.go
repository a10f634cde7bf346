package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-core/internal/application/billing"
	"github.com/jhoicas/billing-core/internal/application/dto"
)

// PaymentMethodHandler maneja el catálogo de métodos de pago.
type PaymentMethodHandler struct {
	uc *billing.PaymentMethodUseCase
}

// NewPaymentMethodHandler construye el handler.
func NewPaymentMethodHandler(uc *billing.PaymentMethodUseCase) *PaymentMethodHandler {
	return &PaymentMethodHandler{uc: uc}
}

// Create POST /api/payment-methods
func (h *PaymentMethodHandler) Create(c *fiber.Ctx) error {
	var in dto.PaymentMethodRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	method, err := h.uc.Create(c.Context(), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondCreated(c, method)
}

// List GET /api/payment-methods?include_inactive=true
func (h *PaymentMethodHandler) List(c *fiber.Ctx) error {
	methods, err := h.uc.List(c.Context(), c.QueryBool("include_inactive"))
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, methods)
}

// Update PUT /api/payment-methods/:id
func (h *PaymentMethodHandler) Update(c *fiber.Ctx) error {
	var in dto.PaymentMethodRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	method, err := h.uc.Update(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, method)
}

// Delete DELETE /api/payment-methods/:id. Borra el método o lo desactiva si
// tiene pagos asociados; la respuesta dice cuál de las dos ocurrió.
func (h *PaymentMethodHandler) Delete(c *fiber.Ctx) error {
	result, err := h.uc.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, result)
}
