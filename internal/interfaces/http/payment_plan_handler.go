package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-core/internal/application/billing"
	"github.com/jhoicas/billing-core/internal/application/dto"
)

// PaymentPlanHandler maneja planes de pago y cuotas.
type PaymentPlanHandler struct {
	uc *billing.PaymentPlanUseCase
}

// NewPaymentPlanHandler construye el handler.
func NewPaymentPlanHandler(uc *billing.PaymentPlanUseCase) *PaymentPlanHandler {
	return &PaymentPlanHandler{uc: uc}
}

// Create POST /api/invoices/:id/payment-plan
func (h *PaymentPlanHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePaymentPlanRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	plan, err := h.uc.Create(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondCreated(c, plan)
}

// GetByInvoice GET /api/invoices/:id/payment-plan
func (h *PaymentPlanHandler) GetByInvoice(c *fiber.Ctx) error {
	plan, err := h.uc.GetByInvoice(c.Context(), c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, plan)
}

// PayInstallment POST /api/installments/:id/pay
func (h *PaymentPlanHandler) PayInstallment(c *fiber.Ctx) error {
	var in dto.RecordPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	plan, err := h.uc.RecordInstallmentPayment(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, plan)
}

// Cancel POST /api/payment-plans/:id/cancel
func (h *PaymentPlanHandler) Cancel(c *fiber.Ctx) error {
	plan, err := h.uc.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return respondOK(c, plan)
}
