// Package http expone el contrato REST del núcleo de facturación sobre Fiber.
// Los handlers son delgados: parsean, delegan al caso de uso y responden con
// el sobre estándar {success, data|error}.
package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/domain"
)

// respondOK 200 con el sobre de éxito.
func respondOK(c *fiber.Ctx, data any) error {
	return c.JSON(dto.OK(data))
}

// respondCreated 201 con el sobre de éxito.
func respondCreated(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(dto.OK(data))
}

// respondErr mapea la categoría del error de dominio al status HTTP.
func respondErr(c *fiber.Ctx, err error) error {
	return c.Status(domain.HTTPStatus(err)).JSON(dto.Fail(err))
}

// badBody respuesta uniforme para cuerpos que no parsean.
func badBody(c *fiber.Ctx) error {
	return respondErr(c, domain.NewError("cuerpo de la petición inválido").
		WithHint("se espera JSON bien formado").
		Mark(domain.ErrValidation))
}
