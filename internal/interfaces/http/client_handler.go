package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/application/ports"
	"github.com/jhoicas/billing-core/internal/domain"
)

// ClientHandler expone el directorio de clientes en solo lectura.
type ClientHandler struct {
	directory ports.ClientDirectory
}

// NewClientHandler construye el handler.
func NewClientHandler(directory ports.ClientDirectory) *ClientHandler {
	return &ClientHandler{directory: directory}
}

// Search GET /api/clients/search?q=
func (h *ClientHandler) Search(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return respondErr(c, domain.NewError("búsqueda vacía").
			WithField("q", "requerido").
			Mark(domain.ErrValidation))
	}
	clients, err := h.directory.Search(c.Context(), q)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]*dto.ClientResponse, 0, len(clients))
	for _, cl := range clients {
		out = append(out, dto.ClientResponseFrom(cl))
	}
	return respondOK(c, out)
}
