package dto

import "github.com/jhoicas/billing-core/internal/domain/entity"

// ClientResponse vista de solo lectura del directorio de clientes.
type ClientResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ClientResponseFrom mapea la entidad a la respuesta.
func ClientResponseFrom(c *entity.Client) *ClientResponse {
	return &ClientResponse{
		ID:    c.ID,
		Name:  c.Name,
		Email: c.Email,
		Phone: c.Phone,
	}
}
