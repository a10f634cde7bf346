package entity

import "time"

// Client vista estrecha del directorio de clientes (colaborador externo).
// El núcleo de facturación solo lee id, nombre y contacto.
type Client struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}
