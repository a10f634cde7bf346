package ports

import (
	"context"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// ClientDirectory define el puerto de consulta del directorio de clientes.
// La facturación no es dueña de los clientes: solo valida que existan y
// obtiene el correo de contacto.
type ClientDirectory interface {
	FindByID(ctx context.Context, id string) (*entity.Client, error)
	Search(ctx context.Context, query string) ([]*entity.Client, error)
}
