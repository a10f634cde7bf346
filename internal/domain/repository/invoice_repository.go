package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// InvoiceFilter criterios de listado de facturas. Los campos en cero no filtran.
type InvoiceFilter struct {
	ClientID string
	Status   entity.InvoiceStatus
	DateFrom *time.Time
	DateTo   *time.Time
	DueFrom  *time.Time
	DueTo    *time.Time
	Limit    int
	Offset   int
}

// AgingBucket tramo de antigüedad de cartera vencida (1-30, 31-60, 61-90, 90+).
type AgingBucket struct {
	Label       string
	MinDays     int
	MaxDays     int // 0 = sin tope superior
	Count       int
	TotalAmount decimal.Decimal
}

// InvoiceRepository define el puerto de persistencia para Invoice y sus líneas.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	CreateItem(ctx context.Context, item *entity.InvoiceItem) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE); solo dentro de transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
	GetItems(ctx context.Context, invoiceID string) ([]entity.InvoiceItem, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, int, error)
	Update(ctx context.Context, invoice *entity.Invoice) error
	// ReplaceItems borra todas las líneas y escribe el juego nuevo.
	ReplaceItems(ctx context.Context, invoiceID string, items []entity.InvoiceItem) error
	Delete(ctx context.Context, id string) error

	// ListOverdue facturas cobrables con vencimiento anterior a today y saldo
	// pendiente, en estado sent, partial u overdue. clientID vacío = todas.
	ListOverdue(ctx context.Context, today time.Time, clientID string) ([]*entity.Invoice, error)
	// HasLateFeeSince indica si ya existe una línea de recargo creada desde since.
	HasLateFeeSince(ctx context.Context, invoiceID string, since time.Time) (bool, error)
	// MaxNumberForYear secuencia más alta usada en numeración INV-YYYY-NNNN.
	MaxNumberForYear(ctx context.Context, year int) (int, error)
	AgingBuckets(ctx context.Context, today time.Time) ([]AgingBucket, error)
}
