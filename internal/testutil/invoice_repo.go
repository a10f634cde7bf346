package testutil

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/billing"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/domain/repository"
)

// InvoiceRepo implementación en memoria de repository.InvoiceRepository.
// Devuelve copias: mutar lo retornado no toca el almacén hasta Update.
type InvoiceRepo struct {
	mu       sync.RWMutex
	invoices map[string]*entity.Invoice
	items    map[string][]entity.InvoiceItem // por invoiceID, en orden de posición
}

// NewInvoiceRepo construye el repositorio vacío.
func NewInvoiceRepo() *InvoiceRepo {
	return &InvoiceRepo{
		invoices: make(map[string]*entity.Invoice),
		items:    make(map[string][]entity.InvoiceItem),
	}
}

// Create guarda la factura; el número repetido reproduce la violación de
// unicidad de la base real.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.invoices {
		if existing.Number == invoice.Number {
			return domain.NewError("el número de factura %s ya existe", invoice.Number).
				Mark(domain.ErrDuplicate)
		}
	}
	r.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

// CreateItem agrega una línea a su factura.
func (r *InvoiceRepo) CreateItem(ctx context.Context, item *entity.InvoiceItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.InvoiceID] = append(r.items[item.InvoiceID], *item)
	return nil
}

// GetByID busca por id; las líneas se piden aparte con GetItems.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, domain.NewError("factura %s no encontrada", id).Mark(domain.ErrNotFound)
	}
	return cloneInvoice(inv), nil
}

// GetForUpdate en memoria no bloquea; conserva la firma del puerto.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

// GetItems líneas de la factura en orden de posición.
func (r *InvoiceRepo) GetItems(ctx context.Context, invoiceID string) ([]entity.InvoiceItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.items[invoiceID]), nil
}

// List aplica el filtro y pagina; el total cuenta antes de paginar.
func (r *InvoiceRepo) List(ctx context.Context, filter repository.InvoiceFilter) ([]*entity.Invoice, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.Invoice
	for _, inv := range r.invoices {
		if filter.ClientID != "" && inv.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.DateFrom != nil && inv.CreatedAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && !inv.CreatedAt.Before(filter.DateTo.AddDate(0, 0, 1)) {
			continue
		}
		if filter.DueFrom != nil && inv.DueDate.Before(*filter.DueFrom) {
			continue
		}
		if filter.DueTo != nil && !inv.DueDate.Before(filter.DueTo.AddDate(0, 0, 1)) {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	slices.SortFunc(out, func(a, b *entity.Invoice) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	total := len(out)
	return paginate(out, filter.Limit, filter.Offset), total, nil
}

// Update reemplaza la factura guardada.
func (r *InvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[invoice.ID]; !ok {
		return domain.NewError("factura %s no encontrada", invoice.ID).Mark(domain.ErrNotFound)
	}
	r.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

// ReplaceItems borra todas las líneas y escribe el juego nuevo.
func (r *InvoiceRepo) ReplaceItems(ctx context.Context, invoiceID string, items []entity.InvoiceItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[invoiceID] = slices.Clone(items)
	return nil
}

// Delete elimina la factura y sus líneas en cascada.
func (r *InvoiceRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[id]; !ok {
		return domain.NewError("factura %s no encontrada", id).Mark(domain.ErrNotFound)
	}
	delete(r.invoices, id)
	delete(r.items, id)
	return nil
}

// ListOverdue facturas cobrables vencidas con saldo, ordenadas por antigüedad.
func (r *InvoiceRepo) ListOverdue(ctx context.Context, today time.Time, clientID string) ([]*entity.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.Invoice
	for _, inv := range r.invoices {
		if clientID != "" && inv.ClientID != clientID {
			continue
		}
		if !isOverdue(inv, today) {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	slices.SortFunc(out, func(a, b *entity.Invoice) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// HasLateFeeSince busca líneas de recargo creadas desde since.
func (r *InvoiceRepo) HasLateFeeSince(ctx context.Context, invoiceID string, since time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items[invoiceID] {
		if item.IsLateFee && !item.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// MaxNumberForYear secuencia más alta entre los números INV-YYYY-NNNN del año.
func (r *InvoiceRepo) MaxNumberForYear(ctx context.Context, year int) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prefix := fmt.Sprintf("INV-%d-", year)
	maxSeq := 0
	for _, inv := range r.invoices {
		rest, ok := strings.CutPrefix(inv.Number, prefix)
		if !ok {
			continue
		}
		seq, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		maxSeq = max(maxSeq, seq)
	}
	return maxSeq, nil
}

// AgingBuckets reparte la cartera vencida en los cuatro tramos fijos. Siempre
// devuelve los cuatro, aunque estén vacíos.
func (r *InvoiceRepo) AgingBuckets(ctx context.Context, today time.Time) ([]repository.AgingBucket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	buckets := []repository.AgingBucket{
		{Label: "1-30", MinDays: 1, MaxDays: 30, TotalAmount: decimal.Zero},
		{Label: "31-60", MinDays: 31, MaxDays: 60, TotalAmount: decimal.Zero},
		{Label: "61-90", MinDays: 61, MaxDays: 90, TotalAmount: decimal.Zero},
		{Label: "90+", MinDays: 91, TotalAmount: decimal.Zero},
	}
	for _, inv := range r.invoices {
		if !isOverdue(inv, today) {
			continue
		}
		days := billing.DaysOverdue(inv.DueDate, today)
		for i := range buckets {
			b := &buckets[i]
			if days < b.MinDays || (b.MaxDays > 0 && days > b.MaxDays) {
				continue
			}
			b.Count++
			b.TotalAmount = b.TotalAmount.Add(inv.RemainingBalance())
		}
	}
	return buckets, nil
}

// isOverdue mismo predicado que la consulta real: estado cobrable, vencida y
// con saldo pendiente.
func isOverdue(inv *entity.Invoice, today time.Time) bool {
	switch inv.Status {
	case entity.InvoiceStatusSent, entity.InvoiceStatusPartial, entity.InvoiceStatusOverdue:
	default:
		return false
	}
	return billing.DaysOverdue(inv.DueDate, today) > 0 && inv.RemainingBalance().IsPositive()
}

// cloneInvoice copia profunda (las líneas viajan aparte, pero Items puede
// venir poblado desde el caso de uso).
func cloneInvoice(inv *entity.Invoice) *entity.Invoice {
	out := *inv
	out.Items = slices.Clone(inv.Items)
	if inv.PaidAt != nil {
		t := *inv.PaidAt
		out.PaidAt = &t
	}
	return &out
}

// paginate corte limit/offset sobre la lista ya ordenada.
func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
