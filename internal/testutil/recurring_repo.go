package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/billing"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/domain/repository"
)

// RecurringRepo implementación en memoria de repository.RecurringRepository.
type RecurringRepo struct {
	mu          sync.RWMutex
	templates   map[string]*entity.RecurringTemplate
	items       map[string][]entity.RecurringItem
	generations map[string][]*entity.RecurringGeneration
}

// NewRecurringRepo construye el repositorio vacío.
func NewRecurringRepo() *RecurringRepo {
	return &RecurringRepo{
		templates:   make(map[string]*entity.RecurringTemplate),
		items:       make(map[string][]entity.RecurringItem),
		generations: make(map[string][]*entity.RecurringGeneration),
	}
}

func (r *RecurringRepo) Create(ctx context.Context, tpl *entity.RecurringTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[tpl.ID] = cloneTemplate(tpl)
	return nil
}

func (r *RecurringRepo) CreateItem(ctx context.Context, item *entity.RecurringItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.TemplateID] = append(r.items[item.TemplateID], *item)
	return nil
}

func (r *RecurringRepo) GetByID(ctx context.Context, id string) (*entity.RecurringTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[id]
	if !ok {
		return nil, domain.NewError("plantilla %s no encontrada", id).Mark(domain.ErrNotFound)
	}
	return cloneTemplate(tpl), nil
}

// GetForUpdate en memoria no bloquea; conserva la firma del puerto.
func (r *RecurringRepo) GetForUpdate(ctx context.Context, id string) (*entity.RecurringTemplate, error) {
	return r.GetByID(ctx, id)
}

func (r *RecurringRepo) GetItems(ctx context.Context, templateID string) ([]entity.RecurringItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.items[templateID]), nil
}

// List aplica el filtro y pagina; el total cuenta antes de paginar.
func (r *RecurringRepo) List(ctx context.Context, filter repository.RecurringFilter) ([]*entity.RecurringTemplate, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.RecurringTemplate
	for _, tpl := range r.templates {
		if filter.ClientID != "" && tpl.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != "" && tpl.Status != filter.Status {
			continue
		}
		out = append(out, cloneTemplate(tpl))
	}
	slices.SortFunc(out, func(a, b *entity.RecurringTemplate) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	total := len(out)
	return paginate(out, filter.Limit, filter.Offset), total, nil
}

// ListDue plantillas activas con next_date en o antes de today, las más
// atrasadas primero.
func (r *RecurringRepo) ListDue(ctx context.Context, today time.Time) ([]*entity.RecurringTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.RecurringTemplate
	for _, tpl := range r.templates {
		if tpl.Status != entity.RecurringStatusActive {
			continue
		}
		if billing.CalendarDays(tpl.NextDate, today) < 0 {
			continue
		}
		out = append(out, cloneTemplate(tpl))
	}
	slices.SortFunc(out, func(a, b *entity.RecurringTemplate) int {
		if c := a.NextDate.Compare(b.NextDate); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *RecurringRepo) Update(ctx context.Context, tpl *entity.RecurringTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[tpl.ID]; !ok {
		return domain.NewError("plantilla %s no encontrada", tpl.ID).Mark(domain.ErrNotFound)
	}
	r.templates[tpl.ID] = cloneTemplate(tpl)
	return nil
}

func (r *RecurringRepo) ReplaceItems(ctx context.Context, templateID string, items []entity.RecurringItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[templateID] = slices.Clone(items)
	return nil
}

func (r *RecurringRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[id]; !ok {
		return domain.NewError("plantilla %s no encontrada", id).Mark(domain.ErrNotFound)
	}
	delete(r.templates, id)
	delete(r.items, id)
	delete(r.generations, id)
	return nil
}

func (r *RecurringRepo) AppendGeneration(ctx context.Context, gen *entity.RecurringGeneration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := *gen
	r.generations[gen.TemplateID] = append(r.generations[gen.TemplateID], &g)
	return nil
}

// ListGenerations historial plantilla → factura, de la más reciente a la más
// antigua.
func (r *RecurringRepo) ListGenerations(ctx context.Context, templateID string) ([]*entity.RecurringGeneration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.RecurringGeneration, 0, len(r.generations[templateID]))
	for _, g := range r.generations[templateID] {
		c := *g
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *entity.RecurringGeneration) int {
		if c := b.GeneratedAt.Compare(a.GeneratedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *RecurringRepo) CountGenerations(ctx context.Context, templateID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.generations[templateID]), nil
}

func cloneTemplate(tpl *entity.RecurringTemplate) *entity.RecurringTemplate {
	out := *tpl
	out.Items = slices.Clone(tpl.Items)
	if tpl.EndDate != nil {
		t := *tpl.EndDate
		out.EndDate = &t
	}
	return &out
}
