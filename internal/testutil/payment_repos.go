package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// PaymentRepo implementación en memoria de repository.PaymentRepository.
type PaymentRepo struct {
	mu       sync.RWMutex
	payments map[string]*entity.Payment
}

// NewPaymentRepo construye el repositorio vacío.
func NewPaymentRepo() *PaymentRepo {
	return &PaymentRepo{payments: make(map[string]*entity.Payment)}
}

func (r *PaymentRepo) Create(ctx context.Context, payment *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[payment.ID] = clonePayment(payment)
	return nil
}

func (r *PaymentRepo) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, domain.NewError("pago %s no encontrado", id).Mark(domain.ErrNotFound)
	}
	return clonePayment(p), nil
}

// ListByInvoice pagos de la factura en orden cronológico.
func (r *PaymentRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Payment
	for _, p := range r.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, clonePayment(p))
		}
	}
	slices.SortFunc(out, func(a, b *entity.Payment) int {
		if c := a.PaymentDate.Compare(b.PaymentDate); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *PaymentRepo) Update(ctx context.Context, payment *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[payment.ID]; !ok {
		return domain.NewError("pago %s no encontrado", payment.ID).Mark(domain.ErrNotFound)
	}
	r.payments[payment.ID] = clonePayment(payment)
	return nil
}

func (r *PaymentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[id]; !ok {
		return domain.NewError("pago %s no encontrado", id).Mark(domain.ErrNotFound)
	}
	delete(r.payments, id)
	return nil
}

// SumByInvoice suma de los pagos vigentes de la factura.
func (r *PaymentRepo) SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := decimal.Zero
	for _, p := range r.payments {
		if p.InvoiceID == invoiceID {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r *PaymentRepo) CountByMethod(ctx context.Context, methodID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, p := range r.payments {
		if p.MethodID == methodID {
			count++
		}
	}
	return count, nil
}

func clonePayment(p *entity.Payment) *entity.Payment {
	out := *p
	if p.ConfirmedAt != nil {
		t := *p.ConfirmedAt
		out.ConfirmedAt = &t
	}
	return &out
}

// ──────────────────────────────────────────────────────────────────────────────

// PaymentMethodRepo implementación en memoria de repository.PaymentMethodRepository.
type PaymentMethodRepo struct {
	mu      sync.RWMutex
	methods map[string]*entity.PaymentMethod
}

// NewPaymentMethodRepo construye el repositorio vacío.
func NewPaymentMethodRepo() *PaymentMethodRepo {
	return &PaymentMethodRepo{methods: make(map[string]*entity.PaymentMethod)}
}

func (r *PaymentMethodRepo) Create(ctx context.Context, method *entity.PaymentMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.methods {
		if existing.Name == method.Name {
			return domain.NewError("el método de pago %s ya existe", method.Name).
				Mark(domain.ErrDuplicate)
		}
	}
	m := *method
	r.methods[method.ID] = &m
	return nil
}

func (r *PaymentMethodRepo) GetByID(ctx context.Context, id string) (*entity.PaymentMethod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.methods[id]
	if !ok {
		return nil, domain.NewError("método de pago %s no encontrado", id).Mark(domain.ErrNotFound)
	}
	out := *m
	return &out, nil
}

func (r *PaymentMethodRepo) GetByName(ctx context.Context, name string) (*entity.PaymentMethod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.methods {
		if m.Name == name {
			out := *m
			return &out, nil
		}
	}
	return nil, domain.NewError("método de pago %s no encontrado", name).Mark(domain.ErrNotFound)
}

// List métodos ordenados por nombre; los inactivos solo si se piden.
func (r *PaymentMethodRepo) List(ctx context.Context, includeInactive bool) ([]*entity.PaymentMethod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.PaymentMethod
	for _, m := range r.methods {
		if !includeInactive && !m.IsActive {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *entity.PaymentMethod) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (r *PaymentMethodRepo) Update(ctx context.Context, method *entity.PaymentMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.methods[method.ID]; !ok {
		return domain.NewError("método de pago %s no encontrado", method.ID).Mark(domain.ErrNotFound)
	}
	m := *method
	r.methods[method.ID] = &m
	return nil
}

func (r *PaymentMethodRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.methods[id]; !ok {
		return domain.NewError("método de pago %s no encontrado", id).Mark(domain.ErrNotFound)
	}
	delete(r.methods, id)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────

// PaymentPlanRepo implementación en memoria de repository.PaymentPlanRepository.
type PaymentPlanRepo struct {
	mu           sync.RWMutex
	plans        map[string]*entity.PaymentPlan
	installments map[string][]entity.Installment // por planID, en orden de posición
}

// NewPaymentPlanRepo construye el repositorio vacío.
func NewPaymentPlanRepo() *PaymentPlanRepo {
	return &PaymentPlanRepo{
		plans:        make(map[string]*entity.PaymentPlan),
		installments: make(map[string][]entity.Installment),
	}
}

func (r *PaymentPlanRepo) Create(ctx context.Context, plan *entity.PaymentPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (r *PaymentPlanRepo) CreateInstallment(ctx context.Context, inst *entity.Installment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := append(r.installments[inst.PlanID], *inst)
	slices.SortFunc(list, func(a, b entity.Installment) int { return a.Position - b.Position })
	r.installments[inst.PlanID] = list
	return nil
}

func (r *PaymentPlanRepo) GetByID(ctx context.Context, id string) (*entity.PaymentPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, domain.NewError("plan de pago %s no encontrado", id).Mark(domain.ErrNotFound)
	}
	return clonePlan(p), nil
}

// GetByInvoice plan más reciente de la factura.
func (r *PaymentPlanRepo) GetByInvoice(ctx context.Context, invoiceID string) (*entity.PaymentPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var newest *entity.PaymentPlan
	for _, p := range r.plans {
		if p.InvoiceID != invoiceID {
			continue
		}
		if newest == nil || p.CreatedAt.After(newest.CreatedAt) {
			newest = p
		}
	}
	if newest == nil {
		return nil, domain.NewError("la factura %s no tiene plan de pago", invoiceID).Mark(domain.ErrNotFound)
	}
	return clonePlan(newest), nil
}

func (r *PaymentPlanRepo) GetInstallments(ctx context.Context, planID string) ([]entity.Installment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.installments[planID]), nil
}

func (r *PaymentPlanRepo) GetInstallment(ctx context.Context, id string) (*entity.Installment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, list := range r.installments {
		for _, inst := range list {
			if inst.ID == id {
				c := inst
				return &c, nil
			}
		}
	}
	return nil, domain.NewError("cuota %s no encontrada", id).Mark(domain.ErrNotFound)
}

func (r *PaymentPlanRepo) HasActivePlan(ctx context.Context, invoiceID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plans {
		if p.InvoiceID == invoiceID && p.Status == entity.PaymentPlanStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (r *PaymentPlanRepo) Update(ctx context.Context, plan *entity.PaymentPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[plan.ID]; !ok {
		return domain.NewError("plan de pago %s no encontrado", plan.ID).Mark(domain.ErrNotFound)
	}
	r.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (r *PaymentPlanRepo) UpdateInstallment(ctx context.Context, inst *entity.Installment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.installments[inst.PlanID]
	for i := range list {
		if list[i].ID == inst.ID {
			list[i] = *inst
			return nil
		}
	}
	return domain.NewError("cuota %s no encontrada", inst.ID).Mark(domain.ErrNotFound)
}

// CancelPendingInstallments pasa a canceled todas las cuotas pendientes.
func (r *PaymentPlanRepo) CancelPendingInstallments(ctx context.Context, planID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.installments[planID]
	for i := range list {
		if list[i].Status == entity.InstallmentStatusPending {
			list[i].Status = entity.InstallmentStatusCanceled
		}
	}
	return nil
}

func clonePlan(p *entity.PaymentPlan) *entity.PaymentPlan {
	out := *p
	out.Installments = slices.Clone(p.Installments)
	return &out
}
