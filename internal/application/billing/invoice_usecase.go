package billing

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/application/ports"
	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/billing"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/domain/repository"
)

// InvoiceUseCase casos de uso del ciclo de vida de facturas: creación con
// numeración consecutiva, listado, actualización con transiciones validadas,
// eliminación y el atajo de marcar como pagada.
type InvoiceUseCase struct {
	txRunner  ports.TxRunner
	invoices  repository.InvoiceRepository
	directory ports.ClientDirectory
	payments  *PaymentUseCase
	clock     ports.Clock
}

// NewInvoiceUseCase construye el caso de uso. payments se usa solo para el
// atajo MarkAsPaid con método de pago explícito.
func NewInvoiceUseCase(
	txRunner ports.TxRunner,
	invoices repository.InvoiceRepository,
	directory ports.ClientDirectory,
	payments *PaymentUseCase,
	clock ports.Clock,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		txRunner:  txRunner,
		invoices:  invoices,
		directory: directory,
		payments:  payments,
		clock:     clock,
	}
}

// Create valida todos los campos de una vez, verifica el cliente contra el
// directorio, calcula importes, asigna consecutivo si no viene y persiste
// factura y líneas en una transacción.
func (uc *InvoiceUseCase) Create(ctx context.Context, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	b := domain.NewError("factura inválida")
	invalid := false

	if in.ClientID == "" {
		b.WithField("client_id", "es obligatorio")
		invalid = true
	}
	if in.Title == "" {
		b.WithField("title", "es obligatorio")
		invalid = true
	}
	var dueDate time.Time
	if in.DueDate == "" {
		b.WithField("due_date", "es obligatoria")
		invalid = true
	} else if parsed, err := dto.ParseDate(in.DueDate); err != nil {
		b.WithField("due_date", "formato esperado YYYY-MM-DD")
		invalid = true
	} else {
		dueDate = parsed
	}
	status := entity.InvoiceStatusPending
	if in.Status != "" {
		status = entity.InvoiceStatus(in.Status)
		if status != entity.InvoiceStatusPending && status != entity.InvoiceStatusDraft {
			b.WithField("status", "solo se crea en draft o pending")
			invalid = true
		}
	}
	if len(in.Items) == 0 {
		b.WithField("items", "se requiere al menos una línea")
		invalid = true
	}
	if !validateItems(b, in.Items) {
		invalid = true
	}
	if invalid {
		return nil, b.Mark(domain.ErrValidation)
	}

	client, err := uc.directory.FindByID(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	inv := &entity.Invoice{
		ID:          uuid.New().String(),
		ClientID:    in.ClientID,
		EstimateID:  in.EstimateID,
		Number:      in.Number,
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       buildItems(in.Items, now),
	}
	inv.TotalAmount = billing.InvoiceTotal(inv.Items)

	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		if inv.Number == "" {
			seq, err := r.Invoices.MaxNumberForYear(ctx, now.Year())
			if err != nil {
				return err
			}
			inv.Number = billing.InvoiceNumber(now.Year(), seq+1)
		}
		if err := r.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		for i := range inv.Items {
			inv.Items[i].InvoiceID = inv.ID
			if err := r.Invoices.CreateItem(ctx, &inv.Items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := dto.InvoiceResponseFrom(inv)
	resp.ClientName = client.Name
	return resp, nil
}

// GetByID devuelve la factura con líneas y nombre del cliente.
func (uc *InvoiceUseCase) GetByID(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := uc.invoices.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Items = items

	resp := dto.InvoiceResponseFrom(inv)
	if client, err := uc.directory.FindByID(ctx, inv.ClientID); err == nil {
		resp.ClientName = client.Name
	}
	return resp, nil
}

// List filtra por cliente, estado y rangos de fecha. Sin resultados devuelve
// la colección vacía, nunca error.
func (uc *InvoiceUseCase) List(ctx context.Context, in dto.ListInvoicesRequest) (*dto.InvoiceListResponse, error) {
	in.DefaultPage()

	filter := repository.InvoiceFilter{
		ClientID: in.ClientID,
		Limit:    in.Limit,
		Offset:   in.Offset,
	}
	b := domain.NewError("filtros inválidos")
	invalid := false
	if in.Status != "" {
		filter.Status = entity.InvoiceStatus(in.Status)
		if err := filter.Status.Validate(); err != nil {
			b.WithField("status", "estado desconocido")
			invalid = true
		}
	}
	for _, f := range []struct {
		name  string
		value string
		dst   **time.Time
	}{
		{"date_from", in.DateFrom, &filter.DateFrom},
		{"date_to", in.DateTo, &filter.DateTo},
		{"due_from", in.DueFrom, &filter.DueFrom},
		{"due_to", in.DueTo, &filter.DueTo},
	} {
		if f.value == "" {
			continue
		}
		parsed, err := dto.ParseDate(f.value)
		if err != nil {
			b.WithField(f.name, "formato esperado YYYY-MM-DD")
			invalid = true
			continue
		}
		*f.dst = &parsed
	}
	if invalid {
		return nil, b.Mark(domain.ErrValidation)
	}

	list, total, err := uc.invoices.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, dto.InvoiceResponseFrom(inv))
	}
	return &dto.InvoiceListResponse{
		Invoices: out,
		Page:     dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

// Update aplica un parche sobre metadatos, vencimiento, estado o líneas.
// Una factura pagada o anulada no se modifica; las transiciones manuales de
// estado pasan por la tabla de transiciones legales.
func (uc *InvoiceUseCase) Update(ctx context.Context, id string, in dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	now := uc.clock.Now()
	var inv *entity.Invoice

	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		var err error
		inv, err = r.Invoices.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status.IsTerminal() {
			return domain.NewError("una factura %s no se modifica", inv.Status).
				Mark(domain.ErrInvalidOperation)
		}

		if in.Title != nil {
			if *in.Title == "" {
				return domain.NewError("factura inválida").
					WithField("title", "no puede quedar vacío").
					Mark(domain.ErrValidation)
			}
			inv.Title = *in.Title
		}
		if in.Description != nil {
			inv.Description = *in.Description
		}
		if in.DueDate != nil {
			parsed, err := dto.ParseDate(*in.DueDate)
			if err != nil {
				return domain.NewError("factura inválida").
					WithField("due_date", "formato esperado YYYY-MM-DD").
					Mark(domain.ErrValidation)
			}
			inv.DueDate = parsed
		}
		if in.Status != nil {
			target := entity.InvoiceStatus(*in.Status)
			if err := target.Validate(); err != nil {
				return err
			}
			if target != inv.Status {
				if !billing.CanTransition(inv.Status, target) {
					return domain.NewError("transición %s → %s no permitida", inv.Status, target).
						WithHint("transiciones manuales: draft→pending, pending→sent, pending→canceled").
						Mark(domain.ErrInvalidOperation)
				}
				inv.Status = target
			}
		}
		if in.Items != nil {
			b := domain.NewError("factura inválida")
			if len(in.Items) == 0 {
				return b.WithField("items", "se requiere al menos una línea").
					Mark(domain.ErrValidation)
			}
			if !validateItems(b, in.Items) {
				return b.Mark(domain.ErrValidation)
			}
			items := buildItems(in.Items, now)
			for i := range items {
				items[i].InvoiceID = inv.ID
			}
			total := billing.InvoiceTotal(items)
			if total.LessThan(inv.AmountPaid) {
				return domain.NewError("el nuevo total %s queda por debajo de lo ya pagado %s",
					total.StringFixed(2), inv.AmountPaid.StringFixed(2)).
					WithField("items", "el total no puede ser menor que amount_paid").
					Mark(domain.ErrValidation)
			}
			if err := r.Invoices.ReplaceItems(ctx, inv.ID, items); err != nil {
				return err
			}
			inv.TotalAmount = total
			inv.Items = items
		}

		rederiveStatus(inv, now)
		inv.UpdatedAt = now
		if err := r.Invoices.Update(ctx, inv); err != nil {
			return err
		}
		if in.Items == nil {
			items, err := r.Invoices.GetItems(ctx, inv.ID)
			if err != nil {
				return err
			}
			inv.Items = items
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.InvoiceResponseFrom(inv), nil
}

// Delete elimina una factura pending sin pagos; líneas y pagos caen en cascada.
func (uc *InvoiceUseCase) Delete(ctx context.Context, id string) error {
	return uc.txRunner.Run(ctx, func(r ports.Repos) error {
		inv, err := r.Invoices.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status != entity.InvoiceStatusPending {
			return domain.NewError("solo se eliminan facturas pending; esta está %s", inv.Status).
				WithHint("anule la factura o elimine antes sus pagos").
				Mark(domain.ErrInvalidOperation)
		}
		if inv.HasPayments() {
			return domain.NewError("la factura tiene pagos aplicados").
				WithHint("elimine los pagos antes de borrar la factura").
				Mark(domain.ErrInvalidOperation)
		}
		return r.Invoices.Delete(ctx, id)
	})
}

// MarkAsPaid salda la factura: con método de pago registra un pago por el
// saldo pendiente (misma ruta que un pago normal); sin método fuerza el estado
// paid con amount_paid = total_amount.
func (uc *InvoiceUseCase) MarkAsPaid(ctx context.Context, id string, in dto.MarkInvoicePaidRequest) (*dto.InvoiceResponse, error) {
	if in.MethodID != "" {
		inv, err := uc.invoices.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		remaining := inv.RemainingBalance()
		if !remaining.IsPositive() {
			return nil, domain.NewError("la factura no tiene saldo pendiente").
				Mark(domain.ErrInvalidOperation)
		}
		res, err := uc.payments.Record(ctx, id, dto.RecordPaymentRequest{
			MethodID:    in.MethodID,
			Amount:      remaining,
			PaymentDate: in.PaymentDate,
			Reference:   in.Reference,
		})
		if err != nil {
			return nil, err
		}
		return res.Invoice, nil
	}

	now := uc.clock.Now()
	var inv *entity.Invoice
	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		var err error
		inv, err = r.Invoices.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch inv.Status {
		case entity.InvoiceStatusPaid:
			return domain.NewError("la factura ya está pagada").Mark(domain.ErrInvalidOperation)
		case entity.InvoiceStatusCanceled:
			return domain.NewError("una factura anulada no se marca como pagada").
				Mark(domain.ErrInvalidOperation)
		}
		inv.AmountPaid = inv.TotalAmount
		inv.Status = entity.InvoiceStatusPaid
		inv.PaidAt = &now
		inv.UpdatedAt = now
		if err := r.Invoices.Update(ctx, inv); err != nil {
			return err
		}
		items, err := r.Invoices.GetItems(ctx, inv.ID)
		if err != nil {
			return err
		}
		inv.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.InvoiceResponseFrom(inv), nil
}

// ── helpers compartidos del paquete ───────────────────────────────────────────

// validateItems acumula violaciones por línea en el builder; true si todo pasa.
func validateItems(b *domain.Builder, items []dto.InvoiceItemRequest) bool {
	ok := true
	for i, it := range items {
		if it.Description == "" {
			b.WithField(itemField(i, "description"), "es obligatoria")
			ok = false
		}
		if !it.Quantity.IsPositive() {
			b.WithField(itemField(i, "quantity"), "debe ser mayor que cero")
			ok = false
		}
		if it.UnitPrice.IsNegative() {
			b.WithField(itemField(i, "unit_price"), "no puede ser negativo")
			ok = false
		}
		if it.TaxRate.IsNegative() {
			b.WithField(itemField(i, "tax_rate"), "no puede ser negativo")
			ok = false
		}
	}
	return ok
}

func itemField(i int, name string) string {
	return "items[" + strconv.Itoa(i) + "]." + name
}

// buildItems convierte líneas del request en entidades con importe calculado.
func buildItems(in []dto.InvoiceItemRequest, now time.Time) []entity.InvoiceItem {
	items := make([]entity.InvoiceItem, 0, len(in))
	for i, it := range in {
		items = append(items, entity.InvoiceItem{
			ID:          uuid.New().String(),
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			Amount:      billing.ItemAmount(it.Quantity, it.UnitPrice, it.TaxRate),
			Position:    i + 1,
			CreatedAt:   now,
		})
	}
	return items
}

// rederiveStatus recalcula el estado tras una mutación de pagos o líneas y
// mantiene paid_at coherente con él.
func rederiveStatus(inv *entity.Invoice, now time.Time) {
	inv.Status = billing.ComputeStatus(inv.Status, inv.TotalAmount, inv.AmountPaid, inv.DueDate, now)
	if inv.Status == entity.InvoiceStatusPaid {
		if inv.PaidAt == nil {
			t := now
			inv.PaidAt = &t
		}
	} else {
		inv.PaidAt = nil
	}
}
