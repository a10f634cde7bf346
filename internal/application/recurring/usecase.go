package recurring

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/application/ports"
	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/billing"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/domain/repository"
	"github.com/jhoicas/billing-core/pkg/logger"
)

// errNotDue marca una plantilla cuyo next_date ya avanzó cuando el barrido la
// alcanzó; se salta sin contarla como falla.
var errNotDue = errors.New("la plantilla ya no está vencida")

// UseCase administra plantillas recurrentes y la generación de sus facturas.
// Cada generación avanza next_date un periodo con aritmética de calendario
// (fin de mes ajustado), lo que hace el barrido idempotente dentro del día.
type UseCase struct {
	txRunner  ports.TxRunner
	templates repository.RecurringRepository
	invoices  repository.InvoiceRepository
	directory ports.ClientDirectory
	notifier  ports.Notifier
	clock     ports.Clock
	log       *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner ports.TxRunner,
	templates repository.RecurringRepository,
	invoices repository.InvoiceRepository,
	directory ports.ClientDirectory,
	notifier ports.Notifier,
	clock ports.Clock,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:  txRunner,
		templates: templates,
		invoices:  invoices,
		directory: directory,
		notifier:  notifier,
		clock:     clock,
		log:       log,
	}
}

// Create valida y persiste la plantilla con sus líneas.
func (uc *UseCase) Create(ctx context.Context, in dto.CreateRecurringRequest) (*dto.RecurringResponse, error) {
	b := domain.NewError("plantilla inválida")
	invalid := false

	if in.ClientID == "" {
		b.WithField("client_id", "es obligatorio")
		invalid = true
	}
	if in.Title == "" {
		b.WithField("title", "es obligatorio")
		invalid = true
	}
	freq := entity.RecurringFrequency(in.Frequency)
	if err := freq.Validate(); err != nil {
		b.WithField("frequency", "frecuencia desconocida")
		invalid = true
	}
	if in.Interval < 0 {
		b.WithField("interval", "no puede ser negativo")
		invalid = true
	}
	var nextDate time.Time
	if in.StartDate == "" {
		b.WithField("start_date", "es obligatoria")
		invalid = true
	} else if parsed, err := dto.ParseDate(in.StartDate); err != nil {
		b.WithField("start_date", "formato esperado YYYY-MM-DD")
		invalid = true
	} else {
		nextDate = parsed
	}
	var endDate *time.Time
	if in.EndDate != "" {
		parsed, err := dto.ParseDate(in.EndDate)
		if err != nil {
			b.WithField("end_date", "formato esperado YYYY-MM-DD")
			invalid = true
		} else if !nextDate.IsZero() && parsed.Before(nextDate) {
			b.WithField("end_date", "debe ser posterior a start_date")
			invalid = true
		} else {
			endDate = &parsed
		}
	}
	if in.DueDays < 0 {
		b.WithField("due_days", "no puede ser negativo")
		invalid = true
	}
	if len(in.Items) == 0 {
		b.WithField("items", "se requiere al menos una línea")
		invalid = true
	}
	if !validateTemplateItems(b, in.Items) {
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
	tpl := &entity.RecurringTemplate{
		ID:          uuid.New().String(),
		ClientID:    in.ClientID,
		Title:       in.Title,
		Description: in.Description,
		Frequency:   freq,
		Interval:    max(in.Interval, 1),
		NextDate:    nextDate,
		EndDate:     endDate,
		DueDays:     in.DueDays,
		AutoSend:    in.AutoSend,
		Status:      entity.RecurringStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       buildTemplateItems(in.Items),
	}

	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		if err := r.Recurring.Create(ctx, tpl); err != nil {
			return err
		}
		for i := range tpl.Items {
			tpl.Items[i].TemplateID = tpl.ID
			if err := r.Recurring.CreateItem(ctx, &tpl.Items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := dto.RecurringResponseFrom(tpl)
	resp.ClientName = client.Name
	return resp, nil
}

// GetByID plantilla con líneas e historial de generaciones.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*dto.RecurringResponse, error) {
	tpl, err := uc.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tpl.Items, err = uc.templates.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}
	gens, err := uc.templates.ListGenerations(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := dto.RecurringResponseFrom(tpl)
	for _, g := range gens {
		resp.Generations = append(resp.Generations, &dto.GenerationResponse{
			ID:          g.ID,
			InvoiceID:   g.InvoiceID,
			GeneratedAt: g.GeneratedAt.Format(time.RFC3339),
		})
	}
	if client, err := uc.directory.FindByID(ctx, tpl.ClientID); err == nil {
		resp.ClientName = client.Name
	}
	return resp, nil
}

// List plantillas filtradas por cliente y estado.
func (uc *UseCase) List(ctx context.Context, in dto.ListRecurringRequest) (*dto.RecurringListResponse, error) {
	in.DefaultPage()
	filter := repository.RecurringFilter{
		ClientID: in.ClientID,
		Limit:    in.Limit,
		Offset:   in.Offset,
	}
	if in.Status != "" {
		filter.Status = entity.RecurringStatus(in.Status)
		if err := filter.Status.Validate(); err != nil {
			return nil, err
		}
	}
	list, total, err := uc.templates.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.RecurringResponse, 0, len(list))
	for _, tpl := range list {
		out = append(out, dto.RecurringResponseFrom(tpl))
	}
	return &dto.RecurringListResponse{
		Templates: out,
		Page:      dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

// Update parcha la plantilla; una cancelada debe reactivarse primero. Si los
// cambios dejan next_date dentro de end_date, una plantilla completada vuelve
// a estar activa.
func (uc *UseCase) Update(ctx context.Context, id string, in dto.UpdateRecurringRequest) (*dto.RecurringResponse, error) {
	now := uc.clock.Now()
	var tpl *entity.RecurringTemplate

	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		var err error
		tpl, err = r.Recurring.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if tpl.Status == entity.RecurringStatusCanceled {
			return domain.NewError("la plantilla está cancelada").
				WithHint("reactívela antes de modificarla").
				Mark(domain.ErrInvalidOperation)
		}

		if in.Title != nil {
			if *in.Title == "" {
				return domain.NewError("plantilla inválida").
					WithField("title", "no puede quedar vacío").
					Mark(domain.ErrValidation)
			}
			tpl.Title = *in.Title
		}
		if in.Description != nil {
			tpl.Description = *in.Description
		}
		if in.Frequency != nil {
			freq := entity.RecurringFrequency(*in.Frequency)
			if err := freq.Validate(); err != nil {
				return err
			}
			tpl.Frequency = freq
		}
		if in.Interval != nil {
			if *in.Interval < 1 {
				return domain.NewError("plantilla inválida").
					WithField("interval", "debe ser al menos 1").
					Mark(domain.ErrValidation)
			}
			tpl.Interval = *in.Interval
		}
		if in.NextDate != nil {
			parsed, err := dto.ParseDate(*in.NextDate)
			if err != nil {
				return domain.NewError("plantilla inválida").
					WithField("next_date", "formato esperado YYYY-MM-DD").
					Mark(domain.ErrValidation)
			}
			tpl.NextDate = parsed
		}
		if in.EndDate != nil {
			if *in.EndDate == "" {
				tpl.EndDate = nil
			} else {
				parsed, err := dto.ParseDate(*in.EndDate)
				if err != nil {
					return domain.NewError("plantilla inválida").
						WithField("end_date", "formato esperado YYYY-MM-DD").
						Mark(domain.ErrValidation)
				}
				tpl.EndDate = &parsed
			}
		}
		if in.DueDays != nil {
			if *in.DueDays < 0 {
				return domain.NewError("plantilla inválida").
					WithField("due_days", "no puede ser negativo").
					Mark(domain.ErrValidation)
			}
			tpl.DueDays = *in.DueDays
		}
		if in.AutoSend != nil {
			tpl.AutoSend = *in.AutoSend
		}
		if in.Items != nil {
			b := domain.NewError("plantilla inválida")
			if len(in.Items) == 0 {
				return b.WithField("items", "se requiere al menos una línea").
					Mark(domain.ErrValidation)
			}
			if !validateTemplateItems(b, in.Items) {
				return b.Mark(domain.ErrValidation)
			}
			items := buildTemplateItems(in.Items)
			for i := range items {
				items[i].TemplateID = tpl.ID
			}
			if err := r.Recurring.ReplaceItems(ctx, tpl.ID, items); err != nil {
				return err
			}
			tpl.Items = items
		}

		if tpl.Status == entity.RecurringStatusCompleted &&
			(tpl.EndDate == nil || !tpl.NextDate.After(*tpl.EndDate)) {
			tpl.Status = entity.RecurringStatusActive
		}
		tpl.UpdatedAt = now
		if err := r.Recurring.Update(ctx, tpl); err != nil {
			return err
		}
		if in.Items == nil {
			tpl.Items, err = r.Recurring.GetItems(ctx, tpl.ID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.RecurringResponseFrom(tpl), nil
}

// Delete elimina la plantilla solo si nunca generó facturas; el historial de
// generaciones debe sobrevivir.
func (uc *UseCase) Delete(ctx context.Context, id string) error {
	return uc.txRunner.Run(ctx, func(r ports.Repos) error {
		if _, err := r.Recurring.GetForUpdate(ctx, id); err != nil {
			return err
		}
		count, err := r.Recurring.CountGenerations(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.NewError("la plantilla ya generó %d facturas", count).
				WithHint("cancélela en lugar de eliminarla").
				Mark(domain.ErrInvalidOperation)
		}
		return r.Recurring.Delete(ctx, id)
	})
}

// Cancel detiene la plantilla; no genera más facturas hasta reactivarla.
func (uc *UseCase) Cancel(ctx context.Context, id string) (*dto.RecurringResponse, error) {
	return uc.setStatus(ctx, id, entity.RecurringStatusCanceled)
}

// Reactivate devuelve a activa una plantilla cancelada; si su next_date quedó
// en el pasado lo avanza periodo a periodo hasta hoy o después.
func (uc *UseCase) Reactivate(ctx context.Context, id string) (*dto.RecurringResponse, error) {
	now := uc.clock.Now()
	var tpl *entity.RecurringTemplate

	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		var err error
		tpl, err = r.Recurring.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if tpl.Status != entity.RecurringStatusCanceled {
			return domain.NewError("solo se reactiva una plantilla cancelada; esta está %s", tpl.Status).
				Mark(domain.ErrInvalidOperation)
		}
		for billing.IsPastDue(tpl.NextDate, now) {
			tpl.NextDate = billing.NextOccurrence(tpl.NextDate, tpl.Frequency, tpl.Interval)
		}
		tpl.Status = entity.RecurringStatusActive
		if tpl.EndDate != nil && tpl.NextDate.After(*tpl.EndDate) {
			tpl.Status = entity.RecurringStatusCompleted
		}
		tpl.UpdatedAt = now
		if err := r.Recurring.Update(ctx, tpl); err != nil {
			return err
		}
		tpl.Items, err = r.Recurring.GetItems(ctx, tpl.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto.RecurringResponseFrom(tpl), nil
}

// GenerateInvoice genera manualmente la factura de la plantilla y avanza su
// next_date un periodo.
func (uc *UseCase) GenerateInvoice(ctx context.Context, templateID string) (*dto.InvoiceResponse, error) {
	inv, tpl, err := uc.generate(ctx, templateID, nil)
	if err != nil {
		return nil, err
	}
	uc.afterGenerate(ctx, inv, tpl)
	return dto.InvoiceResponseFrom(inv), nil
}

// ProcessDue barrido de plantillas activas con next_date vencido. Cada
// plantilla se procesa aislada: una falla no detiene el resto, y el avance de
// next_date hace inocuo repetir el barrido el mismo día.
func (uc *UseCase) ProcessDue(ctx context.Context) (*dto.ProcessDueResponse, error) {
	today := uc.clock.Now()
	due, err := uc.templates.ListDue(ctx, today)
	if err != nil {
		return nil, err
	}

	out := &dto.ProcessDueResponse{}
	for _, tpl := range due {
		out.Processed++
		inv, fresh, err := uc.generate(ctx, tpl.ID, &today)
		switch {
		case errors.Is(err, errNotDue):
			continue
		case err != nil:
			out.Failed++
			out.Errors = append(out.Errors, fmt.Sprintf("plantilla %s: %v", tpl.ID, err))
			uc.log.Error().Err(err).Str("template_id", tpl.ID).Msg("falló la generación recurrente")
			continue
		}
		out.Generated++
		uc.afterGenerate(ctx, inv, fresh)
	}
	uc.log.Info().
		Int("processed", out.Processed).
		Int("generated", out.Generated).
		Int("failed", out.Failed).
		Msg("barrido de facturas recurrentes")
	return out, nil
}

// generate núcleo transaccional: bloquea la plantilla, materializa la factura
// con numeración consecutiva, registra la generación y avanza next_date.
// dueBy no nil exige que la plantilla siga vencida tras el bloqueo (barrido).
func (uc *UseCase) generate(ctx context.Context, templateID string, dueBy *time.Time) (*entity.Invoice, *entity.RecurringTemplate, error) {
	now := uc.clock.Now()
	var (
		inv *entity.Invoice
		tpl *entity.RecurringTemplate
	)
	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		var err error
		tpl, err = r.Recurring.GetForUpdate(ctx, templateID)
		if err != nil {
			return err
		}
		if tpl.Status != entity.RecurringStatusActive {
			return domain.NewError("la plantilla está %s, solo las activas generan facturas", tpl.Status).
				Mark(domain.ErrInvalidOperation)
		}
		if dueBy != nil && billing.CalendarDays(tpl.NextDate, *dueBy) < 0 {
			return errNotDue
		}
		tplItems, err := r.Recurring.GetItems(ctx, templateID)
		if err != nil {
			return err
		}
		if len(tplItems) == 0 {
			return domain.NewError("la plantilla no tiene líneas").
				Mark(domain.ErrInvalidOperation)
		}

		seq, err := r.Invoices.MaxNumberForYear(ctx, now.Year())
		if err != nil {
			return err
		}
		inv = &entity.Invoice{
			ID:          uuid.New().String(),
			ClientID:    tpl.ClientID,
			Number:      billing.InvoiceNumber(now.Year(), seq+1),
			Title:       tpl.Title,
			Description: tpl.Description,
			Status:      entity.InvoiceStatusPending,
			DueDate:     now.AddDate(0, 0, tpl.DueDays),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		for i, it := range tplItems {
			inv.Items = append(inv.Items, entity.InvoiceItem{
				ID:          uuid.New().String(),
				InvoiceID:   inv.ID,
				Description: it.Description,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
				TaxRate:     it.TaxRate,
				Amount:      billing.ItemAmount(it.Quantity, it.UnitPrice, it.TaxRate),
				Position:    i + 1,
				CreatedAt:   now,
			})
		}
		inv.TotalAmount = billing.InvoiceTotal(inv.Items)

		if err := r.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		for i := range inv.Items {
			if err := r.Invoices.CreateItem(ctx, &inv.Items[i]); err != nil {
				return err
			}
		}
		if err := r.Recurring.AppendGeneration(ctx, &entity.RecurringGeneration{
			ID:          uuid.New().String(),
			TemplateID:  tpl.ID,
			InvoiceID:   inv.ID,
			GeneratedAt: now,
		}); err != nil {
			return err
		}

		tpl.NextDate = billing.NextOccurrence(tpl.NextDate, tpl.Frequency, tpl.Interval)
		if tpl.EndDate != nil && tpl.NextDate.After(*tpl.EndDate) {
			tpl.Status = entity.RecurringStatusCompleted
		}
		tpl.UpdatedAt = now
		return r.Recurring.Update(ctx, tpl)
	})
	if err != nil {
		return nil, nil, err
	}
	return inv, tpl, nil
}

// afterGenerate envía la factura por correo cuando auto_send está activo y la
// marca como sent si la entrega salió. Mejor esfuerzo: la factura ya existe.
func (uc *UseCase) afterGenerate(ctx context.Context, inv *entity.Invoice, tpl *entity.RecurringTemplate) {
	if err := uc.notifier.CreateNotification(ctx, ports.NotificationRequest{
		Type:       entity.NotificationInvoiceGenerated,
		Title:      "Factura recurrente generada",
		Message:    fmt.Sprintf("La plantilla %s generó la factura %s", tpl.Title, inv.Number),
		EntityID:   inv.ID,
		EntityType: "invoice",
	}); err != nil {
		uc.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("no se pudo crear la notificación de generación")
	}
	if !tpl.AutoSend {
		return
	}

	client, err := uc.directory.FindByID(ctx, tpl.ClientID)
	if err != nil || client.Email == "" {
		uc.log.Warn().Str("template_id", tpl.ID).Str("client_id", tpl.ClientID).
			Msg("auto_send sin correo de cliente")
		return
	}
	res := uc.notifier.SendEmail(ctx, ports.EmailRequest{
		To:      client.Email,
		Subject: fmt.Sprintf("Nueva factura %s", inv.Number),
		Body: fmt.Sprintf(
			"Hola %s,\n\nSe generó la factura %s (%s) por %s.\nFecha de vencimiento: %s.\n\nGracias.",
			client.Name, inv.Number, inv.Title, inv.TotalAmount.StringFixed(2),
			inv.DueDate.Format("2006-01-02")),
	})
	if !res.Success {
		uc.log.Warn().Str("invoice_id", inv.ID).Str("error", res.Error).
			Msg("falló el envío automático de la factura")
		return
	}

	inv.Status = entity.InvoiceStatusSent
	inv.UpdatedAt = uc.clock.Now()
	if err := uc.invoices.Update(ctx, inv); err != nil {
		uc.log.Error().Err(err).Str("invoice_id", inv.ID).Msg("no se pudo marcar la factura como enviada")
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func validateTemplateItems(b *domain.Builder, items []dto.RecurringItemRequest) bool {
	ok := true
	for i, it := range items {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }
		if it.Description == "" {
			b.WithField(field("description"), "es obligatoria")
			ok = false
		}
		if !it.Quantity.IsPositive() {
			b.WithField(field("quantity"), "debe ser mayor que cero")
			ok = false
		}
		if it.UnitPrice.IsNegative() {
			b.WithField(field("unit_price"), "no puede ser negativo")
			ok = false
		}
		if it.TaxRate.IsNegative() {
			b.WithField(field("tax_rate"), "no puede ser negativo")
			ok = false
		}
	}
	return ok
}

func buildTemplateItems(in []dto.RecurringItemRequest) []entity.RecurringItem {
	items := make([]entity.RecurringItem, 0, len(in))
	for i, it := range in {
		items = append(items, entity.RecurringItem{
			ID:          uuid.New().String(),
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			Position:    i + 1,
		})
	}
	return items
}

// setStatus transición simple de estado con bloqueo de fila.
func (uc *UseCase) setStatus(ctx context.Context, id string, target entity.RecurringStatus) (*dto.RecurringResponse, error) {
	now := uc.clock.Now()
	var tpl *entity.RecurringTemplate

	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		var err error
		tpl, err = r.Recurring.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if tpl.Status == target {
			return domain.NewError("la plantilla ya está %s", target).
				Mark(domain.ErrInvalidOperation)
		}
		tpl.Status = target
		tpl.UpdatedAt = now
		if err := r.Recurring.Update(ctx, tpl); err != nil {
			return err
		}
		tpl.Items, err = r.Recurring.GetItems(ctx, tpl.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto.RecurringResponseFrom(tpl), nil
}
