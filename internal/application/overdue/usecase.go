package overdue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/application/ports"
	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/billing"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/domain/repository"
	"github.com/jhoicas/billing-core/pkg/logger"
)

const (
	cacheKeyConfig = "overdue:config"
	cacheKeyStats  = "overdue:stats"

	// El barrido solo auto-aplica recargo si no hay una línea de recargo en
	// los últimos 30 días. Las aplicaciones manuales no tienen ventana.
	autoFeeWindowDays = 30
)

// UseCase motor de cobranza: cartera vencida, recordatorios escalonados,
// recargos por mora y el barrido diario que los combina.
type UseCase struct {
	txRunner  ports.TxRunner
	invoices  repository.InvoiceRepository
	reminders repository.ReminderLogRepository
	config    repository.OverdueConfigRepository
	cache     ports.Cache
	cacheTTL  time.Duration
	directory ports.ClientDirectory
	notifier  ports.Notifier
	clock     ports.Clock
	log       *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner ports.TxRunner,
	invoices repository.InvoiceRepository,
	reminders repository.ReminderLogRepository,
	config repository.OverdueConfigRepository,
	cache ports.Cache,
	cacheTTL time.Duration,
	directory ports.ClientDirectory,
	notifier ports.Notifier,
	clock ports.Clock,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:  txRunner,
		invoices:  invoices,
		reminders: reminders,
		config:    config,
		cache:     cache,
		cacheTTL:  cacheTTL,
		directory: directory,
		notifier:  notifier,
		clock:     clock,
		log:       log,
	}
}

// ListOverdue facturas en sent/partial/overdue con vencimiento pasado y saldo
// pendiente, anotadas con días de mora y saldo.
func (uc *UseCase) ListOverdue(ctx context.Context, in dto.ListOverdueRequest) ([]*dto.OverdueInvoiceResponse, error) {
	today := uc.clock.Now()
	list, err := uc.invoices.ListOverdue(ctx, today, in.ClientID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.OverdueInvoiceResponse, 0, len(list))
	for _, inv := range list {
		days := billing.DaysOverdue(inv.DueDate, today)
		if days < in.MinDays {
			continue
		}
		out = append(out, &dto.OverdueInvoiceResponse{
			InvoiceResponse: dto.InvoiceResponseFrom(inv),
			DaysOverdue:     days,
		})
	}
	return out, nil
}

// SendReminder evalúa la política (o acepta un nivel explícito), envía el
// correo y registra el intento en el historial pase lo que pase con el envío.
// La falla de entrega se informa en la respuesta, no como error.
func (uc *UseCase) SendReminder(ctx context.Context, invoiceID string, in dto.SendReminderRequest) (*dto.SendReminderResponse, error) {
	inv, err := uc.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.IsPayable() || !inv.RemainingBalance().IsPositive() {
		return nil, domain.NewError("la factura %s no tiene saldo pendiente que recordar", inv.Number).
			Mark(domain.ErrInvalidOperation)
	}
	today := uc.clock.Now()
	days := billing.DaysOverdue(inv.DueDate, today)

	var tier entity.ReminderTier
	if in.Tier != "" {
		tier = entity.ReminderTier(in.Tier)
		if err := tier.Validate(); err != nil {
			return nil, err
		}
	} else {
		cfg, err := uc.getConfig(ctx)
		if err != nil {
			return nil, err
		}
		logs, err := uc.reminders.ListByInvoice(ctx, invoiceID)
		if err != nil {
			return nil, err
		}
		decision := billing.NextReminder(days, logs, cfg, today)
		if !decision.Send {
			return &dto.SendReminderResponse{Sent: false, Reason: decision.Reason}, nil
		}
		tier = decision.Tier
	}

	return uc.deliverReminder(ctx, inv, tier, days, today)
}

// deliverReminder arma el mensaje del nivel, lo envía y deja el registro con
// el resultado. El historial crece incluso cuando el correo falla: el intento
// consumió su turno de escalamiento.
func (uc *UseCase) deliverReminder(ctx context.Context, inv *entity.Invoice, tier entity.ReminderTier, days int, now time.Time) (*dto.SendReminderResponse, error) {
	var res ports.EmailResult
	client, err := uc.directory.FindByID(ctx, inv.ClientID)
	switch {
	case err != nil:
		res = ports.EmailResult{Success: false, Error: "cliente no encontrado en el directorio"}
	case client.Email == "":
		res = ports.EmailResult{Success: false, Error: "el cliente no tiene correo registrado"}
	default:
		subject, body := reminderMessage(tier, inv, client, days)
		res = uc.notifier.SendEmail(ctx, ports.EmailRequest{To: client.Email, Subject: subject, Body: body})
	}

	entry := &entity.ReminderLog{
		ID:          uuid.New().String(),
		InvoiceID:   inv.ID,
		Tier:        tier,
		SentAt:      now,
		Success:     res.Success,
		ErrorDetail: res.Error,
		CreatedAt:   now,
	}
	if err := uc.reminders.Append(ctx, entry); err != nil {
		return nil, err
	}

	if res.Success {
		if err := uc.notifier.CreateNotification(ctx, ports.NotificationRequest{
			Type:       entity.NotificationInvoiceReminder,
			Title:      "Recordatorio enviado",
			Message:    fmt.Sprintf("Recordatorio %s de la factura %s (%d días de mora)", tier, inv.Number, days),
			EntityID:   inv.ID,
			EntityType: "invoice",
		}); err != nil {
			uc.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("no se pudo crear la notificación del recordatorio")
		}
	} else {
		uc.log.Warn().Str("invoice_id", inv.ID).Str("tier", tier.String()).
			Str("error", res.Error).Msg("recordatorio no entregado")
	}

	return &dto.SendReminderResponse{
		Sent:  res.Success,
		Tier:  tier.String(),
		Error: res.Error,
	}, nil
}

// ApplyLateFee agrega el recargo como línea marcada y sube total_amount sin
// tocar amount_paid. La llamada manual no tiene ventana de 30 días; esa regla
// es del barrido.
func (uc *UseCase) ApplyLateFee(ctx context.Context, invoiceID string, in dto.ApplyLateFeeRequest) (*dto.InvoiceResponse, error) {
	cfg, err := uc.getConfig(ctx)
	if err != nil {
		return nil, err
	}
	feeType := cfg.LateFeeType
	if in.Type != nil {
		feeType = entity.LateFeeType(*in.Type)
		if err := feeType.Validate(); err != nil {
			return nil, err
		}
	}
	base := cfg.LateFeeAmount
	if in.Amount != nil {
		if in.Amount.IsNegative() {
			return nil, domain.NewError("recargo inválido").
				WithField("amount", "no puede ser negativo").
				Mark(domain.ErrValidation)
		}
		base = *in.Amount
	}

	now := uc.clock.Now()
	var inv *entity.Invoice

	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		var err error
		inv, err = r.Invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		switch inv.Status {
		case entity.InvoiceStatusPaid, entity.InvoiceStatusCanceled, entity.InvoiceStatusDraft:
			return domain.NewError("no se aplica recargo a una factura %s", inv.Status).
				Mark(domain.ErrInvalidOperation)
		}
		fee := billing.LateFee(feeType, base, inv.TotalAmount)
		if !fee.IsPositive() {
			return domain.NewError("el recargo calculado es cero").
				WithHint("revise la configuración de mora o el monto enviado").
				Mark(domain.ErrInvalidOperation)
		}
		items, err := r.Invoices.GetItems(ctx, inv.ID)
		if err != nil {
			return err
		}

		days := billing.DaysOverdue(inv.DueDate, now)
		item := &entity.InvoiceItem{
			ID:          uuid.New().String(),
			InvoiceID:   inv.ID,
			Description: fmt.Sprintf("Recargo por mora (%d días)", days),
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   fee,
			TaxRate:     decimal.Zero,
			Amount:      fee,
			Position:    len(items) + 1,
			IsLateFee:   true,
			CreatedAt:   now,
		}
		if err := r.Invoices.CreateItem(ctx, item); err != nil {
			return err
		}
		inv.Items = append(items, *item)
		inv.TotalAmount = inv.TotalAmount.Add(fee)
		inv.Status = billing.ComputeStatus(inv.Status, inv.TotalAmount, inv.AmountPaid, inv.DueDate, now)
		inv.UpdatedAt = now
		return r.Invoices.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	uc.cache.Delete(cacheKeyStats)
	if err := uc.notifier.CreateNotification(ctx, ports.NotificationRequest{
		Type:       entity.NotificationLateFeeApplied,
		Title:      "Recargo por mora aplicado",
		Message:    fmt.Sprintf("La factura %s recibió un recargo; nuevo total %s", inv.Number, inv.TotalAmount.StringFixed(2)),
		EntityID:   inv.ID,
		EntityType: "invoice",
	}); err != nil {
		uc.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("no se pudo crear la notificación del recargo")
	}
	return dto.InvoiceResponseFrom(inv), nil
}

// ProcessOverdue barrido diario: por cada factura vencida evalúa recordatorio
// y recargo automático de forma independiente. Una factura que falle se anota
// y el barrido continúa con la siguiente.
func (uc *UseCase) ProcessOverdue(ctx context.Context) (*dto.ProcessOverdueResponse, error) {
	today := uc.clock.Now()
	cfg, err := uc.getConfig(ctx)
	if err != nil {
		return nil, err
	}
	list, err := uc.invoices.ListOverdue(ctx, today, "")
	if err != nil {
		return nil, err
	}

	out := &dto.ProcessOverdueResponse{}
	for _, inv := range list {
		out.Processed++
		days := billing.DaysOverdue(inv.DueDate, today)

		logs, err := uc.reminders.ListByInvoice(ctx, inv.ID)
		if err != nil {
			out.Failed++
			out.Errors = append(out.Errors, fmt.Sprintf("factura %s: %v", inv.Number, err))
			continue
		}
		if decision := billing.NextReminder(days, logs, cfg, today); decision.Send {
			res, err := uc.deliverReminder(ctx, inv, decision.Tier, days, today)
			switch {
			case err != nil:
				out.Failed++
				out.Errors = append(out.Errors, fmt.Sprintf("factura %s: %v", inv.Number, err))
			case res.Sent:
				out.RemindersSent++
			default:
				out.Failed++
				out.Errors = append(out.Errors, fmt.Sprintf("factura %s: %s", inv.Number, res.Error))
			}
		}

		if cfg.AutoLateFee && days > cfg.GracePeriodDays {
			since := today.AddDate(0, 0, -autoFeeWindowDays)
			applied, err := uc.invoices.HasLateFeeSince(ctx, inv.ID, since)
			if err != nil {
				out.Failed++
				out.Errors = append(out.Errors, fmt.Sprintf("factura %s: %v", inv.Number, err))
				continue
			}
			if !applied {
				if _, err := uc.ApplyLateFee(ctx, inv.ID, dto.ApplyLateFeeRequest{}); err != nil {
					out.Failed++
					out.Errors = append(out.Errors, fmt.Sprintf("factura %s: %v", inv.Number, err))
					continue
				}
				out.FeesApplied++
			}
		}
	}

	uc.log.Info().
		Int("processed", out.Processed).
		Int("reminders_sent", out.RemindersSent).
		Int("fees_applied", out.FeesApplied).
		Int("failed", out.Failed).
		Msg("barrido de cobranza")
	return out, nil
}

// Statistics tablero de cartera vencida por tramos de antigüedad, cacheado.
func (uc *UseCase) Statistics(ctx context.Context) (*dto.OverdueStatisticsResponse, error) {
	if cached, ok := uc.cache.Get(cacheKeyStats); ok {
		if stats, ok := cached.(*dto.OverdueStatisticsResponse); ok {
			return stats, nil
		}
	}

	today := uc.clock.Now()
	buckets, err := uc.invoices.AgingBuckets(ctx, today)
	if err != nil {
		return nil, err
	}
	stats := &dto.OverdueStatisticsResponse{
		TotalAmount: decimal.Zero,
		Buckets:     make([]dto.AgingBucketResponse, 0, len(buckets)),
	}
	for _, b := range buckets {
		stats.Count += b.Count
		stats.TotalAmount = stats.TotalAmount.Add(b.TotalAmount)
		stats.Buckets = append(stats.Buckets, dto.AgingBucketResponse{
			Label:       b.Label,
			Count:       b.Count,
			TotalAmount: b.TotalAmount,
		})
	}
	uc.cache.Set(cacheKeyStats, stats, uc.cacheTTL)
	return stats, nil
}

// GetConfig configuración vigente de cobranza.
func (uc *UseCase) GetConfig(ctx context.Context) (*dto.OverdueConfigResponse, error) {
	cfg, err := uc.getConfig(ctx)
	if err != nil {
		return nil, err
	}
	return dto.OverdueConfigResponseFrom(cfg), nil
}

// UpdateConfig valida y persiste la configuración, invalidando el caché.
func (uc *UseCase) UpdateConfig(ctx context.Context, in dto.OverdueConfigRequest) (*dto.OverdueConfigResponse, error) {
	cfg := &entity.OverdueConfig{
		GracePeriodDays:       in.GracePeriodDays,
		ReminderFrequencyDays: in.ReminderFrequencyDays,
		MaxReminders:          in.MaxReminders,
		LateFeeType:           entity.LateFeeType(in.LateFeeType),
		LateFeeAmount:         in.LateFeeAmount,
		AutoLateFee:           in.AutoLateFee,
		UpdatedAt:             uc.clock.Now(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := uc.config.Update(ctx, cfg); err != nil {
		return nil, err
	}
	uc.cache.Delete(cacheKeyConfig)
	uc.cache.Delete(cacheKeyStats)
	return dto.OverdueConfigResponseFrom(cfg), nil
}

// ListReminders historial de recordatorios de una factura.
func (uc *UseCase) ListReminders(ctx context.Context, invoiceID string) ([]*dto.ReminderLogResponse, error) {
	if _, err := uc.invoices.GetByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	logs, err := uc.reminders.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ReminderLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.ReminderLogResponseFrom(l))
	}
	return out, nil
}

// getConfig lee la configuración con caché de paso.
func (uc *UseCase) getConfig(ctx context.Context) (*entity.OverdueConfig, error) {
	if cached, ok := uc.cache.Get(cacheKeyConfig); ok {
		if cfg, ok := cached.(*entity.OverdueConfig); ok {
			return cfg, nil
		}
	}
	cfg, err := uc.config.Get(ctx)
	if err != nil {
		return nil, err
	}
	uc.cache.Set(cacheKeyConfig, cfg, uc.cacheTTL)
	return cfg, nil
}

// reminderMessage plantillas fijas por nivel con los datos de la factura.
func reminderMessage(tier entity.ReminderTier, inv *entity.Invoice, client *entity.Client, days int) (string, string) {
	balance := inv.RemainingBalance().StringFixed(2)
	due := inv.DueDate.Format("2006-01-02")

	switch tier {
	case entity.ReminderTierFirm:
		return fmt.Sprintf("Aviso de vencimiento - factura %s", inv.Number),
			fmt.Sprintf(
				"Hola %s,\n\nLa factura %s venció el %s y lleva %d días de mora.\nSaldo pendiente: %s.\n\nPor favor realiza el pago a la brevedad para evitar recargos.",
				client.Name, inv.Number, due, days, balance)
	case entity.ReminderTierUrgent:
		return fmt.Sprintf("URGENTE: factura %s con %d días de mora", inv.Number, days),
			fmt.Sprintf(
				"Hola %s,\n\nA pesar de los avisos anteriores, la factura %s sigue pendiente desde el %s (%d días de mora).\nSaldo pendiente: %s.\n\nRegulariza el pago de inmediato; la cuenta puede pasar a gestión de cobranza.",
				client.Name, inv.Number, due, days, balance)
	default:
		return fmt.Sprintf("Recordatorio de pago - factura %s", inv.Number),
			fmt.Sprintf(
				"Hola %s,\n\nTe recordamos que la factura %s venció el %s.\nSaldo pendiente: %s.\n\nSi ya realizaste el pago, ignora este mensaje.",
				client.Name, inv.Number, due, balance)
	}
}
