package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/application/ports"
	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/domain/repository"
	"github.com/jhoicas/billing-core/pkg/logger"
)

// PaymentUseCase registra, confirma, corrige y revierte pagos de forma
// transaccional con bloqueo de la factura (SELECT FOR UPDATE), de modo que dos
// pagos concurrentes vean el mismo saldo y el sobrepago sea imposible.
type PaymentUseCase struct {
	txRunner  ports.TxRunner
	invoices  repository.InvoiceRepository
	payments  repository.PaymentRepository
	methods   repository.PaymentMethodRepository
	directory ports.ClientDirectory
	notifier  ports.Notifier
	clock     ports.Clock
	log       *logger.Logger
}

// NewPaymentUseCase construye el caso de uso.
func NewPaymentUseCase(
	txRunner ports.TxRunner,
	invoices repository.InvoiceRepository,
	payments repository.PaymentRepository,
	methods repository.PaymentMethodRepository,
	directory ports.ClientDirectory,
	notifier ports.Notifier,
	clock ports.Clock,
	log *logger.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		txRunner:  txRunner,
		invoices:  invoices,
		payments:  payments,
		methods:   methods,
		directory: directory,
		notifier:  notifier,
		clock:     clock,
		log:       log,
	}
}

// Record aplica un pago a la factura en una transacción: bloquea la fila,
// rechaza sobrepagos contra el saldo consistente, inserta el pago e incrementa
// amount_paid rederivando el estado. Los avisos salen después del commit y su
// falla nunca revierte el pago.
func (uc *PaymentUseCase) Record(ctx context.Context, invoiceID string, in dto.RecordPaymentRequest) (*dto.RecordPaymentResponse, error) {
	date, err := uc.validatePayment(in)
	if err != nil {
		return nil, err
	}
	method, err := uc.activeMethod(ctx, in.MethodID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	var (
		inv     *entity.Invoice
		payment *entity.Payment
	)
	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		inv, err = r.Invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		payment, err = applyPayment(ctx, r, inv, method, in.Amount, date, in.Reference, in.Notes, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	notified, detail := uc.notifyAfterPayment(ctx, inv, payment, method.RequiresConfirmation)

	if items, err := uc.invoices.GetItems(ctx, inv.ID); err == nil {
		inv.Items = items
	}
	return &dto.RecordPaymentResponse{
		Payment:     dto.PaymentResponseFrom(payment),
		Invoice:     dto.InvoiceResponseFrom(inv),
		Notified:    notified,
		NotifyError: detail,
	}, nil
}

// Confirm marca como confirmado un pago pendiente de confirmación manual y
// despacha el recibo al cliente.
func (uc *PaymentUseCase) Confirm(ctx context.Context, paymentID string) (*dto.PaymentResponse, error) {
	now := uc.clock.Now()
	var payment *entity.Payment

	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		var err error
		payment, err = r.Payments.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment.Confirmed {
			return domain.NewError("el pago ya fue confirmado").Mark(domain.ErrInvalidOperation)
		}
		payment.Confirmed = true
		payment.ConfirmedAt = &now
		payment.UpdatedAt = now
		return r.Payments.Update(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	if inv, err := uc.invoices.GetByID(ctx, payment.InvoiceID); err == nil {
		uc.notifyAfterPayment(ctx, inv, payment, false)
	}
	return dto.PaymentResponseFrom(payment), nil
}

// Update corrige metadatos del pago (método, fecha, referencia, notas).
// El monto de un pago registrado no se toca: se elimina y se registra de nuevo.
func (uc *PaymentUseCase) Update(ctx context.Context, paymentID string, in dto.UpdatePaymentRequest) (*dto.PaymentResponse, error) {
	payment, err := uc.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if in.MethodID != nil {
		if _, err := uc.methods.GetByID(ctx, *in.MethodID); err != nil {
			return nil, err
		}
		payment.MethodID = *in.MethodID
	}
	if in.PaymentDate != nil {
		parsed, err := dto.ParseDate(*in.PaymentDate)
		if err != nil {
			return nil, domain.NewError("pago inválido").
				WithField("payment_date", "formato esperado YYYY-MM-DD").
				Mark(domain.ErrValidation)
		}
		payment.PaymentDate = parsed
	}
	if in.Reference != nil {
		payment.Reference = *in.Reference
	}
	if in.Notes != nil {
		payment.Notes = *in.Notes
	}
	payment.UpdatedAt = uc.clock.Now()
	if err := uc.payments.Update(ctx, payment); err != nil {
		return nil, err
	}
	return dto.PaymentResponseFrom(payment), nil
}

// Delete revierte el pago sobre su factura: tras borrarlo, amount_paid se
// recalcula como la suma de los pagos que quedan, así nunca puede volverse
// negativo, y el estado regresa según saldo y vencimiento.
func (uc *PaymentUseCase) Delete(ctx context.Context, paymentID string) (*dto.InvoiceResponse, error) {
	now := uc.clock.Now()
	var inv *entity.Invoice

	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		payment, err := r.Payments.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		inv, err = r.Invoices.GetForUpdate(ctx, payment.InvoiceID)
		if err != nil {
			return err
		}
		if err := r.Payments.Delete(ctx, paymentID); err != nil {
			return err
		}
		sum, err := r.Payments.SumByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		inv.AmountPaid = sum
		rederiveStatus(inv, now)
		inv.UpdatedAt = now
		return r.Invoices.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	if items, err := uc.invoices.GetItems(ctx, inv.ID); err == nil {
		inv.Items = items
	}
	return dto.InvoiceResponseFrom(inv), nil
}

// ListByInvoice pagos de una factura, el más reciente primero.
func (uc *PaymentUseCase) ListByInvoice(ctx context.Context, invoiceID string) ([]*dto.PaymentResponse, error) {
	if _, err := uc.invoices.GetByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	list, err := uc.payments.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.PaymentResponse, 0, len(list))
	for _, p := range list {
		out = append(out, dto.PaymentResponseFrom(p))
	}
	return out, nil
}

// validatePayment revisa monto, método y fecha del request.
func (uc *PaymentUseCase) validatePayment(in dto.RecordPaymentRequest) (time.Time, error) {
	b := domain.NewError("pago inválido")
	invalid := false
	if !in.Amount.IsPositive() {
		b.WithField("amount", "debe ser mayor que cero")
		invalid = true
	}
	if in.MethodID == "" {
		b.WithField("method_id", "es obligatorio")
		invalid = true
	}
	date := uc.clock.Now()
	if in.PaymentDate != "" {
		parsed, err := dto.ParseDate(in.PaymentDate)
		if err != nil {
			b.WithField("payment_date", "formato esperado YYYY-MM-DD")
			invalid = true
		} else {
			date = parsed
		}
	}
	if invalid {
		return time.Time{}, b.Mark(domain.ErrValidation)
	}
	return date, nil
}

// activeMethod carga el método y exige que esté activo.
func (uc *PaymentUseCase) activeMethod(ctx context.Context, methodID string) (*entity.PaymentMethod, error) {
	method, err := uc.methods.GetByID(ctx, methodID)
	if err != nil {
		return nil, err
	}
	if !method.IsActive {
		return nil, domain.NewError("el método de pago %s está inactivo", method.Name).
			WithField("method_id", "método inactivo").
			Mark(domain.ErrValidation)
	}
	return method, nil
}

// notifyAfterPayment despacha los avisos posteriores al commit: notificación
// de confirmación pendiente, o recibo por correo más aviso in-app. Devuelve si
// el aviso principal salió y el detalle de la falla si no.
func (uc *PaymentUseCase) notifyAfterPayment(ctx context.Context, inv *entity.Invoice, p *entity.Payment, requiresConfirmation bool) (bool, string) {
	if requiresConfirmation && !p.Confirmed {
		err := uc.notifier.CreateNotification(ctx, ports.NotificationRequest{
			Type:       entity.NotificationPaymentConfirmation,
			Title:      "Pago por confirmar",
			Message:    fmt.Sprintf("Pago de %s sobre la factura %s a la espera de confirmación", p.Amount.StringFixed(2), inv.Number),
			EntityID:   p.ID,
			EntityType: "payment",
		})
		if err != nil {
			uc.log.Warn().Err(err).Str("payment_id", p.ID).Msg("no se pudo crear la notificación de confirmación")
			return false, err.Error()
		}
		return true, ""
	}

	if err := uc.notifier.CreateNotification(ctx, ports.NotificationRequest{
		Type:       entity.NotificationPaymentReceived,
		Title:      "Pago recibido",
		Message:    fmt.Sprintf("Pago de %s aplicado a la factura %s", p.Amount.StringFixed(2), inv.Number),
		EntityID:   p.ID,
		EntityType: "payment",
	}); err != nil {
		uc.log.Warn().Err(err).Str("payment_id", p.ID).Msg("no se pudo crear la notificación de pago")
	}

	client, err := uc.directory.FindByID(ctx, inv.ClientID)
	if err != nil || client.Email == "" {
		uc.log.Warn().Str("invoice_id", inv.ID).Str("client_id", inv.ClientID).
			Msg("sin correo de cliente para enviar el recibo")
		return false, "el cliente no tiene correo registrado"
	}
	res := uc.notifier.SendEmail(ctx, ports.EmailRequest{
		To:      client.Email,
		Subject: fmt.Sprintf("Pago recibido - factura %s", inv.Number),
		Body: fmt.Sprintf(
			"Hola %s,\n\nRecibimos tu pago de %s sobre la factura %s.\nSaldo pendiente: %s.\n\nGracias por tu pago.",
			client.Name, p.Amount.StringFixed(2), inv.Number, inv.RemainingBalance().StringFixed(2)),
	})
	if !res.Success {
		uc.log.Warn().Str("invoice_id", inv.ID).Str("error", res.Error).Msg("falló el envío del recibo")
		return false, res.Error
	}
	return true, ""
}

// applyPayment núcleo transaccional compartido: valida que la factura admita
// pagos, rechaza el sobrepago contra el saldo bloqueado, inserta el pago y
// actualiza la factura. Debe llamarse con la factura ya bloqueada.
func applyPayment(
	ctx context.Context,
	r ports.Repos,
	inv *entity.Invoice,
	method *entity.PaymentMethod,
	amount decimal.Decimal,
	date time.Time,
	reference, notes string,
	now time.Time,
) (*entity.Payment, error) {
	if !inv.IsPayable() {
		return nil, domain.NewError("la factura %s no admite pagos en estado %s", inv.Number, inv.Status).
			Mark(domain.ErrInvalidOperation)
	}
	remaining := inv.RemainingBalance()
	if amount.GreaterThan(remaining) {
		return nil, domain.NewError("el pago %s excede el saldo pendiente %s",
			amount.StringFixed(2), remaining.StringFixed(2)).
			WithField("amount", "no se admite el sobrepago").
			Mark(domain.ErrValidation)
	}

	payment := &entity.Payment{
		ID:          uuid.New().String(),
		InvoiceID:   inv.ID,
		MethodID:    method.ID,
		Amount:      amount,
		PaymentDate: date,
		Reference:   reference,
		Notes:       notes,
		Confirmed:   !method.RequiresConfirmation,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if payment.Confirmed {
		payment.ConfirmedAt = &now
	}
	if err := r.Payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	inv.AmountPaid = inv.AmountPaid.Add(amount)
	rederiveStatus(inv, now)
	inv.UpdatedAt = now
	if err := r.Invoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	return payment, nil
}
