package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/application/ports"
	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/billing"
	"github.com/jhoicas/billing-core/internal/domain/entity"
)

// PaymentPlanUseCase descompone el saldo de una factura en cuotas fechadas.
// Invariante del plan: la suma de las cuotas iguala el saldo pendiente al
// momento de crearlo; cada cuota se paga por su monto exacto.
type PaymentPlanUseCase struct {
	txRunner ports.TxRunner
	payments *PaymentUseCase
	clock    ports.Clock
}

// NewPaymentPlanUseCase construye el caso de uso; reutiliza el registro de
// pagos para aplicar cada cuota con las mismas reglas de un pago normal.
func NewPaymentPlanUseCase(txRunner ports.TxRunner, payments *PaymentUseCase, clock ports.Clock) *PaymentPlanUseCase {
	return &PaymentPlanUseCase{txRunner: txRunner, payments: payments, clock: clock}
}

// Create arma el plan sobre el saldo pendiente: o Count cuotas generadas con
// reparto exacto (la última absorbe el residuo de redondeo), o cuotas
// explícitas cuya suma debe igualar el saldo.
func (uc *PaymentPlanUseCase) Create(ctx context.Context, invoiceID string, in dto.CreatePaymentPlanRequest) (*dto.PaymentPlanResponse, error) {
	if err := validatePlanRequest(in); err != nil {
		return nil, err
	}
	now := uc.clock.Now()
	var plan *entity.PaymentPlan

	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		inv, err := r.Invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if !inv.IsPayable() {
			return domain.NewError("la factura %s no admite un plan en estado %s", inv.Number, inv.Status).
				Mark(domain.ErrInvalidOperation)
		}
		remaining := inv.RemainingBalance()
		if !remaining.IsPositive() {
			return domain.NewError("la factura no tiene saldo pendiente").
				Mark(domain.ErrInvalidOperation)
		}
		active, err := r.Plans.HasActivePlan(ctx, invoiceID)
		if err != nil {
			return err
		}
		if active {
			return domain.NewError("la factura ya tiene un plan de pagos activo").
				WithHint("cancele el plan vigente antes de crear otro").
				Mark(domain.ErrInvalidOperation)
		}

		plan = &entity.PaymentPlan{
			ID:        uuid.New().String(),
			InvoiceID: invoiceID,
			Status:    entity.PaymentPlanStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		insts, err := buildInstallments(plan.ID, remaining, in, now)
		if err != nil {
			return err
		}
		plan.InstallmentsTotal = len(insts)
		plan.Installments = insts

		if err := r.Plans.Create(ctx, plan); err != nil {
			return err
		}
		for i := range insts {
			if err := r.Plans.CreateInstallment(ctx, &insts[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.PaymentPlanResponseFrom(plan), nil
}

// RecordInstallmentPayment paga una cuota por su monto exacto: registra el
// pago contra la factura dueña con las reglas de cualquier pago, marca la
// cuota como pagada y completa el plan cuando cae la última.
func (uc *PaymentPlanUseCase) RecordInstallmentPayment(ctx context.Context, installmentID string, in dto.RecordPaymentRequest) (*dto.PaymentPlanResponse, error) {
	date, err := uc.payments.validatePayment(in)
	if err != nil {
		return nil, err
	}
	method, err := uc.payments.activeMethod(ctx, in.MethodID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	var (
		plan    *entity.PaymentPlan
		inv     *entity.Invoice
		payment *entity.Payment
	)
	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		inst, err := r.Plans.GetInstallment(ctx, installmentID)
		if err != nil {
			return err
		}
		if inst.Status != entity.InstallmentStatusPending {
			return domain.NewError("la cuota %d ya está %s", inst.Position, inst.Status).
				Mark(domain.ErrInvalidOperation)
		}
		plan, err = r.Plans.GetByID(ctx, inst.PlanID)
		if err != nil {
			return err
		}
		if plan.Status != entity.PaymentPlanStatusActive {
			return domain.NewError("el plan está %s", plan.Status).
				Mark(domain.ErrInvalidOperation)
		}
		if !in.Amount.Equal(inst.Amount) {
			return domain.NewError("el pago debe igualar el monto exacto de la cuota").
				WithField("amount", "la cuota "+inst.Amount.StringFixed(2)+" se paga completa").
				Mark(domain.ErrValidation)
		}

		inv, err = r.Invoices.GetForUpdate(ctx, plan.InvoiceID)
		if err != nil {
			return err
		}
		payment, err = applyPayment(ctx, r, inv, method, in.Amount, date, in.Reference, in.Notes, now)
		if err != nil {
			return err
		}

		inst.Status = entity.InstallmentStatusPaid
		inst.PaymentID = payment.ID
		inst.PaidAt = &now
		inst.UpdatedAt = now
		if err := r.Plans.UpdateInstallment(ctx, inst); err != nil {
			return err
		}

		plan.InstallmentsPaid++
		if plan.IsCompleted() {
			plan.Status = entity.PaymentPlanStatusCompleted
		}
		plan.UpdatedAt = now
		if err := r.Plans.Update(ctx, plan); err != nil {
			return err
		}
		plan.Installments, err = r.Plans.GetInstallments(ctx, plan.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.payments.notifyAfterPayment(ctx, inv, payment, method.RequiresConfirmation)
	return dto.PaymentPlanResponseFrom(plan), nil
}

// Cancel anula el plan activo dejando sus cuotas pendientes canceladas. Los
// pagos ya aplicados no se tocan.
func (uc *PaymentPlanUseCase) Cancel(ctx context.Context, planID string) (*dto.PaymentPlanResponse, error) {
	now := uc.clock.Now()
	var plan *entity.PaymentPlan

	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		var err error
		plan, err = r.Plans.GetByID(ctx, planID)
		if err != nil {
			return err
		}
		if plan.Status != entity.PaymentPlanStatusActive {
			return domain.NewError("solo se cancela un plan activo; este está %s", plan.Status).
				Mark(domain.ErrInvalidOperation)
		}
		if err := r.Plans.CancelPendingInstallments(ctx, planID); err != nil {
			return err
		}
		plan.Status = entity.PaymentPlanStatusCanceled
		plan.UpdatedAt = now
		if err := r.Plans.Update(ctx, plan); err != nil {
			return err
		}
		plan.Installments, err = r.Plans.GetInstallments(ctx, planID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto.PaymentPlanResponseFrom(plan), nil
}

// GetByInvoice plan vigente (o el último) de la factura, con sus cuotas.
func (uc *PaymentPlanUseCase) GetByInvoice(ctx context.Context, invoiceID string) (*dto.PaymentPlanResponse, error) {
	var plan *entity.PaymentPlan
	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		var err error
		plan, err = r.Plans.GetByInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		plan.Installments, err = r.Plans.GetInstallments(ctx, plan.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto.PaymentPlanResponseFrom(plan), nil
}

// validatePlanRequest exige exactamente una de las dos formas del request.
func validatePlanRequest(in dto.CreatePaymentPlanRequest) error {
	b := domain.NewError("plan de pagos inválido")
	invalid := false

	generated := in.Count > 0
	explicit := len(in.Installments) > 0
	switch {
	case generated && explicit:
		return b.WithField("count", "use count o installments, no ambos").
			Mark(domain.ErrValidation)
	case !generated && !explicit:
		return b.WithField("count", "indique count o una lista de installments").
			Mark(domain.ErrValidation)
	}

	if generated {
		if in.FirstDueDate == "" {
			b.WithField("first_due_date", "es obligatoria")
			invalid = true
		} else if _, err := dto.ParseDate(in.FirstDueDate); err != nil {
			b.WithField("first_due_date", "formato esperado YYYY-MM-DD")
			invalid = true
		}
		if in.IntervalDays < 0 {
			b.WithField("interval_days", "no puede ser negativo")
			invalid = true
		}
	} else {
		for i, inst := range in.Installments {
			if !inst.Amount.IsPositive() {
				b.WithField(itemField(i, "amount"), "debe ser mayor que cero")
				invalid = true
			}
			if _, err := dto.ParseDate(inst.DueDate); err != nil {
				b.WithField(itemField(i, "due_date"), "formato esperado YYYY-MM-DD")
				invalid = true
			}
		}
	}
	if invalid {
		return b.Mark(domain.ErrValidation)
	}
	return nil
}

// buildInstallments materializa las cuotas según la forma del request,
// garantizando que su suma iguale el saldo.
func buildInstallments(planID string, remaining decimal.Decimal, in dto.CreatePaymentPlanRequest, now time.Time) ([]entity.Installment, error) {
	if in.Count > 0 {
		first, _ := dto.ParseDate(in.FirstDueDate)
		interval := in.IntervalDays
		if interval == 0 {
			interval = 30
		}
		parts := billing.InstallmentSplit(remaining, in.Count)
		insts := make([]entity.Installment, 0, len(parts))
		for i, amount := range parts {
			insts = append(insts, entity.Installment{
				ID:        uuid.New().String(),
				PlanID:    planID,
				Position:  i + 1,
				Amount:    amount,
				DueDate:   first.AddDate(0, 0, i*interval),
				Status:    entity.InstallmentStatusPending,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		return insts, nil
	}

	sum := decimal.Zero
	insts := make([]entity.Installment, 0, len(in.Installments))
	for i, req := range in.Installments {
		due, _ := dto.ParseDate(req.DueDate)
		sum = sum.Add(req.Amount)
		insts = append(insts, entity.Installment{
			ID:        uuid.New().String(),
			PlanID:    planID,
			Position:  i + 1,
			Amount:    req.Amount,
			DueDate:   due,
			Status:    entity.InstallmentStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if !sum.Equal(remaining) {
		return nil, domain.NewError("las cuotas suman %s pero el saldo pendiente es %s",
			sum.StringFixed(2), remaining.StringFixed(2)).
			WithField("installments", "la suma debe igualar el saldo exacto").
			Mark(domain.ErrValidation)
	}
	return insts, nil
}
