package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/billing-core/pkg/logger"
)

// Migrate ejecuta las sentencias de esquema en orden. Es seguro correrla en
// cada arranque: todo usa IF NOT EXISTS y las semillas ON CONFLICT DO NOTHING.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	log.Info().Int("statements", len(migrations)).Msg("ejecutando migraciones")

	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migración %d falló: %w", i+1, err)
		}
	}

	log.Info().Msg("migraciones completadas")
	return nil
}

var migrations = []string{
	// Directorio de clientes (colaborador externo: solo lo leemos)
	`CREATE TABLE IF NOT EXISTS clients (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL DEFAULT '',
		phone      TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// Facturas: cabecera del documento de cobro
	`CREATE TABLE IF NOT EXISTS invoices (
		id           UUID PRIMARY KEY,
		client_id    UUID NOT NULL REFERENCES clients(id),
		estimate_id  TEXT,
		number       TEXT NOT NULL UNIQUE,
		title        TEXT NOT NULL DEFAULT '',
		description  TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'pending', 'sent', 'partial', 'paid', 'overdue', 'canceled')),
		total_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
		amount_paid  NUMERIC(14,2) NOT NULL DEFAULT 0,
		due_date     DATE NOT NULL,
		paid_at      TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_client ON invoices(client_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_status_due ON invoices(status, due_date)`,

	// Líneas de factura (is_late_fee marca los recargos del motor de mora)
	`CREATE TABLE IF NOT EXISTS invoice_items (
		id          UUID PRIMARY KEY,
		invoice_id  UUID NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		quantity    NUMERIC(14,2) NOT NULL,
		unit_price  NUMERIC(14,2) NOT NULL,
		tax_rate    NUMERIC(5,2) NOT NULL DEFAULT 0,
		amount      NUMERIC(14,2) NOT NULL,
		position    INT NOT NULL DEFAULT 0,
		is_late_fee BOOLEAN NOT NULL DEFAULT false,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice ON invoice_items(invoice_id)`,

	// Métodos de pago configurables
	`CREATE TABLE IF NOT EXISTS payment_methods (
		id                    UUID PRIMARY KEY,
		name                  TEXT NOT NULL UNIQUE,
		requires_confirmation BOOLEAN NOT NULL DEFAULT false,
		is_active             BOOLEAN NOT NULL DEFAULT true,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// Pagos: eventos financieros aplicados a una factura
	`CREATE TABLE IF NOT EXISTS payments (
		id           UUID PRIMARY KEY,
		invoice_id   UUID NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		method_id    UUID NOT NULL REFERENCES payment_methods(id),
		amount       NUMERIC(14,2) NOT NULL,
		payment_date DATE NOT NULL,
		reference    TEXT NOT NULL DEFAULT '',
		notes        TEXT NOT NULL DEFAULT '',
		confirmed    BOOLEAN NOT NULL DEFAULT true,
		confirmed_at TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_invoice ON payments(invoice_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_method ON payments(method_id)`,

	// Planes de pago y cuotas
	`CREATE TABLE IF NOT EXISTS payment_plans (
		id                 UUID PRIMARY KEY,
		invoice_id         UUID NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		status             TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'completed', 'canceled')),
		installments_total INT NOT NULL,
		installments_paid  INT NOT NULL DEFAULT 0,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payment_plans_invoice ON payment_plans(invoice_id)`,

	`CREATE TABLE IF NOT EXISTS installments (
		id         UUID PRIMARY KEY,
		plan_id    UUID NOT NULL REFERENCES payment_plans(id) ON DELETE CASCADE,
		position   INT NOT NULL,
		amount     NUMERIC(14,2) NOT NULL,
		due_date   DATE NOT NULL,
		status     TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'paid', 'canceled')),
		payment_id UUID REFERENCES payments(id) ON DELETE SET NULL,
		paid_at    TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_installments_plan ON installments(plan_id)`,

	// Plantillas recurrentes, sus líneas y el historial de generaciones
	`CREATE TABLE IF NOT EXISTS recurring_templates (
		id          UUID PRIMARY KEY,
		client_id   UUID NOT NULL REFERENCES clients(id),
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		frequency   TEXT NOT NULL CHECK (frequency IN ('daily', 'weekly', 'monthly', 'quarterly', 'yearly')),
		interval_count INT NOT NULL DEFAULT 1,
		next_date   DATE NOT NULL,
		end_date    DATE,
		due_days    INT NOT NULL DEFAULT 30,
		auto_send   BOOLEAN NOT NULL DEFAULT false,
		status      TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'completed', 'canceled')),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recurring_templates_due ON recurring_templates(status, next_date)`,

	`CREATE TABLE IF NOT EXISTS recurring_items (
		id          UUID PRIMARY KEY,
		template_id UUID NOT NULL REFERENCES recurring_templates(id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		quantity    NUMERIC(14,2) NOT NULL,
		unit_price  NUMERIC(14,2) NOT NULL,
		tax_rate    NUMERIC(5,2) NOT NULL DEFAULT 0,
		position    INT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recurring_items_template ON recurring_items(template_id)`,

	`CREATE TABLE IF NOT EXISTS recurring_generations (
		id           UUID PRIMARY KEY,
		template_id  UUID NOT NULL REFERENCES recurring_templates(id) ON DELETE CASCADE,
		invoice_id   UUID NOT NULL REFERENCES invoices(id),
		generated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recurring_generations_template ON recurring_generations(template_id)`,

	// Configuración del motor de mora (fila única)
	`CREATE TABLE IF NOT EXISTS overdue_config (
		id                      INT PRIMARY KEY CHECK (id = 1),
		grace_period_days       INT NOT NULL DEFAULT 3,
		reminder_frequency_days INT NOT NULL DEFAULT 7,
		max_reminders           INT NOT NULL DEFAULT 3,
		late_fee_type           TEXT NOT NULL DEFAULT 'percentage' CHECK (late_fee_type IN ('percentage', 'fixed')),
		late_fee_amount         NUMERIC(14,2) NOT NULL DEFAULT 5.00,
		auto_late_fee           BOOLEAN NOT NULL DEFAULT false,
		updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// Historial de recordatorios (solo se agrega; los fallidos también quedan)
	`CREATE TABLE IF NOT EXISTS reminder_logs (
		id           UUID PRIMARY KEY,
		invoice_id   UUID NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		tier         TEXT NOT NULL CHECK (tier IN ('gentle', 'firm', 'urgent')),
		sent_at      TIMESTAMPTZ NOT NULL,
		success      BOOLEAN NOT NULL,
		error_detail TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reminder_logs_invoice ON reminder_logs(invoice_id)`,

	// Notificaciones internas (campana del panel)
	`CREATE TABLE IF NOT EXISTS notifications (
		id          UUID PRIMARY KEY,
		type        TEXT NOT NULL,
		title       TEXT NOT NULL,
		message     TEXT NOT NULL DEFAULT '',
		entity_id   TEXT NOT NULL DEFAULT '',
		entity_type TEXT NOT NULL DEFAULT '',
		is_read     BOOLEAN NOT NULL DEFAULT false,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// Semillas: métodos de pago estándar y configuración de mora
	`INSERT INTO payment_methods (id, name, requires_confirmation, is_active)
	VALUES
		('a1000000-0000-4000-8000-000000000001', 'cash', false, true),
		('a1000000-0000-4000-8000-000000000002', 'bank_transfer', false, true),
		('a1000000-0000-4000-8000-000000000003', 'card', false, true),
		('a1000000-0000-4000-8000-000000000004', 'check', true, true)
	ON CONFLICT (name) DO NOTHING`,

	`INSERT INTO overdue_config (id, grace_period_days, reminder_frequency_days, max_reminders, late_fee_type, late_fee_amount, auto_late_fee)
	VALUES (1, 3, 7, 3, 'percentage', 5.00, false)
	ON CONFLICT (id) DO NOTHING`,
}
