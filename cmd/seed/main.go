// seed puebla la base local con datos de demostración: tres clientes, una
// factura enviada con líneas y una plantilla recurrente mensual activa.
//
// Uso: go run ./cmd/seed
// Es idempotente: los clientes usan UPSERT y la factura/plantilla solo se
// crean si el cliente demo aún no tiene ninguna.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-core/internal/application/billing"
	"github.com/jhoicas/billing-core/internal/application/dto"
	"github.com/jhoicas/billing-core/internal/application/ports"
	"github.com/jhoicas/billing-core/internal/application/recurring"
	"github.com/jhoicas/billing-core/internal/infrastructure/notify"
	"github.com/jhoicas/billing-core/internal/infrastructure/postgres"
	"github.com/jhoicas/billing-core/pkg/config"
	"github.com/jhoicas/billing-core/pkg/logger"
)

const (
	demoClientA = "c1000000-0000-4000-8000-000000000001"
	demoClientB = "c1000000-0000-4000-8000-000000000002"
	demoClientC = "c1000000-0000-4000-8000-000000000003"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, log); err != nil {
		log.Fatal().Err(err).Msg("migraciones de esquema")
	}

	// El directorio de clientes es de solo lectura para la aplicación, así
	// que los demo se insertan directo en la tabla.
	clients := []struct{ id, name, email, phone string }{
		{demoClientA, "Acme Corp", "facturas@acme.test", "+57 300 000 0001"},
		{demoClientB, "Globex S.A.S.", "pagos@globex.test", "+57 300 000 0002"},
		{demoClientC, "Initech Ltda.", "admin@initech.test", ""},
	}
	for _, c := range clients {
		_, err := pool.Exec(ctx, `
			INSERT INTO clients (id, name, email, phone)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET name = $2, email = $3, phone = $4`,
			c.id, c.name, c.email, c.phone)
		if err != nil {
			log.Fatal().Err(err).Str("client", c.name).Msg("insertar cliente demo")
		}
	}
	log.Info().Int("clientes", len(clients)).Msg("directorio demo listo")

	var seeded bool
	if err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE client_id = $1)`, demoClientA,
	).Scan(&seeded); err != nil {
		log.Fatal().Err(err).Msg("verificar datos demo")
	}
	if seeded {
		log.Info().Msg("la factura demo ya existe, nada que hacer")
		return
	}

	repos := postgres.Bundle(pool)
	directory := postgres.NewClientDirectory(pool)
	txRunner := postgres.NewTxRunner(pool)
	clock := ports.SystemClock{}
	mailer := notify.NewMailer(config.SMTPConfig{Enabled: false}, log)
	notifier := notify.NewService(mailer, repos.Notifications, clock, log)

	paymentUC := billing.NewPaymentUseCase(
		txRunner, repos.Invoices, repos.Payments, repos.Methods,
		directory, notifier, clock, log,
	)
	invoiceUC := billing.NewInvoiceUseCase(txRunner, repos.Invoices, directory, paymentUC, clock)
	recurringUC := recurring.NewUseCase(
		txRunner, repos.Recurring, repos.Invoices,
		directory, notifier, clock, log,
	)

	now := clock.Now()
	inv, err := invoiceUC.Create(ctx, dto.CreateInvoiceRequest{
		ClientID:    demoClientA,
		Title:       "Implantación del portal de clientes",
		Description: "Fase 1: levantamiento y puesta en marcha",
		Status:      "pending",
		DueDate:     now.AddDate(0, 0, 14).Format("2006-01-02"),
		Items: []dto.InvoiceItemRequest{
			{Description: "Consultoría (40 h)", Quantity: decimal.NewFromInt(40), UnitPrice: decimal.NewFromInt(95), TaxRate: decimal.NewFromInt(19)},
			{Description: "Licencia anual", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1200), TaxRate: decimal.NewFromInt(19)},
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear factura demo")
	}
	enviada := "sent"
	if inv, err = invoiceUC.Update(ctx, inv.ID, dto.UpdateInvoiceRequest{Status: &enviada}); err != nil {
		log.Fatal().Err(err).Msg("marcar la factura demo como enviada")
	}
	log.Info().Str("number", inv.Number).Str("total", inv.TotalAmount.String()).Msg("factura demo creada")

	firstOfNextMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	tpl, err := recurringUC.Create(ctx, dto.CreateRecurringRequest{
		ClientID:  demoClientB,
		Title:     "Retainer de soporte",
		Frequency: "monthly",
		Interval:  1,
		StartDate: firstOfNextMonth.Format("2006-01-02"),
		DueDays:   15,
		AutoSend:  false,
		Items: []dto.RecurringItemRequest{
			{Description: "Bolsa de soporte (10 h)", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(80), TaxRate: decimal.NewFromInt(19)},
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear plantilla recurrente demo")
	}
	log.Info().Str("template", tpl.ID).Str("next_date", tpl.NextDate).Msg("plantilla recurrente demo creada")
}
