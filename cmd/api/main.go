package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/billing-core/internal/application/billing"
	"github.com/jhoicas/billing-core/internal/application/overdue"
	"github.com/jhoicas/billing-core/internal/application/ports"
	"github.com/jhoicas/billing-core/internal/application/recurring"
	"github.com/jhoicas/billing-core/internal/infrastructure/cache"
	"github.com/jhoicas/billing-core/internal/infrastructure/notify"
	"github.com/jhoicas/billing-core/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/billing-core/internal/interfaces/http"
	"github.com/jhoicas/billing-core/internal/interfaces/scheduler"
	"github.com/jhoicas/billing-core/pkg/config"
	"github.com/jhoicas/billing-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, log); err != nil {
		log.Fatal().Err(err).Msg("migraciones de esquema")
	}

	repos := postgres.Bundle(pool)
	directory := postgres.NewClientDirectory(pool)
	txRunner := postgres.NewTxRunner(pool)
	clock := ports.SystemClock{}

	mailer := notify.NewMailer(cfg.SMTP, log)
	notifier := notify.NewService(mailer, repos.Notifications, clock, log)
	memCache := cache.NewMemory(cfg.Cache.TTL)

	// El caso de uso de pagos se arma primero: facturas y planes de pago
	// delegan en él para que toda cuota o abono pase por las mismas reglas.
	paymentUC := billing.NewPaymentUseCase(
		txRunner, repos.Invoices, repos.Payments, repos.Methods,
		directory, notifier, clock, log,
	)
	invoiceUC := billing.NewInvoiceUseCase(txRunner, repos.Invoices, directory, paymentUC, clock)
	methodUC := billing.NewPaymentMethodUseCase(repos.Methods, repos.Payments, clock)
	planUC := billing.NewPaymentPlanUseCase(txRunner, paymentUC, clock)
	recurringUC := recurring.NewUseCase(
		txRunner, repos.Recurring, repos.Invoices,
		directory, notifier, clock, log,
	)
	overdueUC := overdue.NewUseCase(
		txRunner, repos.Invoices, repos.Reminders, repos.Config,
		memCache, cfg.Cache.TTL, directory, notifier, clock, log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		InvoiceUC:   invoiceUC,
		PaymentUC:   paymentUC,
		MethodUC:    methodUC,
		PlanUC:      planUC,
		RecurringUC: recurringUC,
		OverdueUC:   overdueUC,
		Directory:   directory,
	})

	// Barridos diarios: generación de recurrentes y escalamiento de mora.
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(recurringUC, overdueUC, cfg.Scheduler, log)
		if err := sched.Start(); err != nil {
			log.Fatal().Err(err).Msg("inicio del planificador")
		}
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if sched != nil {
		// Espera a que termine cualquier barrido en curso.
		<-sched.Stop().Done()
	}

	log.Info().Msg("aplicación detenida")
}
