// Package scheduler corre los barridos diarios del núcleo de facturación con
// cron: generación de facturas recurrentes y procesamiento de mora. Ambas
// rutinas son idempotentes dentro del día, así que un reinicio a media mañana
// no duplica nada.
package scheduler

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"

	"github.com/jhoicas/billing-core/internal/application/overdue"
	"github.com/jhoicas/billing-core/internal/application/recurring"
	"github.com/jhoicas/billing-core/pkg/config"
	"github.com/jhoicas/billing-core/pkg/logger"
)

// Scheduler administra los jobs cron.
type Scheduler struct {
	cron        *cron.Cron
	recurringUC *recurring.UseCase
	overdueUC   *overdue.UseCase
	cfg         config.SchedulerConfig
	log         *logger.Logger
}

// New construye el scheduler. Cada job corre con recover para que un pánico
// no tumbe el proceso.
func New(recurringUC *recurring.UseCase, overdueUC *overdue.UseCase, cfg config.SchedulerConfig, log *logger.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(&printfAdapter{log: log})
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:        c,
		recurringUC: recurringUC,
		overdueUC:   overdueUC,
		cfg:         cfg,
		log:         log,
	}
}

// Start registra los jobs y arranca el cron.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.RecurringSpec, s.runRecurring); err != nil {
		return errors.Wrapf(err, "programar barrido recurrente (%s)", s.cfg.RecurringSpec)
	}
	s.log.Info().Str("spec", s.cfg.RecurringSpec).Msg("barrido recurrente programado")

	if _, err := s.cron.AddFunc(s.cfg.OverdueSpec, s.runOverdue); err != nil {
		return errors.Wrapf(err, "programar barrido de mora (%s)", s.cfg.OverdueSpec)
	}
	s.log.Info().Str("spec", s.cfg.OverdueSpec).Msg("barrido de mora programado")

	s.cron.Start()
	return nil
}

// Stop detiene el cron; el contexto devuelto se cierra cuando terminan los
// jobs en curso.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runRecurring() {
	ctx := context.Background()
	result, err := s.recurringUC.ProcessDue(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("barrido recurrente falló")
		return
	}
	s.log.Info().
		Int("processed", result.Processed).
		Int("generated", result.Generated).
		Int("failed", result.Failed).
		Msg("barrido recurrente completado")
}

func (s *Scheduler) runOverdue() {
	ctx := context.Background()
	result, err := s.overdueUC.ProcessOverdue(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("barrido de mora falló")
		return
	}
	s.log.Info().
		Int("processed", result.Processed).
		Int("reminders_sent", result.RemindersSent).
		Int("fees_applied", result.FeesApplied).
		Int("failed", result.Failed).
		Msg("barrido de mora completado")
}

// printfAdapter adapta el logger estructurado a la interfaz Printf de cron.
type printfAdapter struct {
	log *logger.Logger
}

func (p *printfAdapter) Printf(format string, args ...any) {
	p.log.Warn().Msgf(format, args...)
}
