package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/billing-core/internal/application/ports"
	"github.com/jhoicas/billing-core/internal/domain"
	"github.com/jhoicas/billing-core/internal/domain/entity"
	"github.com/jhoicas/billing-core/internal/domain/repository"
	"github.com/jhoicas/billing-core/pkg/logger"
)

var _ ports.Notifier = (*Service)(nil)

// Service implementa el puerto Notifier: correo por el Mailer y notificaciones
// internas persistidas vía NotificationRepository.
type Service struct {
	mailer *Mailer
	repo   repository.NotificationRepository
	clock  ports.Clock
	log    *logger.Logger
}

// NewService construye el notificador.
func NewService(mailer *Mailer, repo repository.NotificationRepository, clock ports.Clock, log *logger.Logger) *Service {
	return &Service{mailer: mailer, repo: repo, clock: clock, log: log}
}

// SendEmail delega en el transporte SMTP.
func (s *Service) SendEmail(ctx context.Context, req ports.EmailRequest) ports.EmailResult {
	return s.mailer.Send(ctx, req)
}

// CreateNotification valida el tipo y persiste la notificación interna.
func (s *Service) CreateNotification(ctx context.Context, req ports.NotificationRequest) error {
	if err := req.Type.Validate(); err != nil {
		return err
	}
	if req.Title == "" {
		return domain.NewError("notificación sin título").WithField("title", "requerido").Mark(domain.ErrValidation)
	}

	n := &entity.Notification{
		ID:         uuid.New().String(),
		Type:       req.Type,
		Title:      req.Title,
		Message:    req.Message,
		EntityID:   req.EntityID,
		EntityType: req.EntityType,
		Read:       false,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.log.Warn().Err(err).Str("type", req.Type.String()).Msg("no se pudo persistir la notificación")
		return err
	}
	return nil
}
