// Package notify implementa el puerto Notifier: correo SMTP vía gomail y
// notificaciones internas persistidas en la base.
package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	gomail "gopkg.in/gomail.v2"

	"github.com/jhoicas/billing-core/internal/application/ports"
	"github.com/jhoicas/billing-core/pkg/config"
	"github.com/jhoicas/billing-core/pkg/logger"
)

// Mailer transporte SMTP. Con Enabled en false no toca la red: registra el
// envío omitido y lo reporta como no entregado, útil en desarrollo local.
type Mailer struct {
	dialer  *gomail.Dialer
	from    string
	enabled bool
	log     *logger.Logger
}

// NewMailer construye el transporte desde la configuración SMTP.
func NewMailer(cfg config.SMTPConfig, log *logger.Logger) *Mailer {
	m := &Mailer{
		from:    cfg.From,
		enabled: cfg.Enabled,
		log:     log,
	}
	if cfg.Enabled {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return m
}

// IsEnabled indica si el transporte está activo.
func (m *Mailer) IsEnabled() bool { return m.enabled }

// Send entrega un correo. Nunca retorna error: el resultado transporta el
// detalle de la falla para que el llamador decida (contrato de mejor esfuerzo).
func (m *Mailer) Send(ctx context.Context, req ports.EmailRequest) ports.EmailResult {
	if !m.enabled {
		m.log.Debug().Str("to", req.To).Str("subject", req.Subject).Msg("smtp deshabilitado, correo omitido")
		return ports.EmailResult{Success: false, Error: "smtp deshabilitado"}
	}
	if req.To == "" {
		return ports.EmailResult{Success: false, Error: "destinatario vacío"}
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", req.To)
	msg.SetHeader("Subject", req.Subject)
	if req.HTML {
		msg.SetBody("text/html", req.Body)
	} else {
		msg.SetBody("text/plain", req.Body)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.log.Warn().Err(err).Str("to", req.To).Str("subject", req.Subject).Msg("envío de correo falló")
		return ports.EmailResult{Success: false, Error: err.Error()}
	}

	id := fmt.Sprintf("smtp-%s", uuid.New().String())
	m.log.Info().Str("to", req.To).Str("subject", req.Subject).Str("message_id", id).Msg("correo enviado")
	return ports.EmailResult{Success: true, MessageID: id}
}
