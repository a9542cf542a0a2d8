// Archivo: internal/services/notification_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"property-system/pkg/mailer"
	"property-system/pkg/utils"
	"property-system/pkg/whatsapp"
)

// NotificationServiceInterface es el canal saliente de mejor esfuerzo: los
// fallos aquí jamás deben tumbar la operación principal que los disparó.
type NotificationServiceInterface interface {
	SendWhatsApp(ctx context.Context, rawPhone, text string) error
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

type notificationService struct {
	whatsappSvc whatsapp.ServiceInterface
	mailerSvc   mailer.ServiceInterface
	logger      *zap.Logger
}

func NewNotificationService(
	whatsappSvc whatsapp.ServiceInterface,
	mailerSvc mailer.ServiceInterface,
	logger *zap.Logger,
) NotificationServiceInterface {
	return &notificationService{
		whatsappSvc: whatsappSvc,
		mailerSvc:   mailerSvc,
		logger:      logger,
	}
}

// backoff: exponencial desde 500ms, máximo 3 reintentos. Es un canal lateral,
// no vale la pena insistir más.
func (s *notificationService) backoff() retry.Backoff {
	return retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
}

func (s *notificationService) SendWhatsApp(ctx context.Context, rawPhone, text string) error {
	phone := utils.NormalizeColombianPhoneNumber(rawPhone)
	if phone == "" {
		return fmt.Errorf("número de teléfono inválido para WhatsApp: %q", rawPhone)
	}

	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		msgID, err := s.whatsappSvc.SendTextMessage(ctx, phone, text)
		if err != nil {
			s.logger.Warn("Reintentando envío de WhatsApp", zap.String("phone", phone), zap.Error(err))
			return retry.RetryableError(err)
		}
		s.logger.Info("WhatsApp enviado", zap.String("phone", phone), zap.String("message_id", msgID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("envío de WhatsApp agotó los reintentos: %w", err)
	}
	return nil
}

func (s *notificationService) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		if err := s.mailerSvc.Send(to, subject, htmlBody); err != nil {
			s.logger.Warn("Reintentando envío de correo", zap.String("to", to), zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("envío de correo agotó los reintentos: %w", err)
	}
	return nil
}

// mockNotificationService escribe al log en lugar de enviar de verdad.
// Ideal para pruebas y entornos sin credenciales.
type mockNotificationService struct {
	logger *zap.Logger
}

func NewMockNotificationService(logger *zap.Logger) NotificationServiceInterface {
	return &mockNotificationService{logger: logger}
}

func (s *mockNotificationService) SendWhatsApp(ctx context.Context, rawPhone, text string) error {
	s.logger.Info("!!! SIMULACIÓN DE WHATSAPP !!!",
		zap.String("para", rawPhone),
		zap.String("texto", text),
	)
	return nil
}

func (s *mockNotificationService) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	s.logger.Info("!!! SIMULACIÓN DE CORREO !!!",
		zap.String("para", to),
		zap.String("asunto", subject),
	)
	return nil
}
