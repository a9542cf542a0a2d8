package mailer

import (
	"gopkg.in/gomail.v2"

	"property-system/pkg/config"
)

// ServiceInterface es el despachador de correo transaccional (invitaciones,
// restablecimiento de contraseña).
type ServiceInterface interface {
	Send(to, subject, htmlBody string) error
}

type Service struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg config.SMTPConfig) ServiceInterface {
	return &Service{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *Service) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	return s.dialer.DialAndSend(m)
}
