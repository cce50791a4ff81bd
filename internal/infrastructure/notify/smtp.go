package notify

import (
	"context"
	"fmt"
	"time"

	gomail "gopkg.in/gomail.v2"

	"github.com/mairie-digitale/tresorerie-api/internal/application/ports"
)

var _ ports.EmailSender = (*SMTPEmail)(nil)

// SMTPEmail envoie les emails via gomail. DialAndSend ne prend pas de
// context; l'envoi est exécuté dans une goroutine et borné par ctx et
// par le timeout du transport.
type SMTPEmail struct {
	dialer  *gomail.Dialer
	from    string
	timeout time.Duration
}

// NewSMTPEmail construit le transport email.
func NewSMTPEmail(host string, port int, user, password, from string, timeout time.Duration) *SMTPEmail {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMTPEmail{
		dialer:  gomail.NewDialer(host, port, user, password),
		from:    from,
		timeout: timeout,
	}
}

// SendEmail envoie un email HTML au destinataire.
func (s *SMTPEmail) SendEmail(ctx context.Context, destinataire, sujet, corpsHTML string) (*ports.SendResult, error) {
	if s.dialer.Host == "" {
		return nil, fmt.Errorf("email: SMTP_HOTE non configuré")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", destinataire)
	m.SetHeader("Subject", sujet)
	m.SetBody("text/html", corpsHTML)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("email: envoi SMTP échoué: %w", err)
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("email: timeout ou annulation: %w", ctx.Err())
	}

	return &ports.SendResult{}, nil
}
