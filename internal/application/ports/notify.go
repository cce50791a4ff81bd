package ports

import "context"

// SendResult trace la réponse d'un transport de notification.
type SendResult struct {
	ExternalID string
	Raw        []byte
}

// SMSSender envoie un SMS. Appel borné par un timeout propre au transport.
type SMSSender interface {
	SendSMS(ctx context.Context, destinataire, message string) (*SendResult, error)
}

// EmailSender envoie un email avec corps HTML.
type EmailSender interface {
	SendEmail(ctx context.Context, destinataire, sujet, corpsHTML string) (*SendResult, error)
}

// WhatsAppSender envoie un message texte WhatsApp.
type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, destinataire, message string) (*SendResult, error)
}
