package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/mairie-digitale/tresorerie-api/internal/application/dto"
	"github.com/mairie-digitale/tresorerie-api/internal/application/payment"
	"github.com/mairie-digitale/tresorerie-api/pkg/logger"
)

// WebhookHandler reçoit les callbacks de l'opérateur Mobile Money.
//
// Contrat côté opérateur: toute requête est accusée 200 {"reçu":true}, même
// à signature invalide ou traitement interne en échec — l'accusé porte sur la
// réception, pas sur le résultat, et une réponse d'erreur déclencherait une
// tempête de renvois côté opérateur. Une signature invalide est journalisée
// et auditée, sans aucun changement d'état.
type WebhookHandler struct {
	uc     *payment.UseCase
	secret []byte
	log    *logger.Logger
}

// NewWebhookHandler construit le handler. secret est la clé HMAC partagée.
func NewWebhookHandler(uc *payment.UseCase, secret string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{uc: uc, secret: []byte(secret), log: log}
}

// MobileMoney traite un callback opérateur.
// POST /api/webhooks/mobile-money
func (h *WebhookHandler) MobileMoney(c *fiber.Ctx) error {
	// La signature couvre le corps brut, tel qu'envoyé par l'opérateur.
	body := c.Body()
	signature := c.Get("X-MobileMoney-Signature")

	if !payment.VerifySignature(h.secret, body, signature) {
		h.log.Warn().Str("ip", c.IP()).Msg("webhook: signature invalide")
		h.uc.RecordInvalidWebhook(c.IP())
		return c.JSON(dto.WebhookAck{Recu: true})
	}

	var in dto.WebhookPayload
	if err := json.Unmarshal(body, &in); err != nil {
		// Signé mais illisible: accusé quand même, l'anomalie reste interne.
		h.log.Error().Err(err).Msg("webhook: corps illisible")
		return c.JSON(dto.WebhookAck{Recu: true})
	}

	if err := h.uc.ProcessWebhook(c.Context(), in); err != nil {
		h.log.Error().Err(err).Str("référence", in.Reference).Msg("webhook: traitement en erreur")
	}
	return c.JSON(dto.WebhookAck{Recu: true})
}
