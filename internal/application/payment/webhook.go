package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/mairie-digitale/tresorerie-api/internal/application/dto"
	"github.com/mairie-digitale/tresorerie-api/internal/domain"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
)

// Issues possibles côté opérateur dans le corps du webhook.
const (
	webhookOutcomeSucces = "succès"
	webhookOutcomeEchec  = "échec"
)

// VerifySignature compare en temps constant la signature HMAC-SHA256 du corps
// brut avec celle annoncée dans l'en-tête. La sérialisation canonique est le
// corps tel que reçu: l'opérateur signe exactement les octets qu'il envoie.
func VerifySignature(secret, body []byte, header string) bool {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}

// RecordInvalidWebhook trace au journal d'audit une tentative de webhook à la
// signature invalide.
func (uc *UseCase) RecordInvalidWebhook(ip string) {
	uc.audit.Record("webhook_signature_invalide", "", "webhook", "", entity.AuditResultEchec, map[string]any{
		"ip": ip,
	})
}

// ProcessWebhook applique un callback opérateur au registre des paiements.
//
// Idempotent et tolérant au désordre: une référence inconnue est journalisée
// sans erreur (l'opérateur livre au moins une fois, un renvoi ne doit pas
// déclencher de tempête de retries); un succès sur paiement déjà validé est
// sans effet; un échec n'écrase jamais un paiement validé. L'erreur retournée
// sert uniquement à la journalisation: le handler HTTP accuse toujours
// réception.
func (uc *UseCase) ProcessWebhook(ctx context.Context, in dto.WebhookPayload) error {
	p, err := uc.payments.GetByReference(in.Reference)
	if err != nil {
		return err
	}
	if p == nil {
		uc.log.Warn().Str("référence", in.Reference).Msg("webhook: paiement introuvable")
		uc.audit.Record("webhook_référence_inconnue", "", "paiement", in.Reference, entity.AuditResultEchec, nil)
		return nil
	}

	switch in.Statut {
	case webhookOutcomeSucces:
		if p.Statut == entity.PaymentStatusValide {
			return nil
		}
		if _, _, err := uc.Confirm(ctx, p.ID, in.TransactionID, ""); err != nil {
			// Terminal non validé: l'échec reste interne, jamais renvoyé à l'opérateur.
			if errors.Is(err, domain.ErrConflict) {
				uc.log.Warn().
					Str("référence", in.Reference).
					Str("statut", p.Statut).
					Msg("webhook succès sur paiement terminal, ignoré")
				return nil
			}
			return err
		}
		uc.log.Info().Str("référence", in.Reference).Msg("paiement confirmé via webhook")
	case webhookOutcomeEchec:
		motif := in.Motif
		if motif == "" {
			motif = "Échec opérateur"
		}
		moved, err := uc.payments.Reject(p.ID, motif)
		if err != nil {
			return err
		}
		if !moved {
			// validé est collant: un échec tardif ou dupliqué ne le défait pas.
			uc.log.Warn().Str("référence", in.Reference).Msg("webhook échec ignoré, paiement déjà terminal")
			return nil
		}
		uc.audit.Record("paiement_rejeté_webhook", "", "paiement", p.ID, entity.AuditResultSucces, map[string]any{
			"référence": in.Reference,
			"motif":     motif,
		})
	default:
		uc.log.Warn().Str("statut", in.Statut).Str("référence", in.Reference).Msg("webhook: statut inconnu")
	}
	return nil
}
