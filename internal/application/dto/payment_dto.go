package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
)

// CreateMobileMoneyRequest initie un paiement Mobile Money.
type CreateMobileMoneyRequest struct {
	FactureID         string          `json:"factureId"`
	ContribuableID    string          `json:"contribuableId"`
	Montant           decimal.Decimal `json:"montant"`
	NumeroMobileMoney string          `json:"numéroMobileMoney"`
	Operateur         string          `json:"opérateur"`
}

// CreateGuichetRequest enregistre un paiement encaissé par un agent: espèces
// au guichet (défaut), virement bancaire ou chèque.
type CreateGuichetRequest struct {
	FactureID         string          `json:"factureId"`
	ContribuableID    string          `json:"contribuableId"`
	Montant           decimal.Decimal `json:"montant"`
	Canal             string          `json:"canal,omitempty"` // guichet | virement_bancaire | chèque
	PointEncaissement string          `json:"pointEncaissement"`
	NomBanque         string          `json:"nomBanque,omitempty"`
	ReferenceVirement string          `json:"référenceVirement,omitempty"`
}

// ConfirmPaymentRequest confirmation manuelle d'un paiement.
type ConfirmPaymentRequest struct {
	TransactionExterne string `json:"transactionIdExterne"`
}

// WebhookPayload corps du callback de l'opérateur Mobile Money.
type WebhookPayload struct {
	TransactionID string          `json:"transactionId"`
	Reference     string          `json:"référence"`
	Statut        string          `json:"statut"` // succès | échec
	Montant       decimal.Decimal `json:"montant"`
	Motif         string          `json:"motif,omitempty"`
}

// WebhookAck accusé de réception systématique du webhook.
type WebhookAck struct {
	Recu bool `json:"reçu"`
}

// PaymentResponse représentation API d'un paiement.
type PaymentResponse struct {
	ID                 string          `json:"id"`
	Reference          string          `json:"référencePaiement"`
	FactureID          string          `json:"factureId"`
	ContribuableID     string          `json:"contribuableId"`
	Montant            decimal.Decimal `json:"montant"`
	Canal              string          `json:"canal"`
	Statut             string          `json:"statut"`
	Operateur          string          `json:"opérateur,omitempty"`
	TransactionExterne string          `json:"transactionIdExterne,omitempty"`
	PointEncaissement  string          `json:"pointEncaissement,omitempty"`
	NomBanque          string          `json:"nomBanque,omitempty"`
	ReferenceVirement  string          `json:"référenceVirement,omitempty"`
	DateInitiation     time.Time       `json:"dateInitiation"`
	DateConfirmation   *time.Time      `json:"dateConfirmation,omitempty"`
	MotifRejet         string          `json:"motifRejet,omitempty"`
}

// PaymentReceiptResponse paire paiement + quittance (guichet et confirmation).
type PaymentReceiptResponse struct {
	Paiement  PaymentResponse  `json:"paiement"`
	Quittance *ReceiptResponse `json:"quittance,omitempty"`
}

// FromPayment convertit l'entité en représentation API.
func FromPayment(p *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                 p.ID,
		Reference:          p.Reference,
		FactureID:          p.FactureID,
		ContribuableID:     p.ContribuableID,
		Montant:            p.Montant,
		Canal:              p.Canal,
		Statut:             p.Statut,
		Operateur:          p.Operateur,
		TransactionExterne: p.TransactionExterne,
		PointEncaissement:  p.PointEncaissement,
		NomBanque:          p.NomBanque,
		ReferenceVirement:  p.ReferenceVirement,
		DateInitiation:     p.DateInitiation,
		DateConfirmation:   p.DateConfirmation,
		MotifRejet:         p.MotifRejet,
	}
}
