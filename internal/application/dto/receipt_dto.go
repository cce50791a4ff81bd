package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
)

// ReceiptResponse représentation API d'une quittance.
type ReceiptResponse struct {
	ID               string          `json:"id"`
	Numero           string          `json:"numéroQuittance"`
	PaymentID        string          `json:"paiementId"`
	FactureID        string          `json:"factureId"`
	ContribuableID   string          `json:"contribuableId"`
	MontantPaye      decimal.Decimal `json:"montantPayé"`
	DateEmission     time.Time       `json:"dateÉmission"`
	CodeVerification string          `json:"codeVérification"`
	Signature        string          `json:"signatureNumérique"`
	EstValide        bool            `json:"estValide"`
}

// VerificationResponse résultat de la vérification publique d'authenticité.
// Pour un code inconnu ou une quittance révoquée, seul Authentique=false est
// renvoyé, sans exposer d'identifiant interne.
type VerificationResponse struct {
	Authentique  bool             `json:"authentique"`
	Numero       string           `json:"numéroQuittance,omitempty"`
	Montant      *decimal.Decimal `json:"montant,omitempty"`
	DateEmission *time.Time       `json:"dateÉmission,omitempty"`
}

// FromReceipt convertit l'entité en représentation API.
func FromReceipt(r *entity.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:               r.ID,
		Numero:           r.Numero,
		PaymentID:        r.PaymentID,
		FactureID:        r.FactureID,
		ContribuableID:   r.ContribuableID,
		MontantPaye:      r.MontantPaye,
		DateEmission:     r.DateEmission,
		CodeVerification: r.CodeVerification,
		Signature:        r.Signature,
		EstValide:        r.EstValide,
	}
}
