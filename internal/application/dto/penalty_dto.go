package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PenaltyPreviewResponse montant dû d'une facture à une date donnée,
// pénalités de retard incluses. Calcul d'affichage: rien n'est persisté.
type PenaltyPreviewResponse struct {
	FactureID    string          `json:"factureId"`
	Numero       string          `json:"numéroFacture"`
	MontantTotal decimal.Decimal `json:"montantTotal"`
	MontantPaye  decimal.Decimal `json:"montantPayé"`
	DateEcheance time.Time       `json:"dateÉchéance"`
	DateCalcul   time.Time       `json:"dateCalcul"`
	EnRetard     bool            `json:"enRetard"`
	MontantDu    decimal.Decimal `json:"montantDû"`
}
