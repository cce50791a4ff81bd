package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// MobileMoneyInitiation paramètres d'initiation d'un paiement Mobile Money.
type MobileMoneyInitiation struct {
	Montant     decimal.Decimal
	Numero      string
	Reference   string
	Description string
}

// MobileMoneyResult réponse de l'opérateur à l'initiation.
type MobileMoneyResult struct {
	TransactionID string
	Statut        string // "initié" attendu en cas de succès
	Raw           []byte // Corps brut de la réponse, conservé sur le paiement
}

// MobileMoneyProvider est la capacité d'initiation exposée par l'opérateur.
// L'implémentation doit borner chaque appel (timeout ≈ 15 s); toute erreur ou
// dépassement est traité par l'appelant comme un rejet du paiement, jamais
// comme un échec de la requête de création.
type MobileMoneyProvider interface {
	Initiate(ctx context.Context, in MobileMoneyInitiation) (*MobileMoneyResult, error)
}
