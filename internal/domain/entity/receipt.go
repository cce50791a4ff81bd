package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt (quittance) est la preuve signée et infalsifiable d'un paiement validé.
// Une quittance n'est jamais supprimée; seule sa validité peut être révoquée.
type Receipt struct {
	ID               string
	Numero           string // QUIT-<année>-<séquence sur 7 chiffres>, unique
	PaymentID        string // Exactement une quittance par paiement
	FactureID        string
	ContribuableID   string
	MontantPaye      decimal.Decimal
	DateEmission     time.Time
	CodeQR           string // Charge utile canonique encodée dans le QR imprimé
	CodeVerification string // Code court public de vérification d'authenticité
	Signature        string // HMAC-SHA256 de la charge canonique, re-dérivable à l'audit
	EstValide        bool
	EmisePar         string // Agent ou système ayant émis la quittance
	CreatedAt        time.Time
}
