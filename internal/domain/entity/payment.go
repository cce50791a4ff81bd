package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mairie-digitale/tresorerie-api/internal/domain"
)

// Statuts du cycle de vie d'un paiement.
const (
	PaymentStatusEnCours   = "en_cours"
	PaymentStatusEnAttente = "en_attente_confirmation"
	PaymentStatusValide    = "validé"
	PaymentStatusRejete    = "rejeté"
	PaymentStatusRembourse = "remboursé"
)

// Canaux d'encaissement acceptés.
const (
	PaymentChannelMobileMoney = "mobile_money"
	PaymentChannelVirement    = "virement_bancaire"
	PaymentChannelGuichet     = "guichet"
	PaymentChannelCheque      = "chèque"
)

// Opérateurs Mobile Money reconnus.
var MobileMoneyOperators = map[string]bool{
	"orange": true,
	"mtn":    true,
	"moov":   true,
	"wave":   true,
	"autre":  true,
}

// paymentTransitions est le graphe des transitions autorisées.
// Toute arête absente de ce graphe est refusée et laisse l'état inchangé.
var paymentTransitions = map[string]map[string]bool{
	PaymentStatusEnCours: {
		PaymentStatusEnAttente: true,
		PaymentStatusRejete:    true,
	},
	PaymentStatusEnAttente: {
		PaymentStatusValide: true,
		PaymentStatusRejete: true,
	},
	PaymentStatusValide: {
		PaymentStatusRembourse: true,
	},
}

// Payment représente une tentative de règlement d'une facture via un canal donné.
type Payment struct {
	ID                 string
	Reference          string // Référence unique lisible (PAY-...)
	FactureID          string
	ContribuableID     string
	Montant            decimal.Decimal
	Canal              string
	Statut             string
	NumeroMobileMoney  string
	Operateur          string
	TransactionExterne string // ID de transaction fourni par l'opérateur externe
	NomBanque          string
	ReferenceVirement  string
	AgentID            string // Agent de caisse (paiement guichet)
	PointEncaissement  string
	DateInitiation     time.Time
	DateConfirmation   *time.Time // Renseignée ssi statut validé
	MotifRejet         string
	DonneesBrutes      []byte // Réponse brute de l'API de paiement externe (JSON)
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CanTransition indique si le passage statut courant → target est autorisé.
func (p *Payment) CanTransition(target string) bool {
	return paymentTransitions[p.Statut][target]
}

// Transition applique le changement d'état ou retourne ErrTransition sans
// toucher à l'état si l'arête n'existe pas dans le graphe.
func (p *Payment) Transition(target string) error {
	if !p.CanTransition(target) {
		return domain.ErrTransition
	}
	p.Statut = target
	return nil
}

// IsTerminal indique si le paiement ne peut plus évoluer (hors remboursement).
func (p *Payment) IsTerminal() bool {
	return p.Statut == PaymentStatusRejete || p.Statut == PaymentStatusRembourse
}

// ValidChannel vérifie qu'un canal est reconnu.
func ValidChannel(canal string) bool {
	switch canal {
	case PaymentChannelMobileMoney, PaymentChannelVirement, PaymentChannelGuichet, PaymentChannelCheque:
		return true
	}
	return false
}
