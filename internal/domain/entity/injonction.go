package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mairie-digitale/tresorerie-api/internal/domain"
)

// Statuts d'une injonction de payer. Progression uniquement vers l'avant,
// sauf l'annulation qui reste possible depuis tout statut non terminal.
const (
	InjonctionStatusPreparee   = "préparée"
	InjonctionStatusNotifiee   = "notifiée"
	InjonctionStatusJudiciaire = "en_cours_judiciaire"
	InjonctionStatusExecutee   = "exécutée"
	InjonctionStatusClassee    = "classée"
	InjonctionStatusAnnulee    = "annulée"
)

var injonctionTransitions = map[string]map[string]bool{
	InjonctionStatusPreparee: {
		InjonctionStatusNotifiee: true,
		InjonctionStatusAnnulee:  true,
	},
	InjonctionStatusNotifiee: {
		InjonctionStatusJudiciaire: true,
		InjonctionStatusAnnulee:    true,
	},
	InjonctionStatusJudiciaire: {
		InjonctionStatusExecutee: true,
		InjonctionStatusClassee:  true,
		InjonctionStatusAnnulee:  true,
	},
}

// Injonction est l'escalade formelle au-delà des relances, couvrant une ou
// plusieurs factures d'un même contribuable.
type Injonction struct {
	ID               string
	Numero           string // INJ-<année>-<séquence>, unique
	ContribuableID   string
	FactureIDs       []string
	MontantTotal     decimal.Decimal
	Statut           string
	DateEmission     time.Time
	DateNotification *time.Time
	DelaiReponse     int // Délai en jours pour répondre à l'injonction
	Tribunal         string
	NumeroAffaire    string
	Notes            string
	CreePar          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Transition applique le changement de statut ou retourne ErrTransition.
func (i *Injonction) Transition(target string) error {
	if !injonctionTransitions[i.Statut][target] {
		return domain.ErrTransition
	}
	i.Statut = target
	return nil
}

// ValidInjonctionStatus vérifie qu'un statut cible est connu.
func ValidInjonctionStatus(statut string) bool {
	switch statut {
	case InjonctionStatusPreparee, InjonctionStatusNotifiee, InjonctionStatusJudiciaire,
		InjonctionStatusExecutee, InjonctionStatusClassee, InjonctionStatusAnnulee:
		return true
	}
	return false
}
