// Package penalty calcule le montant dû d'une facture à une date donnée,
// pénalités de retard incluses. Calcul pur et déterministe, utilisé à la fois
// pour l'affichage à la demande et par le batch mensuel d'application des
// pénalités.
package penalty

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
)

var cent = decimal.NewFromInt(100)

// AmountDue retourne le montant dû de la facture à la date asOf.
//
// Si asOf est antérieure ou égale à la date d'échéance (le jour d'échéance
// lui-même n'est pas en retard), ou si la facture est soldée, le principal est
// retourné tel quel. Sinon:
//
//	joursRetard = floor((asOf - échéance) / 1 jour)
//	moisRetard  = ceil(joursRetard / 30)
//	pénalité    = principal × (tauxMensuel / 100) × moisRetard
//
// Le résultat principal + pénalité est arrondi à 2 décimales.
func AmountDue(facture *entity.Facture, asOf time.Time) decimal.Decimal {
	principal := facture.MontantTotal
	if facture.EstSoldee() || !asOf.After(facture.DateEcheance) {
		return principal
	}

	joursRetard := int64(asOf.Sub(facture.DateEcheance) / (24 * time.Hour))
	if joursRetard <= 0 {
		return principal
	}
	moisRetard := (joursRetard + 29) / 30

	penalite := principal.
		Mul(facture.TauxPenalite.Div(cent)).
		Mul(decimal.NewFromInt(moisRetard))

	return principal.Add(penalite).Round(2)
}
