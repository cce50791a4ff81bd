package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statuts de facture côté registre des recettes (service externe).
const (
	FactureStatusEnAttente = "en_attente"
	FactureStatusPartielle = "partiellement_payée"
	FactureStatusPayee     = "payée"
)

// Facture est le modèle de lecture de la facture détenue par le service des
// recettes. Le moteur ne la possède pas: il la lit pour le recouvrement et ne
// modifie que le montant payé via le collaborateur.
type Facture struct {
	ID             string
	Numero         string
	ContribuableID string
	MontantTotal   decimal.Decimal
	MontantPaye    decimal.Decimal
	TauxPenalite   decimal.Decimal // Taux mensuel en pourcentage (snapshot du type de taxe)
	DateEcheance   time.Time
	Statut         string
	NbRelances     int // Nombre de relances déjà émises pour cette facture
}

// MontantRestant retourne le solde encore dû (hors pénalités).
func (f *Facture) MontantRestant() decimal.Decimal {
	return f.MontantTotal.Sub(f.MontantPaye)
}

// EstSoldee indique si la facture est intégralement payée.
func (f *Facture) EstSoldee() bool {
	return f.MontantPaye.GreaterThanOrEqual(f.MontantTotal)
}

// Contribuable est le modèle de lecture du contribuable (service externe).
type Contribuable struct {
	ID            string
	Nom           string
	Prenom        string
	RaisonSociale string // Renseignée pour les entreprises
	Categorie     string // particulier | entreprise
	Telephone     string
	Email         string
}

// NomComplet retourne la raison sociale pour une entreprise, sinon "Prénom Nom".
func (c *Contribuable) NomComplet() string {
	if c.RaisonSociale != "" {
		return c.RaisonSociale
	}
	if c.Prenom != "" {
		return c.Prenom + " " + c.Nom
	}
	return c.Nom
}
