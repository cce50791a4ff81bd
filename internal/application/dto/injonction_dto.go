package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
)

// CreateInjonctionRequest prépare une injonction de payer.
type CreateInjonctionRequest struct {
	ContribuableID string          `json:"contribuableId"`
	FactureIDs     []string        `json:"factureIds"`
	MontantTotal   decimal.Decimal `json:"montantTotal"`
	DelaiReponse   int             `json:"délaiRéponse,omitempty"` // Jours; défaut 30
	Tribunal       string          `json:"tribunalCompétent,omitempty"`
}

// UpdateInjonctionStatutRequest fait progresser une injonction.
type UpdateInjonctionStatutRequest struct {
	Statut        string `json:"statut"`
	Notes         string `json:"notes,omitempty"`
	Tribunal      string `json:"tribunalCompétent,omitempty"`
	NumeroAffaire string `json:"numéroAffaireJudiciaire,omitempty"`
}

// InjonctionResponse représentation API d'une injonction.
type InjonctionResponse struct {
	ID               string          `json:"id"`
	Numero           string          `json:"numéroInjonction"`
	ContribuableID   string          `json:"contribuableId"`
	FactureIDs       []string        `json:"factureIds"`
	MontantTotal     decimal.Decimal `json:"montantTotal"`
	Statut           string          `json:"statut"`
	DateEmission     time.Time       `json:"dateÉmission"`
	DateNotification *time.Time      `json:"dateNotification,omitempty"`
	DelaiReponse     int             `json:"délaiRéponse"`
	Tribunal         string          `json:"tribunalCompétent,omitempty"`
	NumeroAffaire    string          `json:"numéroAffaireJudiciaire,omitempty"`
	Notes            string          `json:"notes,omitempty"`
}

// FromInjonction convertit l'entité en représentation API.
func FromInjonction(i *entity.Injonction) InjonctionResponse {
	return InjonctionResponse{
		ID:               i.ID,
		Numero:           i.Numero,
		ContribuableID:   i.ContribuableID,
		FactureIDs:       i.FactureIDs,
		MontantTotal:     i.MontantTotal,
		Statut:           i.Statut,
		DateEmission:     i.DateEmission,
		DateNotification: i.DateNotification,
		DelaiReponse:     i.DelaiReponse,
		Tribunal:         i.Tribunal,
		NumeroAffaire:    i.NumeroAffaire,
		Notes:            i.Notes,
	}
}
