package dto

import (
	"time"

	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
)

// ManualRelanceRequest relance initiée par un agent, hors échelle automatique.
type ManualRelanceRequest struct {
	FactureID      string `json:"factureId"`
	ContribuableID string `json:"contribuableId"`
	Canal          string `json:"type"`
	Message        string `json:"message"`
	Destinataire   string `json:"destinataire"`
}

// RelanceResponse représentation API d'une relance.
type RelanceResponse struct {
	ID             string    `json:"id"`
	FactureID      string    `json:"factureId"`
	ContribuableID string    `json:"contribuableId"`
	Canal          string    `json:"type"`
	Sequence       int       `json:"numéro"`
	Statut         string    `json:"statut"`
	Message        string    `json:"message,omitempty"`
	Destinataire   string    `json:"destinataire,omitempty"`
	Erreur         string    `json:"erreur,omitempty"`
	EnvoyeePar     string    `json:"envoyéePar"`
	CreatedAt      time.Time `json:"createdAt"`
}

// RunRelancesResponse bilan d'un passage automatique de relances.
type RunRelancesResponse struct {
	RelancesEnvoyees int `json:"relancesEnvoyées"`
}

// FromRelance convertit l'entité en représentation API.
func FromRelance(r *entity.Relance) RelanceResponse {
	return RelanceResponse{
		ID:             r.ID,
		FactureID:      r.FactureID,
		ContribuableID: r.ContribuableID,
		Canal:          r.Canal,
		Sequence:       r.Sequence,
		Statut:         r.Statut,
		Message:        r.Message,
		Destinataire:   r.Destinataire,
		Erreur:         r.Erreur,
		EnvoyeePar:     r.EnvoyeePar,
		CreatedAt:      r.CreatedAt,
	}
}
