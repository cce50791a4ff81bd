package repository

import "github.com/mairie-digitale/tresorerie-api/internal/domain/entity"

// RelanceFilter restreint une recherche de relances.
type RelanceFilter struct {
	FactureID string
	Canal     string
	Statut    string
	Limit     int
	Offset    int
}

// RelanceRepository définit le port de persistance des relances.
type RelanceRepository interface {
	Create(r *entity.Relance) error
	// UpdateOutcome fige le résultat d'envoi d'une relance en cours
	// (envoyée ou échouée, réponse du transport ou erreur).
	UpdateOutcome(id string, statut string, reponseAPI []byte, erreur string) error
	// CountByFacture retourne le nombre de relances automatiques déjà émises
	// pour la facture (les relances manuelles n'entrent pas dans l'échelle).
	CountByFacture(factureID string) (int, error)
	List(filter RelanceFilter) ([]*entity.Relance, error)
}
