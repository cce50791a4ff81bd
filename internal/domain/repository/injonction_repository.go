package repository

import "github.com/mairie-digitale/tresorerie-api/internal/domain/entity"

// InjonctionFilter restreint une recherche d'injonctions.
type InjonctionFilter struct {
	ContribuableID string
	Statut         string
	Limit          int
	Offset         int
}

// InjonctionRepository définit le port de persistance des injonctions.
type InjonctionRepository interface {
	Create(i *entity.Injonction) error
	// GetByID retourne (nil, nil) si l'injonction n'existe pas.
	GetByID(id string) (*entity.Injonction, error)
	// UpdateStatus persiste le nouveau statut ainsi que les champs
	// optionnels renseignés (notes, tribunal, numéro d'affaire, date de
	// notification).
	UpdateStatus(i *entity.Injonction) error
	List(filter InjonctionFilter) ([]*entity.Injonction, error)
}
