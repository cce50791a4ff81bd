package postgres

import (
	"context"
	"fmt"

	"github.com/mairie-digitale/tresorerie-api/internal/domain/repository"
)

var _ repository.CounterRepository = (*CounterRepo)(nil)

// CounterRepo séquences annuelles atomiques côté base. L'upsert incrémental
// avec RETURNING garantit l'unicité sous émissions concurrentes, sans jamais
// lire-compter-écrire.
type CounterRepo struct {
	q Querier
}

// NewCounterRepository construit l'adaptateur.
func NewCounterRepository(q Querier) *CounterRepo {
	return &CounterRepo{q: q}
}

// Next incrémente et retourne la valeur du compteur (nom, année).
func (r *CounterRepo) Next(nom string, annee int) (int64, error) {
	query := `
		INSERT INTO compteurs (nom, annee, valeur)
		VALUES ($1, $2, 1)
		ON CONFLICT (nom, annee)
		DO UPDATE SET valeur = compteurs.valeur + 1
		RETURNING valeur`
	var valeur int64
	if err := r.q.QueryRow(context.Background(), query, nom, annee).Scan(&valeur); err != nil {
		return 0, fmt.Errorf("compteur %s/%d: %w", nom, annee, err)
	}
	return valeur, nil
}
