package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mairie-digitale/tresorerie-api/internal/domain"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/repository"
)

var _ repository.InjonctionRepository = (*InjonctionRepo)(nil)

// InjonctionRepo implémentation PostgreSQL de InjonctionRepository.
// facture_ids est un tableau Postgres (uuid[]).
type InjonctionRepo struct {
	q Querier
}

// NewInjonctionRepository construit l'adaptateur.
func NewInjonctionRepository(q Querier) *InjonctionRepo {
	return &InjonctionRepo{q: q}
}

const injonctionColumns = `id, numero, contribuable_id, facture_ids, montant_total, statut,
	date_emission, date_notification, delai_reponse, tribunal, numero_affaire, notes,
	cree_par, created_at, updated_at`

// Create persiste une injonction. domain.ErrDuplicate sur collision de numéro.
func (r *InjonctionRepo) Create(i *entity.Injonction) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	now := time.Now()
	i.CreatedAt = now
	i.UpdatedAt = now
	query := `
		INSERT INTO injonctions (` + injonctionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(context.Background(), query,
		i.ID, i.Numero, i.ContribuableID, i.FactureIDs, i.MontantTotal, i.Statut,
		i.DateEmission, i.DateNotification, i.DelaiReponse,
		nullIfEmpty(i.Tribunal), nullIfEmpty(i.NumeroAffaire), nullIfEmpty(i.Notes),
		i.CreePar, i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("numéro injonction: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert injonction: %w", err)
	}
	return nil
}

// GetByID retourne (nil, nil) si l'injonction n'existe pas.
func (r *InjonctionRepo) GetByID(id string) (*entity.Injonction, error) {
	query := `SELECT ` + injonctionColumns + ` FROM injonctions WHERE id = $1`
	i, err := scanInjonction(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get injonction: %w", err)
	}
	return i, nil
}

// UpdateStatus persiste le statut et les champs optionnels de suivi.
func (r *InjonctionRepo) UpdateStatus(i *entity.Injonction) error {
	query := `
		UPDATE injonctions
		SET statut = $2,
		    date_notification = $3,
		    tribunal = COALESCE(NULLIF($4, ''), tribunal),
		    numero_affaire = COALESCE(NULLIF($5, ''), numero_affaire),
		    notes = COALESCE(NULLIF($6, ''), notes),
		    updated_at = now()
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		i.ID, i.Statut, i.DateNotification, i.Tribunal, i.NumeroAffaire, i.Notes,
	)
	if err != nil {
		return fmt.Errorf("update injonction: %w", err)
	}
	return nil
}

// List retourne les injonctions filtrées.
func (r *InjonctionRepo) List(filter repository.InjonctionFilter) ([]*entity.Injonction, error) {
	query := `SELECT ` + injonctionColumns + ` FROM injonctions WHERE 1=1`
	args := []any{}
	n := 0
	if filter.ContribuableID != "" {
		n++
		query += fmt.Sprintf(" AND contribuable_id = $%d", n)
		args = append(args, filter.ContribuableID)
	}
	if filter.Statut != "" {
		n++
		query += fmt.Sprintf(" AND statut = $%d", n)
		args = append(args, filter.Statut)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list injonctions: %w", err)
	}
	defer rows.Close()

	var list []*entity.Injonction
	for rows.Next() {
		i, err := scanInjonction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan injonction: %w", err)
		}
		list = append(list, i)
	}
	return list, rows.Err()
}

func scanInjonction(row pgx.Row) (*entity.Injonction, error) {
	var i entity.Injonction
	var tribunal, numeroAffaire, notes *string
	err := row.Scan(
		&i.ID, &i.Numero, &i.ContribuableID, &i.FactureIDs, &i.MontantTotal, &i.Statut,
		&i.DateEmission, &i.DateNotification, &i.DelaiReponse,
		&tribunal, &numeroAffaire, &notes, &i.CreePar, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	i.Tribunal = derefStr(tribunal)
	i.NumeroAffaire = derefStr(numeroAffaire)
	i.Notes = derefStr(notes)
	return &i, nil
}
