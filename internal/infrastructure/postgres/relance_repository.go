package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/repository"
)

var _ repository.RelanceRepository = (*RelanceRepo)(nil)

// RelanceRepo implémentation PostgreSQL de RelanceRepository.
type RelanceRepo struct {
	q Querier
}

// NewRelanceRepository construit l'adaptateur.
func NewRelanceRepository(q Querier) *RelanceRepo {
	return &RelanceRepo{q: q}
}

const relanceColumns = `id, facture_id, contribuable_id, canal, sequence, statut, message,
	destinataire, reponse_api, erreur, envoyee_par, agent_id, created_at, updated_at`

// Create persiste une relance (statut initial en_cours).
func (r *RelanceRepo) Create(rl *entity.Relance) error {
	if rl.ID == "" {
		rl.ID = uuid.New().String()
	}
	now := time.Now()
	rl.CreatedAt = now
	rl.UpdatedAt = now
	query := `
		INSERT INTO relances (` + relanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(context.Background(), query,
		rl.ID, rl.FactureID, rl.ContribuableID, rl.Canal, rl.Sequence, rl.Statut, rl.Message,
		nullIfEmpty(rl.Destinataire), rl.ReponseAPI, nullIfEmpty(rl.Erreur),
		rl.EnvoyeePar, nullIfEmpty(rl.AgentID), rl.CreatedAt, rl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert relance: %w", err)
	}
	return nil
}

// UpdateOutcome fige le résultat d'envoi d'une relance.
func (r *RelanceRepo) UpdateOutcome(id string, statut string, reponseAPI []byte, erreur string) error {
	query := `
		UPDATE relances
		SET statut = $2, reponse_api = $3, erreur = $4, updated_at = now()
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, id, statut, reponseAPI, nullIfEmpty(erreur))
	if err != nil {
		return fmt.Errorf("update relance: %w", err)
	}
	return nil
}

// CountByFacture compte les relances automatiques déjà émises pour la
// facture. Les relances manuelles ne comptent pas dans l'échelle.
func (r *RelanceRepo) CountByFacture(factureID string) (int, error) {
	var n int
	err := r.q.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM relances WHERE facture_id = $1 AND envoyee_par = $2`,
		factureID, entity.RelanceInitAutomatique,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count relances: %w", err)
	}
	return n, nil
}

// List retourne les relances filtrées, de la plus récente à la plus ancienne.
func (r *RelanceRepo) List(filter repository.RelanceFilter) ([]*entity.Relance, error) {
	query := `SELECT ` + relanceColumns + ` FROM relances WHERE 1=1`
	args := []any{}
	n := 0
	add := func(col string, val any) {
		n++
		query += fmt.Sprintf(" AND %s = $%d", col, n)
		args = append(args, val)
	}
	if filter.FactureID != "" {
		add("facture_id", filter.FactureID)
	}
	if filter.Canal != "" {
		add("canal", filter.Canal)
	}
	if filter.Statut != "" {
		add("statut", filter.Statut)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list relances: %w", err)
	}
	defer rows.Close()

	var list []*entity.Relance
	for rows.Next() {
		var rl entity.Relance
		var destinataire, erreur, agentID *string
		if err := rows.Scan(
			&rl.ID, &rl.FactureID, &rl.ContribuableID, &rl.Canal, &rl.Sequence, &rl.Statut,
			&rl.Message, &destinataire, &rl.ReponseAPI, &erreur, &rl.EnvoyeePar, &agentID,
			&rl.CreatedAt, &rl.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan relance: %w", err)
		}
		rl.Destinataire = derefStr(destinataire)
		rl.Erreur = derefStr(erreur)
		rl.AgentID = derefStr(agentID)
		list = append(list, &rl)
	}
	return list, rows.Err()
}
