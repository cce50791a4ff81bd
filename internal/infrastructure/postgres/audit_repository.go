package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo écrit le journal d'audit dans la table journal_audit.
// Aucune mise à jour ni suppression: la table est en ajout seul.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construit l'adaptateur.
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// Append insère une entrée du journal.
func (r *AuditRepo) Append(e *entity.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO journal_audit (id, action, utilisateur_id, ressource, ressource_id, details, resultat, service, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		e.ID, e.Action, nullIfEmpty(e.UtilisateurID), e.Ressource,
		nullIfEmpty(e.RessourceID), e.Details, e.Resultat, e.Service, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert journal_audit: %w", err)
	}
	return nil
}
