// Package audit alimente le journal d'audit consommé par toutes les
// opérations financières. Les écritures sont en meilleur effort: un échec est
// journalisé mais ne bloque ni ne fait échouer l'opération principale.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/repository"
	"github.com/mairie-digitale/tresorerie-api/pkg/logger"
)

// Recorder écrit les entrées d'audit.
type Recorder struct {
	repo    repository.AuditRepository
	log     *logger.Logger
	service string
}

// NewRecorder construit le recorder. service identifie le composant émetteur.
func NewRecorder(repo repository.AuditRepository, log *logger.Logger, service string) *Recorder {
	return &Recorder{repo: repo, log: log, service: service}
}

// Record ajoute une entrée au journal. Ne retourne jamais d'erreur.
func (r *Recorder) Record(action, utilisateurID, ressource, ressourceID, resultat string, details map[string]any) {
	var raw []byte
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			r.log.Warn().Err(err).Str("action", action).Msg("audit: détails non sérialisables")
		} else {
			raw = b
		}
	}

	entry := &entity.AuditEntry{
		ID:            uuid.New().String(),
		Action:        action,
		UtilisateurID: utilisateurID,
		Ressource:     ressource,
		RessourceID:   ressourceID,
		Details:       raw,
		Resultat:      resultat,
		Service:       r.service,
		CreatedAt:     time.Now(),
	}

	if err := r.repo.Append(entry); err != nil {
		r.log.Error().Err(err).Str("action", action).Msg("audit: écriture impossible")
	}
}
