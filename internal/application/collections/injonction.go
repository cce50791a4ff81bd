package collections

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mairie-digitale/tresorerie-api/internal/application/audit"
	"github.com/mairie-digitale/tresorerie-api/internal/application/dto"
	"github.com/mairie-digitale/tresorerie-api/internal/domain"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/repository"
	"github.com/mairie-digitale/tresorerie-api/pkg/logger"
)

const (
	injonctionNumberPrefix = "INJ"
	injonctionCounterName  = "injonction"
	// delaiReponseDefaut délai légal de réponse en jours.
	delaiReponseDefaut = 30
)

// InjonctionUseCase gère l'escalade formelle au-delà des relances.
type InjonctionUseCase struct {
	injonctions repository.InjonctionRepository
	counters    repository.CounterRepository
	audit       *audit.Recorder
	log         *logger.Logger
}

// NewInjonctionUseCase construit le gestionnaire d'injonctions.
func NewInjonctionUseCase(
	injonctions repository.InjonctionRepository,
	counters repository.CounterRepository,
	auditRec *audit.Recorder,
	log *logger.Logger,
) *InjonctionUseCase {
	return &InjonctionUseCase{
		injonctions: injonctions,
		counters:    counters,
		audit:       auditRec,
		log:         log,
	}
}

// Create prépare une injonction de payer couvrant une ou plusieurs factures.
func (uc *InjonctionUseCase) Create(creePar string, in dto.CreateInjonctionRequest) (*entity.Injonction, error) {
	if in.ContribuableID == "" || len(in.FactureIDs) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if !in.MontantTotal.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	annee := time.Now().Year()
	seq, err := uc.counters.Next(injonctionCounterName, annee)
	if err != nil {
		return nil, fmt.Errorf("séquence injonction: %w", err)
	}

	delai := in.DelaiReponse
	if delai <= 0 {
		delai = delaiReponseDefaut
	}

	i := &entity.Injonction{
		ID:             uuid.New().String(),
		Numero:         fmt.Sprintf("%s-%d-%05d", injonctionNumberPrefix, annee, seq),
		ContribuableID: in.ContribuableID,
		FactureIDs:     in.FactureIDs,
		MontantTotal:   in.MontantTotal,
		Statut:         entity.InjonctionStatusPreparee,
		DateEmission:   time.Now(),
		DelaiReponse:   delai,
		Tribunal:       in.Tribunal,
		CreePar:        creePar,
	}
	if err := uc.injonctions.Create(i); err != nil {
		return nil, err
	}

	uc.audit.Record("injonction_créée", creePar, "injonction", i.ID, entity.AuditResultSucces, map[string]any{
		"numéroInjonction": i.Numero,
		"montantTotal":     i.MontantTotal,
		"factures":         len(i.FactureIDs),
	})
	return i, nil
}

// UpdateStatus fait progresser une injonction selon le graphe: préparée →
// notifiée → en_cours_judiciaire → {exécutée, classée}, annulée atteignable
// depuis tout statut non terminal. Toute autre cible est refusée.
func (uc *InjonctionUseCase) UpdateStatus(utilisateurID, id string, in dto.UpdateInjonctionStatutRequest) (*entity.Injonction, error) {
	if !entity.ValidInjonctionStatus(in.Statut) {
		return nil, domain.ErrInvalidInput
	}

	i, err := uc.injonctions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, domain.ErrNotFound
	}

	if err := i.Transition(in.Statut); err != nil {
		return nil, err
	}
	if in.Statut == entity.InjonctionStatusNotifiee && i.DateNotification == nil {
		now := time.Now()
		i.DateNotification = &now
	}
	if in.Notes != "" {
		i.Notes = in.Notes
	}
	if in.Tribunal != "" {
		i.Tribunal = in.Tribunal
	}
	if in.NumeroAffaire != "" {
		i.NumeroAffaire = in.NumeroAffaire
	}

	if err := uc.injonctions.UpdateStatus(i); err != nil {
		return nil, err
	}

	uc.audit.Record("injonction_statut", utilisateurID, "injonction", i.ID, entity.AuditResultSucces, map[string]any{
		"numéroInjonction": i.Numero,
		"statut":           i.Statut,
	})
	return i, nil
}

// Get retourne une injonction par id.
func (uc *InjonctionUseCase) Get(id string) (*entity.Injonction, error) {
	i, err := uc.injonctions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, domain.ErrNotFound
	}
	return i, nil
}

// List retourne les injonctions filtrées.
func (uc *InjonctionUseCase) List(filter repository.InjonctionFilter) ([]*entity.Injonction, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return uc.injonctions.List(filter)
}
