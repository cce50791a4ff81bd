// Package payment porte le registre des paiements: machine à états,
// encaissements guichet et Mobile Money, confirmation idempotente,
// rapprochement des webhooks opérateur et émission des quittances.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mairie-digitale/tresorerie-api/internal/application/audit"
	"github.com/mairie-digitale/tresorerie-api/internal/application/dto"
	"github.com/mairie-digitale/tresorerie-api/internal/application/ports"
	"github.com/mairie-digitale/tresorerie-api/internal/domain"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/repository"
	"github.com/mairie-digitale/tresorerie-api/pkg/logger"
)

// createAttempts nombre de régénérations de référence en cas de collision.
const createAttempts = 3

// UseCase est le registre des paiements.
type UseCase struct {
	payments repository.PaymentRepository
	receipts *ReceiptIssuer
	provider ports.MobileMoneyProvider
	recettes ports.FactureRegistry
	audit    *audit.Recorder
	log      *logger.Logger
}

// NewUseCase construit le registre.
func NewUseCase(
	payments repository.PaymentRepository,
	receipts *ReceiptIssuer,
	provider ports.MobileMoneyProvider,
	recettes ports.FactureRegistry,
	auditRec *audit.Recorder,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		payments: payments,
		receipts: receipts,
		provider: provider,
		recettes: recettes,
		audit:    auditRec,
		log:      log,
	}
}

// CreateMobileMoney initie un paiement Mobile Money.
//
// L'appel à l'opérateur est borné par le timeout du client; toute erreur ou
// tout dépassement rend un paiement persisté au statut rejeté — la création
// elle-même n'échoue jamais du fait de l'opérateur.
func (uc *UseCase) CreateMobileMoney(ctx context.Context, in dto.CreateMobileMoneyRequest) (*entity.Payment, error) {
	if in.FactureID == "" || in.ContribuableID == "" || in.NumeroMobileMoney == "" {
		return nil, domain.ErrInvalidInput
	}
	if !in.Montant.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if !entity.MobileMoneyOperators[in.Operateur] {
		return nil, domain.ErrInvalidInput
	}

	p := &entity.Payment{
		ID:                uuid.New().String(),
		Reference:         NewReference(),
		FactureID:         in.FactureID,
		ContribuableID:    in.ContribuableID,
		Montant:           in.Montant,
		Canal:             entity.PaymentChannelMobileMoney,
		Statut:            entity.PaymentStatusEnCours,
		NumeroMobileMoney: in.NumeroMobileMoney,
		Operateur:         in.Operateur,
		DateInitiation:    time.Now(),
	}

	result, err := uc.provider.Initiate(ctx, ports.MobileMoneyInitiation{
		Montant:     in.Montant,
		Numero:      in.NumeroMobileMoney,
		Reference:   p.Reference,
		Description: fmt.Sprintf("Paiement facture municipale %s", in.FactureID),
	})
	switch {
	case err != nil:
		// Timeout et refus explicite sont traités pareil: rejet terminal.
		uc.log.Warn().Err(err).Str("référence", p.Reference).Msg("initiation mobile money échouée")
		p.Statut = entity.PaymentStatusRejete
		p.MotifRejet = "Échec initiation opérateur"
	case result.Statut == "initié":
		p.Statut = entity.PaymentStatusEnAttente
		p.TransactionExterne = result.TransactionID
		p.DonneesBrutes = result.Raw
	default:
		p.Statut = entity.PaymentStatusRejete
		p.MotifRejet = "Initiation refusée par l'opérateur"
		p.DonneesBrutes = result.Raw
	}

	if err := uc.persistWithRetry(p); err != nil {
		return nil, err
	}

	uc.audit.Record("paiement_mobile_money_initié", "", "paiement", p.ID, entity.AuditResultSucces, map[string]any{
		"référence": p.Reference,
		"montant":   p.Montant,
		"statut":    p.Statut,
	})
	return p, nil
}

// CreateGuichet enregistre un paiement encaissé par un agent: espèces au
// guichet, virement bancaire ou chèque. Le paiement naît validé; la quittance
// est émise dans la foulée et le service recettes est notifié en meilleur
// effort.
func (uc *UseCase) CreateGuichet(ctx context.Context, agentID string, in dto.CreateGuichetRequest) (*entity.Payment, *entity.Receipt, error) {
	if in.FactureID == "" || in.ContribuableID == "" {
		return nil, nil, domain.ErrInvalidInput
	}
	if !in.Montant.GreaterThan(decimal.Zero) {
		return nil, nil, domain.ErrInvalidInput
	}
	canal := in.Canal
	if canal == "" {
		canal = entity.PaymentChannelGuichet
	}
	// mobile_money passe par CreateMobileMoney, jamais par ce chemin.
	if !entity.ValidChannel(canal) || canal == entity.PaymentChannelMobileMoney {
		return nil, nil, domain.ErrInvalidInput
	}
	if canal == entity.PaymentChannelVirement && in.ReferenceVirement == "" {
		return nil, nil, domain.ErrInvalidInput
	}

	now := time.Now()
	p := &entity.Payment{
		ID:                uuid.New().String(),
		Reference:         NewReference(),
		FactureID:         in.FactureID,
		ContribuableID:    in.ContribuableID,
		Montant:           in.Montant,
		Canal:             canal,
		Statut:            entity.PaymentStatusValide,
		AgentID:           agentID,
		PointEncaissement: in.PointEncaissement,
		NomBanque:         in.NomBanque,
		ReferenceVirement: in.ReferenceVirement,
		DateInitiation:    now,
		DateConfirmation:  &now,
	}
	if err := uc.persistWithRetry(p); err != nil {
		return nil, nil, err
	}

	uc.audit.Record("paiement_guichet", agentID, "paiement", p.ID, entity.AuditResultSucces, map[string]any{
		"référence": p.Reference,
		"montant":   p.Montant,
		"factureId": p.FactureID,
		"canal":     p.Canal,
	})

	receipt, err := uc.receipts.Issue(p.ID, agentID)
	if err != nil {
		return nil, nil, err
	}
	uc.notifierRecettes(ctx, p)

	return p, receipt, nil
}

// Confirm passe un paiement à validé et émet sa quittance. Idempotent: un
// paiement déjà validé retourne la paire existante inchangée. Retourne
// ErrNotFound si l'id est inconnu, ErrConflict si le paiement est terminal
// dans un état non validé (rejeté, remboursé).
func (uc *UseCase) Confirm(ctx context.Context, paymentID, transactionExterne, utilisateurID string) (*entity.Payment, *entity.Receipt, error) {
	p, err := uc.payments.GetByID(paymentID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, domain.ErrNotFound
	}

	moved, err := uc.payments.Confirm(paymentID, transactionExterne, time.Now())
	if err != nil {
		return nil, nil, err
	}
	if !moved {
		// Relire pour décider: validé concurrent (idempotence) ou terminal.
		p, err = uc.payments.GetByID(paymentID)
		if err != nil {
			return nil, nil, err
		}
		if p == nil {
			return nil, nil, domain.ErrNotFound
		}
		if p.Statut != entity.PaymentStatusValide {
			return nil, nil, domain.ErrConflict
		}
		receipt, err := uc.receipts.Issue(paymentID, utilisateurID)
		if err != nil {
			return nil, nil, err
		}
		return p, receipt, nil
	}

	p, err = uc.payments.GetByID(paymentID)
	if err != nil {
		return nil, nil, err
	}

	uc.audit.Record("paiement_confirmé", utilisateurID, "paiement", paymentID, entity.AuditResultSucces, map[string]any{
		"référence":            p.Reference,
		"transactionIdExterne": transactionExterne,
	})

	receipt, err := uc.receipts.Issue(paymentID, utilisateurID)
	if err != nil {
		return nil, nil, err
	}
	uc.notifierRecettes(ctx, p)

	return p, receipt, nil
}

// Refund passe un paiement validé à remboursé.
func (uc *UseCase) Refund(ctx context.Context, paymentID, utilisateurID string) (*entity.Payment, error) {
	p, err := uc.payments.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	moved, err := uc.payments.Refund(paymentID)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, domain.ErrConflict
	}
	p, err = uc.payments.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	uc.audit.Record("paiement_remboursé", utilisateurID, "paiement", paymentID, entity.AuditResultSucces, map[string]any{
		"référence": p.Reference,
		"montant":   p.Montant,
	})
	return p, nil
}

// Get retourne un paiement par id.
func (uc *UseCase) Get(paymentID string) (*entity.Payment, error) {
	p, err := uc.payments.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// List retourne les paiements filtrés.
func (uc *UseCase) List(filter repository.PaymentFilter) ([]*entity.Payment, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return uc.payments.List(filter)
}

// persistWithRetry persiste le paiement, en régénérant la référence un nombre
// borné de fois si la contrainte d'unicité la refuse.
func (uc *UseCase) persistWithRetry(p *entity.Payment) error {
	var err error
	for i := 0; i < createAttempts; i++ {
		err = uc.payments.Create(p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return err
		}
		p.Reference = NewReference()
	}
	return err
}

// notifierRecettes signale l'encaissement au service recettes. Meilleur
// effort assumé: l'échec est journalisé et avalé, sans file de relivraison.
func (uc *UseCase) notifierRecettes(ctx context.Context, p *entity.Payment) {
	if err := uc.recettes.NotifierPaiement(ctx, p.FactureID, p.Montant); err != nil {
		uc.log.Error().Err(err).
			Str("factureId", p.FactureID).
			Str("paiementId", p.ID).
			Msg("notification du service recettes impossible")
	}
}
