// Package collections porte le pipeline de recouvrement: relances
// multi-canaux automatiques, relances manuelles, application mensuelle des
// pénalités et injonctions de payer.
package collections

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mairie-digitale/tresorerie-api/internal/application/audit"
	"github.com/mairie-digitale/tresorerie-api/internal/application/dto"
	"github.com/mairie-digitale/tresorerie-api/internal/application/ports"
	"github.com/mairie-digitale/tresorerie-api/internal/domain"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/penalty"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/repository"
	"github.com/mairie-digitale/tresorerie-api/pkg/logger"
)

// impayeesBatchLimit taille maximale d'un passage automatique.
const impayeesBatchLimit = 100

// EscalationUseCase déroule l'échelle de relance sur les factures impayées.
type EscalationUseCase struct {
	relances      repository.RelanceRepository
	recettes      ports.FactureRegistry
	contribuables ports.ContribuableRegistry
	sms           ports.SMSSender
	email         ports.EmailSender
	whatsapp      ports.WhatsAppSender
	audit         *audit.Recorder
	log           *logger.Logger
}

// NewEscalationUseCase construit le moteur de relance.
func NewEscalationUseCase(
	relances repository.RelanceRepository,
	recettes ports.FactureRegistry,
	contribuables ports.ContribuableRegistry,
	sms ports.SMSSender,
	email ports.EmailSender,
	whatsapp ports.WhatsAppSender,
	auditRec *audit.Recorder,
	log *logger.Logger,
) *EscalationUseCase {
	return &EscalationUseCase{
		relances:      relances,
		recettes:      recettes,
		contribuables: contribuables,
		sms:           sms,
		email:         email,
		whatsapp:      whatsapp,
		audit:         auditRec,
		log:           log,
	}
}

// RunAutomatic passe en revue les factures impayées et envoie la prochaine
// relance de l'échelle pour chacune. Les factures sont indépendantes: une
// erreur sur l'une n'interrompt jamais le traitement des autres. Retourne le
// nombre de relances effectivement parties.
func (uc *EscalationUseCase) RunAutomatic(ctx context.Context) (int, error) {
	factures, err := uc.recettes.ListImpayees(ctx, impayeesBatchLimit)
	if err != nil {
		return 0, fmt.Errorf("récupération des factures impayées: %w", err)
	}

	envoyees := 0
	for _, f := range factures {
		sent, err := uc.processFacture(ctx, f)
		if err != nil {
			uc.log.Error().Err(err).Str("facture", f.Numero).Msg("relance en erreur, facture suivante")
			continue
		}
		if sent {
			envoyees++
		}
	}

	uc.log.Info().Int("relancesEnvoyées", envoyees).Msg("passage de relances terminé")
	return envoyees, nil
}

// processFacture choisit le barreau de l'échelle et déclenche l'envoi.
// Échelle: 0 relance → sms (téléphone requis); 1 → email; 2 → whatsapp;
// au-delà → signal « prête pour injonction », plus aucun envoi automatique.
// Un barreau dont la donnée de contact manque est sauté au profit du suivant.
func (uc *EscalationUseCase) processFacture(ctx context.Context, f *entity.Facture) (bool, error) {
	c, err := uc.contribuables.GetContribuable(ctx, f.ContribuableID)
	if err != nil || c == nil {
		return false, fmt.Errorf("contribuable %s inaccessible", f.ContribuableID)
	}

	n, err := uc.relances.CountByFacture(f.ID)
	if err != nil {
		return false, err
	}

	if n >= 3 {
		uc.signalerInjonction(f)
		return false, nil
	}

	canal, destinataire := uc.nextChannel(n, c)
	if canal == "" {
		uc.log.Warn().Str("facture", f.Numero).Int("relances", n).Msg("aucun canal joignable pour la relance")
		return false, nil
	}

	return uc.dispatch(ctx, f, c, canal, destinataire, n+1)
}

// nextChannel retourne le premier barreau atteignable à partir de n relances
// passées, ou "" si aucune donnée de contact ne permet d'avancer.
func (uc *EscalationUseCase) nextChannel(n int, c *entity.Contribuable) (canal, destinataire string) {
	switch {
	case n < 1 && c.Telephone != "":
		return entity.RelanceChannelSMS, c.Telephone
	case n < 2 && c.Email != "":
		return entity.RelanceChannelEmail, c.Email
	case n < 3 && c.Telephone != "":
		return entity.RelanceChannelWhatsApp, c.Telephone
	}
	return "", ""
}

// dispatch persiste la relance en_cours, invoque le transport puis fige le
// résultat. Un transport en échec laisse une relance échouée et ne remonte
// jamais d'erreur de batch.
func (uc *EscalationUseCase) dispatch(ctx context.Context, f *entity.Facture, c *entity.Contribuable, canal, destinataire string, sequence int) (bool, error) {
	msg := ComposeMessage(f, c, canal)
	r := &entity.Relance{
		ID:             uuid.New().String(),
		FactureID:      f.ID,
		ContribuableID: c.ID,
		Canal:          canal,
		Sequence:       sequence,
		Statut:         entity.RelanceStatusEnCours,
		Message:        msg,
		Destinataire:   destinataire,
		EnvoyeePar:     entity.RelanceInitAutomatique,
		CreatedAt:      time.Now(),
	}
	if err := uc.relances.Create(r); err != nil {
		return false, err
	}

	result, sendErr := uc.send(ctx, canal, destinataire, msg, f, c)
	if sendErr != nil {
		if err := uc.relances.UpdateOutcome(r.ID, entity.RelanceStatusEchouee, nil, sendErr.Error()); err != nil {
			uc.log.Error().Err(err).Str("relance", r.ID).Msg("statut de relance non persisté")
		}
		uc.log.Warn().Err(sendErr).Str("facture", f.Numero).Str("canal", canal).Msg("envoi de relance échoué")
		return false, nil
	}

	var raw []byte
	if result != nil {
		raw = result.Raw
	}
	if err := uc.relances.UpdateOutcome(r.ID, entity.RelanceStatusEnvoyee, raw, ""); err != nil {
		uc.log.Error().Err(err).Str("relance", r.ID).Msg("statut de relance non persisté")
	}
	return true, nil
}

func (uc *EscalationUseCase) send(ctx context.Context, canal, destinataire, msg string, f *entity.Facture, c *entity.Contribuable) (*ports.SendResult, error) {
	switch canal {
	case entity.RelanceChannelSMS:
		return uc.sms.SendSMS(ctx, destinataire, msg)
	case entity.RelanceChannelEmail:
		return uc.email.SendEmail(ctx, destinataire, ComposeEmailSubject(f), ComposeEmailHTML(f, c))
	case entity.RelanceChannelWhatsApp:
		return uc.whatsapp.SendWhatsApp(ctx, destinataire, msg)
	}
	return nil, fmt.Errorf("canal de relance non dispatché: %s", canal)
}

// signalerInjonction émet le signal « prête pour injonction judiciaire ».
// L'injonction elle-même reste une décision humaine (InjonctionUseCase).
func (uc *EscalationUseCase) signalerInjonction(f *entity.Facture) {
	uc.log.Warn().Str("facture", f.Numero).Msg("facture prête pour injonction judiciaire")
	uc.audit.Record("facture_prête_injonction", "", "facture", f.ID, entity.AuditResultSucces, map[string]any{
		"numéroFacture": f.Numero,
	})
}

// SendManual crée une relance décidée par un agent. Hors échelle automatique:
// la séquence est toujours 1 et n'entre pas dans le décompte des relances
// automatiques, le canal et le message sont ceux choisis par l'agent.
func (uc *EscalationUseCase) SendManual(ctx context.Context, agentID string, in dto.ManualRelanceRequest) (*entity.Relance, error) {
	if in.FactureID == "" || in.ContribuableID == "" || in.Destinataire == "" {
		return nil, domain.ErrInvalidInput
	}
	if !entity.ValidRelanceChannel(in.Canal) {
		return nil, domain.ErrInvalidInput
	}
	msg := in.Message
	if msg == "" {
		msg = "Relance manuelle"
	}

	r := &entity.Relance{
		ID:             uuid.New().String(),
		FactureID:      in.FactureID,
		ContribuableID: in.ContribuableID,
		Canal:          in.Canal,
		Sequence:       1,
		Statut:         entity.RelanceStatusEnCours,
		Message:        msg,
		Destinataire:   in.Destinataire,
		EnvoyeePar:     entity.RelanceInitAgent,
		AgentID:        agentID,
		CreatedAt:      time.Now(),
	}
	if err := uc.relances.Create(r); err != nil {
		return nil, err
	}

	// courrier et appel sont des canaux hors ligne: la relance est tracée
	// mais aucun transport n'est invoqué.
	var result *ports.SendResult
	var sendErr error
	switch in.Canal {
	case entity.RelanceChannelSMS:
		result, sendErr = uc.sms.SendSMS(ctx, in.Destinataire, msg)
	case entity.RelanceChannelEmail:
		result, sendErr = uc.email.SendEmail(ctx, in.Destinataire, "Relance - Mairie", msg)
	case entity.RelanceChannelWhatsApp:
		result, sendErr = uc.whatsapp.SendWhatsApp(ctx, in.Destinataire, msg)
	default:
		if err := uc.relances.UpdateOutcome(r.ID, entity.RelanceStatusEnvoyee, nil, ""); err != nil {
			uc.log.Error().Err(err).Str("relance", r.ID).Msg("statut de relance non persisté")
		}
		r.Statut = entity.RelanceStatusEnvoyee
		uc.auditManual(agentID, r)
		return r, nil
	}

	if sendErr != nil {
		r.Statut = entity.RelanceStatusEchouee
		r.Erreur = sendErr.Error()
		if err := uc.relances.UpdateOutcome(r.ID, r.Statut, nil, r.Erreur); err != nil {
			uc.log.Error().Err(err).Str("relance", r.ID).Msg("statut de relance non persisté")
		}
		uc.auditManual(agentID, r)
		return r, nil
	}

	r.Statut = entity.RelanceStatusEnvoyee
	if result != nil {
		r.ReponseAPI = result.Raw
	}
	if err := uc.relances.UpdateOutcome(r.ID, r.Statut, r.ReponseAPI, ""); err != nil {
		uc.log.Error().Err(err).Str("relance", r.ID).Msg("statut de relance non persisté")
	}
	uc.auditManual(agentID, r)
	return r, nil
}

func (uc *EscalationUseCase) auditManual(agentID string, r *entity.Relance) {
	uc.audit.Record("relance_manuelle", agentID, "relance", r.ID, entity.AuditResultSucces, map[string]any{
		"factureId": r.FactureID,
		"canal":     r.Canal,
		"statut":    r.Statut,
	})
}

// ListRelances retourne les relances filtrées.
func (uc *EscalationUseCase) ListRelances(filter repository.RelanceFilter) ([]*entity.Relance, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return uc.relances.List(filter)
}

// PreviewAmountDue calcule, sans rien persister, le montant dû d'une facture
// à l'instant du calcul, pénalités de retard incluses.
func (uc *EscalationUseCase) PreviewAmountDue(ctx context.Context, factureID string) (*dto.PenaltyPreviewResponse, error) {
	f, err := uc.recettes.GetFacture(ctx, factureID)
	if err != nil {
		return nil, err
	}

	asOf := time.Now()
	return &dto.PenaltyPreviewResponse{
		FactureID:    f.ID,
		Numero:       f.Numero,
		MontantTotal: f.MontantTotal,
		MontantPaye:  f.MontantPaye,
		DateEcheance: f.DateEcheance,
		DateCalcul:   asOf,
		EnRetard:     asOf.After(f.DateEcheance) && !f.EstSoldee(),
		MontantDu:    penalty.AmountDue(f, asOf),
	}, nil
}

// ApplyMonthlyPenalties demande au service recettes de recalculer les
// pénalités stockées des factures en retard. Tir et oubli: l'échec est
// journalisé, sans file de relivraison.
func (uc *EscalationUseCase) ApplyMonthlyPenalties(ctx context.Context) {
	if err := uc.recettes.RecalculerPenalites(ctx); err != nil {
		uc.log.Error().Err(err).Msg("recalcul des pénalités impossible")
		return
	}
	uc.log.Info().Msg("recalcul mensuel des pénalités déclenché")
}
