package collections_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mairie-digitale/tresorerie-api/internal/application/audit"
	"github.com/mairie-digitale/tresorerie-api/internal/application/ports"
	"github.com/mairie-digitale/tresorerie-api/internal/domain"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/repository"
	"github.com/mairie-digitale/tresorerie-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en mémoire: persistance des relances et injonctions, collaborateurs
// recettes/contribuables et transports de notification scriptables.
// ──────────────────────────────────────────────────────────────────────────────

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "development", Level: "error"})
}

type fakeRelanceRepo struct {
	mu   sync.Mutex
	byID map[string]*entity.Relance
}

func newFakeRelanceRepo() *fakeRelanceRepo {
	return &fakeRelanceRepo{byID: map[string]*entity.Relance{}}
}

func (r *fakeRelanceRepo) Create(rl *entity.Relance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rl
	r.byID[rl.ID] = &cp
	return nil
}

func (r *fakeRelanceRepo) UpdateOutcome(id, statut string, reponseAPI []byte, erreur string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rl, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	rl.Statut = statut
	rl.ReponseAPI = reponseAPI
	rl.Erreur = erreur
	return nil
}

func (r *fakeRelanceRepo) CountByFacture(factureID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rl := range r.byID {
		if rl.FactureID == factureID && rl.EnvoyeePar == entity.RelanceInitAutomatique {
			n++
		}
	}
	return n, nil
}

func (r *fakeRelanceRepo) List(filter repository.RelanceFilter) ([]*entity.Relance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Relance
	for _, rl := range r.byID {
		if filter.FactureID != "" && rl.FactureID != filter.FactureID {
			continue
		}
		if filter.Canal != "" && rl.Canal != filter.Canal {
			continue
		}
		if filter.Statut != "" && rl.Statut != filter.Statut {
			continue
		}
		cp := *rl
		out = append(out, &cp)
	}
	return out, nil
}

// forFacture retourne les relances de la facture, tous statuts confondus.
func (r *fakeRelanceRepo) forFacture(factureID string) []*entity.Relance {
	out, _ := r.List(repository.RelanceFilter{FactureID: factureID})
	return out
}

type fakeInjonctionRepo struct {
	mu   sync.Mutex
	byID map[string]*entity.Injonction
}

func newFakeInjonctionRepo() *fakeInjonctionRepo {
	return &fakeInjonctionRepo{byID: map[string]*entity.Injonction{}}
}

func (r *fakeInjonctionRepo) Create(i *entity.Injonction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *i
	r.byID[i.ID] = &cp
	return nil
}

func (r *fakeInjonctionRepo) GetByID(id string) (*entity.Injonction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *i
	return &cp, nil
}

func (r *fakeInjonctionRepo) UpdateStatus(i *entity.Injonction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[i.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Statut = i.Statut
	stored.DateNotification = i.DateNotification
	if i.Notes != "" {
		stored.Notes = i.Notes
	}
	if i.Tribunal != "" {
		stored.Tribunal = i.Tribunal
	}
	if i.NumeroAffaire != "" {
		stored.NumeroAffaire = i.NumeroAffaire
	}
	return nil
}

func (r *fakeInjonctionRepo) List(filter repository.InjonctionFilter) ([]*entity.Injonction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Injonction
	for _, i := range r.byID {
		if filter.ContribuableID != "" && i.ContribuableID != filter.ContribuableID {
			continue
		}
		if filter.Statut != "" && i.Statut != filter.Statut {
			continue
		}
		cp := *i
		out = append(out, &cp)
	}
	return out, nil
}

type fakeCounterRepo struct {
	mu     sync.Mutex
	values map[string]int64
}

func newFakeCounterRepo() *fakeCounterRepo {
	return &fakeCounterRepo{values: map[string]int64{}}
}

func (r *fakeCounterRepo) Next(nom string, annee int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%s/%d", nom, annee)
	r.values[key]++
	return r.values[key], nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*entity.AuditEntry
}

func (r *fakeAuditRepo) Append(e *entity.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

func newTestRecorder(repo *fakeAuditRepo) *audit.Recorder {
	return audit.NewRecorder(repo, testLogger(), "tresorerie-test")
}

type fakeRegistry struct {
	mu        sync.Mutex
	factures  map[string]*entity.Facture
	recalculs int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{factures: map[string]*entity.Facture{}}
}

func (r *fakeRegistry) add(f *entity.Facture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factures[f.ID] = f
}

func (r *fakeRegistry) GetFacture(_ context.Context, id string) (*entity.Facture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.factures[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeRegistry) ListImpayees(_ context.Context, limit int) ([]*entity.Facture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Facture
	for _, f := range r.factures {
		impayee := f.Statut == entity.FactureStatusEnAttente || f.Statut == entity.FactureStatusPartielle
		if impayee && len(out) < limit {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRegistry) NotifierPaiement(_ context.Context, _ string, _ decimal.Decimal) error {
	return nil
}

func (r *fakeRegistry) RecalculerPenalites(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recalculs++
	return nil
}

type fakeContribuables struct {
	mu      sync.Mutex
	byID    map[string]*entity.Contribuable
	failing bool
}

func newFakeContribuables() *fakeContribuables {
	return &fakeContribuables{byID: map[string]*entity.Contribuable{}}
}

func (r *fakeContribuables) add(c *entity.Contribuable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = c
}

func (r *fakeContribuables) GetContribuable(_ context.Context, id string) (*entity.Contribuable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return nil, domain.ErrExternal
	}
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// sentMessage trace un envoi passé par un transport fake.
type sentMessage struct {
	Destinataire string
	Contenu      string
	Sujet        string
}

// fakeTransport implémente les trois ports de notification avec un canal
// d'échec scriptable.
type fakeTransport struct {
	mu       sync.Mutex
	sms      []sentMessage
	emails   []sentMessage
	whatsapp []sentMessage
	failSMS  bool
}

func (tr *fakeTransport) SendSMS(_ context.Context, destinataire, msg string) (*ports.SendResult, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.failSMS {
		return nil, errors.New("passerelle sms indisponible")
	}
	tr.sms = append(tr.sms, sentMessage{Destinataire: destinataire, Contenu: msg})
	return &ports.SendResult{ExternalID: "SM-1", Raw: []byte(`{"sid":"SM-1"}`)}, nil
}

func (tr *fakeTransport) SendEmail(_ context.Context, destinataire, sujet, corps string) (*ports.SendResult, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.emails = append(tr.emails, sentMessage{Destinataire: destinataire, Contenu: corps, Sujet: sujet})
	return &ports.SendResult{}, nil
}

func (tr *fakeTransport) SendWhatsApp(_ context.Context, destinataire, msg string) (*ports.SendResult, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.whatsapp = append(tr.whatsapp, sentMessage{Destinataire: destinataire, Contenu: msg})
	return &ports.SendResult{ExternalID: "wamid.1"}, nil
}

// factureImpayee construit une facture en attente échue il y a joursRetard.
func factureImpayee(id string, joursRetard int) *entity.Facture {
	return &entity.Facture{
		ID:             id,
		Numero:         "FAC-2026-" + id,
		ContribuableID: "ctb-" + id,
		MontantTotal:   decimal.NewFromInt(50000),
		MontantPaye:    decimal.Zero,
		TauxPenalite:   decimal.NewFromInt(10),
		DateEcheance:   time.Now().AddDate(0, 0, -joursRetard),
		Statut:         entity.FactureStatusEnAttente,
	}
}
