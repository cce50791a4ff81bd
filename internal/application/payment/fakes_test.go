package payment_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mairie-digitale/tresorerie-api/internal/application/audit"
	"github.com/mairie-digitale/tresorerie-api/internal/application/ports"
	"github.com/mairie-digitale/tresorerie-api/internal/domain"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/repository"
	"github.com/mairie-digitale/tresorerie-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en mémoire reproduisant les contrats des adaptateurs Postgres,
// contraintes d'unicité et mises à jour conditionnelles incluses.
// ──────────────────────────────────────────────────────────────────────────────

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "development", Level: "error"})
}

type fakePaymentRepo struct {
	mu    sync.Mutex
	byID  map[string]*entity.Payment
	byRef map[string]string
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{byID: map[string]*entity.Payment{}, byRef: map[string]string{}}
}

func (r *fakePaymentRepo) Create(p *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byRef[p.Reference]; ok {
		return domain.ErrDuplicate
	}
	cp := *p
	r.byID[p.ID] = &cp
	r.byRef[p.Reference] = p.ID
	return nil
}

func (r *fakePaymentRepo) GetByID(id string) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) GetByReference(reference string) (*entity.Payment, error) {
	r.mu.Lock()
	id, ok := r.byRef[reference]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(id)
}

func (r *fakePaymentRepo) List(filter repository.PaymentFilter) ([]*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Payment
	for _, p := range r.byID {
		if filter.Statut != "" && p.Statut != filter.Statut {
			continue
		}
		if filter.Canal != "" && p.Canal != filter.Canal {
			continue
		}
		if filter.FactureID != "" && p.FactureID != filter.FactureID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakePaymentRepo) Confirm(id, transactionExterne string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	if p.Statut != entity.PaymentStatusEnAttente {
		return false, nil
	}
	p.Statut = entity.PaymentStatusValide
	if transactionExterne != "" {
		p.TransactionExterne = transactionExterne
	}
	p.DateConfirmation = &at
	return true, nil
}

func (r *fakePaymentRepo) Reject(id, motif string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	if p.Statut != entity.PaymentStatusEnCours && p.Statut != entity.PaymentStatusEnAttente {
		return false, nil
	}
	p.Statut = entity.PaymentStatusRejete
	p.MotifRejet = motif
	return true, nil
}

func (r *fakePaymentRepo) Refund(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok || p.Statut != entity.PaymentStatusValide {
		return false, nil
	}
	p.Statut = entity.PaymentStatusRembourse
	return true, nil
}

type fakeReceiptRepo struct {
	mu        sync.Mutex
	byPayment map[string]*entity.Receipt
	byNumero  map[string]string
	byCode    map[string]string
}

func newFakeReceiptRepo() *fakeReceiptRepo {
	return &fakeReceiptRepo{
		byPayment: map[string]*entity.Receipt{},
		byNumero:  map[string]string{},
		byCode:    map[string]string{},
	}
}

func (r *fakeReceiptRepo) Create(rc *entity.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byPayment[rc.PaymentID]; ok {
		return domain.ErrDuplicate
	}
	cp := *rc
	r.byPayment[rc.PaymentID] = &cp
	r.byNumero[rc.Numero] = rc.PaymentID
	r.byCode[rc.CodeVerification] = rc.PaymentID
	return nil
}

func (r *fakeReceiptRepo) GetByPaymentID(paymentID string) (*entity.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rc, ok := r.byPayment[paymentID]
	if !ok {
		return nil, nil
	}
	cp := *rc
	return &cp, nil
}

func (r *fakeReceiptRepo) GetByNumero(numero string) (*entity.Receipt, error) {
	r.mu.Lock()
	id, ok := r.byNumero[numero]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return r.GetByPaymentID(id)
}

func (r *fakeReceiptRepo) GetByCode(code string) (*entity.Receipt, error) {
	r.mu.Lock()
	id, ok := r.byCode[code]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return r.GetByPaymentID(id)
}

func (r *fakeReceiptRepo) Revoke(numero string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byNumero[numero]
	if !ok {
		return false, nil
	}
	r.byPayment[id].EstValide = false
	return true, nil
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

type fakeProvider struct {
	result *ports.MobileMoneyResult
	err    error
	calls  int
}

func (p *fakeProvider) Initiate(_ context.Context, _ ports.MobileMoneyInitiation) (*ports.MobileMoneyResult, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

type notifiedPayment struct {
	FactureID string
	Montant   decimal.Decimal
}

type fakeRegistry struct {
	mu        sync.Mutex
	factures  map[string]*entity.Facture
	notified  []notifiedPayment
	notifyErr error
	recalculs int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{factures: map[string]*entity.Facture{}}
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

func (r *fakeRegistry) NotifierPaiement(_ context.Context, factureID string, montant decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.notifyErr != nil {
		return r.notifyErr
	}
	r.notified = append(r.notified, notifiedPayment{FactureID: factureID, Montant: montant})
	return nil
}

func (r *fakeRegistry) RecalculerPenalites(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recalculs++
	return nil
}

// newTestRecorder construit un Recorder branché sur le fake d'audit.
func newTestRecorder(repo *fakeAuditRepo) *audit.Recorder {
	return audit.NewRecorder(repo, testLogger(), "tresorerie-test")
}
