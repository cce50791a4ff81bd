package payment_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mairie-digitale/tresorerie-api/internal/application/dto"
	"github.com/mairie-digitale/tresorerie-api/internal/application/payment"
	"github.com/mairie-digitale/tresorerie-api/internal/application/ports"
	"github.com/mairie-digitale/tresorerie-api/internal/domain"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
)

// testEnv regroupe le usecase et ses fakes pour inspection.
type testEnv struct {
	uc       *payment.UseCase
	issuer   *payment.ReceiptIssuer
	payments *fakePaymentRepo
	receipts *fakeReceiptRepo
	registry *fakeRegistry
	provider *fakeProvider
	audit    *fakeAuditRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := testLogger()
	auditRepo := &fakeAuditRepo{}
	rec := newTestRecorder(auditRepo)
	payments := newFakePaymentRepo()
	receipts := newFakeReceiptRepo()
	issuer := payment.NewReceiptIssuer(receipts, payments, newFakeCounterRepo(), rec, log, "clé-test")
	provider := &fakeProvider{result: &ports.MobileMoneyResult{TransactionID: "MM-1", Statut: "initié"}}
	registry := newFakeRegistry()
	uc := payment.NewUseCase(payments, issuer, provider, registry, rec, log)
	return &testEnv{
		uc:       uc,
		issuer:   issuer,
		payments: payments,
		receipts: receipts,
		registry: registry,
		provider: provider,
		audit:    auditRepo,
	}
}

func guichetRequest() dto.CreateGuichetRequest {
	return dto.CreateGuichetRequest{
		FactureID:         "fact-001",
		ContribuableID:    "ctb-001",
		Montant:           decimal.NewFromInt(25000),
		PointEncaissement: "Guichet mairie centrale",
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Encaissement guichet
// ──────────────────────────────────────────────────────────────────────────────

// Un encaissement guichet naît validé, émet sa quittance dans la
// foulée et notifie le service recettes.
func TestCreateGuichet_EmetQuittanceEtNotifie(t *testing.T) {
	env := newTestEnv(t)

	p, r, err := env.uc.CreateGuichet(context.Background(), "agent-01", guichetRequest())
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NotNil(t, r)

	assert.Equal(t, entity.PaymentStatusValide, p.Statut, "un paiement guichet doit naître validé")
	assert.Equal(t, entity.PaymentChannelGuichet, p.Canal)
	assert.Equal(t, "agent-01", p.AgentID)
	assert.NotNil(t, p.DateConfirmation)

	expectedNumero := fmt.Sprintf("QUIT-%d-%07d", time.Now().Year(), 1)
	assert.Equal(t, expectedNumero, r.Numero, "la numérotation doit suivre QUIT-<année>-<séquence sur 7 chiffres>")
	assert.True(t, r.EstValide)
	assert.Len(t, r.CodeVerification, 8, "le code public fait 4 octets en hexadécimal")

	require.Len(t, env.registry.notified, 1, "le service recettes doit être notifié une seule fois")
	assert.Equal(t, "fact-001", env.registry.notified[0].FactureID)
	assert.True(t, env.registry.notified[0].Montant.Equal(decimal.NewFromInt(25000)))
}

// Le canal virement exige une référence de virement.
func TestCreateGuichet_VirementSansReference(t *testing.T) {
	env := newTestEnv(t)

	in := guichetRequest()
	in.Canal = entity.PaymentChannelVirement
	_, _, err := env.uc.CreateGuichet(context.Background(), "agent-01", in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in.ReferenceVirement = "VIR-2026-0042"
	in.NomBanque = "BICIS"
	p, _, err := env.uc.CreateGuichet(context.Background(), "agent-01", in)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentChannelVirement, p.Canal)
	assert.Equal(t, "VIR-2026-0042", p.ReferenceVirement)
}

// Le canal mobile_money ne passe jamais par le chemin guichet.
func TestCreateGuichet_RefuseCanalMobileMoney(t *testing.T) {
	env := newTestEnv(t)

	in := guichetRequest()
	in.Canal = entity.PaymentChannelMobileMoney
	_, _, err := env.uc.CreateGuichet(context.Background(), "agent-01", in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Montant nul ou négatif refusé.
func TestCreateGuichet_MontantInvalide(t *testing.T) {
	env := newTestEnv(t)

	in := guichetRequest()
	in.Montant = decimal.Zero
	_, _, err := env.uc.CreateGuichet(context.Background(), "agent-01", in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in.Montant = decimal.NewFromInt(-500)
	_, _, err = env.uc.CreateGuichet(context.Background(), "agent-01", in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// L'échec de notification recettes n'interrompt pas l'encaissement.
func TestCreateGuichet_NotificationRecettesEnMeilleurEffort(t *testing.T) {
	env := newTestEnv(t)
	env.registry.notifyErr = errors.New("recettes indisponible")

	p, r, err := env.uc.CreateGuichet(context.Background(), "agent-01", guichetRequest())
	require.NoError(t, err, "l'échec du collaborateur recettes ne doit pas remonter")
	assert.Equal(t, entity.PaymentStatusValide, p.Statut)
	assert.NotNil(t, r)
}

// ──────────────────────────────────────────────────────────────────────────────
// Initiation Mobile Money
// ──────────────────────────────────────────────────────────────────────────────

func mobileMoneyRequest() dto.CreateMobileMoneyRequest {
	return dto.CreateMobileMoneyRequest{
		FactureID:         "fact-002",
		ContribuableID:    "ctb-002",
		Montant:           decimal.NewFromInt(12000),
		NumeroMobileMoney: "+221771234567",
		Operateur:         "orange",
	}
}

// Initiation acceptée par l'opérateur, paiement en attente du webhook.
func TestCreateMobileMoney_Initie(t *testing.T) {
	env := newTestEnv(t)

	p, err := env.uc.CreateMobileMoney(context.Background(), mobileMoneyRequest())
	require.NoError(t, err)

	assert.Equal(t, entity.PaymentStatusEnAttente, p.Statut)
	assert.Equal(t, "MM-1", p.TransactionExterne)
	assert.Equal(t, 1, env.provider.calls)

	stored, err := env.payments.GetByReference(p.Reference)
	require.NoError(t, err)
	require.NotNil(t, stored, "le paiement doit être retrouvable par sa référence")
}

// Erreur opérateur (refus ou timeout), le paiement est persisté
// rejeté mais la création ne remonte pas d'erreur.
func TestCreateMobileMoney_EchecOperateurPersisteRejete(t *testing.T) {
	env := newTestEnv(t)
	env.provider.err = errors.New("délai d'attente dépassé")

	p, err := env.uc.CreateMobileMoney(context.Background(), mobileMoneyRequest())
	require.NoError(t, err, "un échec opérateur n'est pas une erreur de création")
	assert.Equal(t, entity.PaymentStatusRejete, p.Statut)
	assert.NotEmpty(t, p.MotifRejet)

	stored, err := env.payments.GetByID(p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored, "le rejet doit laisser une trace persistée")
	assert.Equal(t, entity.PaymentStatusRejete, stored.Statut)
}

// Opérateur inconnu refusé avant tout appel réseau.
func TestCreateMobileMoney_OperateurInconnu(t *testing.T) {
	env := newTestEnv(t)

	in := mobileMoneyRequest()
	in.Operateur = "télépathie"
	_, err := env.uc.CreateMobileMoney(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, env.provider.calls, "aucun appel opérateur sur entrée invalide")
}

// ──────────────────────────────────────────────────────────────────────────────
// Confirmation et remboursement
// ──────────────────────────────────────────────────────────────────────────────

// pendingPayment insère un paiement mobile money en attente et le retourne.
func pendingPayment(t *testing.T, env *testEnv) *entity.Payment {
	t.Helper()
	p, err := env.uc.CreateMobileMoney(context.Background(), mobileMoneyRequest())
	require.NoError(t, err)
	require.Equal(t, entity.PaymentStatusEnAttente, p.Statut)
	return p
}

// La confirmation passe le paiement à validé exactement une fois et
// les appels répétés retournent la même quittance.
func TestConfirm_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	p := pendingPayment(t, env)

	var numeros []string
	for i := 0; i < 3; i++ {
		confirmed, r, err := env.uc.Confirm(context.Background(), p.ID, "MM-TX-9", "agent-02")
		require.NoError(t, err, "appel %d", i+1)
		assert.Equal(t, entity.PaymentStatusValide, confirmed.Statut)
		numeros = append(numeros, r.Numero)
	}

	assert.Equal(t, numeros[0], numeros[1], "les confirmations répétées doivent rendre la même quittance")
	assert.Equal(t, numeros[0], numeros[2])
	assert.Len(t, env.receipts.byPayment, 1, "au plus une quittance par paiement")
}

// Un paiement encore en cours ne se confirme pas: seule l'attente de
// confirmation autorise le passage à validé.
func TestConfirm_PaiementEnCours(t *testing.T) {
	env := newTestEnv(t)
	p := &entity.Payment{
		ID:             "pay-en-cours",
		Reference:      "PAY-2026-0000099",
		FactureID:      "fac-001",
		ContribuableID: "ctb-001",
		Montant:        decimal.NewFromInt(25000),
		Canal:          entity.PaymentChannelMobileMoney,
		Statut:         entity.PaymentStatusEnCours,
		DateInitiation: time.Now(),
	}
	require.NoError(t, env.payments.Create(p))

	_, _, err := env.uc.Confirm(context.Background(), p.ID, "MM-TX-1", "agent-02")
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := env.payments.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusEnCours, stored.Statut, "le statut ne doit pas bouger")
}

// Confirmation d'un paiement rejeté refusée (état terminal).
func TestConfirm_PaiementRejete(t *testing.T) {
	env := newTestEnv(t)
	p := pendingPayment(t, env)

	moved, err := env.payments.Reject(p.ID, "Solde insuffisant")
	require.NoError(t, err)
	require.True(t, moved)

	_, _, err = env.uc.Confirm(context.Background(), p.ID, "", "agent-02")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// Un id inconnu rend ErrNotFound.
func TestConfirm_PaiementInconnu(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.uc.Confirm(context.Background(), "inexistant", "", "agent-02")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Remboursement, uniquement depuis validé.
func TestRefund_Transitions(t *testing.T) {
	env := newTestEnv(t)

	p, _, err := env.uc.CreateGuichet(context.Background(), "agent-01", guichetRequest())
	require.NoError(t, err)

	refunded, err := env.uc.Refund(context.Background(), p.ID, "trésor-01")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusRembourse, refunded.Statut)

	// Un second remboursement est un conflit: remboursé est terminal.
	_, err = env.uc.Refund(context.Background(), p.ID, "trésor-01")
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Un paiement en attente ne se rembourse pas.
	pending := pendingPayment(t, env)
	_, err = env.uc.Refund(context.Background(), pending.ID, "trésor-01")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// Chaque opération financière laisse une entrée d'audit.
func TestAudit_TraceLesOperations(t *testing.T) {
	env := newTestEnv(t)

	p, _, err := env.uc.CreateGuichet(context.Background(), "agent-01", guichetRequest())
	require.NoError(t, err)
	_, err = env.uc.Refund(context.Background(), p.ID, "trésor-01")
	require.NoError(t, err)

	actions := env.audit.actions()
	assert.Contains(t, actions, "paiement_guichet")
	assert.Contains(t, actions, "quittance_émise")
	assert.Contains(t, actions, "paiement_remboursé")
}
