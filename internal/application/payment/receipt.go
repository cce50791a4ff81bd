package payment

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
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

// receiptNumberPrefix et receiptCounterName pilotent la numérotation annuelle.
const (
	receiptNumberPrefix = "QUIT"
	receiptCounterName  = "quittance"
)

// CanonicalPayload est l'encodage canonique signé d'une quittance. L'ordre des
// champs est celui de la déclaration: encoding/json le préserve, ce qui rend
// la signature re-dérivable à tout moment d'audit à partir des seuls champs.
// La même charge sert de contenu au QR code des copies imprimées.
type CanonicalPayload struct {
	Numero           string `json:"numéroQuittance"`
	FactureID        string `json:"factureId"`
	Montant          string `json:"montant"`      // Fixé à 2 décimales
	DateEmission     string `json:"dateÉmission"` // RFC 3339, UTC
	CodeVerification string `json:"codeVérification"`
}

// Canonical construit la charge canonique d'une quittance.
func Canonical(numero, factureID string, montant decimal.Decimal, emission time.Time, code string) CanonicalPayload {
	return CanonicalPayload{
		Numero:           numero,
		FactureID:        factureID,
		Montant:          montant.StringFixed(2),
		DateEmission:     emission.UTC().Format(time.RFC3339),
		CodeVerification: code,
	}
}

// Encode sérialise la charge canonique (ordre des clés stable).
func (p CanonicalPayload) Encode() string {
	b, _ := json.Marshal(p)
	return string(b)
}

// Sign calcule la signature d'intégrité HMAC-SHA256 de la charge avec la clé
// donnée, en hexadécimal.
func (p CanonicalPayload) Sign(key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(p.Encode()))
	return hex.EncodeToString(mac.Sum(nil))
}

// ReceiptIssuer émet et vérifie les quittances.
type ReceiptIssuer struct {
	receipts repository.ReceiptRepository
	payments repository.PaymentRepository
	counters repository.CounterRepository
	audit    *audit.Recorder
	log      *logger.Logger
	signKey  []byte
}

// NewReceiptIssuer construit l'émetteur. signKey est la clé HMAC des
// signatures d'intégrité.
func NewReceiptIssuer(
	receipts repository.ReceiptRepository,
	payments repository.PaymentRepository,
	counters repository.CounterRepository,
	auditRec *audit.Recorder,
	log *logger.Logger,
	signKey string,
) *ReceiptIssuer {
	return &ReceiptIssuer{
		receipts: receipts,
		payments: payments,
		counters: counters,
		audit:    auditRec,
		log:      log,
		signKey:  []byte(signKey),
	}
}

// Issue émet la quittance du paiement. Au plus une quittance par paiement:
// la contrainte d'unicité sur payment_id tranche les appels concurrents, et
// une violation est traitée comme « déjà émise, retourner l'existante ».
// Retourne ErrNotFound si le paiement n'existe pas, ErrConflict s'il n'est
// pas validé.
func (ri *ReceiptIssuer) Issue(paymentID, emisePar string) (*entity.Receipt, error) {
	p, err := ri.payments.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if p.Statut != entity.PaymentStatusValide {
		return nil, domain.ErrConflict
	}

	// Raccourci fréquent: émission déjà faite par un appel antérieur.
	if existing, err := ri.receipts.GetByPaymentID(paymentID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	seq, err := ri.counters.Next(receiptCounterName, time.Now().Year())
	if err != nil {
		return nil, fmt.Errorf("séquence quittance: %w", err)
	}
	numero := fmt.Sprintf("%s-%d-%07d", receiptNumberPrefix, time.Now().Year(), seq)
	code := newVerificationCode()
	emission := time.Now()

	canonical := Canonical(numero, p.FactureID, p.Montant, emission, code)
	r := &entity.Receipt{
		ID:               uuid.New().String(),
		Numero:           numero,
		PaymentID:        p.ID,
		FactureID:        p.FactureID,
		ContribuableID:   p.ContribuableID,
		MontantPaye:      p.Montant,
		DateEmission:     emission,
		CodeQR:           canonical.Encode(),
		CodeVerification: code,
		Signature:        canonical.Sign(ri.signKey),
		EstValide:        true,
		EmisePar:         emisePar,
	}

	if err := ri.receipts.Create(r); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			// Un appel concurrent a gagné la course: retourner son résultat.
			existing, gerr := ri.receipts.GetByPaymentID(paymentID)
			if gerr != nil {
				return nil, gerr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	ri.audit.Record("quittance_émise", emisePar, "quittance", r.ID, entity.AuditResultSucces, map[string]any{
		"numéroQuittance": numero,
		"paiementId":      paymentID,
		"montant":         p.Montant,
	})
	return r, nil
}

// GetByNumero retourne une quittance par son numéro.
func (ri *ReceiptIssuer) GetByNumero(numero string) (*entity.Receipt, error) {
	r, err := ri.receipts.GetByNumero(numero)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// Verify répond à la consultation publique d'authenticité. Code inconnu ou
// quittance révoquée: authentique=false, sans autre détail.
func (ri *ReceiptIssuer) Verify(code string) dto.VerificationResponse {
	code = strings.ToUpper(strings.TrimSpace(code))
	r, err := ri.receipts.GetByCode(code)
	if err != nil {
		ri.log.Error().Err(err).Msg("vérification de quittance: lecture impossible")
		return dto.VerificationResponse{Authentique: false}
	}
	if r == nil || !r.EstValide {
		return dto.VerificationResponse{Authentique: false}
	}
	return dto.VerificationResponse{
		Authentique:  true,
		Numero:       r.Numero,
		Montant:      &r.MontantPaye,
		DateEmission: &r.DateEmission,
	}
}

// Revoke invalide une quittance. La ligne reste en base: jamais de
// suppression, seule la validité bascule.
func (ri *ReceiptIssuer) Revoke(numero, utilisateurID string) error {
	ok, err := ri.receipts.Revoke(numero)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	ri.audit.Record("quittance_révoquée", utilisateurID, "quittance", numero, entity.AuditResultSucces, nil)
	return nil
}

// newVerificationCode génère le code court public (4 octets aléatoires en hex
// majuscule).
func newVerificationCode() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return strings.ToUpper(hex.EncodeToString(b))
}
