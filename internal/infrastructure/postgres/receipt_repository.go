package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mairie-digitale/tresorerie-api/internal/domain"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/repository"
)

var _ repository.ReceiptRepository = (*ReceiptRepo)(nil)

// ReceiptRepo implémentation PostgreSQL de ReceiptRepository.
// La table quittances porte des contraintes d'unicité sur numero, payment_id
// et code_verification; les lignes ne sont jamais supprimées.
type ReceiptRepo struct {
	q Querier
}

// NewReceiptRepository construit l'adaptateur.
func NewReceiptRepository(q Querier) *ReceiptRepo {
	return &ReceiptRepo{q: q}
}

const receiptColumns = `id, numero, payment_id, facture_id, contribuable_id, montant_paye,
	date_emission, code_qr, code_verification, signature, est_valide, emise_par, created_at`

// Create persiste la quittance. domain.ErrDuplicate sur violation d'unicité
// (payment_id déjà quittancé, ou collision de numéro).
func (r *ReceiptRepo) Create(rc *entity.Receipt) error {
	if rc.ID == "" {
		rc.ID = uuid.New().String()
	}
	rc.CreatedAt = time.Now()
	query := `
		INSERT INTO quittances (` + receiptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(context.Background(), query,
		rc.ID, rc.Numero, rc.PaymentID, rc.FactureID, rc.ContribuableID, rc.MontantPaye,
		rc.DateEmission, rc.CodeQR, rc.CodeVerification, rc.Signature, rc.EstValide,
		nullIfEmpty(rc.EmisePar), rc.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("quittance: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert quittance: %w", err)
	}
	return nil
}

// GetByPaymentID retourne (nil, nil) si le paiement n'a pas de quittance.
func (r *ReceiptRepo) GetByPaymentID(paymentID string) (*entity.Receipt, error) {
	return r.getWhere("payment_id = $1", paymentID)
}

// GetByNumero retourne (nil, nil) si le numéro est inconnu.
func (r *ReceiptRepo) GetByNumero(numero string) (*entity.Receipt, error) {
	return r.getWhere("numero = $1", numero)
}

// GetByCode retourne (nil, nil) si le code de vérification est inconnu.
func (r *ReceiptRepo) GetByCode(code string) (*entity.Receipt, error) {
	return r.getWhere("code_verification = $1", code)
}

func (r *ReceiptRepo) getWhere(where string, arg any) (*entity.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM quittances WHERE ` + where
	var rc entity.Receipt
	var emisePar *string
	err := r.q.QueryRow(context.Background(), query, arg).Scan(
		&rc.ID, &rc.Numero, &rc.PaymentID, &rc.FactureID, &rc.ContribuableID, &rc.MontantPaye,
		&rc.DateEmission, &rc.CodeQR, &rc.CodeVerification, &rc.Signature, &rc.EstValide,
		&emisePar, &rc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get quittance: %w", err)
	}
	rc.EmisePar = derefStr(emisePar)
	return &rc, nil
}

// Revoke bascule est_valide à false. false si le numéro est inconnu.
func (r *ReceiptRepo) Revoke(numero string) (bool, error) {
	tag, err := r.q.Exec(context.Background(),
		`UPDATE quittances SET est_valide = false WHERE numero = $1`, numero)
	if err != nil {
		return false, fmt.Errorf("révoquer quittance: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
