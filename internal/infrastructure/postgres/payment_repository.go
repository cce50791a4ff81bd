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

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo implémentation PostgreSQL de PaymentRepository (pool ou tx).
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construit l'adaptateur.
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

const paymentColumns = `id, reference, facture_id, contribuable_id, montant, canal, statut,
	numero_mobile_money, operateur, transaction_externe, nom_banque, reference_virement,
	agent_id, point_encaissement, date_initiation, date_confirmation, motif_rejet,
	donnees_brutes, created_at, updated_at`

// Create persiste un nouveau paiement. domain.ErrDuplicate si la référence
// est déjà prise.
func (r *PaymentRepo) Create(p *entity.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	query := `
		INSERT INTO paiements (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.q.Exec(context.Background(), query,
		p.ID, p.Reference, p.FactureID, p.ContribuableID, p.Montant, p.Canal, p.Statut,
		nullIfEmpty(p.NumeroMobileMoney), nullIfEmpty(p.Operateur), nullIfEmpty(p.TransactionExterne),
		nullIfEmpty(p.NomBanque), nullIfEmpty(p.ReferenceVirement),
		nullIfEmpty(p.AgentID), nullIfEmpty(p.PointEncaissement),
		p.DateInitiation, p.DateConfirmation, nullIfEmpty(p.MotifRejet),
		p.DonneesBrutes, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("référence paiement: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert paiement: %w", err)
	}
	return nil
}

// GetByID retourne (nil, nil) si le paiement n'existe pas.
func (r *PaymentRepo) GetByID(id string) (*entity.Payment, error) {
	return r.getWhere("id = $1", id)
}

// GetByReference retourne (nil, nil) si la référence est inconnue.
func (r *PaymentRepo) GetByReference(reference string) (*entity.Payment, error) {
	return r.getWhere("reference = $1", reference)
}

func (r *PaymentRepo) getWhere(where string, arg any) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM paiements WHERE ` + where
	p, err := scanPayment(r.q.QueryRow(context.Background(), query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get paiement: %w", err)
	}
	return p, nil
}

// List retourne les paiements filtrés, du plus récent au plus ancien.
func (r *PaymentRepo) List(filter repository.PaymentFilter) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM paiements WHERE 1=1`
	args := []any{}
	n := 0
	add := func(cond string, val any) {
		n++
		query += fmt.Sprintf(" AND %s = $%d", cond, n)
		args = append(args, val)
	}
	if filter.Statut != "" {
		add("statut", filter.Statut)
	}
	if filter.Canal != "" {
		add("canal", filter.Canal)
	}
	if filter.FactureID != "" {
		add("facture_id", filter.FactureID)
	}
	query += fmt.Sprintf(" ORDER BY date_initiation DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list paiements: %w", err)
	}
	defer rows.Close()

	var list []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paiement: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Confirm transition conditionnelle en_attente_confirmation → validé
// (compare-and-set sur le statut). Un paiement encore en cours n'est pas
// confirmable: il doit d'abord passer par l'attente de confirmation.
// false si aucune ligne touchée.
func (r *PaymentRepo) Confirm(id string, transactionExterne string, at time.Time) (bool, error) {
	query := `
		UPDATE paiements
		SET statut = $2,
		    date_confirmation = $3,
		    transaction_externe = COALESCE(NULLIF($4, ''), transaction_externe),
		    updated_at = now()
		WHERE id = $1 AND statut = $5`
	tag, err := r.q.Exec(context.Background(), query,
		id, entity.PaymentStatusValide, at, transactionExterne,
		entity.PaymentStatusEnAttente,
	)
	if err != nil {
		return false, fmt.Errorf("confirmer paiement: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Reject transition conditionnelle vers rejeté. validé n'est jamais écrasé.
func (r *PaymentRepo) Reject(id string, motif string) (bool, error) {
	query := `
		UPDATE paiements
		SET statut = $2, motif_rejet = $3, updated_at = now()
		WHERE id = $1 AND statut IN ($4, $5)`
	tag, err := r.q.Exec(context.Background(), query,
		id, entity.PaymentStatusRejete, motif,
		entity.PaymentStatusEnCours, entity.PaymentStatusEnAttente,
	)
	if err != nil {
		return false, fmt.Errorf("rejeter paiement: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Refund transition conditionnelle validé → remboursé.
func (r *PaymentRepo) Refund(id string) (bool, error) {
	query := `
		UPDATE paiements
		SET statut = $2, updated_at = now()
		WHERE id = $1 AND statut = $3`
	tag, err := r.q.Exec(context.Background(), query,
		id, entity.PaymentStatusRembourse, entity.PaymentStatusValide,
	)
	if err != nil {
		return false, fmt.Errorf("rembourser paiement: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	var numeroMM, operateur, txExterne, nomBanque, refVirement, agentID, pointEnc, motif *string
	err := row.Scan(
		&p.ID, &p.Reference, &p.FactureID, &p.ContribuableID, &p.Montant, &p.Canal, &p.Statut,
		&numeroMM, &operateur, &txExterne, &nomBanque, &refVirement,
		&agentID, &pointEnc, &p.DateInitiation, &p.DateConfirmation, &motif,
		&p.DonneesBrutes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.NumeroMobileMoney = derefStr(numeroMM)
	p.Operateur = derefStr(operateur)
	p.TransactionExterne = derefStr(txExterne)
	p.NomBanque = derefStr(nomBanque)
	p.ReferenceVirement = derefStr(refVirement)
	p.AgentID = derefStr(agentID)
	p.PointEncaissement = derefStr(pointEnc)
	p.MotifRejet = derefStr(motif)
	return &p, nil
}
