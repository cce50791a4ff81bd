package repository

import (
	"time"

	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
)

// PaymentFilter restreint une recherche de paiements.
type PaymentFilter struct {
	Statut    string
	Canal     string
	FactureID string
	Limit     int
	Offset    int
}

// PaymentRepository définit le port de persistance des paiements.
//
// Les transitions d'état passent par des mises à jour conditionnelles
// (compare-and-set sur le statut): la base relationnelle est le seul point de
// synchronisation entre instances, aucun verrou en mémoire n'est supposé.
type PaymentRepository interface {
	// Create persiste un nouveau paiement. Retourne domain.ErrDuplicate si la
	// référence est déjà prise (contrainte d'unicité).
	Create(p *entity.Payment) error
	// GetByID retourne (nil, nil) si le paiement n'existe pas.
	GetByID(id string) (*entity.Payment, error)
	GetByReference(reference string) (*entity.Payment, error)
	List(filter PaymentFilter) ([]*entity.Payment, error)

	// Confirm passe le paiement à validé si son statut le permet encore.
	// Retourne false sans erreur si aucune ligne n'a été touchée (déjà
	// terminal ou déjà validé): l'appelant relit alors l'état pour décider.
	Confirm(id string, transactionExterne string, at time.Time) (bool, error)
	// Reject passe le paiement à rejeté avec le motif donné, uniquement
	// depuis un statut non terminal. validé est collant: jamais écrasé.
	Reject(id string, motif string) (bool, error)
	// Refund passe un paiement validé à remboursé.
	Refund(id string) (bool, error)
}
