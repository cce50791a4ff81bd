package repository

import "github.com/mairie-digitale/tresorerie-api/internal/domain/entity"

// ReceiptRepository définit le port de persistance des quittances.
type ReceiptRepository interface {
	// Create persiste la quittance. Retourne domain.ErrDuplicate si une
	// quittance existe déjà pour le même paiement (contrainte d'unicité sur
	// payment_id): l'appelant doit alors relire et retourner l'existante.
	Create(r *entity.Receipt) error
	// GetByPaymentID retourne (nil, nil) si aucune quittance n'existe.
	GetByPaymentID(paymentID string) (*entity.Receipt, error)
	GetByNumero(numero string) (*entity.Receipt, error)
	GetByCode(code string) (*entity.Receipt, error)
	// Revoke invalide la quittance (est_valide = false). La ligne n'est
	// jamais supprimée. Retourne false si le numéro est inconnu.
	Revoke(numero string) (bool, error)
}

// CounterRepository fournit des séquences annuelles atomiques côté base
// (numéros de quittance et d'injonction). Jamais de lire-compter-écrire.
type CounterRepository interface {
	// Next incrémente et retourne la valeur du compteur nommé pour l'année.
	Next(nom string, annee int) (int64, error)
}
