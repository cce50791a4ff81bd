package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
)

// FactureRegistry est le collaborateur recettes: le moteur lit les factures
// pour le recouvrement et ne touche qu'au montant payé.
type FactureRegistry interface {
	GetFacture(ctx context.Context, id string) (*entity.Facture, error)
	// ListImpayees retourne les factures non soldées — en attente de
	// paiement ou partiellement payées (au plus limit).
	ListImpayees(ctx context.Context, limit int) ([]*entity.Facture, error)
	// NotifierPaiement signale un encaissement au service recettes
	// (patch du montant payé). Meilleur effort: l'appelant journalise
	// l'échec et n'interrompt jamais l'opération principale.
	NotifierPaiement(ctx context.Context, factureID string, montantPaye decimal.Decimal) error
	// RecalculerPenalites demande le recalcul des pénalités stockées de
	// toutes les factures en retard.
	RecalculerPenalites(ctx context.Context) error
}

// ContribuableRegistry est le collaborateur contribuables (lecture seule).
type ContribuableRegistry interface {
	GetContribuable(ctx context.Context, id string) (*entity.Contribuable, error)
}
