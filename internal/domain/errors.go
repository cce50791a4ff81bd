package domain

import (
	"errors"
	"fmt"
)

// Erreurs de domaine (sans dépendances externes).
var (
	ErrNotFound     = errors.New("ressource introuvable")
	ErrInvalidInput = errors.New("entrée invalide")
	ErrDuplicate    = errors.New("ressource dupliquée")
	ErrUnauthorized = errors.New("non autorisé")
	ErrForbidden    = errors.New("accès refusé")
	ErrConflict     = errors.New("conflit avec l'état actuel")
	ErrExternal     = errors.New("dépendance externe indisponible")

	// ErrTransition enveloppe ErrConflict: une transition refusée est un
	// conflit d'état pour tout appelant qui ne distingue pas plus finement.
	ErrTransition = fmt.Errorf("transition d'état non autorisée: %w", ErrConflict)
)
