package entity

import "time"

// Résultats possibles d'une entrée d'audit.
const (
	AuditResultSucces = "succès"
	AuditResultEchec  = "échec"
	AuditResultErreur = "erreur"
)

// AuditEntry est une ligne du journal d'audit, en ajout seul.
type AuditEntry struct {
	ID            string
	Action        string // ex: paiement_guichet, quittance_revoquee, webhook_signature_invalide
	UtilisateurID string // Vide pour les actions système ou anonymes
	Ressource     string // Type de ressource concernée
	RessourceID   string
	Details       []byte // Contexte JSON libre
	Resultat      string
	Service       string // Composant à l'origine de l'action
	CreatedAt     time.Time
}
