package entity

import "time"

// Canaux de relance.
const (
	RelanceChannelSMS      = "sms"
	RelanceChannelEmail    = "email"
	RelanceChannelWhatsApp = "whatsapp"
	RelanceChannelCourrier = "courrier"
	RelanceChannelAppel    = "appel"
)

// Statuts d'une relance. envoyée et échouée sont terminaux. Un barreau de
// l'échelle sauté faute de donnée de contact ne laisse aucune ligne: seule
// une tentative réellement engagée est tracée.
const (
	RelanceStatusEnCours = "en_cours"
	RelanceStatusEnvoyee = "envoyée"
	RelanceStatusEchouee = "échouée"
)

// Initiateurs d'une relance.
const (
	RelanceInitAutomatique = "automatique"
	RelanceInitAgent       = "agent"
)

// Relance est un rappel sortant rattaché à une facture, séquencé par facture.
type Relance struct {
	ID             string
	FactureID      string
	ContribuableID string
	Canal          string
	Sequence       int // Numéro de la relance pour la facture (1ère, 2ème, ...)
	Statut         string
	Message        string
	Destinataire   string // Email ou numéro de téléphone
	ReponseAPI     []byte // Réponse brute du transport (JSON)
	Erreur         string
	EnvoyeePar     string // automatique | agent
	AgentID        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidRelanceChannel vérifie qu'un canal de relance est reconnu.
func ValidRelanceChannel(canal string) bool {
	switch canal {
	case RelanceChannelSMS, RelanceChannelEmail, RelanceChannelWhatsApp, RelanceChannelCourrier, RelanceChannelAppel:
		return true
	}
	return false
}
