package dto

// ErrorResponse corps d'erreur uniforme de l'API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Champ   string `json:"champ,omitempty"` // Champ fautif pour les erreurs de validation
}
