package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mairie-digitale/tresorerie-api/internal/application/collections"
	"github.com/mairie-digitale/tresorerie-api/internal/application/payment"
	"github.com/mairie-digitale/tresorerie-api/internal/application/ports"
	"github.com/mairie-digitale/tresorerie-api/pkg/logger"
)

// RouterDeps dépendances du router.
type RouterDeps struct {
	PaymentUC     *payment.UseCase
	ReceiptIssuer *payment.ReceiptIssuer
	EscalationUC  *collections.EscalationUseCase
	InjonctionUC  *collections.InjonctionUseCase
	PDF           ports.ReceiptPDFGenerator
	Contribuables ports.ContribuableRegistry
	WebhookSecret string
	JWTSecret     string
	Log           *logger.Logger
}

// Router enregistre les routes de l'API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Webhooks (public, authentifié par signature HMAC)
	webhookHandler := NewWebhookHandler(deps.PaymentUC, deps.WebhookSecret, deps.Log)
	api.Post("/webhooks/mobile-money", webhookHandler.MobileMoney)

	// Vérification publique d'authenticité (sans authentification, avant la
	// route paramétrique /quittances/:numero)
	receiptHandler := NewReceiptHandler(deps.ReceiptIssuer, deps.PDF, deps.Contribuables, deps.Log)
	api.Get("/quittances/verifier/:code", receiptHandler.Verify)

	// Routes protégées (Bearer Token requis)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Paiements
	paymentHandler := NewPaymentHandler(deps.PaymentUC)
	paiements := protected.Group("/paiements")
	paiements.Post("/mobile-money", paymentHandler.CreateMobileMoney)
	paiements.Post("/guichet", RequireRole(RoleAgentFinancier, RoleAgentRegie), paymentHandler.CreateGuichet)
	paiements.Patch("/:id/confirmer", RequireRole(RoleAgentFinancier), paymentHandler.Confirm)
	paiements.Patch("/:id/rembourser", RequireRole(RoleAgentFinancier, RoleTresorPublic), paymentHandler.Refund)
	paiements.Get("/:id", paymentHandler.GetByID)
	paiements.Get("/", RequireRole(RoleAgentFinancier, RoleAgentRegie, RoleTresorPublic, RoleMairieExecutif, RoleTutelle), paymentHandler.List)

	// Quittances
	quittances := protected.Group("/quittances")
	quittances.Get("/:numero", receiptHandler.GetByNumero)
	quittances.Get("/:numero/pdf", receiptHandler.DownloadPDF)
	quittances.Patch("/:numero/revoquer", RequireRole(RoleAgentFinancier), receiptHandler.Revoke)

	// Relances et pénalités (recouvrement)
	relanceHandler := NewRelanceHandler(deps.EscalationUC)
	relances := protected.Group("/relances", RequireRole(RoleAgentFinancier, RoleAgentRegie))
	relances.Post("/manuelle", relanceHandler.SendManual)
	relances.Post("/declencher-automatiques", relanceHandler.RunAutomatic)
	relances.Get("/", relanceHandler.List)
	protected.Post("/penalites/appliquer", RequireRole(RoleAgentFinancier), relanceHandler.ApplyPenalties)
	protected.Get("/penalites/calculer/:factureId", relanceHandler.PreviewPenalty)

	// Injonctions de payer
	injonctionHandler := NewInjonctionHandler(deps.InjonctionUC)
	injonctions := protected.Group("/injonctions", RequireRole(RoleAgentFinancier, RoleJustice, RoleTresorPublic))
	injonctions.Post("/", injonctionHandler.Create)
	injonctions.Patch("/:id/statut", injonctionHandler.UpdateStatus)
	injonctions.Get("/:id", injonctionHandler.GetByID)
	injonctions.Get("/", injonctionHandler.List)
}
