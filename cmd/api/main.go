package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mairie-digitale/tresorerie-api/internal/application/audit"
	"github.com/mairie-digitale/tresorerie-api/internal/application/collections"
	"github.com/mairie-digitale/tresorerie-api/internal/application/payment"
	"github.com/mairie-digitale/tresorerie-api/internal/infrastructure/mobilemoney"
	"github.com/mairie-digitale/tresorerie-api/internal/infrastructure/notify"
	infrapdf "github.com/mairie-digitale/tresorerie-api/internal/infrastructure/pdf"
	"github.com/mairie-digitale/tresorerie-api/internal/infrastructure/postgres"
	"github.com/mairie-digitale/tresorerie-api/internal/infrastructure/registry"
	"github.com/mairie-digitale/tresorerie-api/internal/infrastructure/scheduler"
	httpRouter "github.com/mairie-digitale/tresorerie-api/internal/interfaces/http"
	"github.com/mairie-digitale/tresorerie-api/pkg/config"
	"github.com/mairie-digitale/tresorerie-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("charger la configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("démarrage de l'application")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("connexion à PostgreSQL")
	}
	defer pool.Close()

	// Adaptateurs de persistance
	paymentRepo := postgres.NewPaymentRepository(pool)
	receiptRepo := postgres.NewReceiptRepository(pool)
	counterRepo := postgres.NewCounterRepository(pool)
	relanceRepo := postgres.NewRelanceRepository(pool)
	injonctionRepo := postgres.NewInjonctionRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)

	auditRec := audit.NewRecorder(auditRepo, log, cfg.App.Name)

	// Collaborateurs externes
	mmClient := mobilemoney.NewClient(cfg.MobileMoney.APIURL, cfg.MobileMoney.APIKey, cfg.MobileMoney.Timeout)
	recettes := registry.NewRecettesClient(cfg.Registry.RecettesURL, cfg.Registry.ServiceName, cfg.Registry.Timeout)
	contribuables := registry.NewContribuablesClient(cfg.Registry.ContribuablesURL, cfg.Registry.ServiceName, cfg.Registry.Timeout)
	smsSender := notify.NewTwilioSMS(cfg.Notify.TwilioSID, cfg.Notify.TwilioToken, cfg.Notify.TwilioFrom, cfg.Notify.Timeout)
	emailSender := notify.NewSMTPEmail(cfg.Notify.SMTPHost, cfg.Notify.SMTPPort, cfg.Notify.SMTPUser, cfg.Notify.SMTPPassword, cfg.Notify.SMTPFrom, cfg.Notify.Timeout)
	whatsappSender := notify.NewWhatsAppCloud(cfg.Notify.WhatsAppToken, cfg.Notify.WhatsAppPhoneID, cfg.Notify.Timeout)

	// Use cases
	receiptIssuer := payment.NewReceiptIssuer(receiptRepo, paymentRepo, counterRepo, auditRec, log, cfg.Receipt.SignatureKey)
	paymentUC := payment.NewUseCase(paymentRepo, receiptIssuer, mmClient, recettes, auditRec, log)
	escalationUC := collections.NewEscalationUseCase(relanceRepo, recettes, contribuables, smsSender, emailSender, whatsappSender, auditRec, log)
	injonctionUC := collections.NewInjonctionUseCase(injonctionRepo, counterRepo, auditRec, log)

	pdfGenerator := infrapdf.NewMarotoReceiptGenerator(cfg.App.Name)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Trésorerie API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		PaymentUC:     paymentUC,
		ReceiptIssuer: receiptIssuer,
		EscalationUC:  escalationUC,
		InjonctionUC:  injonctionUC,
		PDF:           pdfGenerator,
		Contribuables: contribuables,
		WebhookSecret: cfg.MobileMoney.WebhookSecret,
		JWTSecret:     cfg.JWT.Secret,
		Log:           log,
	})

	// Tâches récurrentes: relances quotidiennes et pénalités mensuelles
	schedCtx, schedCancel := context.WithCancel(ctx)
	defer schedCancel()
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(escalationUC, log, cfg.Scheduler.DailyHour, cfg.Scheduler.CheckInterval)
		go sched.Run(schedCtx)
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("serveur HTTP terminé")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("signal d'arrêt reçu, fermeture du serveur...")
	schedCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("arrêt du serveur")
	}

	log.Info().Msg("application arrêtée")
}
