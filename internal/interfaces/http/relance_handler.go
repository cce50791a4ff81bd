package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mairie-digitale/tresorerie-api/internal/application/collections"
	"github.com/mairie-digitale/tresorerie-api/internal/application/dto"
	"github.com/mairie-digitale/tresorerie-api/internal/domain"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/repository"
)

// RelanceHandler gère le recouvrement amiable (protégé).
type RelanceHandler struct {
	uc *collections.EscalationUseCase
}

// NewRelanceHandler construit le handler.
func NewRelanceHandler(uc *collections.EscalationUseCase) *RelanceHandler {
	return &RelanceHandler{uc: uc}
}

// SendManual envoie une relance décidée par un agent.
// POST /api/relances/manuelle
func (h *RelanceHandler) SendManual(c *fiber.Ctx) error {
	var in dto.ManualRelanceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps de requête invalide"})
	}
	r, err := h.uc.SendManual(c.Context(), GetUserID(c), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "facture, contribuable, destinataire ou canal invalide"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromRelance(r))
}

// RunAutomatic déclenche immédiatement un passage de l'échelle de relance,
// sans attendre le scheduler.
// POST /api/relances/declencher-automatiques
func (h *RelanceHandler) RunAutomatic(c *fiber.Ctx) error {
	n, err := h.uc.RunAutomatic(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.RunRelancesResponse{RelancesEnvoyees: n})
}

// ApplyPenalties déclenche le recalcul des pénalités des factures en retard.
// POST /api/penalites/appliquer
func (h *RelanceHandler) ApplyPenalties(c *fiber.Ctx) error {
	h.uc.ApplyMonthlyPenalties(c.Context())
	return c.SendStatus(fiber.StatusAccepted)
}

// PreviewPenalty calcule le montant dû d'une facture, pénalités incluses,
// sans rien persister.
// GET /api/penalites/calculer/:factureId
func (h *RelanceHandler) PreviewPenalty(c *fiber.Ctx) error {
	out, err := h.uc.PreviewAmountDue(c.Context(), c.Params("factureId"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "facture non trouvée"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// List retourne les relances filtrées.
// GET /api/relances?factureId=&type=&statut=&limite=&page=
func (h *RelanceHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limite", 50)
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	filter := repository.RelanceFilter{
		FactureID: c.Query("factureId"),
		Canal:     c.Query("type"),
		Statut:    c.Query("statut"),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}
	relances, err := h.uc.ListRelances(filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.RelanceResponse, 0, len(relances))
	for _, r := range relances {
		out = append(out, dto.FromRelance(r))
	}
	return c.JSON(out)
}
