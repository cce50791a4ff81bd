package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mairie-digitale/tresorerie-api/internal/application/collections"
	"github.com/mairie-digitale/tresorerie-api/internal/application/dto"
	"github.com/mairie-digitale/tresorerie-api/internal/domain"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/repository"
)

// InjonctionHandler gère les injonctions de payer (protégé).
type InjonctionHandler struct {
	uc *collections.InjonctionUseCase
}

// NewInjonctionHandler construit le handler.
func NewInjonctionHandler(uc *collections.InjonctionUseCase) *InjonctionHandler {
	return &InjonctionHandler{uc: uc}
}

// Create prépare une injonction de payer.
// POST /api/injonctions
func (h *InjonctionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInjonctionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps de requête invalide"})
	}
	i, err := h.uc.Create(GetUserID(c), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "contribuable, factures ou montant invalide"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromInjonction(i))
}

// UpdateStatus fait progresser une injonction dans son cycle de vie.
// PATCH /api/injonctions/:id/statut
func (h *InjonctionHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateInjonctionStatutRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps de requête invalide"})
	}
	i, err := h.uc.UpdateStatus(GetUserID(c), c.Params("id"), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "statut cible inconnu", Champ: "statut"})
		}
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "injonction non trouvée"})
		}
		if errors.Is(err, domain.ErrTransition) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: "transition de statut non autorisée"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.FromInjonction(i))
}

// GetByID retourne une injonction.
// GET /api/injonctions/:id
func (h *InjonctionHandler) GetByID(c *fiber.Ctx) error {
	i, err := h.uc.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "injonction non trouvée"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.FromInjonction(i))
}

// List retourne les injonctions filtrées.
// GET /api/injonctions?contribuableId=&statut=&limite=&page=
func (h *InjonctionHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limite", 50)
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	filter := repository.InjonctionFilter{
		ContribuableID: c.Query("contribuableId"),
		Statut:         c.Query("statut"),
		Limit:          limit,
		Offset:         (page - 1) * limit,
	}
	injonctions, err := h.uc.List(filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.InjonctionResponse, 0, len(injonctions))
	for _, i := range injonctions {
		out = append(out, dto.FromInjonction(i))
	}
	return c.JSON(out)
}
