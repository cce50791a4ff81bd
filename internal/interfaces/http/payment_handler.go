package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mairie-digitale/tresorerie-api/internal/application/dto"
	"github.com/mairie-digitale/tresorerie-api/internal/application/payment"
	"github.com/mairie-digitale/tresorerie-api/internal/domain"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/repository"
)

// PaymentHandler gère les requêtes HTTP du registre des paiements (protégé).
type PaymentHandler struct {
	uc *payment.UseCase
}

// NewPaymentHandler construit le handler.
func NewPaymentHandler(uc *payment.UseCase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

// CreateMobileMoney initie un paiement Mobile Money.
// POST /api/paiements/mobile-money
func (h *PaymentHandler) CreateMobileMoney(c *fiber.Ctx) error {
	var in dto.CreateMobileMoneyRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps de requête invalide"})
	}
	p, err := h.uc.CreateMobileMoney(c.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "facture, contribuable, montant ou opérateur invalide"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromPayment(p))
}

// CreateGuichet enregistre un encaissement au guichet.
// POST /api/paiements/guichet
func (h *PaymentHandler) CreateGuichet(c *fiber.Ctx) error {
	agentID := GetUserID(c)
	var in dto.CreateGuichetRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps de requête invalide"})
	}
	p, r, err := h.uc.CreateGuichet(c.Context(), agentID, in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "facture, contribuable ou montant invalide"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	resp := dto.PaymentReceiptResponse{Paiement: dto.FromPayment(p)}
	if r != nil {
		rr := dto.FromReceipt(r)
		resp.Quittance = &rr
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Confirm valide manuellement un paiement et émet sa quittance. Idempotent.
// PATCH /api/paiements/:id/confirmer
func (h *PaymentHandler) Confirm(c *fiber.Ctx) error {
	id := c.Params("id")
	var in dto.ConfirmPaymentRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps de requête invalide"})
	}
	p, r, err := h.uc.Confirm(c.Context(), id, in.TransactionExterne, GetUserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "paiement non trouvé"})
		}
		if errors.Is(err, domain.ErrConflict) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "paiement dans un état terminal non confirmable"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	resp := dto.PaymentReceiptResponse{Paiement: dto.FromPayment(p)}
	if r != nil {
		rr := dto.FromReceipt(r)
		resp.Quittance = &rr
	}
	return c.JSON(resp)
}

// Refund passe un paiement validé à remboursé.
// PATCH /api/paiements/:id/rembourser
func (h *PaymentHandler) Refund(c *fiber.Ctx) error {
	p, err := h.uc.Refund(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "paiement non trouvé"})
		}
		if errors.Is(err, domain.ErrConflict) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "seul un paiement validé peut être remboursé"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.FromPayment(p))
}

// GetByID retourne un paiement.
// GET /api/paiements/:id
func (h *PaymentHandler) GetByID(c *fiber.Ctx) error {
	p, err := h.uc.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "paiement non trouvé"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.FromPayment(p))
}

// List retourne les paiements filtrés.
// GET /api/paiements?statut=&canal=&factureId=&limite=&page=
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limite", 50)
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	filter := repository.PaymentFilter{
		Statut:    c.Query("statut"),
		Canal:     c.Query("canal"),
		FactureID: c.Query("factureId"),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}
	payments, err := h.uc.List(filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, dto.FromPayment(p))
	}
	return c.JSON(out)
}
