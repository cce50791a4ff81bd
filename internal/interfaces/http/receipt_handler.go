package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/mairie-digitale/tresorerie-api/internal/application/dto"
	"github.com/mairie-digitale/tresorerie-api/internal/application/payment"
	"github.com/mairie-digitale/tresorerie-api/internal/application/ports"
	"github.com/mairie-digitale/tresorerie-api/internal/domain"
	"github.com/mairie-digitale/tresorerie-api/pkg/logger"
)

// ReceiptHandler gère les quittances: consultation, copie PDF, vérification
// publique d'authenticité et révocation.
type ReceiptHandler struct {
	issuer        *payment.ReceiptIssuer
	pdf           ports.ReceiptPDFGenerator
	contribuables ports.ContribuableRegistry
	log           *logger.Logger
}

// NewReceiptHandler construit le handler.
func NewReceiptHandler(issuer *payment.ReceiptIssuer, pdf ports.ReceiptPDFGenerator, contribuables ports.ContribuableRegistry, log *logger.Logger) *ReceiptHandler {
	return &ReceiptHandler{issuer: issuer, pdf: pdf, contribuables: contribuables, log: log}
}

// GetByNumero retourne une quittance par son numéro.
// GET /api/quittances/:numero
func (h *ReceiptHandler) GetByNumero(c *fiber.Ctx) error {
	r, err := h.issuer.GetByNumero(c.Params("numero"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "quittance non trouvée"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.FromReceipt(r))
}

// DownloadPDF retourne la copie imprimable de la quittance.
// GET /api/quittances/:numero/pdf
func (h *ReceiptHandler) DownloadPDF(c *fiber.Ctx) error {
	r, err := h.issuer.GetByNumero(c.Params("numero"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "quittance non trouvée"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	// Identité du payeur en meilleur effort: le PDF sort même si le registre
	// des contribuables est injoignable.
	contribuable, err := h.contribuables.GetContribuable(c.Context(), r.ContribuableID)
	if err != nil {
		h.log.Warn().Err(err).Str("contribuableId", r.ContribuableID).Msg("pdf de quittance sans identité du payeur")
		contribuable = nil
	}

	pdfBytes, err := h.pdf.GenerateReceiptPDF(c.Context(), r, contribuable)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "PDF_GENERATION", Message: err.Error()})
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="quittance-%s.pdf"`, r.Numero))
	return c.Send(pdfBytes)
}

// Verify répond à la consultation publique d'authenticité d'un code.
// GET /api/quittances/verifier/:code
//
// Toujours 200: un code inconnu ou révoqué rend authentique=false sans
// exposer l'existence ou non de la quittance.
func (h *ReceiptHandler) Verify(c *fiber.Ctx) error {
	return c.JSON(h.issuer.Verify(c.Params("code")))
}

// Revoke invalide une quittance (la ligne reste en base).
// PATCH /api/quittances/:numero/revoquer
func (h *ReceiptHandler) Revoke(c *fiber.Ctx) error {
	if err := h.issuer.Revoke(c.Params("numero"), GetUserID(c)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "quittance non trouvée"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
