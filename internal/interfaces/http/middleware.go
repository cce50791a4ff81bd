package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mairie-digitale/tresorerie-api/internal/application/dto"
	"github.com/mairie-digitale/tresorerie-api/pkg/jwt"
)

// Rôles de la plateforme, portés par les claims JWT.
const (
	RoleAdminSysteme   = "admin_système"
	RoleAgentFinancier = "agent_financier"
	RoleAgentRegie     = "agent_régie"
	RoleTresorPublic   = "trésor_public"
	RoleMairieExecutif = "mairie_exécutif"
	RoleTutelle        = "tutelle"
	RoleJustice        = "justice"
	RoleCitoyen        = "citoyen"
	RoleEntreprise     = "entreprise"
)

// Clés Locals pour UserID et Role dans Fiber.
const (
	LocalUserID = "user_id"
	LocalRole   = "role"
)

// AuthMiddleware valide le Bearer Token JWT et place UserID et Role dans c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "en-tête Authorization requis"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "format attendu: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vide"})
		}
		userID, role, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token invalide ou expiré"})
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalRole, role)
		return c.Next()
	}
}

// RequireRole n'autorise que les rôles listés (après AuthMiddleware).
// admin_système passe toujours.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles)+1)
	allowed[RoleAdminSysteme] = true
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *fiber.Ctx) error {
		if !allowed[GetRole(c)] {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rôle insuffisant pour cette opération"})
		}
		return c.Next()
	}
}

// GetUserID retourne le UserID du contexte (après le middleware d'auth).
func GetUserID(c *fiber.Ctx) string {
	v := c.Locals(LocalUserID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetRole retourne le rôle du contexte (après le middleware d'auth).
func GetRole(c *fiber.Ctx) string {
	v := c.Locals(LocalRole)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
