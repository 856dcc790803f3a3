package middleware

import (
	"strings"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const localsUser = "user"

// AuthMiddleware resolves the bearer token to a live user. Requests without a valid token,
// or with a token for a deleted user, stop here with 401.
func AuthMiddleware(issuer *utils.TokenIssuer, users *services.CredentialStore, log *utils.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := utils.ExtractBearerToken(c)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		userID, err := issuer.Verify(token)
		if err != nil {
			return utils.Unauthorized(c, "Invalid or expired token")
		}

		user, err := users.FindByID(c.UserContext(), userID)
		if err != nil {
			if apperr.Is(err, apperr.NotFound) {
				return utils.Unauthorized(c, "User no longer exists")
			}
			return utils.HandleError(c, log, err)
		}

		c.Locals(localsUser, user)
		return c.Next()
	}
}

// RequireRoles lets the request through only when the authenticated user has one of roles.
// It must run after AuthMiddleware.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}
		return utils.Forbidden(c, "Forbidden - "+strings.Join(roles, " or ")+" access required")
	}
}

// CurrentUser returns the user stored by AuthMiddleware, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localsUser).(*models.User)
	return user
}
