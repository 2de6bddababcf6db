package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"taskflow/models"
	"taskflow/services"
)

const (
	LocalUser   = "user"
	LocalClaims = "claims"
)

// bearerToken extracts the token from the Authorization header
func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Authentication credentials were not provided")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header format")
	}
	return parts[1], nil
}

// AuthRequired resolves the bearer token to an active user and stores it in
// the request locals.
func AuthRequired(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := bearerToken(c)
		if err != nil {
			e := err.(*fiber.Error)
			return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
		}
		return authenticate(c, auth, raw)
	}
}

// QueryTokenRequired is AuthRequired for websocket upgrades, where browsers
// cannot set headers and the token travels as ?token=.
func QueryTokenRequired(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("token")
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token required",
			})
		}
		return authenticate(c, auth, raw)
	}
}

func authenticate(c *fiber.Ctx, auth *services.AuthService, raw string) error {
	user, claims, err := auth.Authenticate(c.UserContext(), raw)
	switch {
	case errors.Is(err, services.ErrAccountDisabled):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User account is disabled",
		})
	case errors.Is(err, services.ErrInvalidToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	case err != nil:
		log.Printf("auth: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	c.Locals(LocalUser, user)
	c.Locals(LocalClaims, claims)
	return c.Next()
}

// StaffRequired lets staff and superusers through.
func StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil || !user.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Staff access required",
			})
		}
		return c.Next()
	}
}

func SuperuserRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil || !user.IsSuperuser {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Superuser access required",
			})
		}
		return c.Next()
	}
}

func GetUser(c *fiber.Ctx) *models.User {
	if user, ok := c.Locals(LocalUser).(*models.User); ok {
		return user
	}
	return nil
}

func GetClaims(c *fiber.Ctx) *services.Claims {
	if claims, ok := c.Locals(LocalClaims).(*services.Claims); ok {
		return claims
	}
	return nil
}
