package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"shoplens/config"
	"shoplens/models"
)

// Authenticate is a middleware that verifies a JWT token and extracts the
// shop scope for the request.
func Authenticate(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Missing authorization header"})
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader { // No "Bearer " prefix
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid token format"})
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.JwtClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid or expired token"})
	}

	claims, ok := token.Claims.(*models.JwtClaims)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to parse token claims"})
	}
	if claims.ShopID == "" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Token is not scoped to a shop"})
	}

	c.Locals("userID", claims.UserID)
	c.Locals("shopID", claims.ShopID)
	c.Locals("userRole", claims.Role)

	return c.Next()
}

// CheckRole is a middleware that verifies the user has one of the specified roles.
func CheckRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userRole, ok := c.Locals("userRole").(string)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Role not found in token"})
		}

		for _, role := range roles {
			if userRole == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Insufficient permissions"})
	}
}

// ShopID returns the authenticated shop scope set by Authenticate.
func ShopID(c *fiber.Ctx) string {
	shopID, _ := c.Locals("shopID").(string)
	return shopID
}
