package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/homework-assistant-api/internal/repository"
	"github.com/noah-isme/homework-assistant-api/internal/utils"
)

const (
	localUserID       = "user_id"
	localUserRole     = "user_role"
	localTokenID      = "token_id"
	localTokenExpires = "token_expires_at"
)

// JWTProtected validates HS256 bearer tokens and rejects revoked ones. The revocation store may be nil.
func JWTProtected(secret string, revoked repository.TokenRevocationStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "bearer "
		if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		}, jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		userID, err := subjectFromClaims(claims)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		role, _ := claims["role"].(string)
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		tokenID, _ := claims["jti"].(string)
		if revoked != nil && tokenID != "" {
			isRevoked, err := revoked.IsRevoked(c.UserContext(), tokenID)
			if err != nil {
				return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
			}
			if isRevoked {
				return utils.SendError(c, fiber.StatusUnauthorized, "token revoked")
			}
		}

		c.Locals(localUserID, userID)
		c.Locals(localUserRole, role)
		c.Locals(localTokenID, tokenID)
		if expiry, err := claims.GetExpirationTime(); err == nil && expiry != nil {
			c.Locals(localTokenExpires, expiry.Time)
		}

		return c.Next()
	}
}

func subjectFromClaims(claims jwt.MapClaims) (uint, error) {
	switch v := claims["sub"].(type) {
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil || parsed == 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(parsed), nil
	case float64:
		if v <= 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	default:
		return 0, fmt.Errorf("unsupported subject type")
	}
}

// UserID returns the authenticated user id, or zero.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localUserID).(uint)
	return id
}

// UserRole returns the authenticated role in lower case, or an empty string.
func UserRole(c *fiber.Ctx) string {
	role, _ := c.Locals(localUserRole).(string)
	return role
}

// TokenID returns the jti of the presented token.
func TokenID(c *fiber.Ctx) string {
	id, _ := c.Locals(localTokenID).(string)
	return id
}

// TokenExpiry returns when the presented token expires.
func TokenExpiry(c *fiber.Ctx) time.Time {
	expiry, _ := c.Locals(localTokenExpires).(time.Time)
	return expiry
}
