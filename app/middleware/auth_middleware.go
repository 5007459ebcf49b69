// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/associacao-viver/membership-api/app/dto"
	"github.com/associacao-viver/membership-api/app/services"
	"github.com/associacao-viver/membership-api/models"
	"github.com/gofiber/fiber/v3"
)

// AuthMiddleware handles JWT token validation for protected endpoints
type AuthMiddleware struct {
	tokenService services.TokenService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

func unauthorized(c fiber.Ctx, message, code string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: code},
	})
}

// extractBearerToken pulls the token out of the Authorization header,
// writing the error response itself when the header is malformed.
func extractBearerToken(c fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", unauthorized(c, "Authorization header is required", "MISSING_AUTHORIZATION_HEADER")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", unauthorized(c, "Invalid authorization header format. Expected 'Bearer <token>'", "INVALID_AUTHORIZATION_FORMAT")
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", unauthorized(c, "Access token is required", "MISSING_ACCESS_TOKEN")
	}

	return token, nil
}

func (m *AuthMiddleware) validateAccessToken(c fiber.Ctx, token string) (*services.TokenClaims, error) {
	claims, err := m.tokenService.ValidateToken(context.Background(), token)
	if err != nil {
		var errorCode string
		var message string

		if errors.Is(err, services.ErrTokenExpired) {
			errorCode = "TOKEN_EXPIRED"
			message = "Access token has expired"
		} else if errors.Is(err, services.ErrTokenRevoked) {
			errorCode = "TOKEN_REVOKED"
			message = "Access token has been revoked"
		} else if errors.Is(err, services.ErrTokenInvalid) {
			errorCode = "TOKEN_INVALID"
			message = "Invalid access token"
		} else {
			errorCode = "TOKEN_VALIDATION_FAILED"
			message = "Token validation failed"
		}

		return nil, unauthorized(c, message, errorCode)
	}

	// Refresh tokens never grant API access
	if claims.TokenType != "access" {
		return nil, unauthorized(c, "Invalid access token", "TOKEN_INVALID")
	}

	return claims, nil
}

func storeClaims(c fiber.Ctx, claims *services.TokenClaims) {
	c.Locals("member_id", claims.MemberID)
	c.Locals("member_role", claims.Role)
	c.Locals("token_id", claims.TokenID)
	c.Locals("token_claims", claims)

	// Keep the request ID reachable for audit logging
	if requestID := c.Get("X-Request-ID"); requestID != "" {
		c.Locals("request_id", requestID)
	}
}

// Authenticate is the middleware function that validates JWT access tokens
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, err := extractBearerToken(c)
		if err != nil {
			return err
		}

		claims, err := m.validateAccessToken(c, token)
		if err != nil {
			return err
		}

		storeClaims(c, claims)
		return c.Next()
	}
}

// AdminAuthenticate validates JWT access tokens and requires the admin role.
// The role baked into the token is only a fast first gate; business flows
// re-check the role against the database before acting.
func (m *AuthMiddleware) AdminAuthenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, err := extractBearerToken(c)
		if err != nil {
			return err
		}

		claims, err := m.validateAccessToken(c, token)
		if err != nil {
			return err
		}

		if claims.Role != string(models.MemberRoleAdmin) {
			return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
				Success: false,
				Message: "Admin privileges are required",
				Error:   dto.ErrorDetail{Code: "FORBIDDEN"},
			})
		}

		storeClaims(c, claims)
		return c.Next()
	}
}

// OptionalAuth validates JWT tokens if present, but doesn't require them
func (m *AuthMiddleware) OptionalAuth() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Next()
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return c.Next()
		}

		claims, err := m.tokenService.ValidateToken(context.Background(), token)
		if err != nil || claims.TokenType != "access" {
			return c.Next()
		}

		storeClaims(c, claims)
		return c.Next()
	}
}

// GetMemberIDFromContext extracts the authenticated member ID from the request context
func GetMemberIDFromContext(c fiber.Ctx) (uint, bool) {
	memberID, ok := c.Locals("member_id").(uint)
	return memberID, ok
}

// GetTokenClaimsFromContext extracts token claims from the request context
func GetTokenClaimsFromContext(c fiber.Ctx) (*services.TokenClaims, bool) {
	claims, ok := c.Locals("token_claims").(*services.TokenClaims)
	return claims, ok
}
