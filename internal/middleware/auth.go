package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bilgisen/estatehub/internal/logger"
)

const actorKey = "actor"

// Actor is the authenticated user of a request.
type Actor struct {
	ID   string
	Name string
}

// Claims are the bearer token claims. Subject carries the user id.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// AuthConfig defines the config for the auth middleware
type AuthConfig struct {
	// Skip defines a function to skip middleware.
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Secret is the HS256 signing key.
	// Required.
	Secret []byte

	// ErrorHandler defines a function which is executed for an invalid token.
	// Optional. Default: 401 Invalid or missing token
	ErrorHandler fiber.ErrorHandler
}

// ConfigDefault is the default config
var ConfigDefault = AuthConfig{
	ErrorHandler: func(c *fiber.Ctx, err error) error {
		logger.Get().Warn().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Err(err).
			Msg("Authentication failed")

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"title":   "Unauthorized",
			"message": "Please sign in to continue.",
		})
	},
}

// NewAuth verifies the bearer token and stores the Actor in the context.
func NewAuth(config AuthConfig) fiber.Handler {
	cfg := config
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = ConfigDefault.ErrorHandler
	}

	return func(c *fiber.Ctx) error {
		// Don't execute middleware if Next returns true
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return cfg.ErrorHandler(c, errors.New("missing bearer token"))
		}
		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			return cfg.ErrorHandler(c, errors.New("authorization is not a bearer token"))
		}

		actor, err := ParseToken(cfg.Secret, tokenStr)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(actorKey, actor)
		return c.Next()
	}
}

// ParseToken verifies an HS256 token and returns its actor.
func ParseToken(secret []byte, tokenStr string) (Actor, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Actor{}, err
	}
	if claims.Subject == "" {
		return Actor{}, errors.New("token has no subject")
	}
	return Actor{ID: claims.Subject, Name: claims.Name}, nil
}

// IssueToken signs a token for actor valid for ttl.
func IssueToken(secret []byte, actor Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: actor.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ActorFrom returns the actor stored by NewAuth.
func ActorFrom(c *fiber.Ctx) (Actor, bool) {
	actor, ok := c.Locals(actorKey).(Actor)
	return actor, ok
}

// AdminOnly is a middleware that checks if the request is from an admin
func AdminOnly(adminKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := c.Get("X-API-Key")
		if apiKey == "" {
			logger.Get().Warn().
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Msg("Admin access attempt without API key")

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "API key is required",
			})
		}

		if adminKey == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(adminKey)) != 1 {
			logger.Get().Warn().
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Msg("Unauthorized admin access attempt")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}

		return c.Next()
	}
}
