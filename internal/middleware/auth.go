package middleware

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// Auth0IDKey is the context key for the Auth0 user ID (subject)
	Auth0IDKey contextKey = "auth0_id"
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey contextKey = "user_id"
	// UserRoleKey is the context key for the authenticated user's role
	UserRoleKey contextKey = "user_role"
)

// UserProvider resolves the local user behind an Auth0 subject
type UserProvider interface {
	GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.User, error)
}

// TokenValidator validates a raw bearer token and returns its claims
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (interface{}, error)
}

// AuthMiddleware provides JWT validation middleware
type AuthMiddleware struct {
	validator TokenValidator
	users     UserProvider
}

// NewAuthMiddleware creates a new AuthMiddleware with Auth0 configuration
func NewAuthMiddleware(domainName, audience string, users UserProvider) (*AuthMiddleware, error) {
	issuerURL, err := url.Parse("https://" + domainName + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return NewAuthMiddlewareWithValidator(jwtValidator, users), nil
}

// NewAuthMiddlewareWithValidator creates an AuthMiddleware around an existing validator
func NewAuthMiddlewareWithValidator(tokenValidator TokenValidator, users UserProvider) *AuthMiddleware {
	return &AuthMiddleware{validator: tokenValidator, users: users}
}

// Token resolution failures
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotProvisioned = errors.New("user not provisioned")
)

// resolve validates token and loads the active user behind its subject
func (m *AuthMiddleware) resolve(ctx context.Context, token string) (*validator.ValidatedClaims, domain.Actor, error) {
	claims, err := m.validator.ValidateToken(ctx, token)
	if err != nil {
		log.Debug().Err(err).Msg("Token validation failed")
		return nil, domain.Actor{}, ErrInvalidToken
	}
	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, domain.Actor{}, ErrInvalidToken
	}

	subject := validated.RegisteredClaims.Subject
	user, err := m.users.GetByAuth0ID(ctx, subject)
	if err != nil || !user.IsActive {
		log.Debug().Err(err).Str("auth0_id", subject).Msg("User lookup failed")
		return validated, domain.Actor{}, ErrUserNotProvisioned
	}
	return validated, domain.Actor{UserID: user.ID, Role: user.Role}, nil
}

// ValidateToken resolves a raw token to the acting user. WebSocket upgrades
// pass the token as a query parameter and authenticate through here.
func (m *AuthMiddleware) ValidateToken(ctx context.Context, token string) (domain.Actor, error) {
	_, actor, err := m.resolve(ctx, token)
	return actor, err
}

// Authenticate returns an Echo middleware that validates the bearer token
// and stores the acting user. Unknown or inactive users are rejected.
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scheme, token, found := strings.Cut(c.Request().Header.Get("Authorization"), " ")
			if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
				return unauthorizedError(c, "missing or malformed bearer token")
			}

			claims, actor, err := m.resolve(c.Request().Context(), token)
			if err != nil {
				return unauthorizedError(c, err.Error())
			}

			ctx := context.WithValue(c.Request().Context(), Auth0IDKey, claims.RegisteredClaims.Subject)
			c.SetRequest(c.Request().WithContext(WithActor(ctx, actor)))
			return next(c)
		}
	}
}

// WithActor stores the acting user in ctx
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, actor.UserID)
	return context.WithValue(ctx, UserRoleKey, actor.Role)
}

// GetAuth0ID extracts the Auth0 user ID from the context
func GetAuth0ID(c echo.Context) string {
	if id, ok := c.Request().Context().Value(Auth0IDKey).(string); ok {
		return id
	}
	return ""
}

// GetUserID extracts the authenticated user's ID from the context
func GetUserID(c echo.Context) uuid.UUID {
	if id, ok := c.Request().Context().Value(UserIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// GetActor extracts the acting user from the context. ok is false when the
// request was not authenticated.
func GetActor(c echo.Context) (domain.Actor, bool) {
	ctx := c.Request().Context()
	id, ok := ctx.Value(UserIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return domain.Actor{}, false
	}
	role, _ := ctx.Value(UserRoleKey).(domain.Role)
	return domain.Actor{UserID: id, Role: role}, true
}
