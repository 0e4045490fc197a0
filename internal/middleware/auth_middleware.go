package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	appAuth "github.com/yigit/coursepath/internal/app/auth"
	"github.com/yigit/coursepath/internal/app/models"
	"github.com/yigit/coursepath/internal/pkg/apperrors"
	"github.com/yigit/coursepath/internal/pkg/auth"
)

// Context keys set by AuthMiddleware
const (
	IdentityKey = "identity"
	UserIDKey   = "userID"
	RoleKey     = "roleType"
)

// AuthMiddleware runs the authorization gate before protected handlers
type AuthMiddleware struct {
	gate   *appAuth.Gate
	logger zerolog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(gate *appAuth.Gate, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		gate:   gate,
		logger: logger,
	}
}

// RequireRole admits only tokens carrying exactly the given role
func (m *AuthMiddleware) RequireRole(role models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if header := c.GetHeader("Authorization"); header != "" {
			extracted, err := auth.ExtractBearerToken(header)
			if err != nil {
				m.logger.Debug().Str("path", c.FullPath()).Msg("Malformed Authorization header")
				HandleAPIError(c, apperrors.ErrTokenInvalid)
				return
			}
			token = extracted
		}

		identity, err := m.gate.Authorize(token, role)
		if err != nil {
			m.logger.Debug().Err(err).
				Str("path", c.FullPath()).
				Str("requiredRole", string(role)).
				Msg("Request rejected by authorization gate")
			HandleAPIError(c, err)
			return
		}

		c.Set(IdentityKey, identity)
		c.Set(UserIDKey, identity.UserID)
		c.Set(RoleKey, string(identity.Role))
		c.Next()
	}
}

// Authenticated admits any valid token regardless of role
func (m *AuthMiddleware) Authenticated() gin.HandlerFunc {
	return m.RequireRole(appAuth.AnyRole)
}

// GetIdentity returns the identity stored by RequireRole
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	value, exists := c.Get(IdentityKey)
	if !exists {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	return identity, ok
}

// GetUserID returns the authenticated user's ID, or ErrUnauthenticated
func GetUserID(c *gin.Context) (string, error) {
	identity, ok := GetIdentity(c)
	if !ok || identity.UserID == "" {
		return "", apperrors.ErrUnauthenticated
	}
	return identity.UserID, nil
}
