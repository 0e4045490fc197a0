package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yigit/coursepath/internal/app/models"
	"github.com/yigit/coursepath/internal/pkg/apperrors"
	pkgAuth "github.com/yigit/coursepath/internal/pkg/auth"
)

// AnyRole lets every authenticated identity through
const AnyRole models.RoleType = ""

// TokenVerifier turns a bearer token into an identity
type TokenVerifier interface {
	Verify(token string) (pkgAuth.Identity, error)
}

// Gate decides whether a token may invoke an operation requiring a role.
// Roles are not hierarchical: ADMIN does not satisfy STUDENT.
type Gate struct {
	verifier TokenVerifier
}

// NewGate creates a Gate over the given verifier
func NewGate(verifier TokenVerifier) *Gate {
	return &Gate{verifier: verifier}
}

// Authorize returns the caller's identity, or an error classified as
// apperrors.ErrUnauthenticated (missing, malformed, badly signed or expired token)
// or apperrors.ErrPermissionDenied (authenticated with the wrong role).
func (g *Gate) Authorize(token string, required models.RoleType) (pkgAuth.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return pkgAuth.Identity{}, fmt.Errorf("%w: missing token", apperrors.ErrUnauthenticated)
	}

	identity, err := g.verifier.Verify(token)
	if err != nil {
		return pkgAuth.Identity{}, unauthenticated(err)
	}

	if required != AnyRole && identity.Role != required {
		return identity, apperrors.NewForbiddenError(fmt.Sprintf("role %s is required for this operation", required))
	}
	return identity, nil
}

func unauthenticated(cause error) error {
	if errors.Is(cause, pkgAuth.ErrExpiredToken) {
		return fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, apperrors.ErrTokenExpired)
	}
	return fmt.Errorf("%w: %w: %v", apperrors.ErrUnauthenticated, apperrors.ErrTokenInvalid, cause)
}
