package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User   *domain.User
	Claims *Claims
}

// Viewer returns the identity used for access decisions.
func (p *Principal) Viewer() domain.Viewer {
	return p.User.Viewer()
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens      *TokenManager
	users       repository.UserRepository
	revocations RevocationStore
}

// NewAuthMiddleware constructs middleware. revocations may be nil.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, revocations RevocationStore) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, revocations: revocations}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	if m.revocations != nil && claims.ID != "" {
		revoked, err := m.revocations.IsRevoked(c.UserContext(), claims.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if revoked {
			return apperrors.NewUnauthorized("token revoked")
		}
	}

	// The role is always read from the directory so a changed role takes
	// effect without a new token.
	user, err := m.users.GetByID(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{User: user, Claims: claims})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// ViewerFromContext returns the authenticated viewer or an unauthorized error.
func ViewerFromContext(c *fiber.Ctx) (domain.Viewer, error) {
	principal, ok := PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return domain.Viewer{}, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Viewer(), nil
}
