package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, exp, err := tm.GenerateToken("u1", domain.RoleITStaff)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, domain.RoleITStaff, claims.Role)
	assert.NotEmpty(t, claims.ID)

	_, err = NewTokenManager("other", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("password", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "password"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}

func TestMemoryRevocationStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRevocationStore()

	require.NoError(t, store.Revoke(ctx, "a", time.Now().Add(time.Hour)))
	require.NoError(t, store.Revoke(ctx, "b", time.Now().Add(-time.Second)))

	revoked, err := store.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "b")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func newTestApp(t *testing.T) (*fiber.App, *TokenManager, *MemoryRevocationStore, *domain.User, *domain.User) {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	employee := &domain.User{Name: "Emp", Email: "emp@example.com", Role: domain.RoleEmployee}
	manager := &domain.User{Name: "Mgr", Email: "mgr@example.com", Role: domain.RoleITManager}
	require.NoError(t, store.Users().Create(ctx, employee))
	require.NoError(t, store.Users().Create(ctx, manager))

	tokens := NewTokenManager("secret", 5)
	revocations := NewMemoryRevocationStore()
	mw := NewAuthMiddleware(tokens, store.Users(), revocations)

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		de := apperrors.ToDomainError(err)
		return c.Status(de.HTTPStatus).SendString(de.Message)
	}})
	app.Use(mw.Handle)
	app.Get("/me", func(c *fiber.Ctx) error {
		viewer, err := ViewerFromContext(c)
		if err != nil {
			return err
		}
		return c.SendString(string(viewer.Role))
	})
	app.Get("/managers", RequireRole(domain.RoleITManager), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app, tokens, revocations, employee, manager
}

func TestAuthMiddleware(t *testing.T) {
	app, tokens, revocations, employee, manager := newTestApp(t)

	do := func(path, token string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	empToken, _, err := tokens.GenerateToken(employee.ID, employee.Role)
	require.NoError(t, err)
	mgrToken, _, err := tokens.GenerateToken(manager.ID, manager.Role)
	require.NoError(t, err)
	ghostToken, _, err := tokens.GenerateToken("missing", domain.RoleITManager)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do("/me", ""))
	assert.Equal(t, http.StatusUnauthorized, do("/me", "garbage"))
	assert.Equal(t, http.StatusUnauthorized, do("/me", ghostToken))
	assert.Equal(t, http.StatusOK, do("/me", empToken))
	assert.Equal(t, http.StatusForbidden, do("/managers", empToken))
	assert.Equal(t, http.StatusNoContent, do("/managers", mgrToken))

	claims, err := tokens.ParseToken(empToken)
	require.NoError(t, err)
	require.NoError(t, revocations.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))
	assert.Equal(t, http.StatusUnauthorized, do("/me", empToken))
}
