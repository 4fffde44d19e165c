package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	t.Run("keeps domain errors", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", NewForbidden("nope"))
		de := ToDomainError(err)
		assert.Equal(t, "FORBIDDEN", de.Code)
		assert.Equal(t, http.StatusForbidden, de.HTTPStatus)
		assert.True(t, IsForbidden(err))
	})

	t.Run("maps missing rows to not found", func(t *testing.T) {
		de := ToDomainError(fmt.Errorf("get ticket: %w", pgx.ErrNoRows))
		assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
	})

	t.Run("maps fiber errors", func(t *testing.T) {
		de := ToDomainError(fiber.ErrNotFound)
		assert.Equal(t, "NOT_FOUND", de.Code)
		assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
	})

	t.Run("hides unknown errors", func(t *testing.T) {
		de := ToDomainError(errors.New("disk on fire"))
		assert.Equal(t, "INTERNAL_ERROR", de.Code)
		assert.Equal(t, "internal server error", de.Message)
	})
}

func TestFieldError(t *testing.T) {
	err := NewFieldError("status", "Status is invalid.")
	assert.True(t, IsValidation(err))
	assert.Equal(t, map[string]any{"status": "Status is invalid."}, ToDomainError(err).Details)
}
