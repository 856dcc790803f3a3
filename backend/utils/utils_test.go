package utils

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"learnhub/backend/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPages(t *testing.T) {
	assert.Equal(t, 3, Pages(25, 10))
	assert.Equal(t, 2, Pages(20, 10))
	assert.Equal(t, 1, Pages(1, 10))
	assert.Equal(t, 0, Pages(0, 10))
}

func TestNormalizePage(t *testing.T) {
	p := NormalizePage(0, 500)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxLimit, p.Limit)

	p = NormalizePage(2, 10)
	assert.Equal(t, 10, p.Offset())
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("key-one", time.Hour)

	token, err := issuer.Issue(42)
	require.NoError(t, err)

	userID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestTokenIssuerRejectsOtherKey(t *testing.T) {
	token, err := NewTokenIssuer("key-one", time.Hour).Issue(7)
	require.NoError(t, err)

	_, err = NewTokenIssuer("key-two", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuerRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("key-one", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.Issue(7)
	require.NoError(t, err)

	_, err = NewTokenIssuer("key-one", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		token, err := ExtractBearerToken(c)
		if err != nil {
			return err
		}
		return c.SendString(token)
	})

	for _, header := range []string{"Bearer abc", "bearer abc", "abc"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", header)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, header)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestValidateStruct(t *testing.T) {
	type input struct {
		Email string `json:"email" validate:"required,email"`
		Level string `json:"level" validate:"omitempty,oneof=beginner advanced"`
	}

	errs := ValidateStruct(input{Email: "nope", Level: "expert"})
	assert.Equal(t, "must be a valid email", errs["email"])
	assert.Contains(t, errs["level"], "must be one of")

	assert.Nil(t, ValidateStruct(input{Email: "a@b.io"}))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusNotFound, StatusFor(apperr.NotFound))
	assert.Equal(t, fiber.StatusBadRequest, StatusFor(apperr.AlreadyEnrolled))
	assert.Equal(t, fiber.StatusBadRequest, StatusFor(apperr.NotEnrolled))
	assert.Equal(t, fiber.StatusForbidden, StatusFor(apperr.PermissionDenied))
	assert.Equal(t, fiber.StatusUnauthorized, StatusFor(apperr.Unauthenticated))
	assert.Equal(t, fiber.StatusInternalServerError, StatusFor(apperr.Unexpected))
}

func TestHandleErrorHidesUnexpectedCause(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return HandleError(c, NopLogger(), errors.New("pq: password authentication failed"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
