package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
)

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Hex bolt", SanitizeString("  Hex bolt \n", 0))
	assert.Equal(t, "ab", SanitizeString("a\x00b\x1b", 0))
	assert.Equal(t, "line one\nline two", SanitizeString("line one\nline two", 0))
	assert.Equal(t, "Schraubenmutter", SanitizeString("Schraubenmutter größe M8", 15))
	assert.Equal(t, "größ", SanitizeString("größe", 4))
}

type movementBody struct {
	Type     string `json:"type" validate:"required,oneof=in out adjustment"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"in","quantity":3}`))
	var body movementBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, 3, body.Quantity)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"sideways","quantity":0}`))
	err := DecodeJSONBody(req, &movementBody{})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "movementBody.type")
	assert.Contains(t, details, "movementBody.quantity")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"in","quantity":1,"extra":true}`))
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &movementBody{}), pkgerrors.CodeValidation))
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=10", nil)
	got, err := ParseQueryInt(req, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, got)

	got, err = ParseQueryInt(httptest.NewRequest(http.MethodGet, "/", nil), "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, got)

	_, err = ParseQueryInt(httptest.NewRequest(http.MethodGet, "/?limit=500", nil), "limit", 25, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseQueryInt(httptest.NewRequest(http.MethodGet, "/?limit=ten", nil), "limit", 25, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseURLUUID(t *testing.T) {
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("productId", value)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := ParseURLUUID(withParam("00000000-0000-0000-0000-000000000007"), "productId")
	require.NoError(t, err)
	assert.Equal(t, "00000000-0000-0000-0000-000000000007", id.String())

	_, err = ParseURLUUID(withParam("seven"), "productId")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
