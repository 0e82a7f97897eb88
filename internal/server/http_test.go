package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/finlit-quiz/internal/auth/jwt"
	"github.com/gokatarajesh/finlit-quiz/internal/catalog"
	"github.com/gokatarajesh/finlit-quiz/internal/config"
	"github.com/gokatarajesh/finlit-quiz/internal/stats"
)

type tokenTable map[string]*jwt.Claims

func (t tokenTable) ValidateToken(token string) (*jwt.Claims, error) {
	if c, ok := t[token]; ok {
		return c, nil
	}
	return nil, jwt.ErrInvalidToken
}

type emptyRanker struct{}

func (emptyRanker) Top(context.Context, int, int) ([]stats.Entry, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, pingers ...Pinger) http.Handler {
	t.Helper()
	bank, err := catalog.Default()
	require.NoError(t, err)

	corsCfg := config.CORS{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         60,
	}
	deps := Deps{
		Validator: tokenTable{
			"student-token": {Role: jwt.RoleStudent},
			"admin-token":   {Role: jwt.RoleAdmin},
		},
		Pingers: pingers,
	}
	handlers := Handlers{
		Catalog: catalog.NewHTTPHandler(bank, zerolog.Nop()),
		Stats:   stats.NewHTTPHandler(emptyRanker{}, zerolog.Nop()),
	}
	return NewRouter(corsCfg, zerolog.Nop(), deps, handlers)
}

func get(h http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicRoutes(t *testing.T) {
	h := newTestRouter(t)

	assert.Equal(t, http.StatusOK, get(h, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, get(h, "/v1/catalog/levels", "").Code)
	assert.Equal(t, http.StatusOK, get(h, "/v1/catalog/categories", "").Code)
	assert.Equal(t, http.StatusOK, get(h, "/metrics", "").Code)
	assert.Equal(t, http.StatusOK, get(h, "/v1/ping", "").Code)
	assert.NotEmpty(t, get(h, "/healthz", "").Header().Get("X-Request-ID"))
}

func TestRouter_AdminRoutesRequireAdmin(t *testing.T) {
	h := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, get(h, "/v1/stats/levels/1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/v1/stats/levels/1", "forged").Code)
	assert.Equal(t, http.StatusForbidden, get(h, "/v1/stats/levels/1", "student-token").Code)
	assert.Equal(t, http.StatusOK, get(h, "/v1/stats/levels/1", "admin-token").Code)
}

func TestRouter_PingFailure(t *testing.T) {
	h := newTestRouter(t, func(context.Context) error { return errors.New("redis down") })
	assert.Equal(t, http.StatusBadGateway, get(h, "/v1/ping", "").Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/catalog/levels", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
