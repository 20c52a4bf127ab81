package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/garagehub/garagehub/internal/shared"
)

func newTestStack(t *testing.T) (chi.Router, *shared.SessionManager, *shared.CSRFManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		SessionManager: sessions,
		CSRFManager:    csrf,
	}) {
		r.Use(mw)
	}
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }
	r.Post("/api/auth/login", ok)
	r.Post("/api/orders", ok)
	return r, sessions, csrf
}

func TestLoginReachableWithoutToken(t *testing.T) {
	router, _, _ := newTestStack(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMutatingRequestsRequireToken(t *testing.T) {
	router, _, _ := newTestStack(t)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMutatingRequestsAcceptSessionToken(t *testing.T) {
	router, sessions, csrf := newTestStack(t)
	ctx := context.Background()

	seed := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sessions.Load(ctx, seed)
	require.NoError(t, err)
	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	seedRec := httptest.NewRecorder()
	require.NoError(t, sessions.Commit(ctx, seedRec, seed, sess))
	cookies := seedRec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	req.AddCookie(cookies[0])
	req.Header.Set(shared.CSRFHeader, token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
