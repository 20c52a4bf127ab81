package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/garagehub/garagehub/internal/shared"
)

func newSessionManager(t *testing.T) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)

	sess.Authenticate(7, 3, "admin")
	sess.Set("theme", "dark")

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "test_session", cookies[0].Name)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, next)
	require.NoError(t, err)

	scope, ok := loaded.Scope()
	require.True(t, ok)
	require.Equal(t, int64(7), scope.UserID)
	require.Equal(t, int64(3), scope.CompanyID)
	require.Equal(t, "admin", scope.Role)
	require.Equal(t, "dark", loaded.Get("theme"))
}

func TestAuthenticateRotatesSessionID(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	anon, err := sm.Load(ctx, req)
	require.NoError(t, err)
	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, anon))
	planted := res.Result().Cookies()[0]

	login := httptest.NewRequest(http.MethodPost, "/", nil)
	login.AddCookie(planted)
	sess, err := sm.Load(ctx, login)
	require.NoError(t, err)
	require.Equal(t, planted.Value, sess.ID)

	sess.Authenticate(7, 3, "admin")
	require.NotEqual(t, planted.Value, sess.ID)

	res2 := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res2, login, sess))
	rotated := res2.Result().Cookies()[0]
	require.NotEqual(t, planted.Value, rotated.Value)

	// the planted cookie must not name the authenticated session
	replay := httptest.NewRequest(http.MethodGet, "/", nil)
	replay.AddCookie(planted)
	stale, err := sm.Load(ctx, replay)
	require.NoError(t, err)
	_, ok := stale.Scope()
	require.False(t, ok)

	fresh := httptest.NewRequest(http.MethodGet, "/", nil)
	fresh.AddCookie(rotated)
	authed, err := sm.Load(ctx, fresh)
	require.NoError(t, err)
	scope, ok := authed.Scope()
	require.True(t, ok)
	require.Equal(t, int64(7), scope.UserID)
}

func TestSessionUnauthenticatedHasNoScope(t *testing.T) {
	sm := newSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)

	_, ok := sess.Scope()
	require.False(t, ok)
}

func TestSessionDestroyClearsCookieAndStore(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.Authenticate(1, 1, "user")

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))
	cookie := res.Result().Cookies()[0]

	sm.Destroy(sess)
	res2 := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res2, req, sess))

	cleared := res2.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Equal(t, -1, cleared[0].MaxAge)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	fresh, err := sm.Load(ctx, next)
	require.NoError(t, err)
	_, ok := fresh.Scope()
	require.False(t, ok)
}
