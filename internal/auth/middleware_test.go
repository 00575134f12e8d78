package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/cookbook/internal/apperror"
	"github.com/sakif/cookbook/internal/model"
)

type fakeUsers struct {
	users map[string]*model.User
	err   error
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func requestWithToken(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	}
	return req
}

func TestResolver_Resolve(t *testing.T) {
	ts := newTestTokenService(t)
	users := &fakeUsers{users: map[string]*model.User{
		"u1": {ID: "u1", Name: "Alice", Email: "alice@example.com", PasswordHash: "secret-hash", Role: model.RoleAdmin},
	}}
	res := NewResolver(ts, SessionCookie{}, users, discardLogger())

	valid, _ := ts.Issue("u1")
	ghost, _ := ts.Issue("deleted-user")

	t.Run("valid session returns projection", func(t *testing.T) {
		got := res.Resolve(requestWithToken(valid))
		require.NotNil(t, got)
		assert.Equal(t, "u1", got.ID)
		assert.Equal(t, "Alice", got.Name)
		assert.Equal(t, "alice@example.com", got.Email)
		assert.Equal(t, model.RoleAdmin, got.Role)
		assert.Empty(t, got.PasswordHash)
	})

	t.Run("no cookie is anonymous", func(t *testing.T) {
		assert.Nil(t, res.Resolve(requestWithToken("")))
	})

	t.Run("invalid token is anonymous", func(t *testing.T) {
		assert.Nil(t, res.Resolve(requestWithToken("garbage")))
	})

	t.Run("deleted user is anonymous", func(t *testing.T) {
		assert.Nil(t, res.Resolve(requestWithToken(ghost)))
	})

	t.Run("resolving twice gives the same answer", func(t *testing.T) {
		a := res.Resolve(requestWithToken(valid))
		b := res.Resolve(requestWithToken(valid))
		assert.Equal(t, a, b)
	})
}

func TestResolver_StoreFailureIsAnonymous(t *testing.T) {
	ts := newTestTokenService(t)
	res := NewResolver(ts, SessionCookie{}, &fakeUsers{err: errors.New("disk on fire")}, discardLogger())
	token, _ := ts.Issue("u1")

	assert.Nil(t, res.Resolve(requestWithToken(token)))
}

func TestResolver_ExpiredTokenIsAnonymous(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	ts := newTestTokenService(t, WithTTL(time.Hour), WithClock(clock.Now))
	users := &fakeUsers{users: map[string]*model.User{"u1": {ID: "u1", Role: model.RoleUser}}}
	res := NewResolver(ts, SessionCookie{}, users, discardLogger())

	token, _ := ts.Issue("u1")
	clock.Advance(2 * time.Hour)

	assert.Nil(t, res.Resolve(requestWithToken(token)))
}

func TestAuthenticate_PutsUserInContext(t *testing.T) {
	ts := newTestTokenService(t)
	users := &fakeUsers{users: map[string]*model.User{"u1": {ID: "u1", Role: model.RoleUser}}}
	res := NewResolver(ts, SessionCookie{}, users, discardLogger())
	token, _ := ts.Issue("u1")

	var seen *model.User
	h := res.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), requestWithToken(token))
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.ID)

	seen = &model.User{}
	h.ServeHTTP(httptest.NewRecorder(), requestWithToken(""))
	assert.Nil(t, seen)
}

func TestRouteGate(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	ts := newTestTokenService(t, WithTTL(time.Hour), WithClock(clock.Now))
	gate := RouteGate(ts, SessionCookie{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := gate(next)

	valid, _ := ts.Issue("u1")
	// One-hour token minted two hours ago.
	expired, _ := newTokenServiceAt(t, clock.t.Add(-2*time.Hour)).Issue("u1")

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		wantCode int
		wantLoc  string
	}{
		{"protected without cookie", http.MethodGet, "/dashboard", "", http.StatusSeeOther, "/login"},
		{"protected nested path", http.MethodGet, "/recipes/edit/abc", "", http.StatusSeeOther, "/login"},
		{"admin without cookie", http.MethodGet, "/admin", "", http.StatusSeeOther, "/login"},
		{"protected with forged cookie", http.MethodGet, "/dashboard", "forged.token.value", http.StatusSeeOther, "/login"},
		{"protected with expired cookie", http.MethodGet, "/dashboard", expired, http.StatusSeeOther, "/login"},
		{"protected with session", http.MethodGet, "/dashboard", valid, http.StatusTeapot, ""},
		{"login with session", http.MethodGet, "/login", valid, http.StatusSeeOther, "/dashboard"},
		{"register with session", http.MethodGet, "/register", valid, http.StatusSeeOther, "/dashboard"},
		{"login anonymous", http.MethodGet, "/login", "", http.StatusTeapot, ""},
		{"login post with session", http.MethodPost, "/login", valid, http.StatusTeapot, ""},
		{"public anonymous", http.MethodGet, "/api/recipes", "", http.StatusTeapot, ""},
		{"prefix lookalike is public", http.MethodGet, "/dashboards", "", http.StatusTeapot, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.token})
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantLoc, rec.Header().Get("Location"))
		})
	}
}

// newTokenServiceAt returns a TokenService sharing the test secret whose
// clock is frozen at now.
func newTokenServiceAt(t *testing.T, now time.Time) *TokenService {
	t.Helper()
	return newTestTokenService(t, WithTTL(time.Hour), WithClock(func() time.Time { return now }))
}
