package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/cookbook/internal/auth"
	"github.com/sakif/cookbook/internal/config"
	"github.com/sakif/cookbook/internal/model"
	"github.com/sakif/cookbook/internal/repository/sqlite"
)

type testServer struct {
	url string
	db  *sqlite.DB
}

func newTestServer(t *testing.T, env map[string]string) *testServer {
	t.Helper()

	vars := map[string]string{
		"JWT_SECRET":  "integration-secret-0123456789",
		"BCRYPT_COST": "4",
		"DB_PATH":     filepath.Join(t.TempDir(), "cookbook.db"),
	}
	for k, v := range env {
		vars[k] = v
	}
	cfg, err := config.FromEnv(func(k string) string { return vars[k] })
	require.NoError(t, err)

	db, err := sqlite.New(cfg.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv, err := New(cfg, db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testServer{url: ts.URL, db: db}
}

// client is a browser-like client: it keeps cookies and does not follow
// redirects, so tests can assert on them.
func (s *testServer) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, c *http.Client, method, url, body string) (*http.Response, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func (s *testServer) register(t *testing.T, c *http.Client, name string) model.User {
	t.Helper()
	resp, env := do(t, c, http.MethodPost, s.url+"/register",
		`{"name":"`+name+`","email":"`+name+`@example.com","password":"password123"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)

	var u model.User
	require.NoError(t, json.Unmarshal(env.Data, &u))
	return u
}

func (s *testServer) createRecipe(t *testing.T, c *http.Client, title string) string {
	t.Helper()
	resp, env := do(t, c, http.MethodPost, s.url+"/api/recipes", `{
		"title": "`+title+`",
		"description": "Slow simmered and worth it.",
		"cuisine": "Italian",
		"prepTime": 15,
		"cookTime": 90,
		"instructions": "Brown, deglaze, simmer for hours.",
		"ingredients": [{"name": "Tomatoes", "quantity": 4, "unit": "pcs"}]
	}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)

	var r model.RecipeDetail
	require.NoError(t, json.Unmarshal(env.Data, &r))
	return r.ID
}

func TestRegister_SetsSessionCookieAndMe(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)

	req, _ := http.NewRequest(http.MethodPost, s.url+"/register",
		strings.NewReader(`{"name":"alice","email":"Alice@Example.com","password":"password123"}`))
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var session *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == auth.SessionCookieName {
			session = ck
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, "/", session.Path)
	assert.Equal(t, 7*24*60*60, session.MaxAge)

	resp, env := do(t, c, http.MethodGet, s.url+"/api/me", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"email":"alice@example.com"`)
	assert.NotContains(t, string(env.Data), "password")
}

func TestRegister_DuplicateEmailIssuesNoSession(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, s.client(t), "alice")

	c := s.client(t)
	resp, env := do(t, c, http.MethodPost, s.url+"/register",
		`{"name":"alice2","email":"alice@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "User with this email already exists", env.Message)
	assert.Empty(t, resp.Cookies())

	counts, err := s.db.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Users)
}

func TestLogin_FailuresLookTheSame(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, s.client(t), "alice")
	c := s.client(t)

	_, wrongPassword := do(t, c, http.MethodPost, s.url+"/login", `{"email":"alice@example.com","password":"nope-nope"}`)
	_, unknownEmail := do(t, c, http.MethodPost, s.url+"/login", `{"email":"bob@example.com","password":"nope-nope"}`)

	assert.Equal(t, wrongPassword, unknownEmail)
	assert.Equal(t, "invalid_credentials", wrongPassword.Error)
}

func TestLogin_Throttled(t *testing.T) {
	s := newTestServer(t, map[string]string{"LOGIN_RATE_PER_MINUTE": "2"})
	c := s.client(t)

	body := `{"email":"nobody@example.com","password":"whatever"}`
	for i := 0; i < 2; i++ {
		resp, _ := do(t, c, http.MethodPost, s.url+"/login", body)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, env := do(t, c, http.MethodPost, s.url+"/login", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate_limited", env.Error)
}

func TestLogin_ThrottleIgnoresForwardedFor(t *testing.T) {
	s := newTestServer(t, map[string]string{"LOGIN_RATE_PER_MINUTE": "2"})
	c := s.client(t)

	body := `{"email":"nobody@example.com","password":"whatever"}`
	login := func(forwardedFor string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, s.url+"/login", strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwardedFor)
		req.Header.Set("X-Real-IP", forwardedFor)
		resp, err := c.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	require.Equal(t, http.StatusUnauthorized, login("10.0.0.1").StatusCode)
	require.Equal(t, http.StatusUnauthorized, login("10.0.0.2").StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, login("10.0.0.3").StatusCode)
}

func TestLogout_ClearsCookie(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)
	s.register(t, c, "alice")

	resp, _ := do(t, c, http.MethodPost, s.url+"/logout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, c, http.MethodGet, s.url+"/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRecipeMutations_Ownership(t *testing.T) {
	s := newTestServer(t, nil)
	alice, bob, anon := s.client(t), s.client(t), s.client(t)
	aliceUser := s.register(t, alice, "alice")
	bobUser := s.register(t, bob, "bob")

	id := s.createRecipe(t, alice, "Bolognese")
	recipeURL := s.url + "/api/recipes/" + id

	update := `{
		"title": "Stolen Bolognese",
		"description": "Slow simmered and worth it.",
		"prepTime": 15, "cookTime": 90,
		"instructions": "Brown, deglaze, simmer for hours.",
		"userId": "` + bobUser.ID + `"
	}`

	t.Run("anonymous is 401 for any id", func(t *testing.T) {
		resp, env := do(t, anon, http.MethodDelete, recipeURL, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "unauthenticated", env.Error)

		resp, _ = do(t, anon, http.MethodDelete, s.url+"/api/recipes/does-not-exist", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("forged userId does not grant ownership", func(t *testing.T) {
		resp, env := do(t, bob, http.MethodPut, recipeURL, update)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "not owner and not admin", env.Message)

		resp, _ = do(t, bob, http.MethodDelete, recipeURL, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("owner update ignores forged userId", func(t *testing.T) {
		resp, env := do(t, alice, http.MethodPut, recipeURL, update)
		require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

		var r model.RecipeDetail
		require.NoError(t, json.Unmarshal(env.Data, &r))
		assert.Equal(t, aliceUser.ID, r.UserID)
		assert.Equal(t, "Stolen Bolognese", r.Title)
	})

	t.Run("validation error", func(t *testing.T) {
		resp, env := do(t, alice, http.MethodPost, s.url+"/api/recipes", `{"title":"ab"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "validation_error", env.Error)
	})

	t.Run("owner deletes once, then 404", func(t *testing.T) {
		resp, _ := do(t, alice, http.MethodDelete, recipeURL, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, env := do(t, alice, http.MethodDelete, recipeURL, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "not_found", env.Error)
	})
}

func TestRecipeRead_PublicWithRatings(t *testing.T) {
	s := newTestServer(t, nil)
	alice, bob, carol := s.client(t), s.client(t), s.client(t)
	s.register(t, alice, "alice")
	s.register(t, bob, "bob")
	s.register(t, carol, "carol")

	id := s.createRecipe(t, alice, "Ragu")

	resp, _ := do(t, bob, http.MethodPost, s.url+"/api/recipes/"+id+"/ratings", `{"rating":5}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = do(t, carol, http.MethodPost, s.url+"/api/recipes/"+id+"/ratings", `{"rating":3}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = do(t, carol, http.MethodPost, s.url+"/api/recipes/"+id+"/ratings", `{"rating":4,"comment":"better reheated"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, "second rating overwrites")

	resp, env := do(t, s.client(t), http.MethodGet, s.url+"/api/recipes/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var r model.RecipeDetail
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, 4.5, r.AverageRating)
	assert.Equal(t, 2, r.RatingCount)
	assert.Len(t, r.Ratings, 2)
	require.Len(t, r.Ingredients, 1)
	assert.Equal(t, "Tomatoes", r.Ingredients[0].Name)

	resp, env = do(t, s.client(t), http.MethodGet, s.url+"/api/recipes?limit=5&cuisine=Italian", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"total":1`)

	// alice was notified once per first-time rater.
	resp, env = do(t, alice, http.MethodGet, s.url+"/api/notifications", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"unreadCount":2`)
}

func TestSavedRecipes_SaveTwiceConflicts(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.client(t)
	s.register(t, alice, "alice")
	id := s.createRecipe(t, alice, "Risotto")
	saveURL := s.url + "/api/recipes/" + id + "/save"

	resp, _ := do(t, alice, http.MethodPost, saveURL, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, env := do(t, alice, http.MethodPost, saveURL, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Recipe already saved", env.Message)

	_, env = do(t, alice, http.MethodGet, saveURL, "")
	assert.JSONEq(t, `{"saved":true}`, string(env.Data))

	resp, _ = do(t, alice, http.MethodDelete, saveURL, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, alice, http.MethodDelete, saveURL, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, alice, http.MethodPost, s.url+"/api/recipes/missing/save", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCategories_AdminOnly(t *testing.T) {
	s := newTestServer(t, nil)
	admin, user := s.client(t), s.client(t)
	adminUser := s.register(t, admin, "root")
	s.register(t, user, "alice")

	stored, err := s.db.Users().GetUserByID(context.Background(), adminUser.ID)
	require.NoError(t, err)
	stored.Role = model.RoleAdmin
	require.NoError(t, s.db.Users().Update(context.Background(), stored))

	resp, _ := do(t, user, http.MethodPost, s.url+"/api/categories", `{"name":"Soups"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = do(t, admin, http.MethodPost, s.url+"/api/categories", `{"name":"Soups"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, env := do(t, admin, http.MethodPost, s.url+"/api/categories", `{"name":"Soups"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Category already exists", env.Message)

	resp, _ = do(t, user, http.MethodGet, s.url+"/admin", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, env = do(t, admin, http.MethodGet, s.url+"/admin", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"categories":1`)
}

func TestRouteGate(t *testing.T) {
	s := newTestServer(t, nil)
	anon, alice := s.client(t), s.client(t)
	s.register(t, alice, "alice")

	tests := []struct {
		name         string
		client       *http.Client
		path         string
		wantStatus   int
		wantLocation string
	}{
		{"anonymous dashboard", anon, "/dashboard", http.StatusSeeOther, "/login"},
		{"anonymous new recipe page", anon, "/recipes/new", http.StatusSeeOther, "/login"},
		{"anonymous admin", anon, "/admin", http.StatusSeeOther, "/login"},
		{"anonymous login page", anon, "/login", http.StatusOK, ""},
		{"signed-in login page", alice, "/login", http.StatusSeeOther, "/dashboard"},
		{"signed-in register page", alice, "/register", http.StatusSeeOther, "/dashboard"},
		{"signed-in dashboard", alice, "/dashboard", http.StatusOK, ""},
		{"public api", anon, "/api/recipes", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := do(t, tt.client, http.MethodGet, s.url+tt.path, "")
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantLocation, resp.Header.Get("Location"))
		})
	}
}

func TestRouteGate_ForgedCookieIsNoSession(t *testing.T) {
	s := newTestServer(t, nil)
	c := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	req, _ := http.NewRequest(http.MethodGet, s.url+"/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "not-a-jwt"})
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestHealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)

	resp, env := do(t, c, http.MethodGet, s.url+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)

	resp, env = do(t, c, http.MethodGet, s.url+"/api/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", env.Error)
}

func TestGitHubRoutesOnlyWhenConfigured(t *testing.T) {
	off := newTestServer(t, nil)
	resp, _ := do(t, off.client(t), http.MethodGet, off.url+"/auth/github/login", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	on := newTestServer(t, map[string]string{
		"GITHUB_CLIENT_ID":     "client-id",
		"GITHUB_CLIENT_SECRET": "client-secret",
	})
	resp, _ = do(t, on.client(t), http.MethodGet, on.url+"/auth/github/login", "")
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "github.com/login/oauth/authorize")
	assert.Contains(t, resp.Header.Get("Location"), "client_id=client-id")
}
