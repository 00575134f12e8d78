package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"
	"github.com/sakif/cookbook/internal/access"
	"github.com/sakif/cookbook/internal/apperror"
	"github.com/sakif/cookbook/internal/auth"
	"github.com/sakif/cookbook/internal/service"
)

const oauthStateCookie = "oauth_state"

// AuthHandler covers sign-up, sign-in, sign-out and the signed-in user's own
// account. GitHub sign-in is available when a provider is configured.
type AuthHandler struct {
	accounts *service.AuthService
	cookie   auth.SessionCookie
	github   *auth.GitHubProvider // nil when GitHub sign-in is off
	logger   *slog.Logger
}

func NewAuthHandler(
	accounts *service.AuthService,
	cookie auth.SessionCookie,
	github *auth.GitHubProvider,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		cookie:   cookie,
		github:   github,
		logger:   logger,
	}
}

// HandleLoginPage describes how to sign in. It is what an anonymous GET
// /login or /register lands on; signed-in users never see it because the
// route gate sends them to the dashboard first.
//
// HTTP: GET /login, GET /register
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "Not signed in", map[string]bool{
		"githubEnabled": h.github != nil,
	})
}

// HTTP: POST /register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.cookie.Set(w, result.Token)
	writeSuccess(w, http.StatusCreated, "Registration successful", result.User)
}

// HTTP: POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.cookie.Set(w, result.Token)
	writeSuccess(w, http.StatusOK, "Login successful", result.User)
}

// HandleLogout drops the session cookie. Tokens are stateless, so there is
// nothing to revoke server-side.
//
// HTTP: POST /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookie.Clear(w)
	writeSuccess(w, http.StatusOK, "Logged out", nil)
}

// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, h.logger, apperror.Unauthenticated(access.ReasonAuthRequired))
		return
	}
	writeSuccess(w, http.StatusOK, "", user)
}

// HTTP: PUT /api/user/profile
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.accounts.UpdateProfile(r.Context(), auth.UserFromContext(r.Context()), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Profile updated", user)
}

// HTTP: PUT /api/user/password
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var in service.PasswordChangeInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), auth.UserFromContext(r.Context()), in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Password updated", nil)
}

// HandleGitHubLogin redirects to GitHub's consent page. The random state is
// kept in a short-lived cookie and checked on the way back.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback finishes the GitHub flow:
//
//  1. check the state cookie against the state parameter
//  2. exchange the code for a profile
//  3. match or create the account and issue a session cookie
//  4. redirect to the dashboard
//
// HTTP: GET /auth/github/callback?code=...&state=...
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || query.Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: state mismatch")
		writeError(w, h.logger, apperror.ValidationFailed("state", "Invalid OAuth state"))
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if denied := query.Get("error"); denied != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", denied))
		http.Redirect(w, r, auth.LoginPath+"?error=github_denied", http.StatusSeeOther)
		return
	}

	code := query.Get("code")
	if code == "" {
		writeError(w, h.logger, apperror.ValidationFailed("code", "Missing OAuth code"))
		return
	}

	profile, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		http.Redirect(w, r, auth.LoginPath+"?error=github_failed", http.StatusSeeOther)
		return
	}

	result, err := h.accounts.LoginGitHub(r.Context(), profile)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.cookie.Set(w, result.Token)
	http.Redirect(w, r, auth.LandingPath, http.StatusSeeOther)
}
