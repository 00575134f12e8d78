package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/cookbook/internal/apperror"
	"github.com/sakif/cookbook/internal/model"
)

// contextKey is unexported so no other package can read or shadow the
// values this package stores in a request context.
type contextKey string

const userKey contextKey = "user"

// UserLookup is the one store call the resolver needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// Resolver turns a request's session cookie into the current user.
type Resolver struct {
	tokens *TokenService
	cookie SessionCookie
	users  UserLookup
	logger *slog.Logger
}

func NewResolver(tokens *TokenService, cookie SessionCookie, users UserLookup, logger *slog.Logger) *Resolver {
	return &Resolver{tokens: tokens, cookie: cookie, users: users, logger: logger}
}

// Resolve returns the signed-in user's projection, or nil for an anonymous
// request. A missing cookie, an invalid or expired token and a token whose
// user no longer exists all resolve to nil. The result never carries the
// password hash.
func (res *Resolver) Resolve(r *http.Request) *model.User {
	token := res.cookie.Read(r)
	if token == "" {
		return nil
	}

	userID, err := res.tokens.Verify(token)
	if err != nil {
		return nil
	}

	user, err := res.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			res.logger.Error("resolving session user",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	return user.Projection()
}

// Authenticate resolves the current user once per request and stores it in
// the context. It never rejects a request: anonymous is a valid state and the
// services decide what an anonymous actor may do.
func (res *Resolver) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := res.Resolve(r); user != nil {
			r = r.WithContext(WithUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user stored by Authenticate, or nil.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey).(*model.User)
	return user
}

// Route classes understood by RouteGate.
const (
	LoginPath   = "/login"
	LandingPath = "/dashboard"
)

var (
	protectedPrefixes = []string{"/dashboard", "/recipes/new", "/recipes/edit", "/admin"}
	authOnlyPaths     = map[string]bool{"/login": true, "/register": true}
)

// RouteGate redirects page requests by session state:
//
//	protected path + no valid session  → 303 /login
//	/login or /register + valid session → 303 /dashboard
//	anything else                       → pass through
//
// Only GET and HEAD are redirected. A POST to /login with a live session still
// reaches the handler so a user can switch accounts.
//
// The gate verifies the token's signature and expiry, so a forged or expired
// cookie is treated as no session. It does not load the user; the Resolver
// remains the authoritative check.
func RouteGate(tokens *TokenService, cookie SessionCookie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			_, err := tokens.Verify(cookie.Read(r))
			hasSession := err == nil

			switch {
			case isProtected(r.URL.Path) && !hasSession:
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			case authOnlyPaths[r.URL.Path] && hasSession:
				http.Redirect(w, r, LandingPath, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func isProtected(path string) bool {
	for _, prefix := range protectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
