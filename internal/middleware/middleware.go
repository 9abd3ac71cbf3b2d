package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prephub/prephub-api/internal/logging"
	"github.com/prephub/prephub-api/internal/token"
	"github.com/prephub/prephub-api/internal/utils"
)

// TokenValidator turns a bearer token into its claims.
type TokenValidator interface {
	Validate(raw string) (*token.Claims, error)
}

// ErrUnknownUser is what a RoleFetcher returns when the user no longer exists.
var ErrUnknownUser = errors.New("unknown user")

// RoleFetcher looks up the current role of a user in the credential store.
type RoleFetcher interface {
	FindRoleByID(ctx context.Context, id uint) (string, error)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	scheme, raw, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func identityFrom(c *token.Claims) utils.Identity {
	return utils.Identity{UserID: c.UserID, Username: c.Username, Role: c.Role}
}

func rejectToken(w http.ResponseWriter, err error) {
	if errors.Is(err, token.ErrTokenExpired) {
		utils.WriteMessage(w, http.StatusUnauthorized, "Token expired")
		return
	}
	utils.WriteMessage(w, http.StatusUnauthorized, "Invalid token")
}

// BearerAuth requires a valid bearer token and stores the caller identity
// in the request context.
func BearerAuth(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				utils.WriteMessage(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			claims, err := v.Validate(raw)
			if err != nil {
				rejectToken(w, err)
				return
			}

			ctx := utils.WithIdentity(r.Context(), identityFrom(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalBearerAuth stores the caller identity when a valid bearer token is
// sent. Missing, stale or malformed tokens leave the request anonymous, so
// the handler decides whether an identity was needed.
func OptionalBearerAuth(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := v.Validate(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := utils.WithIdentity(r.Context(), identityFrom(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CORSMiddleware echoes allowed origins back with credentials enabled and
// short-circuits preflight requests.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods",
					"GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers",
					"Content-Type, Authorization")
			}

			w.Header().Set("Access-Control-Expose-Headers", "Retry-After")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminMiddleware re-reads the caller's role from the store so a demoted
// admin loses access before their token expires. Only ErrUnknownUser ends in
// 401; other lookup failures are logged and answered with 500.
func AdminMiddleware(fetcher RoleFetcher, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				utils.WriteMessage(w, http.StatusUnauthorized, "Unauthorized: missing user ID in context")
				return
			}

			role, err := fetcher.FindRoleByID(r.Context(), userID)
			if errors.Is(err, ErrUnknownUser) {
				utils.WriteMessage(w, http.StatusUnauthorized, "Unauthorized: user not found")
				return
			}
			if err != nil {
				logging.LogError(r.Context(), logger, "admin role lookup failed", err)
				utils.WriteMessage(w, http.StatusInternalServerError, "Server error")
				return
			}

			if role != token.RoleAdmin {
				utils.WriteMessage(w, http.StatusForbidden, "Forbidden: admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
