package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/petermazzocco/recipe-api/internal/httputil"
	"github.com/petermazzocco/recipe-api/models"
)

type contextKey struct{}

var ctxUserKey = contextKey{}

// UserGetter loads the account a token belongs to.
type UserGetter interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxUserKey, u)
}

// UserFromContext returns the authenticated user set by UserMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ctxUserKey).(*models.User)
	return u, ok && u != nil
}

// UserMiddleware resolves "Authorization: Token <key>" (or "Bearer <key>")
// to an active user and stores it in the request context. Anything else is
// answered with 401 before the handler runs.
func UserMiddleware(tokens TokenStore, users UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := bearerKey(r.Header.Get("Authorization"))
			if !ok {
				httputil.Unauthorized(w, "authentication credentials were not provided")
				return
			}

			userID, err := tokens.Lookup(r.Context(), key)
			if errors.Is(err, ErrInvalidToken) {
				httputil.Unauthorized(w, "invalid token")
				return
			}
			if err != nil {
				httputil.InternalError(w, err)
				return
			}

			u, err := users.Get(r.Context(), userID)
			if err != nil || !u.IsActive {
				httputil.Unauthorized(w, "user inactive or deleted")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func bearerKey(header string) (string, bool) {
	scheme, key, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, " ") {
		return "", false
	}
	return key, true
}
