package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mkravets/phonebook-be/internal/apperr"
	"github.com/mkravets/phonebook-be/internal/models"
)

// UserSource resolves a user id from validated claims to the stored record.
type UserSource interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

type contextKey string

const userContextKey = contextKey("authUser")

// Middleware creates a middleware for protecting routes. A token is accepted
// only when its signature and expiry check out AND it equals the token
// currently stored on the user record; logout clears that record, which is
// what invalidates still-unexpired tokens.
func Middleware(signer *Signer, users UserSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenStr == "" {
				apperr.Write(w, apperr.Unauthorized("Not authorized"))
				return
			}

			claims, err := signer.Validate(tokenStr)
			if err != nil {
				log.Warn().Err(err).Msg("Rejected invalid bearer token")
				apperr.Write(w, apperr.Unauthorized("Not authorized"))
				return
			}

			user, err := users.GetUserByID(r.Context(), claims.UserID)
			if err != nil || user.Token != tokenStr {
				apperr.Write(w, apperr.Unauthorized("Not authorized"))
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user placed by Middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}
