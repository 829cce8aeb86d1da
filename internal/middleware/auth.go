package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/clipdigest/backend/internal/contextkeys"
	"github.com/clipdigest/backend/internal/handler"
	"github.com/clipdigest/backend/internal/service"
)

// Identity attaches the authenticated user to the context when a bearer
// token is present. Requests without a token pass through untouched — most
// of the ledger surface also serves guests — but a token that is present
// and invalid is rejected here.
func Identity(ids *service.IdentityService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				handler.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization header"})
				return
			}

			id, err := ids.VerifyToken(parts[1])
			if err != nil {
				handler.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
				return
			}

			ctx := context.WithValue(r.Context(), contextkeys.UserID, id.UserID)
			ctx = context.WithValue(ctx, contextkeys.UserEmail, id.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
