package middleware

import (
	"context"
	"net/http"
	"strings"

	"manpower/internal/domain/auth"
	"manpower/internal/requestctx"
	"manpower/internal/transport/http/api"
)

// Auth attaches the bearer token's principal when the token is valid. It
// never rejects; RequireAuth and RequirePermission do that.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
			if !found || !strings.EqualFold(scheme, "bearer") {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := auth.ParseToken(secret, strings.TrimSpace(token))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := requestctx.WithPrincipal(r.Context(), requestctx.Principal{
				UserID:   claims.UserID,
				TenantID: claims.TenantID,
				Role:     claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUser(ctx context.Context) (requestctx.Principal, bool) {
	return requestctx.GetPrincipal(ctx)
}
