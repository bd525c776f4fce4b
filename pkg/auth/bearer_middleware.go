package auth

import (
	"context"
	"net/http"
)

// TokenLookup resolves a bearer token value to its subject name, reporting
// whether the token is known. pkg/tokencache.Cache.GetByToken satisfies this
// once adapted by the caller, keeping this package free of a dependency on
// the cache's concrete type.
type TokenLookup func(ctx context.Context, value string) (name string, ok bool, err error)

// RequireBearerToken returns middleware that rejects requests without a
// recognized "Authorization: Bearer acp_..." token, and otherwise attaches
// the resolved Identity to the request context.
func RequireBearerToken(lookup TokenLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ExtractBearerToken(r)
			if err != nil {
				http.Error(w, "missing or malformed Authorization header", http.StatusUnauthorized)
				return
			}

			name, ok, err := lookup(r.Context(), token)
			if err != nil {
				http.Error(w, "failed to verify token", http.StatusInternalServerError)
				return
			}
			if !ok {
				http.Error(w, "unknown bearer token", http.StatusUnauthorized)
				return
			}

			identity := &Identity{Subject: name, TokenValue: token, TokenType: "bearer"}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}
