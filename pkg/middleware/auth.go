package middleware

import (
	"log/slog"
	"net/http"

	"eduplatform/internal/logger"
	"eduplatform/pkg/auth"
	"eduplatform/pkg/claims"
)

// RequireAuth rejects requests without a valid session cookie and puts the
// verified claims into the request context for the next handler.
func RequireAuth(validator *auth.Validator, fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := validator.Validate(r)
			if !res.IsValid {
				logger.FromContext(r.Context(), fallback).Info("unauthorized",
					"path", r.URL.Path, "reason", res.Reason, "error", res.Err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"unauthorized"}` + "\n"))
				return
			}

			ctx := claims.NewContext(r.Context(), res.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
