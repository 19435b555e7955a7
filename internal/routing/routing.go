package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/gorilla/mux"

	"eduplatform/internal/logger"
	"eduplatform/pkg/auth"
	"eduplatform/pkg/claims"
	"eduplatform/pkg/handlers"
	"eduplatform/pkg/middleware"
	"eduplatform/pkg/ratelimit"
	"eduplatform/pkg/token"
	"eduplatform/pkg/user"
)

const shutdownTimeout = 10 * time.Second

type Deps struct {
	Users        user.ServiceInterface
	Codec        *token.Codec
	Limiter      *ratelimit.Limiter
	Limits       handlers.Limits
	SecureCookie bool
	Logger       *slog.Logger

	// TrustedProxies are the peers whose X-Forwarded-For is believed.
	TrustedProxies []netip.Prefix
}

func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID(d.Logger))
	r.Use(middleware.Panic(d.Logger))

	api := r.PathPrefix("/api").Subrouter()
	InitRoutes(api, d)
	ServeFallback(r, d.Logger)

	return r
}

func InitRoutes(api *mux.Router, d Deps) {
	validator := auth.NewValidator(d.Codec)
	userHandler := handlers.NewUserHandler(d.Users, d.Codec, validator, d.Limiter, d.Limits, d.SecureCookie, d.Logger)
	userHandler.TrustedProxies = d.TrustedProxies

	/* auth routers */
	api.HandleFunc("/register", userHandler.Register).Methods(http.MethodPost).Name("register")
	api.HandleFunc("/login", userHandler.Login).Methods(http.MethodPost).Name("login")
	api.HandleFunc("/logout", userHandler.Logout).Methods(http.MethodPost).Name("logout")
	api.HandleFunc("/me", userHandler.Me).Methods(http.MethodGet).Name("me")

	/* routes behind a session */
	protect := middleware.RequireAuth(validator, d.Logger)
	api.Handle("/session", protect(sessionInfo(d.Logger))).Methods(http.MethodGet).Name("session")
}

func sessionInfo(l *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context(), l)
		c, ok := claims.FromContext(r.Context())
		if !ok {
			handlers.WriteResp(w, log, map[string]any{"message": "unauthorized"}, http.StatusUnauthorized)
			return
		}
		handlers.WriteResp(w, log, map[string]any{
			"userId":    c.UserID,
			"email":     c.Email,
			"issuedAt":  c.IssuedAtTime(),
			"expiresAt": c.ExpiresAtTime(),
		}, http.StatusOK)
	}
}

func ServeFallback(r *mux.Router, l *slog.Logger) {
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteResp(w, logger.FromContext(r.Context(), l), map[string]any{"message": "not found"}, http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteResp(w, logger.FromContext(r.Context(), l), map[string]any{"message": "method not allowed"}, http.StatusMethodNotAllowed)
	})
}

// StartServer serves until ctx is cancelled, then drains in-flight requests.
func StartServer(ctx context.Context, addr string, h http.Handler, l *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("server is running", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	l.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}
