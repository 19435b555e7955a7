package handlers

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/netip"
	"strconv"
	"time"

	"eduplatform/internal/logger"
	"eduplatform/pkg/auth"
	"eduplatform/pkg/ratelimit"
	"eduplatform/pkg/session"
	"eduplatform/pkg/token"
	"eduplatform/pkg/user"
)

const (
	maxBodyBytes = 1 << 20

	msgInvalidCredentials = "Invalid credentials"
	msgUnauthorized       = "Unauthorized"
	msgTooManyAttempts    = "Too many attempts, please try again later"
)

type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenIssuer is satisfied by *token.Codec.
type TokenIssuer interface {
	Issue(id token.Identity) (string, error)
}

// Limits configures the throttles on the credential endpoints.
type Limits struct {
	LoginMaxAttempts    int
	LoginWindow         time.Duration
	RegisterMaxAttempts int
	RegisterWindow      time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		LoginMaxAttempts:    ratelimit.DefaultMaxAttempts,
		LoginWindow:         ratelimit.DefaultWindow,
		RegisterMaxAttempts: ratelimit.DefaultMaxAttempts,
		RegisterWindow:      ratelimit.DefaultWindow,
	}
}

type Handler struct {
	Service      user.ServiceInterface
	Issuer       TokenIssuer
	Validator    *auth.Validator
	Limiter      *ratelimit.Limiter
	Limits       Limits
	SecureCookie bool
	Logger       *slog.Logger
	Now          func() time.Time

	// TrustedProxies are the peers allowed to report the client address in
	// X-Forwarded-For. Empty means the connection address is always used.
	TrustedProxies []netip.Prefix
}

func NewUserHandler(
	service user.ServiceInterface,
	issuer TokenIssuer,
	validator *auth.Validator,
	limiter *ratelimit.Limiter,
	limits Limits,
	secureCookie bool,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		Service:      service,
		Issuer:       issuer,
		Validator:    validator,
		Limiter:      limiter,
		Limits:       limits,
		SecureCookie: secureCookie,
		Logger:       logger,
		Now:          time.Now,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.Logger)

	ip := clientIP(r, h.TrustedProxies)
	d := h.Limiter.Check(r.Context(), "register:ip:"+ip, h.Limits.RegisterMaxAttempts, h.Limits.RegisterWindow)
	if !d.Allowed {
		log.Warn("register rate limited", "ip", ip, "count", d.Count)
		h.tooManyRequests(w, log, d)
		return
	}

	var req RegisterForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}

	u, err := h.Service.Register(req.Name, req.Email, req.Password)
	if err != nil {
		var verrs user.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			WriteResp(w, log, map[string]any{
				"message": "Validation failed",
				"errors":  verrs,
			}, http.StatusBadRequest)
		case errors.Is(err, user.ErrUserExists):
			WriteResp(w, log, map[string]any{"message": "User already exists"}, http.StatusConflict)
		default:
			log.Error("register", "error", err.Error())
			writeError(w, http.StatusInternalServerError, typeMessage, msgInternal)
		}
		return
	}

	if ok := WriteResp(w, log, map[string]any{"message": "User registered successfully"}, http.StatusCreated); ok {
		log.Info("register", "user", u.ID)
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.Logger)

	// The address budget is charged before anything else, so garbage bodies
	// count too. The account budget needs the email and comes after decoding.
	// Both are spent before credentials are looked at.
	ip := clientIP(r, h.TrustedProxies)
	byIP := h.Limiter.Check(r.Context(), "login:ip:"+ip, h.Limits.LoginMaxAttempts, h.Limits.LoginWindow)
	if !byIP.Allowed {
		log.Warn("login rate limited", "ip", ip, "by", "ip", "count", byIP.Count)
		h.tooManyRequests(w, log, byIP)
		return
	}

	var req LoginForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}

	byAccount := h.Limiter.Check(r.Context(), "login:email:"+user.NormalizeEmail(req.Email), h.Limits.LoginMaxAttempts, h.Limits.LoginWindow)
	if !byAccount.Allowed {
		log.Warn("login rate limited", "ip", ip, "by", "account", "count", byAccount.Count)
		h.tooManyRequests(w, log, byAccount)
		return
	}

	u, err := h.Service.Login(req.Email, req.Password)
	if err != nil {
		var verrs user.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			WriteResp(w, log, map[string]any{
				"message": "Validation failed",
				"errors":  verrs,
			}, http.StatusBadRequest)
		case errors.Is(err, user.ErrInvalidCredentials):
			log.Info("login", "error", "unauthorized", "ip", ip)
			WriteResp(w, log, map[string]any{"message": msgInvalidCredentials}, http.StatusUnauthorized)
		default:
			log.Error("login", "error", err.Error())
			writeError(w, http.StatusInternalServerError, typeMessage, msgInternal)
		}
		return
	}

	signed, err := h.Issuer.Issue(token.Identity{UserID: u.ID, Email: u.Email, Name: u.Name})
	if err != nil {
		log.Error("token signing", "error", err)
		writeError(w, http.StatusInternalServerError, typeMessage, msgInternal)
		return
	}

	session.SetCookie(w, signed, h.SecureCookie)

	if ok := WriteResp(w, log, map[string]any{
		"message": "Login successful",
		"token":   signed,
		"user": map[string]string{
			"id":    u.ID,
			"name":  u.Name,
			"email": u.Email,
		},
	}, http.StatusOK); ok {
		log.Info("login", "user", u.ID)
	}
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session.ClearCookie(w, h.SecureCookie)
	WriteResp(w, logger.FromContext(r.Context(), h.Logger), map[string]any{"message": "Logged out successfully"}, http.StatusOK)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.Logger)

	res := h.Validator.Validate(r)
	if !res.IsValid {
		log.Info("me", "reason", res.Reason, "error", res.Err)
		WriteResp(w, log, map[string]any{
			"user":  nil,
			"error": map[string]string{"message": msgUnauthorized},
		}, http.StatusUnauthorized)
		return
	}

	WriteResp(w, log, map[string]any{
		"user": map[string]any{
			"id":        res.User.UserID,
			"name":      res.User.Name,
			"email":     res.User.Email,
			"expiresAt": res.User.ExpiresAtTime(),
		},
		"error": nil,
	}, http.StatusOK)
}

func (h *Handler) tooManyRequests(w http.ResponseWriter, log *slog.Logger, d ratelimit.Decision) {
	retry := d.RetryAfter(h.Now())
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
	WriteResp(w, log, map[string]any{
		"message":   msgTooManyAttempts,
		"resetTime": d.ResetTime.UTC(),
	}, http.StatusTooManyRequests)
}
