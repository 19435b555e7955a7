package session

import (
	"net/http"
	"strings"
)

const (
	CookieName = "token"

	// MaxAge matches the token lifetime: 7 days.
	MaxAge = 7 * 24 * 60 * 60
)

// Extract returns the value of the token cookie from a raw Cookie header.
// Pairs without '=' are skipped, and the key match is case-sensitive.
func Extract(rawCookieHeader string) (string, bool) {
	if rawCookieHeader == "" {
		return "", false
	}

	for _, pair := range strings.Split(rawCookieHeader, ";") {
		pair = strings.TrimSpace(pair)
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if strings.TrimSpace(key) != CookieName {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			return value, true
		}
	}

	return "", false
}

// FromRequest joins every Cookie header on the request before extracting.
func FromRequest(r *http.Request) (string, bool) {
	return Extract(strings.Join(r.Header.Values("Cookie"), "; "))
}

// SetCookie issues the session cookie. secure should be true only when the
// service runs in production behind TLS.
func SetCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   MaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie overwrites the session cookie with an empty value and Max-Age=0.
func ClearCookie(w http.ResponseWriter, secure bool) {
	// net/http renders MaxAge<0 as "Max-Age=0"
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
