// Package identity provides anonymous per-device identity primitives.
// Each browser gets a random anonymous ID cookie; sessions are keyed by
// that identity so concurrent browsers never share in-memory state.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"regexp"
	"time"
)

const (
	// AnonCookieName is the anonymous identity cookie.
	AnonCookieName = "hl_anon_id"
	anonCookieAge  = 30 * 24 * time.Hour
)

type contextKey int

const identityIDKey contextKey = iota

var anonIDPattern = regexp.MustCompile(`^anon_[a-f0-9]{32}$`)

// IdentityIDFromContext extracts the anonymous identity ID from the
// request context.
func IdentityIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(identityIDKey).(string); ok {
		return v
	}
	return ""
}

// Middleware resolves or mints the anonymous identity cookie and places
// the identity ID on the request context.
func Middleware(isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(AnonCookieName); err == nil && anonIDPattern.MatchString(c.Value) {
				id = c.Value
			}
			if id == "" {
				id = newAnonID()
				http.SetCookie(w, &http.Cookie{
					Name:     AnonCookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(anonCookieAge.Seconds()),
					HttpOnly: true,
					Secure:   !isDev,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), identityIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newAnonID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic("identity: failed to read random bytes: " + err.Error())
	}
	return "anon_" + hex.EncodeToString(buf)
}
