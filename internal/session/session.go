// Package session owns the anonymous shopper identity: an opaque token
// generated once per browser and carried in a durable cookie. It is the
// sole correlation key the backend uses to find a shopper's cart, and the
// only durable client-side state in this repo.
package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const CookieName = "storefront_session"

// Cookie lifetime. The token is never rotated implicitly; only an explicit
// "new session" action replaces it.
const maxAge = 365 * 24 * time.Hour

// NewID mints a fresh opaque session token.
func NewID() string {
	return uuid.NewString()
}

// Valid reports whether s is a token this package could have minted.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Ensure returns the request's session token, minting and setting a durable
// cookie when the request carries none (or a malformed one).
func Ensure(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && Valid(c.Value) {
		return c.Value
	}

	id := NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
