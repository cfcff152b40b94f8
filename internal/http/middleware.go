package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JoseEM26/StoreCollection-sub000/internal/session"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	storeKey
	requestIDKey
)

// SessionMiddleware attaches the anonymous shopper token to the context,
// minting the durable cookie on first contact.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := session.Ensure(w, r)
		ctx := context.WithValue(r.Context(), sessionKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// StoreMiddleware reads the active store from the X-Store-ID header the SPA
// shell sets once per navigation. Absence is not an error here; operations
// that need a store fail fast themselves.
func StoreMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get("X-Store-ID"); raw != "" {
			if store, err := strconv.ParseInt(raw, 10, 64); err == nil && store > 0 {
				ctx := context.WithValue(r.Context(), storeKey, store)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func contextWithTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

func getSessionFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionKey).(string); ok {
		return id
	}
	return ""
}

func getStoreFromContext(ctx context.Context) int64 {
	if store, ok := ctx.Value(storeKey).(int64); ok {
		return store
	}
	return 0
}
