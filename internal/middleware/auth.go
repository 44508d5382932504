package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// publicPaths are exempt from authentication.
var publicPaths = map[string]bool{
	"/health": true,
}

// APIKey returns middleware that requires a bearer token matching apiKey or
// the bcrypt hash apiKeyHash (the hash takes precedence). With neither set
// every request passes. Browsers cannot set headers on WebSocket upgrades,
// so /ws also accepts the key as a ?token= query parameter.
func APIKey(apiKey, apiKeyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if apiKey == "" && apiKeyHash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearer(r)
			if !ok {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}
			if !CheckKey(token, apiKey, apiKeyHash) {
				http.Error(w, `{"error":"invalid credentials"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimPrefix(auth, "Bearer "), true
	}
	if r.URL.Path == "/ws" {
		if tok := r.URL.Query().Get("token"); tok != "" {
			return tok, true
		}
	}
	return "", false
}

// CheckKey reports whether token matches the configured key or hash.
func CheckKey(token, apiKey, apiKeyHash string) bool {
	if apiKeyHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(apiKeyHash), []byte(token)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) == 1
}
