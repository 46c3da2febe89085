package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Authenticator rejects requests that are not from the expected local
// caller: the Host header must match a fixed expected hostname, and the
// Authorization header must carry the shared bearer secret. The secret is
// loaded once at process start and never reloaded.
type Authenticator struct {
	expectedHost string
	secret       string
}

// NewAuthenticator creates an Authenticator for the given host and secret.
func NewAuthenticator(expectedHost, secret string) *Authenticator {
	return &Authenticator{expectedHost: expectedHost, secret: secret}
}

// Check validates the request. It returns the HTTP status to respond with
// on failure (400 for a host mismatch, 401 for a bad or missing token) and
// 0 when the request is authenticated.
func (a *Authenticator) Check(r *http.Request) (int, string) {
	if r.Host != a.expectedHost {
		return http.StatusBadRequest, "unexpected host"
	}

	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return http.StatusUnauthorized, "missing bearer token"
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.secret)) != 1 {
		return http.StatusUnauthorized, "invalid bearer token"
	}
	return 0, ""
}
