// Package auth is the "is there an authenticated user" gate in front of the
// API. It validates HS256 bearer tokens and knows nothing else about sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey struct{}

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

type Authenticator struct {
	secret []byte
	now    func() time.Time
}

// New returns an authenticator for secret. An empty secret disables the gate.
func New(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret), now: time.Now}
}

func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

// Sign issues a token for subject valid for ttl.
func (a *Authenticator) Sign(subject string, ttl time.Duration) (string, error) {
	if !a.Enabled() {
		return "", errors.New("sign token: no secret configured")
	}
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the subject.
func (a *Authenticator) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// Middleware rejects unauthenticated requests through onFail (or a plain
// 401). When the gate is disabled every request passes.
func (a *Authenticator) Middleware(onFail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !a.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			var subject string
			if err == nil {
				subject, err = a.Verify(token)
			}
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="expenses"`)
				if onFail != nil {
					onFail(w, r, err)
				} else {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, subject)))
		})
	}
}

// Subject returns the authenticated subject, if any.
func Subject(ctx context.Context) string {
	s, _ := ctx.Value(contextKey{}).(string)
	return s
}
