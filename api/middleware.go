package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ErrMissingToken is returned when a request has no bearer token
var ErrMissingToken = errors.New("missing bearer token")

// Auth verifies the HS256 bearer token volunteers sign in with
type Auth struct {
	Secret []byte
}

// NewToken signs a token for the volunteer uid, valid for ttl
func (a Auth) NewToken(uid string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
}

// Verify parses a signed token and returns the volunteer uid it was issued to
func (a Auth) Verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return a.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok && token != "" {
		return token, nil
	}
	// browsers cannot set headers on websocket requests
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}

// Middleware rejects requests without a valid volunteer token
func (a Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err == nil {
			var uid string
			uid, err = a.Verify(token)
			if err == nil {
				zap.S().Debugw("volunteer authenticated", "uid", uid, "requestId", RequestID(r.Context()))
				next.ServeHTTP(w, r.WithContext(WithVolunteerUID(r.Context(), uid)))
				return
			}
		}
		zap.S().Errorw("unauthorized",
			"url", r.URL.Path,
			"error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"response": "unauthorized"}`))
	})
}
