// Package catalogapi exposes the parsed program catalog over HTTP: public
// read endpoints for browsing and searching programs, and a JWT-gated admin
// endpoint that triggers re-ingestion from the upstream catalog feed.
package catalogapi

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var jwtSecret = []byte(getEnvOrDefault("CATALOG_JWT_SECRET", "dev-secret-change-me"))

func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// AdminClaims is the payload embedded in the admin access token. There is
// exactly one admin identity (configured via CATALOG_ADMIN_EMAIL /
// CATALOG_ADMIN_PASSWORD_HASH), so the claims carry no user ID.
type AdminClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateAdminToken issues a 1-hour admin access token.
func GenerateAdminToken(email string) (string, error) {
	claims := AdminClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseAdminToken validates a JWT string and returns its claims.
func ParseAdminToken(tokenStr string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AdminClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// checkAdminPassword compares password against the bcrypt hash configured in
// CATALOG_ADMIN_PASSWORD_HASH. An empty configured hash rejects every login,
// so the admin endpoint fails closed rather than open when unconfigured.
func checkAdminPassword(email, password string) bool {
	wantEmail := getEnvOrDefault("CATALOG_ADMIN_EMAIL", "")
	wantHash := getEnvOrDefault("CATALOG_ADMIN_PASSWORD_HASH", "")
	if wantEmail == "" || wantHash == "" || email != wantEmail {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(wantHash), []byte(password)) == nil
}

type contextKey string

const claimsContextKey contextKey = "admin_claims"

// RequireAdmin is HTTP middleware that validates the Authorization: Bearer
// header against the admin JWT and rejects the request otherwise.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		claims, err := ParseAdminToken(parts[1])
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}
