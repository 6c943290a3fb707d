package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"phone-store/internal/core"
)

type actorKey struct{}

// actorFromContext returns the authenticated caller stored in ctx.
func actorFromContext(ctx context.Context) (core.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(core.Actor)
	return a, ok
}

// jwtClaims is the bearer token payload. The subject is the user id.
type jwtClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var roles = []core.Role{core.RoleAdmin, core.RoleEmployee, core.RoleCustomer}

func parseRole(raw string) (core.Role, bool) {
	for _, r := range roles {
		if strings.EqualFold(string(r), strings.TrimSpace(raw)) {
			return r, true
		}
	}
	return "", false
}

// IssueToken signs an HS256 bearer token for userID with the given role.
// A zero ttl issues a token without expiry.
func IssueToken(secret, userID string, role core.Role, ttl time.Duration) (string, error) {
	if _, ok := parseRole(string(role)); !ok {
		return "", fmt.Errorf("unknown role %q", role)
	}
	now := time.Now()
	claims := jwtClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// RequireAuth is chi middleware that validates the Authorization bearer token and
// injects the caller as a core.Actor. Returns 401 if the token is absent, invalid,
// expired or carries no known role.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		role, ok := parseRole(claims.Role)
		if !ok || claims.Subject == "" {
			writeError(w, r, "token carries no valid identity", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey{}, core.Actor{UserID: claims.Subject, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
