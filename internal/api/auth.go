package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"bezero/internal/config"
)

type ctxKey int

const identityKey ctxKey = iota

// Identity is the authenticated caller extracted from the JWT.
type Identity struct {
	UserID   int64
	Nickname string
	Role     string
}

func (i Identity) IsManager() bool { return i.Role == "manager" }

// IdentityFrom returns the caller identity stored by the auth middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

type jwtAuth struct {
	cfg config.JWTConfig
	// blocked проверяет чёрный список: токен живёт 24 часа, поэтому
	// одной проверки на логине недостаточно.
	blocked func(ctx context.Context, userID int64) bool
	// touch отмечает активность пользователя, не блокируя запрос.
	touch func(userID int64)
}

func newJWTAuth(cfg config.JWTConfig) *jwtAuth {
	return &jwtAuth{cfg: cfg}
}

// Middleware validates the bearer token and stores the Identity in the
// request context. WebSocket handshakes may pass the token as a query
// parameter because browsers cannot set headers on WS upgrades.
func (a *jwtAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		identity, err := a.parse(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if a.blocked != nil && a.blocked(r.Context(), identity.UserID) {
			writeError(w, http.StatusForbidden, "account is blocked")
			return
		}

		if a.touch != nil {
			a.touch(identity.UserID)
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *jwtAuth) parse(tokenString string) (Identity, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(a.cfg.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("parse token: %w", err)
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return Identity{}, fmt.Errorf("token has no user_id claim")
	}

	identity := Identity{UserID: int64(userID)}
	if v, ok := claims["nickname"].(string); ok {
		identity.Nickname = v
	}
	if v, ok := claims["role"].(string); ok {
		identity.Role = v
	}
	return identity, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
