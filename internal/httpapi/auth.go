package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const accountIDKey contextKey = "account_id"

// accountClaims is the shape of the bearer tokens minted by the account
// service. This service only verifies them.
type accountClaims struct {
	AccountID int64 `json:"account_id"`
	jwt.RegisteredClaims
}

// requireAuth verifies the Authorization bearer token and stores the
// account id on the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			respondError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
			return
		}

		accountID, err := s.verifyToken(strings.TrimSpace(header[len(prefix):]))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthenticated", "invalid bearer token")
			return
		}

		ctx := context.WithValue(r.Context(), accountIDKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) verifyToken(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &accountClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.AuthSecret), nil
	})
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(*accountClaims)
	if !ok || !token.Valid || claims.AccountID == 0 {
		return 0, jwt.ErrTokenInvalidClaims
	}
	return claims.AccountID, nil
}

// SignToken mints a bearer token for an account. Exposed for tests and for
// the dev-mode login shim; production tokens come from the account service.
func SignToken(secret string, accountID int64, ttl time.Duration) (string, error) {
	claims := &accountClaims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "tutorhub",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func accountIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(accountIDKey).(int64)
	return id, ok
}
