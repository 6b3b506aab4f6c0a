package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/raazsocial/messaging/internal/domain"
)

// Identity is what the token resolver yields: a stable user id plus display
// metadata. Token issuance lives elsewhere; this package only verifies.
type Identity struct {
	ID   string
	Name string
	Role string
}

type Resolver struct {
	secret   string
	issuer   string
	audience string
}

func NewResolver(secret, issuer, audience string) *Resolver {
	return &Resolver{secret: secret, issuer: issuer, audience: audience}
}

func (r *Resolver) Resolve(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(r.secret), nil
	})
	if err != nil || !token.Valid {
		return Identity{}, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, domain.ErrUnauthorized
	}

	if r.issuer != "" {
		if iss, ok := claims["iss"].(string); !ok || iss != r.issuer {
			return Identity{}, domain.ErrUnauthorized
		}
	}
	if r.audience != "" {
		if aud, ok := claims["aud"].(string); !ok || aud != r.audience {
			return Identity{}, domain.ErrUnauthorized
		}
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Identity{}, domain.ErrUnauthorized
	}

	ident := Identity{ID: sub}
	if name, ok := claims["name"].(string); ok {
		ident.Name = name
	}
	if role, ok := claims["role"].(string); ok {
		ident.Role = role
	}
	return ident, nil
}

type ctxKey int

const identityKey ctxKey = iota

func Inject(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

func FromContext(ctx context.Context) (Identity, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return Identity{}, false
	}
	return v.(Identity), true
}

// Protect is the HTTP middleware guarding the delivery API. Requests without
// a resolvable bearer token are rejected with 401.
func Protect(r *Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			tokenString, err := extractToken(req)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			ident, err := r.Resolve(tokenString)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, req.WithContext(Inject(req.Context(), ident)))
		})
	}
}

func extractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing token")
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("invalid token format")
	}

	return parts[1], nil
}
