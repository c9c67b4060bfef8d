package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marcelojr/uvote/internal/domain"
)

const RoleAdmin = "admin"

// Claims segue o token emitido pelo provedor de identidade: sub é o id do eleitor e role marca administradores.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Identity struct {
	UserID domain.UserID
	Admin  bool
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Authenticator valida tokens HS256 com o segredo compartilhado.
type Authenticator struct {
	secret []byte
	issuer string
}

func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

func (a *Authenticator) Parse(raw string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...); err != nil {
		return Identity{}, fmt.Errorf("token invalido: %w", err)
	}

	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return Identity{}, errors.New("token sem sub")
	}
	return Identity{UserID: domain.UserID(sub), Admin: claims.Role == RoleAdmin}, nil
}

// Sign emite um token no mesmo formato aceito por Parse; usado em testes e por ferramentas de operação.
func (a *Authenticator) Sign(userID domain.UserID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(userID),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			responderJSON(w, http.StatusUnauthorized, errorResponse{Error: "token ausente"})
			return
		}

		id, err := a.Parse(strings.TrimSpace(raw))
		if err != nil {
			responderJSON(w, http.StatusUnauthorized, errorResponse{Error: "token invalido"})
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok || !id.Admin {
			responderJSON(w, http.StatusForbidden, errorResponse{Error: "acesso restrito a administradores"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
