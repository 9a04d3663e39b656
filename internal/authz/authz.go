// Package authz guards operations by token kind. Every request goes through
// the same ordered checks: bearer present, signature and expiry valid, claim
// shape matches the operation, and the token's competition matches the path.
package authz

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/spottheball/internal/apperr"
	"github.com/playperu/spottheball/internal/token"
)

type ctxKey struct{}

type Gateway struct {
	tokens *token.Service
}

func New(tokens *token.Service) *Gateway {
	return &Gateway{tokens: tokens}
}

// Authorize runs the checks for kind against r. competitionID is the
// competition named by the request path and is ignored for admin tokens.
func (g *Gateway) Authorize(r *http.Request, kind token.Kind, competitionID string) (token.Claims, error) {
	raw, ok := bearer(r)
	if !ok {
		return token.Claims{}, apperr.Unauthenticated(apperr.CodeUnauthenticated, "missing bearer token")
	}

	claims, err := g.tokens.Verify(raw)
	if errors.Is(err, token.ErrExpiredToken) {
		return token.Claims{}, apperr.Unauthenticated(apperr.CodeTokenExpired, "token expired")
	}
	if err != nil {
		return token.Claims{}, apperr.Forbidden("invalid token")
	}

	if !claims.MatchesKind(kind) {
		return token.Claims{}, apperr.Forbidden("a %s token is required", kind)
	}

	if kind != token.KindAdmin && claims.CompetitionID != competitionID {
		return token.Claims{}, apperr.Forbidden("token not valid for this resource")
	}

	return claims, nil
}

// Require is middleware that authorizes kind against the {id} path
// parameter and stores the claims in the request context.
func (g *Gateway) Require(kind token.Kind, fail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := g.Authorize(r, kind, chi.URLParam(r, "id"))
			if err != nil {
				fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, c token.Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// ClaimsFrom returns the claims stored by Require.
func ClaimsFrom(ctx context.Context) (token.Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(token.Claims)
	return c, ok
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, raw, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
