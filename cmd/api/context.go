package main

import (
	"context"
	"net/http"

	"github.com/hafizmfadli/movies-api/internal/auth"
)

type contextKey string

const (
	claimsContextKey    = contextKey("claims")
	requestIDContextKey = contextKey("request_id")
)

// contextSetClaims returns a copy of r carrying the verified token claims.
func (app *application) contextSetClaims(r *http.Request, claims *auth.Claims) *http.Request {
	ctx := context.WithValue(r.Context(), claimsContextKey, claims)
	return r.WithContext(ctx)
}

// contextGetClaims returns the claims set by the authorize middleware, or nil
// on public routes.
func (app *application) contextGetClaims(r *http.Request) *auth.Claims {
	claims, ok := r.Context().Value(claimsContextKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

func contextSetRequestID(r *http.Request, id string) *http.Request {
	ctx := context.WithValue(r.Context(), requestIDContextKey, id)
	return r.WithContext(ctx)
}

func contextGetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDContextKey).(string)
	return id
}
