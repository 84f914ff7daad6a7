package auth

import (
	"errors"
	"strings"

	"github.com/hafizmfadli/movies-api/internal/data"
)

var (
	// ErrNoToken means the route needs a token and the request has no
	// well-formed "Bearer <token>" authorization header.
	ErrNoToken = errors.New("no token provided")
	// ErrInvalidToken covers every verification failure. The cause is never
	// exposed to the client.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingRole means the token is valid but its role is not accepted
	// by the route.
	ErrMissingRole = errors.New("missing required role")
)

// Requirement is the static authorization policy of a route.
type Requirement struct {
	Public bool
	// Roles accepted by the route. Nil and empty both mean that any
	// authenticated user is accepted.
	Roles []data.Role
}

// Public marks a route that skips token handling altogether.
func Public() Requirement {
	return Requirement{Public: true}
}

// Authenticated accepts any valid token.
func Authenticated() Requirement {
	return Requirement{}
}

// RequireRoles accepts valid tokens whose role is one of roles.
func RequireRoles(roles ...data.Role) Requirement {
	return Requirement{Roles: roles}
}

func (r Requirement) allows(role data.Role) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Table maps a route identifier such as "GET /v1/movies/:id" to its
// requirement. It is built at startup and only read afterwards.
type Table map[string]Requirement

// Lookup returns the requirement for route. Unknown routes require
// authentication.
func (t Table) Lookup(route string) Requirement {
	if req, ok := t[route]; ok {
		return req
	}
	return Authenticated()
}

// Verifier verifies a raw token string.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// Gate decides whether a request may reach a route.
type Gate struct {
	verifier Verifier
	routes   Table
}

func NewGate(verifier Verifier, routes Table) *Gate {
	return &Gate{verifier: verifier, routes: routes}
}

// Authorize checks the Authorization header value against the requirement
// registered for route. It returns nil claims and nil error for public
// routes, the verified claims on success, and one of ErrNoToken,
// ErrInvalidToken or ErrMissingRole otherwise.
func (g *Gate) Authorize(route, authorizationHeader string) (*Claims, error) {
	req := g.routes.Lookup(route)
	if req.Public {
		return nil, nil
	}

	token, ok := bearerToken(authorizationHeader)
	if !ok {
		return nil, ErrNoToken
	}

	claims, err := g.verifier.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if !req.allows(claims.Role) {
		return claims, ErrMissingRole
	}

	return claims, nil
}

func bearerToken(header string) (string, bool) {
	headerParts := strings.Split(header, " ")
	if len(headerParts) != 2 || headerParts[0] != "Bearer" || headerParts[1] == "" {
		return "", false
	}
	return headerParts[1], true
}
