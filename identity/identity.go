/*
Package identity resolves HTTP callers to engine actors.

PURPOSE:
  The engine never authenticates anyone; it takes an explicit Actor on every
  operation. This package supplies that Actor at the transport boundary:

    JWTProvider    parses a signed bearer token (production shape)
    HeaderProvider trusts X-Caller-ID / X-Caller-Role headers (dev and tests)

  Both only establish WHO is calling and WHICH role they claim; what that
  role may do is decided inside the engine.

SEE ALSO:
  - scheduling/types.go: Actor and Role
  - api/server.go: Middleware wiring
*/
package identity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/warp/shift-engine/scheduling"
)

var ErrUnauthenticated = errors.New("caller identity could not be resolved")

// Provider resolves the caller of an HTTP request to an Actor.
type Provider interface {
	Resolve(r *http.Request) (scheduling.Actor, error)
}

// =============================================================================
// HEADER PROVIDER - Trusted headers, for development and tests
// =============================================================================

type HeaderProvider struct{}

func (HeaderProvider) Resolve(r *http.Request) (scheduling.Actor, error) {
	id := r.Header.Get("X-Caller-ID")
	if id == "" {
		return scheduling.Actor{}, ErrUnauthenticated
	}
	role, err := parseRole(r.Header.Get("X-Caller-Role"))
	if err != nil {
		return scheduling.Actor{}, err
	}
	return scheduling.Actor{ID: id, Role: role}, nil
}

// =============================================================================
// JWT PROVIDER - Bearer token with role claim
// =============================================================================

// Claims is the token payload: the subject is the caller id, Role the
// caller's authority.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type JWTProvider struct {
	Secret []byte
}

func (p JWTProvider) Resolve(r *http.Request) (scheduling.Actor, error) {
	header := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return scheduling.Actor{}, ErrUnauthenticated
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.Secret, nil
	})
	if err != nil {
		return scheduling.Actor{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return scheduling.Actor{}, ErrUnauthenticated
	}

	role, err := parseRole(claims.Role)
	if err != nil {
		return scheduling.Actor{}, err
	}
	return scheduling.Actor{ID: claims.Subject, Role: role}, nil
}

func parseRole(s string) (scheduling.Role, error) {
	switch scheduling.Role(s) {
	case scheduling.RoleOrganizer, scheduling.RoleWorker:
		return scheduling.Role(s), nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrUnauthenticated, s)
}
