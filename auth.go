package rest

import (
	"context"
)

// PrincipalKind tags which identity collection a principal was resolved from.
type PrincipalKind string

const (
	PrincipalKindStudent PrincipalKind = "student"
	PrincipalKindUser    PrincipalKind = "user"
)

// Principal is the resolved, authenticated identity attached to a request.
// It is built fresh per request from the token's subject claim and discarded
// when the request ends; it never carries credential fields.
type Principal struct {
	ID    string        `json:"id"`
	Email string        `json:"email"`
	Name  string        `json:"name,omitempty"`
	Role  string        `json:"role"`
	Kind  PrincipalKind `json:"kind"`
}

func (p *Principal) GetPrincipalID() string   { return p.ID }
func (p *Principal) GetPrincipalRole() string { return p.Role }

// ResolvedIdentity is the projected record an IdentitySource returns. Sources
// must never populate it from credential fields.
type ResolvedIdentity struct {
	ID    string
	Email string
	Name  string
	Role  string
}

// IdentitySource is one collection principals can be resolved from. FindByID
// returns (nil, nil) when the subject is not present; errors are reserved for
// store failures.
type IdentitySource interface {
	Kind() PrincipalKind
	FindByID(ctx context.Context, id string) (*ResolvedIdentity, error)
}

// Authorizer resolves the request's credentials into a Principal, or fails
// with one of the http_errors rejection values.
type Authorizer func(*EndpointContext) (*Principal, AuthToken, error)

// AuthToken is the verified credential behind a resolved Principal.
type AuthToken interface {
	IsValid() bool
	GetUserId() string
	GetUserType() string
	GetToken() string
	GetExpiresAt() int64
}

// EndpointRole is a role tag accepted by an endpoint's role gate.
type EndpointRole interface {
	RoleName() string
}
