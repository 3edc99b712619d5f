package rest

import (
	"errors"
	"strings"

	"github.com/talentbridge/placement-rest/authtoken"
	"github.com/talentbridge/placement-rest/http_errors"
)

// AccessTokenCookie is the cookie checked when no Authorization header is
// present.
const AccessTokenCookie = "access_token"

const fallbackRole = "student"

// verifiedToken adapts verified codec claims to the AuthToken contract.
type verifiedToken struct {
	raw    string
	claims *authtoken.Claims
	kind   PrincipalKind
}

func (t *verifiedToken) IsValid() bool       { return t.claims != nil }
func (t *verifiedToken) GetUserId() string   { return t.claims.SubjectID }
func (t *verifiedToken) GetUserType() string { return string(t.kind) }
func (t *verifiedToken) GetToken() string    { return t.raw }
func (t *verifiedToken) GetExpiresAt() int64 {
	if t.claims.ExpiresAt == nil {
		return 0
	}
	return t.claims.ExpiresAt.Unix()
}

// NewAuthorizer builds the portal Authorizer: extract the token, verify it,
// then resolve the subject against the identity sources in the given order,
// stopping at the first hit. Exactly one source produces the Principal; a
// subject present in none is rejected.
func NewAuthorizer(codec *authtoken.Codec, sources ...IdentitySource) Authorizer {
	return func(ctx *EndpointContext) (*Principal, AuthToken, error) {
		raw, fromHeader := extractToken(ctx)
		if raw == "" {
			return nil, nil, http_errors.MissingTokenError()
		}

		claims, err := codec.Verify(raw)
		if err != nil {
			ctx.App.Debugf("token verification failed (header=%t): %v", fromHeader, err)
			if errors.Is(err, authtoken.ErrExpiredToken) {
				return nil, nil, http_errors.ExpiredTokenError()
			}
			return nil, nil, http_errors.InvalidTokenError()
		}

		for _, source := range sources {
			identity, err := source.FindByID(ctx.Context(), claims.SubjectID)
			if err != nil {
				ctx.App.Errorf("identity lookup failed in %s source (header=%t, token=%s): %v",
					source.Kind(), fromHeader, tokenPrefix(raw), err)
				return nil, nil, http_errors.InternalServerError("Authentication failed")
			}
			if identity == nil {
				continue
			}

			principal := &Principal{
				ID:    identity.ID,
				Email: identity.Email,
				Name:  identity.Name,
				Role:  resolveRole(identity.Role, claims.Role),
				Kind:  source.Kind(),
			}
			return principal, &verifiedToken{raw: raw, claims: claims, kind: source.Kind()}, nil
		}

		return nil, nil, http_errors.PrincipalNotFoundError()
	}
}

// resolveRole prefers the resolved record's own role over the token's role
// hint; the token claim is only a fallback and never authoritative.
func resolveRole(recordRole, tokenRole string) string {
	if recordRole != "" {
		return recordRole
	}
	if tokenRole != "" {
		return tokenRole
	}
	return fallbackRole
}

// extractToken returns the raw token and whether it came from the
// Authorization header. The header takes precedence over the cookie.
func extractToken(ctx *EndpointContext) (string, bool) {
	header := ctx.EchoCtx.Request().Header.Get("Authorization")
	if header != "" {
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		return token, true
	}

	cookie, err := ctx.EchoCtx.Cookie(AccessTokenCookie)
	if err != nil || cookie == nil {
		return "", false
	}
	return cookie.Value, false
}

// tokenPrefix returns a short prefix safe to log for correlation.
func tokenPrefix(token string) string {
	if len(token) <= 10 {
		return token
	}
	return token[:10] + "..."
}

// RequireRoles is the role gate: a nil principal is always rejected; an empty
// role set admits any authenticated principal. The principal is never
// mutated.
func RequireRoles(principal *Principal, roles ...EndpointRole) error {
	if principal == nil {
		return http_errors.UnauthenticatedError()
	}

	if len(roles) == 0 {
		return nil
	}

	for _, role := range roles {
		if principal.Role == role.RoleName() {
			return nil
		}
	}

	return http_errors.RoleForbiddenError(principal.Role)
}
