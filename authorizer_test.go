package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentbridge/placement-rest/authtoken"
	"github.com/talentbridge/placement-rest/http_errors"
)

type fakeIdentitySource struct {
	kind       PrincipalKind
	identities map[string]*ResolvedIdentity
	err        error
	lookups    int
}

func (s *fakeIdentitySource) Kind() PrincipalKind { return s.kind }

func (s *fakeIdentitySource) FindByID(_ context.Context, id string) (*ResolvedIdentity, error) {
	s.lookups++
	if s.err != nil {
		return nil, s.err
	}
	return s.identities[id], nil
}

type testRole string

func (r testRole) RoleName() string { return string(r) }

func newAuthTestContext(app *PortalApp, configure func(*http.Request)) *EndpointContext {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if configure != nil {
		configure(req)
	}

	rec := httptest.NewRecorder()
	return &EndpointContext{
		App:      app,
		EchoCtx:  app.EchoApp.NewContext(req, rec),
		Endpoint: &Endpoint{Name: "test"},
	}
}

func asErrorResponse(t *testing.T, err error) *http_errors.ErrorResponse {
	t.Helper()
	var response *http_errors.ErrorResponse
	require.ErrorAs(t, err, &response)
	return response
}

func TestAuthorizer_TokenRejections(t *testing.T) {
	app := NewPortalApp(PortalAppOptions{LogLevel: LogLevelError})
	codec := authtoken.NewCodec("test-secret", time.Hour)
	authorizer := NewAuthorizer(codec, &fakeIdentitySource{kind: PrincipalKindStudent})

	t.Run("missing token", func(t *testing.T) {
		ctx := newAuthTestContext(app, nil)
		_, _, err := authorizer(ctx)
		response := asErrorResponse(t, err)
		assert.Equal(t, 401, response.Code)
		assert.Equal(t, "Access token required", response.Message)
	})

	t.Run("garbage token", func(t *testing.T) {
		ctx := newAuthTestContext(app, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer not.a.token")
		})
		_, _, err := authorizer(ctx)
		response := asErrorResponse(t, err)
		assert.Equal(t, 401, response.Code)
		assert.Equal(t, "Invalid token. Please login again", response.Message)
	})

	t.Run("expired token", func(t *testing.T) {
		shortLived := authtoken.NewCodec("test-secret", time.Millisecond)
		token, err := shortLived.Sign("subject-1", "student")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)

		ctx := newAuthTestContext(app, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		})
		_, _, err = authorizer(ctx)
		response := asErrorResponse(t, err)
		assert.Equal(t, 401, response.Code)
		assert.Equal(t, "Token expired. Please login again", response.Message)
	})

	t.Run("token signed with a different secret", func(t *testing.T) {
		other := authtoken.NewCodec("other-secret", time.Hour)
		token, err := other.Sign("subject-1", "student")
		require.NoError(t, err)

		ctx := newAuthTestContext(app, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		})
		_, _, err = authorizer(ctx)
		response := asErrorResponse(t, err)
		assert.Equal(t, "Invalid token. Please login again", response.Message)
	})
}

func TestAuthorizer_SourceResolution(t *testing.T) {
	app := NewPortalApp(PortalAppOptions{LogLevel: LogLevelError})
	codec := authtoken.NewCodec("test-secret", time.Hour)

	signed := func(t *testing.T, subject, role string) string {
		token, err := codec.Sign(subject, role)
		require.NoError(t, err)
		return token
	}

	withToken := func(token string) func(*http.Request) {
		return func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	t.Run("first source wins and the second is never consulted", func(t *testing.T) {
		students := &fakeIdentitySource{
			kind: PrincipalKindStudent,
			identities: map[string]*ResolvedIdentity{
				"stu-1": {ID: "stu-1", Email: "ada@example.com", Name: "Ada", Role: "student"},
			},
		}
		users := &fakeIdentitySource{kind: PrincipalKindUser}
		authorizer := NewAuthorizer(codec, students, users)

		principal, token, err := authorizer(newAuthTestContext(app, withToken(signed(t, "stu-1", "student"))))
		require.NoError(t, err)
		assert.Equal(t, "stu-1", principal.ID)
		assert.Equal(t, PrincipalKindStudent, principal.Kind)
		assert.Equal(t, "stu-1", token.GetUserId())
		assert.True(t, token.IsValid())
		assert.Zero(t, users.lookups)
	})

	t.Run("falls through to the second source", func(t *testing.T) {
		students := &fakeIdentitySource{kind: PrincipalKindStudent}
		users := &fakeIdentitySource{
			kind: PrincipalKindUser,
			identities: map[string]*ResolvedIdentity{
				"usr-1": {ID: "usr-1", Email: "grace@example.com", Role: "admin"},
			},
		}
		authorizer := NewAuthorizer(codec, students, users)

		principal, _, err := authorizer(newAuthTestContext(app, withToken(signed(t, "usr-1", ""))))
		require.NoError(t, err)
		assert.Equal(t, PrincipalKindUser, principal.Kind)
		assert.Equal(t, "admin", principal.Role)
		assert.Equal(t, 1, students.lookups)
	})

	t.Run("subject present in no source", func(t *testing.T) {
		authorizer := NewAuthorizer(codec,
			&fakeIdentitySource{kind: PrincipalKindStudent},
			&fakeIdentitySource{kind: PrincipalKindUser},
		)

		principal, _, err := authorizer(newAuthTestContext(app, withToken(signed(t, "ghost", "student"))))
		assert.Nil(t, principal)
		response := asErrorResponse(t, err)
		assert.Equal(t, 401, response.Code)
		assert.Equal(t, "Invalid token. User not found", response.Message)
	})

	t.Run("store failure maps to a 500 without leaking the cause", func(t *testing.T) {
		broken := &fakeIdentitySource{kind: PrincipalKindStudent, err: errors.New("connection reset by peer")}
		authorizer := NewAuthorizer(codec, broken)

		_, _, err := authorizer(newAuthTestContext(app, withToken(signed(t, "stu-1", "student"))))
		response := asErrorResponse(t, err)
		assert.Equal(t, 500, response.Code)
		assert.Equal(t, "Authentication failed", response.Message)
		assert.NotContains(t, response.Message, "connection reset")
	})

	t.Run("cookie is used when no header is present", func(t *testing.T) {
		students := &fakeIdentitySource{
			kind: PrincipalKindStudent,
			identities: map[string]*ResolvedIdentity{
				"stu-1": {ID: "stu-1", Role: "student"},
			},
		}
		authorizer := NewAuthorizer(codec, students)

		token := signed(t, "stu-1", "student")
		ctx := newAuthTestContext(app, func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
		})

		principal, _, err := authorizer(ctx)
		require.NoError(t, err)
		assert.Equal(t, "stu-1", principal.ID)
	})
}

func TestResolveRole(t *testing.T) {
	tests := []struct {
		name       string
		recordRole string
		tokenRole  string
		expected   string
	}{
		{"record role is authoritative", "admin", "student", "admin"},
		{"token role fills an empty record role", "", "placement_officer", "placement_officer"},
		{"both empty falls back to student", "", "", "student"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolveRole(tt.recordRole, tt.tokenRole))
		})
	}
}

func TestRequireRoles(t *testing.T) {
	t.Run("nil principal is always rejected", func(t *testing.T) {
		err := RequireRoles(nil)
		response := asErrorResponse(t, err)
		assert.Equal(t, 401, response.Code)
	})

	t.Run("empty role set admits any authenticated principal", func(t *testing.T) {
		err := RequireRoles(&Principal{ID: "p1", Role: "student"})
		assert.NoError(t, err)
	})

	t.Run("matching role is admitted", func(t *testing.T) {
		err := RequireRoles(&Principal{ID: "p1", Role: "admin"}, testRole("placement_officer"), testRole("admin"))
		assert.NoError(t, err)
	})

	t.Run("mismatched role is forbidden", func(t *testing.T) {
		principal := &Principal{ID: "p1", Role: "student"}
		err := RequireRoles(principal, testRole("admin"))
		response := asErrorResponse(t, err)
		assert.Equal(t, 403, response.Code)
		assert.Contains(t, response.Message, "student")
		assert.Equal(t, "student", principal.Role, "the gate must not mutate the principal")
	})
}
