package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentbridge/placement-rest/authtoken"
)

// newPortalTestApp wires a full app with the in-memory governor and cache so
// requests exercise the real middleware chain end to end.
func newPortalTestApp(t *testing.T) (*PortalApp, *authtoken.Codec) {
	t.Helper()

	codec := authtoken.NewCodec("e2e-secret", time.Hour)

	students := &fakeIdentitySource{
		kind: PrincipalKindStudent,
		identities: map[string]*ResolvedIdentity{
			"stu-1": {ID: "stu-1", Email: "ada@example.com", Name: "Ada", Role: "student"},
		},
	}
	users := &fakeIdentitySource{
		kind: PrincipalKindUser,
		identities: map[string]*ResolvedIdentity{
			"usr-1": {ID: "usr-1", Email: "grace@example.com", Name: "Grace", Role: "admin"},
		},
	}

	app := NewPortalApp(PortalAppOptions{
		Name:          "e2e",
		LogLevel:      LogLevelError,
		Authorizer:    NewAuthorizer(codec, students, users),
		RateStore:     NewMemoryRateStore(),
		RateLimit:     RateLimit{Max: 100, Window: time.Minute},
		AuthRateLimit: RateLimit{Max: 2, Window: time.Minute},
		CacheStore:    NewMemoryCacheStore(),
	})

	served := 0
	endpoints := []*Endpoint{
		{
			Name:   "Profile",
			Method: MethodGET,
			Path:   "/profile",
			Handler: func(c *EndpointContext) error {
				return c.JSON(OK(c.Principal))
			},
		},
		{
			Name:   "AdminOnly",
			Method: MethodGET,
			Path:   "/admin",
			Roles:  []EndpointRole{testRole("admin")},
			Handler: func(c *EndpointContext) error {
				return c.JSON(OK("welcome"))
			},
		},
		{
			Name:          "Login",
			Method:        MethodPOST,
			Path:          "/login",
			Public:        true,
			AuthSensitive: true,
			Handler: func(c *EndpointContext) error {
				return c.JSON(OK("ok"))
			},
		},
		{
			Name:         "CachedListing",
			Method:       MethodGET,
			Path:         "/listing",
			CacheSeconds: 60,
			Handler: func(c *EndpointContext) error {
				served++
				return c.JSON(OK(map[string]int{"served": served}))
			},
		},
	}

	app.RegisterEndpoints(endpoints, app.Group("/api"))
	return app, codec
}

func doRequest(app *PortalApp, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestEndpoint_AuthenticationRejections(t *testing.T) {
	app, codec := newPortalTestApp(t)

	t.Run("missing token", func(t *testing.T) {
		rec := doRequest(app, http.MethodGet, "/api/profile", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Access token required", body["message"])
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := doRequest(app, http.MethodGet, "/api/profile", "garbage")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid token. Please login again", decodeBody(t, rec)["message"])
	})

	t.Run("unknown subject", func(t *testing.T) {
		token, err := codec.Sign("ghost", "student")
		require.NoError(t, err)

		rec := doRequest(app, http.MethodGet, "/api/profile", token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid token. User not found", decodeBody(t, rec)["message"])
	})

	t.Run("valid token resolves the principal", func(t *testing.T) {
		token, err := codec.Sign("stu-1", "student")
		require.NoError(t, err)

		rec := doRequest(app, http.MethodGet, "/api/profile", token)
		assert.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		data := body["data"].(map[string]any)
		assert.Equal(t, "stu-1", data["id"])
		assert.Equal(t, "student", data["kind"])
	})
}

func TestEndpoint_RoleGate(t *testing.T) {
	app, codec := newPortalTestApp(t)

	t.Run("student is forbidden on the admin route", func(t *testing.T) {
		token, err := codec.Sign("stu-1", "student")
		require.NoError(t, err)

		rec := doRequest(app, http.MethodGet, "/api/admin", token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["message"], "student")
	})

	t.Run("admin passes", func(t *testing.T) {
		token, err := codec.Sign("usr-1", "admin")
		require.NoError(t, err)

		rec := doRequest(app, http.MethodGet, "/api/admin", token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestEndpoint_AuthRateCeiling(t *testing.T) {
	app, _ := newPortalTestApp(t)

	for i := 0; i < 2; i++ {
		rec := doRequest(app, http.MethodPost, "/api/login", "")
		require.Equal(t, http.StatusOK, rec.Code, "request %d should be admitted", i+1)
	}

	rec := doRequest(app, http.MethodPost, "/api/login", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])

	details, ok := body["details"].(map[string]any)
	require.True(t, ok, "429 body must carry details")
	retryAfter, ok := details["retryAfter"].(float64)
	require.True(t, ok)
	assert.Greater(t, retryAfter, float64(0))
}

func TestEndpoint_ResponseCache(t *testing.T) {
	app, codec := newPortalTestApp(t)

	tokenA, err := codec.Sign("stu-1", "student")
	require.NoError(t, err)
	tokenB, err := codec.Sign("usr-1", "admin")
	require.NoError(t, err)

	first := doRequest(app, http.MethodGet, "/api/listing", tokenA)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get(CacheStatusHeader))

	second := doRequest(app, http.MethodGet, "/api/listing", tokenA)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get(CacheStatusHeader))
	assert.Equal(t, first.Body.String(), second.Body.String(), "a hit replays the stored payload")

	// Another caller on the same path gets its own entry.
	other := doRequest(app, http.MethodGet, "/api/listing", tokenB)
	require.Equal(t, http.StatusOK, other.Code)
	assert.Equal(t, "MISS", other.Header().Get(CacheStatusHeader))
	assert.NotEqual(t, first.Body.String(), other.Body.String())
}
