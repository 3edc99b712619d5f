package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/crypto/bcrypt"

	rest "github.com/talentbridge/placement-rest"
	"github.com/talentbridge/placement-rest/authtoken"
	"github.com/talentbridge/placement-rest/database"
	"github.com/talentbridge/placement-rest/models"
)

// fakeRepo is an in-memory Repository good enough for handler tests. Lookups
// go through the injected functions; everything else reports no documents.
type fakeRepo[T database.IModel] struct {
	findOne  func(filter *database.Filter) (*T, error)
	findById func(id any) (*T, error)
}

func (fakeRepo[T]) GetConnector() database.Connector { return nil }

func (r fakeRepo[T]) Find(context.Context, *database.Filter) ([]T, error) { return []T{}, nil }

func (r fakeRepo[T]) FindOne(_ context.Context, filter *database.Filter) (*T, error) {
	if r.findOne == nil {
		return nil, mongo.ErrNoDocuments
	}
	return r.findOne(filter)
}

func (r fakeRepo[T]) FindById(_ context.Context, id any, _ ...*database.Filter) (*T, error) {
	if r.findById == nil {
		return nil, mongo.ErrNoDocuments
	}
	return r.findById(id)
}

func (fakeRepo[T]) Insert(context.Context, T) (any, error)                      { return nil, nil }
func (fakeRepo[T]) Create(context.Context, T) (*T, error)                       { return nil, nil }
func (fakeRepo[T]) UpdateOne(context.Context, *database.Filter, any) error      { return nil }
func (fakeRepo[T]) UpdateById(context.Context, any, any) error                  { return nil }
func (fakeRepo[T]) Count(context.Context, *database.Filter) (int64, error)      { return 0, nil }
func (fakeRepo[T]) Exists(context.Context, any) (bool, error)                   { return false, nil }
func (fakeRepo[T]) DeleteById(context.Context, any) error                       { return nil }
func (fakeRepo[T]) DeleteMany(context.Context, *database.Filter) (int64, error) { return 0, nil }

func TestStudentIdentitySource_FindByID(t *testing.T) {
	studentID := bson.NewObjectID()
	source := StudentIdentitySource{Repository: fakeRepo[models.Student]{
		findById: func(id any) (*models.Student, error) {
			if id == studentID {
				return &models.Student{ID: studentID, Name: "Ada", Email: "ada@example.com"}, nil
			}
			return nil, mongo.ErrNoDocuments
		},
	}}

	t.Run("malformed id resolves to absent, not an error", func(t *testing.T) {
		identity, err := source.FindByID(context.Background(), "not-an-objectid")
		assert.NoError(t, err)
		assert.Nil(t, identity)
	})

	t.Run("unknown subject resolves to absent", func(t *testing.T) {
		identity, err := source.FindByID(context.Background(), bson.NewObjectID().Hex())
		assert.NoError(t, err)
		assert.Nil(t, identity)
	})

	t.Run("found student gets the student role fallback", func(t *testing.T) {
		identity, err := source.FindByID(context.Background(), studentID.Hex())
		require.NoError(t, err)
		require.NotNil(t, identity)
		assert.Equal(t, studentID.Hex(), identity.ID)
		assert.Equal(t, "student", identity.Role)
	})
}

func newLoginTestApp(t *testing.T, p *Portal) *rest.PortalApp {
	t.Helper()

	app := rest.NewPortalApp(rest.PortalAppOptions{
		Name:     "login-test",
		LogLevel: rest.LogLevelError,
	})
	app.RegisterEndpoints(p.Endpoints(), app.Group("/api"))
	return app
}

func postLogin(app *rest.PortalApp, email, password string) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	student := models.Student{
		ID:       bson.NewObjectID(),
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: string(hash),
		Role:     models.RoleStudent,
	}

	p := &Portal{
		Codec: authtoken.NewCodec("login-secret", time.Hour),
		Students: fakeRepo[models.Student]{
			findOne: func(filter *database.Filter) (*models.Student, error) {
				if filter.WhereQuery()["email"] == student.Email {
					return &student, nil
				}
				return nil, mongo.ErrNoDocuments
			},
		},
		Users: fakeRepo[models.User]{},
	}

	app := newLoginTestApp(t, p)

	t.Run("valid credentials issue a token and the cookie", func(t *testing.T) {
		rec := postLogin(app, "ada@example.com", "correct-horse")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := map[string]any{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		data := body["data"].(map[string]any)
		assert.NotEmpty(t, data["token"])

		user := data["user"].(map[string]any)
		assert.Equal(t, student.ID.Hex(), user["id"])
		assert.Equal(t, "student", user["role"])

		cookies := rec.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Equal(t, rest.AccessTokenCookie, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)

		// The issued token must verify against the same codec.
		claims, err := p.Codec.Verify(data["token"].(string))
		require.NoError(t, err)
		assert.Equal(t, student.ID.Hex(), claims.SubjectID)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		wrongPassword := postLogin(app, "ada@example.com", "wrong")
		unknownEmail := postLogin(app, "nobody@example.com", "whatever")

		assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
		assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)

		first := map[string]any{}
		second := map[string]any{}
		require.NoError(t, json.Unmarshal(wrongPassword.Body.Bytes(), &first))
		require.NoError(t, json.Unmarshal(unknownEmail.Body.Bytes(), &second))
		assert.Equal(t, first["message"], second["message"])
	})

	t.Run("password never appears in the response", func(t *testing.T) {
		rec := postLogin(app, "ada@example.com", "correct-horse")
		assert.NotContains(t, rec.Body.String(), string(hash))
		assert.NotContains(t, rec.Body.String(), "password")
	})
}
