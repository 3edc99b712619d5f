package portal

import (
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/crypto/bcrypt"

	rest "github.com/talentbridge/placement-rest"
	"github.com/talentbridge/placement-rest/database"
	"github.com/talentbridge/placement-rest/http_errors"
	"github.com/talentbridge/placement-rest/models"
)

const bcryptCost = 12

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" normalize:"trim,lowercase"`
	Password string `json:"password" validate:"required"`
}

func (LoginRequest) Validate(*rest.EndpointContext) error { return nil }

type RegisterStudentRequest struct {
	Name         string  `json:"name" validate:"required,min=2" normalize:"trim"`
	Email        string  `json:"email" validate:"required,email" normalize:"trim,lowercase"`
	Password     string  `json:"password" validate:"required,min=8"`
	EnrollmentNo string  `json:"enrollmentNo" validate:"required" sanitize:"alphanumeric" normalize:"trim,uppercase"`
	Course       string  `json:"course" normalize:"trim"`
	Branch       string  `json:"branch" normalize:"trim,uppercase"`
	CGPA         float64 `json:"cgpa" validate:"gte=0,lte=10"`
	Backlogs     int     `json:"backlogs" validate:"gte=0"`
	Phone        string  `json:"phone" sanitize:"numeric"`
}

func (RegisterStudentRequest) Validate(*rest.EndpointContext) error { return nil }

// LoginResponse carries the signed token alongside the resolved identity so
// SPAs that cannot read the HttpOnly cookie still get both.
type LoginResponse struct {
	Token string         `json:"token"`
	User  rest.Principal `json:"user"`
}

func (p *Portal) authEndpoints() []*rest.Endpoint {
	return []*rest.Endpoint{
		{
			Name:          "Login",
			Method:        rest.MethodPOST,
			Path:          "/auth/login",
			Public:        true,
			AuthSensitive: true,
			ActionType:    rest.ActionTypeLogin,
			Model:         "User",
			BodyParams:    func() rest.Validable { return &LoginRequest{} },
			Handler:       p.login,
		},
		{
			Name:          "RegisterStudent",
			Method:        rest.MethodPOST,
			Path:          "/auth/register",
			Public:        true,
			AuthSensitive: true,
			ActionType:    rest.ActionTypeCreate,
			Model:         "Student",
			BodyParams:    func() rest.Validable { return &RegisterStudentRequest{} },
			Handler:       p.registerStudent,
		},
		{
			Name:          "Me",
			Method:        rest.MethodGET,
			Path:          "/auth/me",
			ActionType:    rest.ActionTypeRead,
			AuditDisabled: true,
			Handler:       p.me,
		},
		{
			Name:          "Logout",
			Method:        rest.MethodPOST,
			Path:          "/auth/logout",
			ActionType:    rest.ActionTypeLogin,
			AuditDisabled: true,
			Handler:       p.logout,
		},
	}
}

// login resolves the email against both identity collections, students first.
// A wrong email and a wrong password produce the same rejection so the
// endpoint does not leak which accounts exist.
func (p *Portal) login(ctx *rest.EndpointContext) error {
	body := ctx.ParsedBody.(*LoginRequest)

	var hash string
	var principal rest.Principal

	student, err := p.Students.FindOne(ctx.Context(), database.NewFilter().Eq("email", body.Email))
	switch {
	case err == nil:
		role := string(student.Role)
		if role == "" {
			role = string(models.RoleStudent)
		}
		hash = student.Password
		principal = rest.Principal{
			ID:    student.ID.Hex(),
			Email: student.Email,
			Name:  student.Name,
			Role:  role,
			Kind:  rest.PrincipalKindStudent,
		}
	case errors.Is(err, mongo.ErrNoDocuments):
		user, err := p.Users.FindOne(ctx.Context(), database.NewFilter().Eq("email", body.Email))
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return http_errors.UnauthorizedError("Invalid email or password")
			}
			ctx.App.Errorf("login lookup failed: %v", err)
			return http_errors.InternalServerError("Login failed")
		}
		hash = user.Password
		principal = rest.Principal{
			ID:    user.ID.Hex(),
			Email: user.Email,
			Name:  user.Name,
			Role:  string(user.Role),
			Kind:  rest.PrincipalKindUser,
		}
	default:
		ctx.App.Errorf("login lookup failed: %v", err)
		return http_errors.InternalServerError("Login failed")
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(body.Password)) != nil {
		return http_errors.UnauthorizedError("Invalid email or password")
	}

	token, err := p.Codec.Sign(principal.ID, principal.Role)
	if err != nil {
		ctx.App.Errorf("token signing failed: %v", err)
		return http_errors.InternalServerError("Login failed")
	}

	setAccessTokenCookie(ctx, token, p.Codec.DefaultTTL())

	return ctx.RespondAndLog(rest.OK(LoginResponse{Token: token, User: principal}), principal.ID, rest.ResponseTypeJSON)
}

func (p *Portal) registerStudent(ctx *rest.EndpointContext) error {
	body := ctx.ParsedBody.(*RegisterStudentRequest)

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcryptCost)
	if err != nil {
		ctx.App.Errorf("password hashing failed: %v", err)
		return http_errors.InternalServerError("Registration failed")
	}

	student := models.Student{
		Name:         body.Name,
		Email:        body.Email,
		Password:     string(hash),
		Role:         models.RoleStudent,
		EnrollmentNo: body.EnrollmentNo,
		Course:       models.NormalizeCourse(body.Course),
		Branch:       body.Branch,
		CGPA:         body.CGPA,
		Backlogs:     body.Backlogs,
		Phone:        body.Phone,
	}

	created, err := p.Students.Create(ctx.Context(), student)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return http_errors.ConflictError("A student with this email or enrollment number already exists")
		}
		ctx.App.Errorf("student registration failed: %v", err)
		return http_errors.InternalServerError("Registration failed")
	}

	return ctx.RespondAndLog(rest.OK(created), created.ID.Hex(), rest.ResponseTypeJSON, http.StatusCreated)
}

func (p *Portal) me(ctx *rest.EndpointContext) error {
	return ctx.JSON(rest.OK(ctx.Principal))
}

func (p *Portal) logout(ctx *rest.EndpointContext) error {
	setAccessTokenCookie(ctx, "", -time.Hour)
	return ctx.NoContent()
}

func setAccessTokenCookie(ctx *rest.EndpointContext, token string, ttl time.Duration) {
	ctx.EchoCtx.SetCookie(&http.Cookie{
		Name:     rest.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   ctx.App.GetEnvironment() == "production",
	})
}
