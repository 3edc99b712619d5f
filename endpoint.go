package rest

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/talentbridge/placement-rest/http_errors"
)

type Validable interface {
	Validate(ctx *EndpointContext) error
}

type Param struct {
	in        ParamLocation
	name      string
	paramType string
	required  bool
	Parser    func(string) (any, error)
}

func NewQueryParam(name string, paramType QueryParamType, required ...bool) Param {
	requiredValue := false
	if len(required) > 0 {
		requiredValue = required[0]
	}
	return Param{
		in:        InQuery,
		name:      name,
		paramType: string(paramType),
		required:  requiredValue,
	}
}

func NewPathParam(name string, paramType PathParamType, required ...bool) Param {
	requiredValue := false
	if len(required) > 0 {
		requiredValue = required[0]
	}
	return Param{
		in:        InPath,
		name:      name,
		paramType: string(paramType),
		required:  requiredValue,
	}
}

type Endpoint struct {
	Name     string
	Method   EndpointMethod
	Path     string
	Handler  func(c *EndpointContext) error
	Disabled bool // If true, the endpoint is disabled and will not be registered or accessible.

	// Public endpoints skip principal resolution entirely. Everything else
	// requires a resolvable Principal.
	Public bool

	// Roles restricts access to the listed roles. Empty means any
	// authenticated principal.
	Roles []EndpointRole

	// AuthSensitive routes (login, OTP) are governed by the stricter auth
	// rate ceiling.
	AuthSensitive bool

	// CacheSeconds enables the GET response cache for this endpoint with the
	// given TTL. Zero disables caching.
	CacheSeconds int

	// RateLimiter overrides the app-level ceiling for this endpoint.
	RateLimiter func(*EndpointContext) RateLimit

	BodyParams    func() Validable // Function that returns a Validable struct for body validation.
	Accepts       []Param
	ActionType    ActionType // Used for audit logging.
	Model         string     // The related model, e.g. "Student", "Job". Used for audit logging.
	AuditDisabled bool       // Disable audit logging for this endpoint
	MetaData      map[string]any

	// File upload configuration
	FileUploadConfig *FileUploadConfig
	uploadHandler    *UploadHandler

	app *PortalApp
}

// run executes the middleware chain in fixed order: rate governor first, then
// the cache lookup for cacheable GETs, then authentication, authorization and
// the handler.
func (ep *Endpoint) run(c echo.Context) error {
	if ep.Disabled {
		return http_errors.NotFoundError("Endpoint not found")
	}

	ctx := &EndpointContext{
		EchoCtx:   c,
		Endpoint:  ep,
		App:       ep.app,
		IpAddress: c.RealIP(),
	}

	if err := checkRateLimit(ctx); err != nil {
		return err
	}

	if ep.CacheSeconds > 0 && ep.Method == MethodGET {
		return cacheIntercept(ctx, time.Duration(ep.CacheSeconds)*time.Second, ep.invoke)
	}

	return ep.invoke(ctx)
}

func (ep *Endpoint) invoke(ctx *EndpointContext) error {
	if err := parseBody(ep, ctx); err != nil {
		return err
	}

	// Process file uploads only if the endpoint has file upload configuration
	if ep.FileUploadConfig != nil && ep.uploadHandler != nil {
		uploadedFiles, err := ep.uploadHandler.ProcessUploads(ctx.EchoCtx)
		if err != nil {
			return err
		}
		ctx.UploadedFiles = uploadedFiles

		if !ep.FileUploadConfig.KeepFilesAfterSend {
			defer ep.uploadHandler.CleanupAfterResponse(uploadedFiles)
		}
	}

	if err := parseAllParams(ep, ctx); err != nil {
		return err
	}

	if !ep.Public {
		if err := ep.app.Authorize(ctx); err != nil {
			return err
		}

		if err := RequireRoles(ctx.Principal, ep.Roles...); err != nil {
			return err
		}
	}

	return ep.Handler(ctx)
}
