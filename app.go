package rest

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/talentbridge/placement-rest/database"
	"github.com/talentbridge/placement-rest/helpers"
)

type LogLevel uint8

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var LogLevelLabels = map[LogLevel]string{
	LogLevelDebug: "DEBUG",
	LogLevelInfo:  "INFO",
	LogLevelWarn:  "WARN",
	LogLevelError: "ERROR",
}

type AuditLogConfig struct {
	Enabled bool
	Handler func(ctx *EndpointContext, response any, affectedModelId any) error
}

type PortalAppOptions struct {
	Name       string
	Port       uint16
	Datasource *database.Datasource
	LogLevel   LogLevel

	// Authorizer resolves credentials into a Principal for protected
	// endpoints.
	Authorizer Authorizer

	// RateStore enables the request-rate governor when non-nil. RateLimit is
	// the general ceiling; AuthRateLimit applies to auth-sensitive endpoints
	// and should be materially lower.
	RateStore     RateStore
	RateLimit     RateLimit
	AuthRateLimit RateLimit

	// CacheStore enables the GET response cache when non-nil.
	CacheStore CacheStore

	AuditLogConfig *AuditLogConfig
}

// DefaultRateLimits reads the governor ceilings from the environment:
// RATE_LIMIT_MAX per RATE_LIMIT_WINDOW for general routes, AUTH_RATE_LIMIT_MAX
// per AUTH_RATE_LIMIT_WINDOW for login/OTP style routes.
func DefaultRateLimits() (general RateLimit, auth RateLimit) {
	general = RateLimit{
		Max:    helpers.GetEnvInt("RATE_LIMIT_MAX", 100),
		Window: helpers.GetEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
	}
	auth = RateLimit{
		Max:    helpers.GetEnvInt("AUTH_RATE_LIMIT_MAX", 10),
		Window: helpers.GetEnvDuration("AUTH_RATE_LIMIT_WINDOW", 15*time.Minute),
	}
	return general, auth
}

type PortalApp struct {
	EchoApp           *echo.Echo
	Datasource        *database.Datasource
	ValidatorInstance *validator.Validate

	options        PortalAppOptions
	rateStore      RateStore
	cacheStore     CacheStore
	authorizer     Authorizer
	auditLogConfig AuditLogConfig
	environment    string
}

func (receiver *PortalApp) GetEnvironment() string {
	if receiver.environment == "" {
		env, ok := os.LookupEnv("APP_ENV")
		if !ok {
			env = "development"
		}
		receiver.environment = strings.ToLower(env)
	}

	return receiver.environment
}

func (receiver *PortalApp) Debugf(format string, args ...any) {
	receiver.log(LogLevelDebug, format, args...)
}

func (receiver *PortalApp) Infof(format string, args ...any) {
	receiver.log(LogLevelInfo, format, args...)
}

func (receiver *PortalApp) Warnf(format string, args ...any) {
	receiver.log(LogLevelWarn, format, args...)
}

func (receiver *PortalApp) Errorf(format string, args ...any) {
	receiver.log(LogLevelError, format, args...)
}

func (receiver *PortalApp) log(level LogLevel, format string, args ...any) {
	if receiver == nil || receiver.options.LogLevel > level {
		return
	}

	label, exists := LogLevelLabels[level]
	if !exists {
		label = "UNKNOWN"
	}

	args = append([]any{label}, args...)

	log.Printf("[%s] "+format, args...)
}

// Authorize resolves the request's Principal through the configured
// authorizer and attaches it to the context.
func (receiver *PortalApp) Authorize(ctx *EndpointContext) error {
	if receiver.authorizer == nil {
		receiver.Warnf("No authorizer configured for the application")
		return nil
	}

	principal, token, err := receiver.authorizer(ctx)
	if err != nil {
		return err
	}
	if principal == nil {
		return nil
	}

	ctx.Principal = principal
	ctx.Token = token
	return nil
}

func NewPortalApp(appOptions PortalAppOptions) *PortalApp {
	e := NewEchoApp()

	validate := validator.New()

	// Set the validation tag name to "json" to match the JSON struct tags
	// When an error occurs, the field name will be derived from the JSON tag
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		parts := strings.SplitN(fld.Tag.Get("json"), ",", 2)
		if len(parts) == 0 {
			return fld.Name
		}
		name := parts[0]
		if name == "-" {
			return ""
		}
		return name
	})

	app := &PortalApp{
		EchoApp:           e,
		Datasource:        appOptions.Datasource,
		options:           appOptions,
		ValidatorInstance: validate,
	}

	if appOptions.Authorizer != nil {
		app.authorizer = appOptions.Authorizer
	}

	app.rateStore = appOptions.RateStore
	app.cacheStore = appOptions.CacheStore

	if appOptions.RateStore != nil && appOptions.RateLimit.Max == 0 && appOptions.AuthRateLimit.Max == 0 {
		app.options.RateLimit, app.options.AuthRateLimit = DefaultRateLimits()
	}

	if appOptions.AuditLogConfig != nil {
		app.auditLogConfig = *appOptions.AuditLogConfig
	}

	return app
}

func (receiver *PortalApp) Destroy() error {
	if receiver == nil {
		return nil
	}
	if receiver.Datasource != nil {
		receiver.Datasource.Destroy()
	}

	return nil
}

func (receiver *PortalApp) Start() error {
	return receiver.EchoApp.Start(fmt.Sprint(":", receiver.options.Port))
}

func (receiver *PortalApp) Group(path string, m ...echo.MiddlewareFunc) *echo.Group {
	g := receiver.EchoApp.Group(path)
	for _, handler := range m {
		g.Use(handler)
	}
	return g
}

func (receiver *PortalApp) RegisterEndpoint(ep *Endpoint, r *echo.Group) {
	if ep == nil {
		return
	}

	var executor func(path string, handler echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	switch ep.Method {
	case MethodGET:
		executor = r.GET
	case MethodPOST:
		executor = r.POST
	case MethodPUT:
		executor = r.PUT
	case MethodPATCH:
		executor = r.PATCH
	case MethodDELETE:
		executor = r.DELETE
	}

	if executor == nil {
		log.Fatalf("Unsupported HTTP method %s for endpoint %s", ep.Method, ep.Name)
		return
	}

	ep.app = receiver

	if ep.FileUploadConfig != nil {
		ep.uploadHandler = NewUploadHandler(ep.FileUploadConfig)
	}

	executor(ep.Path, ep.run)
}

func (receiver *PortalApp) RegisterEndpoints(endpoints []*Endpoint, r *echo.Group) {
	for _, ep := range endpoints {
		if ep == nil {
			continue
		}
		receiver.RegisterEndpoint(ep, r)
	}
}

// ServeHTTP makes the app testable with httptest without starting a listener.
func (receiver *PortalApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	receiver.EchoApp.ServeHTTP(w, r)
}
