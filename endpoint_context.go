package rest

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/talentbridge/placement-rest/database"
	"github.com/talentbridge/placement-rest/http_errors"
)

type EndpointContext struct {
	App           *PortalApp
	EchoCtx       echo.Context
	Endpoint      *Endpoint
	ParsedBody    any
	ParsedQuery   map[string]any
	ParsedPath    map[string]any
	UploadedFiles map[string][]*UploadedFile
	IpAddress     string
	Principal     *Principal
	Token         AuthToken
}

func (eCtx *EndpointContext) Context() context.Context {
	return eCtx.EchoCtx.Request().Context()
}

func (eCtx *EndpointContext) ValidateStruct(v any) error {
	if v == nil {
		return nil
	}
	return eCtx.App.ValidatorInstance.Struct(v)
}

func (eCtx *EndpointContext) SanitizeStruct(v any) error {
	if v == nil {
		return nil
	}

	return processStruct(v, "sanitize")
}

func (eCtx *EndpointContext) NormalizeStruct(v any) error {
	if v == nil {
		return nil
	}

	return processStruct(v, "normalize")
}

// GetFilterParam retrieves the parsed filter query parameter, if the endpoint
// accepts one.
func (eCtx *EndpointContext) GetFilterParam() (*database.Filter, error) {
	filter, ok := eCtx.ParsedQuery["filter"]
	if !ok || filter == nil {
		return nil, nil
	}

	if parsed, ok := filter.(*database.Filter); ok {
		return parsed, nil
	}

	return nil, http_errors.BadRequestError("Invalid filter query parameter")
}

/**
 * RespondAndLog sends a response and logs the audit if enabled.
 * @param response The response data to send.
 * @param affectedModelId The ID of the model affected by the operation, used for logging.
 * @param contentType The type of response to send (JSON, Text, NoContent).
 * @param statusCode Optional status code to override the default 200 OK.
 */
func (ctx *EndpointContext) RespondAndLog(response any, affectedModelId any, contentType ResponseType, statusCode ...int) error {
	if !ctx.Endpoint.AuditDisabled {
		if ctx.App.auditLogConfig.Enabled && ctx.App.auditLogConfig.Handler != nil {
			err := ctx.App.auditLogConfig.Handler(ctx, response, affectedModelId)
			if err != nil {
				ctx.App.Errorf("Failed to log audit: %v", err)
			}
		}
	}

	status := http.StatusOK
	if len(statusCode) > 0 {
		status = statusCode[0]
	}

	switch contentType {
	case ResponseTypeJSON:
		return ctx.EchoCtx.JSON(status, response)
	case ResponseTypeText:
		if str, ok := response.(string); ok {
			return ctx.EchoCtx.String(status, str)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "text response must be string")
	case ResponseTypeNoContent:
		return ctx.EchoCtx.NoContent(status)
	default:
		return echo.NewHTTPError(http.StatusNotAcceptable, "unsupported content type")
	}
}

// JSON sends a JSON response
func (ctx *EndpointContext) JSON(response any, statusCode ...int) error {
	status := http.StatusOK
	if len(statusCode) > 0 {
		status = statusCode[0]
	}

	return ctx.EchoCtx.JSON(status, response)
}

// NoContent sends a 204 No Content response
func (ctx *EndpointContext) NoContent() error {
	return ctx.EchoCtx.NoContent(http.StatusNoContent)
}

// Get retrieves a value from the context by key
func (ctx *EndpointContext) Get(key string) any {
	return ctx.EchoCtx.Get(key)
}

// Set allows setting a value in the context
func (ctx *EndpointContext) Set(key string, value any) {
	ctx.EchoCtx.Set(key, value)
}

// GetUploadedFiles returns uploaded files for a specific field name
func (ctx *EndpointContext) GetUploadedFiles(fieldName string) []*UploadedFile {
	if ctx.UploadedFiles == nil {
		return nil
	}
	return ctx.UploadedFiles[fieldName]
}

// GetFirstUploadedFile returns the first uploaded file for a specific field name
func (ctx *EndpointContext) GetFirstUploadedFile(fieldName string) *UploadedFile {
	files := ctx.GetUploadedFiles(fieldName)
	if len(files) > 0 {
		return files[0]
	}
	return nil
}
