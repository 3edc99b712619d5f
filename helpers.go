package rest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/talentbridge/placement-rest/database"
	"github.com/talentbridge/placement-rest/http_errors"
)

func parseBody(e *Endpoint, ec *EndpointContext) error {
	if e.Method != MethodPOST && e.Method != MethodPUT && e.Method != MethodPATCH {
		return nil
	}

	if e.BodyParams == nil {
		return nil
	}

	form := e.BodyParams()
	if form == nil {
		return http_errors.BadRequestError("Request body cannot be nil")
	}

	// Multipart bodies are only accepted on endpoints configured for uploads;
	// everything else binds JSON.
	contentType := ec.EchoCtx.Request().Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") && e.FileUploadConfig == nil {
		return http_errors.BadRequestError("This endpoint does not accept multipart bodies")
	}

	if err := ec.EchoCtx.Bind(form); err != nil {
		return http_errors.BadRequestError("Failed to bind request body", err.Error())
	}

	if err := ec.NormalizeStruct(form); err != nil {
		return http_errors.BadRequestError("Failed to normalize request body", err.Error())
	}

	if err := ec.SanitizeStruct(form); err != nil {
		return http_errors.BadRequestError("Failed to sanitize request body", err.Error())
	}

	if err := validateBody(ec, form); err != nil {
		var errResponse *http_errors.ErrorResponse
		if errors.As(err, &errResponse) {
			return errResponse
		}
		return http_errors.BadRequestError("Failed to validate request body", getFriendlyValidationErrors(err))
	}

	ec.ParsedBody = form
	return nil
}

func validateBody(ec *EndpointContext, form Validable) error {
	if err := ec.ValidateStruct(form); err != nil {
		return err
	}

	return form.Validate(ec)
}

func parseAllParams(e *Endpoint, ec *EndpointContext) error {
	ec.ParsedQuery = make(map[string]any)
	ec.ParsedPath = make(map[string]any)

	for _, param := range e.Accepts {
		val, err := parseParam(ec, param)
		if err != nil {
			return err
		}

		switch param.in {
		case InQuery:
			ec.ParsedQuery[param.name] = val
		case InPath:
			ec.ParsedPath[param.name] = val
		}
	}

	return nil
}

func parseParam(ctx *EndpointContext, param Param) (any, error) {
	var raw string

	switch param.in {
	case InQuery:
		raw = ctx.EchoCtx.QueryParam(param.name)
	case InPath:
		raw = ctx.EchoCtx.Param(param.name)
	}

	if raw == "" {
		if param.required {
			return nil, http_errors.BadRequestError("Missing parameter", fmt.Sprintf("Parameter %s is required", param.name))
		}
		if param.paramType != string(QueryParamTypeBool) {
			return nil, nil
		}
	}

	if param.Parser != nil {
		val, err := param.Parser(raw)
		if err != nil {
			return nil, http_errors.BadRequestError("Invalid parameter", fmt.Sprintf("Parameter %s is invalid: %s", param.name, err.Error()))
		}
		return val, nil
	}

	switch param.paramType {
	case string(QueryParamTypeString):
		return raw, nil
	case string(QueryParamTypeInt):
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, http_errors.BadRequestError("Invalid parameter", "Parameter "+param.name+" must be an integer")
		}
		return value, nil
	case string(QueryParamTypeFloat):
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, http_errors.BadRequestError("Invalid parameter", "Parameter "+param.name+" must be a float")
		}
		return value, nil
	case string(QueryParamTypeBool):
		if raw == "" {
			// ?param without a value means true when the key is present.
			_, exists := ctx.EchoCtx.QueryParams()[param.name]
			return exists, nil
		}
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, http_errors.BadRequestError("Invalid parameter", "Parameter "+param.name+" must be a boolean")
		}
		return value, nil
	case string(QueryParamTypeObjectID):
		oid, err := bson.ObjectIDFromHex(raw)
		if err != nil {
			return nil, http_errors.BadRequestError("Invalid parameter", "Parameter "+param.name+" must be a valid ObjectID")
		}
		return oid, nil
	case string(QueryParamTypeFilter):
		filter, err := database.ParseFilter(raw)
		if err != nil {
			return nil, http_errors.BadRequestError("Invalid filter", "Parameter "+param.name+" must be a valid filter: "+err.Error())
		}
		return filter, nil
	default:
		return nil, http_errors.BadRequestError("Invalid parameter type", "Parameter "+param.name+" has an invalid type")
	}
}

func getFriendlyValidationErrors(err error) map[string]string {
	friendlyErrors := map[string]string{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, e := range ve {
			message := getErrorMessage(e.Tag(), e.Kind().String(), e.Param())
			if message == "" {
				message = "This field is invalid"
			}
			friendlyErrors[e.Field()] = message
		}
	} else {
		friendlyErrors["error"] = err.Error()
	}

	return friendlyErrors
}

func getErrorMessage(tag string, kind string, param string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "max":
		if kind == "String" || kind == "Slice" || kind == "Array" {
			return "This field must have a maximum length of " + param
		}
		return "This field must be less than " + param
	case "min":
		if kind == "String" || kind == "Slice" || kind == "Array" {
			return "This field must have a minimum length of " + param
		}
		return "This field must be greater than " + param
	case "lte":
		return "This field must be less than or equal to " + param
	case "gte":
		return "This field must be greater than or equal to " + param
	case "email":
		return "This field must be a valid email"
	case "url":
		return "This field must be a valid URL"
	case "oneof":
		return "This field must be one of: " + param
	default:
		return ""
	}
}
