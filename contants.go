package rest

type ResponseType string

const (
	ResponseTypeJSON      ResponseType = "json"
	ResponseTypeText      ResponseType = "text"
	ResponseTypeNoContent ResponseType = "no_content"
)

type EndpointMethod string

const (
	MethodGET    EndpointMethod = "Get"
	MethodPOST   EndpointMethod = "Post"
	MethodPUT    EndpointMethod = "Put"
	MethodPATCH  EndpointMethod = "Patch"
	MethodDELETE EndpointMethod = "Delete"
)

type ParamLocation string

const (
	InQuery ParamLocation = "query"
	InPath  ParamLocation = "path"
)

type PathParamType string

const (
	PathParamTypeString   PathParamType = "string"
	PathParamTypeInt      PathParamType = "int"
	PathParamTypeObjectID PathParamType = "objectid"
)

type QueryParamType string

const (
	QueryParamTypeString   QueryParamType = "string"
	QueryParamTypeInt      QueryParamType = "int"
	QueryParamTypeFloat    QueryParamType = "float"
	QueryParamTypeBool     QueryParamType = "bool"
	QueryParamTypeObjectID QueryParamType = "objectid"
	QueryParamTypeFilter   QueryParamType = "filter"
)

type ActionType string

const (
	ActionTypeRead   ActionType = "read"
	ActionTypeCreate ActionType = "create"
	ActionTypeUpdate ActionType = "update"
	ActionTypeDelete ActionType = "delete"
	ActionTypeLogin  ActionType = "login"
	ActionTypeApply  ActionType = "apply"
	ActionTypeUpload ActionType = "upload"
)
