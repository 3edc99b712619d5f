package rest

import "github.com/talentbridge/placement-rest/http_errors"

type Count struct {
	Count int64 `json:"count"`
} // @name CountResponse

type Exists struct {
	Exists bool `json:"exists"`
} // @name ExistsResponse

// DataResponse is the stable envelope for successful responses, mirroring the
// error body's success field.
type DataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
} // @name DataResponse

func OK(data any) DataResponse {
	return DataResponse{Success: true, Data: data}
}

type ErrorResponse = http_errors.ErrorResponse

func NewErrorResponse(code int, message string, details ...any) *ErrorResponse {
	return http_errors.NewErrorResponse(code, message, details...)
}
