package http_errors

// ErrorResponse is the stable JSON error body returned to clients. Success is
// always false so dashboards can branch on a single field.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	Details any    `json:"details,omitempty"` // Optional field for additional error details
} // @name ErrorResponse

func (e *ErrorResponse) Error() string {
	return e.Message
}

func NewErrorResponse(code int, message string, details ...any) *ErrorResponse {
	if len(details) > 0 {
		return &ErrorResponse{
			Message: message,
			Code:    code,
			Details: details[0], // Take the first detail if provided
		}
	}

	return &ErrorResponse{
		Message: message,
		Code:    code,
	}
}

func BadRequestError(message string, details ...any) *ErrorResponse {
	return NewErrorResponse(400, message, details...)
}

func BadRequestErrorWithCode(code string, message string) *ErrorResponse {
	return NewErrorResponse(400, message, map[string]string{"code": code})
}

func UnauthorizedError(message string, details ...any) *ErrorResponse {
	return NewErrorResponse(401, message, details...)
}

func ForbiddenError(message string, details ...any) *ErrorResponse {
	return NewErrorResponse(403, message, details...)
}

func NotFoundError(message string, details ...any) *ErrorResponse {
	return NewErrorResponse(404, message, details...)
}

func ConflictError(message string, details ...any) *ErrorResponse {
	return NewErrorResponse(409, message, details...)
}

func TooManyRequestsError(message string, details ...any) *ErrorResponse {
	return NewErrorResponse(429, message, details...)
}

func InternalServerError(message string, details ...any) *ErrorResponse {
	return NewErrorResponse(500, message, details...)
}

// Authentication/authorization taxonomy. Every constructor returns a distinct
// message so clients can tell the rejection cases apart without parsing codes.

func MissingTokenError() *ErrorResponse {
	return UnauthorizedError("Access token required")
}

func InvalidTokenError() *ErrorResponse {
	return UnauthorizedError("Invalid token. Please login again")
}

func ExpiredTokenError() *ErrorResponse {
	return UnauthorizedError("Token expired. Please login again")
}

func PrincipalNotFoundError() *ErrorResponse {
	return UnauthorizedError("Invalid token. User not found")
}

func UnauthenticatedError() *ErrorResponse {
	return UnauthorizedError("Authentication required")
}

func RoleForbiddenError(role string) *ErrorResponse {
	return ForbiddenError("Role '" + role + "' is not allowed to access this resource")
}

// RateLimitExceededError carries the retry hint in the details so the JSON
// body exposes a machine-readable retryAfter alongside the message.
func RateLimitExceededError(retryAfterSeconds int) *ErrorResponse {
	return TooManyRequestsError("Too many requests. Please try again later",
		map[string]int{"retryAfter": retryAfterSeconds})
}
