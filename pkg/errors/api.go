// pkg/errors/api.go
package errors

// API error codes used by the admission processor's HTTP surface.
const (
	// APIErrBadRequest indicates a malformed request body
	APIErrBadRequest = "API_BAD_REQUEST"
	// APIErrValidation indicates a request failed semantic validation
	APIErrValidation = "API_VALIDATION"
	// APIErrNotFound indicates a resource was not found
	APIErrNotFound = "API_NOT_FOUND"
)

// API domain name
const APIDomain = "api"

// NewAPIError creates a new API error
func NewAPIError(code string, message string, err error) error {
	return &Error{
		Domain:   APIDomain,
		Code:     code,
		Message:  message,
		Original: err,
	}
}

// HTTPStatusFromAPIError returns the HTTP status code for an API error
func HTTPStatusFromAPIError(err error) int {
	var domainErr *Error
	if !As(err, &domainErr) || domainErr.Domain != APIDomain {
		return 500 // Internal Server Error
	}

	switch domainErr.Code {
	case APIErrBadRequest, APIErrValidation:
		return 400 // Bad Request
	case APIErrNotFound:
		return 404 // Not Found
	default:
		return 500 // Internal Server Error
	}
}
