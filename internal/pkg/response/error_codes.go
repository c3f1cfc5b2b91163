package response

import "net/http"

// ErrorCode is a machine-readable error classification shared with clients.
type ErrorCode int

const (
	ErrUnauthenticated      ErrorCode = 1001
	ErrUnauthorized         ErrorCode = 1002
	ErrNotFound             ErrorCode = 2001
	ErrInvalidInput         ErrorCode = 3002
	ErrServerError          ErrorCode = 5001
	ErrExternalService      ErrorCode = 5003
	ErrAppUpdateRequired    ErrorCode = 9001
	ErrAppVersionDeprecated ErrorCode = 9002
)

type errorCodeInfo struct {
	name    string
	message string
	status  int
}

var errorCodes = map[ErrorCode]errorCodeInfo{
	ErrUnauthenticated:      {"UNAUTHENTICATED", "Authentication required", http.StatusUnauthorized},
	ErrUnauthorized:         {"UNAUTHORIZED", "Access denied", http.StatusForbidden},
	ErrNotFound:             {"NOT_FOUND", "Resource not found", http.StatusNotFound},
	ErrInvalidInput:         {"INVALID_INPUT", "Invalid input", http.StatusBadRequest},
	ErrServerError:          {"SERVER_ERROR", "Server error", http.StatusInternalServerError},
	ErrExternalService:      {"EXTERNAL_SERVICE_ERROR", "External service error", http.StatusInternalServerError},
	ErrAppUpdateRequired:    {"APP_UPDATE_REQUIRED", "App update required", http.StatusUpgradeRequired},
	ErrAppVersionDeprecated: {"APP_VERSION_DEPRECATED", "App version deprecated", http.StatusUpgradeRequired},
}

func (c ErrorCode) info() errorCodeInfo {
	if info, ok := errorCodes[c]; ok {
		return info
	}
	return errorCodes[ErrServerError]
}

// Name returns the symbolic name, e.g. "APP_UPDATE_REQUIRED".
func (c ErrorCode) Name() string { return c.info().name }

// Message returns the default English message.
func (c ErrorCode) Message() string { return c.info().message }

// HTTPStatus returns the status code the error is sent with.
func (c ErrorCode) HTTPStatus() int { return c.info().status }
