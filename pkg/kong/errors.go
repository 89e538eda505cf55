package kong

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is returned when the admin API answers outside the 2xx range.
type HTTPError struct {
	StatusCode int    `json:"status" yaml:"status"`
	Reason     string `json:"reason" yaml:"reason"`
	Body       string `json:"body"   yaml:"body"`
}

// Error implements the error interface.
// The format is "{code} {reason}: {body}" with the body verbatim.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Reason, e.Body)
}

// NewHTTPError builds an HTTPError, filling in the reason phrase when empty.
func NewHTTPError(status int, reason string, body []byte) *HTTPError {
	if reason == "" {
		reason = http.StatusText(status)
	}

	return &HTTPError{StatusCode: status, Reason: reason, Body: string(body)}
}

// Static errors for err113 compliance.
var (
	ErrUnknownResource         = errors.New("unknown resource")
	ErrUnsupportedOperation    = errors.New("operation not supported for resource")
	ErrUnexpectedContentType   = errors.New("response is not JSON")
	ErrKeyNotObject            = errors.New("key is not an object")
	ErrKeyAlreadyAssigned      = errors.New("key already assigned")
	ErrEmptyKey                = errors.New("empty key")
	ErrInvalidPair             = errors.New("expected key=value")
	ErrUnsupportedCacheType    = errors.New("unsupported cache type")
	ErrCacheTypeMismatch       = errors.New("cached value has unexpected type")
	ErrMissingCredentialFields = errors.New("at least one of username or password is required")
	ErrUnsupportedPluginTarget = errors.New("plugins can only be enabled on consumers, services or routes")
	ErrConfigRequired          = errors.New("config is required")
	ErrInvalidListData         = errors.New("list data is neither an array nor an empty object")
)

// WrapContext adds context to err like fmt.Errorf(format+": %w"). An admin
// API status error is returned as the bare *HTTPError so its message stays
// "{code} {reason}: {body}".
func WrapContext(err error, format string, args ...interface{}) error {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	return fmt.Errorf(format+": %w", append(args, err)...)
}

// IsStatus reports whether err carries an HTTPError with the given status.
func IsStatus(err error, status int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == status
	}

	return false
}

// IsNotFound checks if the error is a 404 from the admin API.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// IsConflict checks if the error is a 409 from the admin API.
func IsConflict(err error) bool {
	return IsStatus(err, http.StatusConflict)
}
