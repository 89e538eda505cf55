package constants

import "errors"

// Configuration errors.
var (
	ErrNoBaseURL           = errors.New("no admin API URL configured, use --url or KONG_BASE")
	ErrPasswordPromptTTY   = errors.New("basic auth password must be given when stdin is not a terminal")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrUnsupportedFormat   = errors.New("unsupported output format")
	ErrInvalidServiceURL   = errors.New("invalid service url")
	ErrServiceURLConflict  = errors.New("--service-url cannot be combined with --protocol, --host, --port or --path")
	ErrServiceHostRequired = errors.New("--host is required unless --service-url is given")
)

// Validation errors.
var (
	ErrInvalidUUID       = errors.New("value is not a valid UUID")
	ErrInvalidHeader     = errors.New("expected header in 'Name: value' form")
	ErrInvalidMethod     = errors.New("unsupported HTTP method")
	ErrNothingToUpdate   = errors.New("nothing to update, pass at least one field")
	ErrMultipleTargets   = errors.New("only one of --service, --route or --consumer may be given")
	ErrACLGroupsRequired = errors.New("one of --allow or --deny has to be set")
	ErrACLGroupsConflict = errors.New("only one of --allow or --deny may be set")
)
