package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// Configuration locations.
const (
	// ConfigDirName is the directory under $HOME holding the config file.
	ConfigDirName = ".kongcli"

	// ConfigFileName is the config file name without extension.
	ConfigFileName = "config"

	// ConfigFileType is the config file format.
	ConfigFileType = "yml"

	// EnvPrefix prefixes environment variables read by viper.
	EnvPrefix = "KONG"

	// EnvBaseURL holds the admin API base URL.
	EnvBaseURL = "KONG_BASE"

	// EnvAPIKey holds the admin API key.
	EnvAPIKey = "KONG_APIKEY"
)

// HTTP and network settings.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "kongcli/dev"

	// APIKeyHeader carries the admin API key.
	APIKeyHeader = "apikey"

	// ContentTypeJSON is the media type of request and response bodies.
	ContentTypeJSON = "application/json"
)

// Cache settings.
const (
	// DefaultCacheSize bounds the result memoization cache.
	DefaultCacheSize = 32
)

// Output formats.
const (
	// FormatTable renders tables.
	FormatTable = "table"

	// FormatJSON renders indented JSON.
	FormatJSON = "json"

	// FormatYAML renders YAML.
	FormatYAML = "yaml"

	// JSONIndentSize is the indent used by JSON and YAML encoders.
	JSONIndentSize = 2
)

// Display settings.
const (
	// KeyPreviewLength is how many characters of a key-auth key are shown
	// unless full keys are requested.
	KeyPreviewLength = 6

	// MaskedPassword replaces basic-auth passwords in tables.
	MaskedPassword = "xxx"
)

// Service defaults used by services add.
const (
	// DefaultServiceRetries is the number of upstream retries.
	DefaultServiceRetries = 5

	// DefaultServiceTimeoutMillis is used for connect, read and write timeouts.
	DefaultServiceTimeoutMillis = 60000

	// DefaultServicePort is used when no port is given.
	DefaultServicePort = 80

	// DefaultServiceProtocol is used when no protocol is given.
	DefaultServiceProtocol = "http"
)

// Timestamp fields parsed for display.
const (
	// FieldCreatedAt is the creation timestamp field.
	FieldCreatedAt = "created_at"

	// FieldUpdatedAt is the update timestamp field.
	FieldUpdatedAt = "updated_at"
)
