package kong

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config represents the settings needed to open a session against an
// admin API.
//
// # Authentication
//
// APIKey is sent as the "apikey" header on every request. Username and
// Password, when set, add HTTP basic credentials. Both may be used at the
// same time, e.g. when the admin API sits behind a key-auth protected
// loopback service and a basic-auth proxy.
type Config struct {
	// URL is the admin API base, trailing slashes are ignored.
	URL string `json:"url" mapstructure:"url" validate:"required,url" yaml:"url"`
	// APIKey is sent as the apikey header when non-empty.
	APIKey string `json:"-" mapstructure:"apikey" yaml:"-"`
	// Username and Password enable HTTP basic authentication.
	Username string `json:"username,omitempty" mapstructure:"username" validate:"required_with=Password" yaml:"username,omitempty"`
	Password string `json:"-" mapstructure:"password" yaml:"-"`
	// Headers are added to every request.
	Headers map[string]string `json:"headers,omitempty" mapstructure:"headers" yaml:"headers,omitempty"`
	// Timeout bounds each HTTP request.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout" validate:"gte=0" yaml:"timeout"`
	// UserAgent overrides the default User-Agent header.
	UserAgent string `json:"user_agent,omitempty" mapstructure:"user_agent" yaml:"user_agent,omitempty"`
	// Output is the rendering format of the command line.
	Output string `json:"output" mapstructure:"output" validate:"omitempty,oneof=table json yaml" yaml:"output"`
	// CacheSize bounds the result memoization cache.
	CacheSize int `json:"cache_size" mapstructure:"cache_size" validate:"gte=0" yaml:"cache_size"`
	// NoCache disables result memoization.
	NoCache bool `json:"no_cache" mapstructure:"no_cache" yaml:"no_cache"`
	// Debug enables request/response logging when a Logger is provided.
	Debug bool `json:"-" mapstructure:"verbose" yaml:"-"`
	// Logger is an optional structured logger used by the HTTP layer.
	Logger Logger `json:"-" mapstructure:"-" yaml:"-"`
}

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration and reports every failing field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, describeField(fe))
	}

	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(messages, "; "))
}

func describeField(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "url":
		return fmt.Sprintf("%s %q is not a valid URL", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "required_with":
		return fmt.Sprintf("%s is required when %s is set", field, strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// CacheConfig returns the cache settings derived from c.
func (c *Config) CacheConfig() *CacheConfig {
	cacheType := CacheTypeMemory
	if c.NoCache {
		cacheType = CacheTypeNone
	}

	return &CacheConfig{Type: cacheType, MaxSize: c.CacheSize}
}
