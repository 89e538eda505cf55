package kongclient

import (
	"fmt"
	"strings"

	"github.com/fivetwenty-io/kongcli/internal/client"
	"github.com/fivetwenty-io/kongcli/internal/constants"
	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

// New creates a new admin API client from config. config is normalized in
// place: the URL gets a scheme and loses its trailing slashes, and a zero
// timeout or cache size takes the default.
func New(config *kong.Config) (kong.Client, error) {
	if config == nil {
		return nil, kong.ErrConfigRequired
	}

	config.URL = normalizeEndpoint(config.URL)

	if config.Timeout == 0 {
		config.Timeout = constants.DefaultHTTPTimeout
	}

	if config.CacheSize == 0 {
		config.CacheSize = constants.DefaultCacheSize
	}

	if config.UserAgent == "" {
		config.UserAgent = constants.DefaultUserAgent
	}

	gateway, err := client.NewFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return gateway, nil
}

func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return ""
	}

	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "http://" + endpoint
	}

	return endpoint
}

// NewWithEndpoint creates a new client with just an admin API address (no auth).
func NewWithEndpoint(endpoint string) (kong.Client, error) {
	return New(&kong.Config{URL: endpoint})
}

// NewWithAPIKey creates a new client sending key as the apikey header.
func NewWithAPIKey(endpoint, key string) (kong.Client, error) {
	return New(&kong.Config{URL: endpoint, APIKey: key})
}

// NewWithBasicAuth creates a new client using HTTP basic authentication.
func NewWithBasicAuth(endpoint, username, password string) (kong.Client, error) {
	return New(&kong.Config{URL: endpoint, Username: username, Password: password})
}
