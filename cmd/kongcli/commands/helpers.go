package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/kongcli/internal/client"
	"github.com/fivetwenty-io/kongcli/internal/constants"
	"github.com/fivetwenty-io/kongcli/internal/logging"
	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

const dataFlag = "data"

// userAgent is set from the build version by NewVersionCommand.
var userAgent = constants.DefaultUserAgent

// loadClientConfig builds the session settings from flags, environment and
// the config file.
func loadClientConfig() (*kong.Config, error) {
	baseURL := strings.TrimSpace(viper.GetString("url"))
	if baseURL == "" {
		return nil, constants.ErrNoBaseURL
	}

	timeout := viper.GetDuration("timeout")
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}

	config := &kong.Config{
		URL:       baseURL,
		APIKey:    viper.GetString("apikey"),
		Headers:   viper.GetStringMapString("headers"),
		Timeout:   timeout,
		UserAgent: userAgent,
		Output:    viper.GetString("output"),
		CacheSize: viper.GetInt("cache-size"),
		NoCache:   viper.GetBool("no-cache"),
		Debug:     viper.GetBool("verbose"),
	}

	if credentials := viper.GetString("basic-auth"); credentials != "" {
		username, password, err := splitCredentials(credentials)
		if err != nil {
			return nil, err
		}

		config.Username = username
		config.Password = password
	}

	return config, nil
}

// splitCredentials parses "user[:password]". Without a password it is read
// from the terminal.
func splitCredentials(credentials string) (string, string, error) {
	username, password, ok := strings.Cut(credentials, ":")
	if ok {
		return username, password, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", "", constants.ErrPasswordPromptTTY
	}

	fmt.Fprintf(os.Stderr, "Password for %s: ", username)

	raw, err := term.ReadPassword(fd)

	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}

	return username, string(raw), nil
}

// CreateClient opens a gateway from the current configuration.
func CreateClient() (*client.Client, error) {
	config, err := loadClientConfig()
	if err != nil {
		return nil, err
	}

	config.Logger = logging.NewAdapter(logging.MustNew(config.Debug))

	gateway, err := client.NewFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return gateway, nil
}

// withClient opens a gateway, runs fn and releases the session.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, gateway *client.Client) error) error {
	gateway, err := CreateClient()
	if err != nil {
		return err
	}
	defer gateway.Close()

	return fn(commandContext(cmd), gateway)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

// parseData turns repeated -d key=value flags into a nested payload.
func parseData(entries []string) (map[string]interface{}, error) {
	pairs, err := kong.ParsePairs(entries)
	if err != nil {
		return nil, err
	}

	payload, err := kong.FromDotted(pairs)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}

	return payload, nil
}

// mergeData applies dotted data on top of a payload built from typed flags.
// Explicit -d entries win over flag values.
func mergeData(payload map[string]interface{}, entries []string) (map[string]interface{}, error) {
	data, err := parseData(entries)
	if err != nil {
		return nil, err
	}

	deepMerge(payload, data)

	return payload, nil
}

func deepMerge(dst, src map[string]interface{}) {
	for key, value := range src {
		if sub, ok := value.(map[string]interface{}); ok {
			if existing, ok := dst[key].(map[string]interface{}); ok {
				deepMerge(existing, sub)

				continue
			}
		}

		dst[key] = value
	}
}

// validateUUID checks that value is a UUID, as consumer and plugin ids are.
func validateUUID(name, value string) error {
	if _, err := uuid.Parse(value); err != nil {
		return fmt.Errorf("%s %q: %w", name, value, constants.ErrInvalidUUID)
	}

	return nil
}

func addDataFlag(cmd *cobra.Command, data *[]string) {
	cmd.Flags().StringArrayVarP(data, dataFlag, "d", nil,
		"add key=value data to the payload, keys are split on dots and values parsed as JSON when possible")
}
