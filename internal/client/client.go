package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/kongcli/internal/http"
	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

var (
	_ kong.Client          = (*Client)(nil)
	_ kong.ConsumersClient = (*ConsumersClient)(nil)
	_ kong.PluginsClient   = (*PluginsClient)(nil)
)

// Client implements the kong.Client interface.
type Client struct {
	httpClient *http.Client
	cache      kong.Cache
	logger     kong.Logger

	consumers *ConsumersClient
	plugins   *PluginsClient
}

// New creates a gateway over an existing session. A nil cache disables
// memoization.
func New(httpClient *http.Client, cache kong.Cache, logger kong.Logger) *Client {
	if cache == nil {
		cache = kong.NewNoOpCache()
	}

	if logger == nil {
		logger = nopLogger{}
	}

	client := &Client{
		httpClient: httpClient,
		cache:      cache,
		logger:     logger,
	}

	client.consumers = NewConsumersClient(client)
	client.plugins = NewPluginsClient(client)

	return client
}

// NewFromConfig validates config and builds the session, cache and gateway.
func NewFromConfig(config *kong.Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	cache, err := kong.NewCacheFromConfig(config.CacheConfig())
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	return New(http.NewClient(config.URL, createHTTPClientOptions(config)...), cache, config.Logger), nil
}

func createHTTPClientOptions(config *kong.Config) []http.Option {
	opts := []http.Option{
		http.WithTimeout(config.Timeout),
		http.WithDebug(config.Debug),
	}

	if config.APIKey != "" {
		opts = append(opts, http.WithAPIKey(config.APIKey))
	}

	if config.Username != "" {
		opts = append(opts, http.WithBasicAuth(config.Username, config.Password))
	}

	if len(config.Headers) > 0 {
		opts = append(opts, http.WithHeaders(config.Headers))
	}

	if config.UserAgent != "" {
		opts = append(opts, http.WithUserAgent(config.UserAgent))
	}

	if config.Logger != nil {
		opts = append(opts, http.WithLogger(config.Logger))
	}

	return opts
}

// HTTPClient returns the underlying session.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Close releases the session.
func (c *Client) Close() {
	c.httpClient.Close()
}

// Consumers implements kong.Client.Consumers.
func (c *Client) Consumers() kong.ConsumersClient {
	return c.consumers
}

// Plugins implements kong.Client.Plugins.
func (c *Client) Plugins() kong.PluginsClient {
	return c.plugins
}

// ResetCache implements kong.Client.ResetCache.
func (c *Client) ResetCache() {
	c.cache.Reset()
}

// ListAll implements kong.Client.ListAll.
func (c *Client) ListAll(ctx context.Context, resource kong.Resource) ([]kong.Record, error) {
	if err := resource.Check(kong.OpList); err != nil {
		return nil, err
	}

	records, err := c.paginate(ctx, resource.Path(), false)
	if err != nil {
		return nil, kong.WrapContext(err, "listing %s", resource)
	}

	return records, nil
}

// AllOf implements kong.Client.AllOf.
func (c *Client) AllOf(ctx context.Context, resource kong.Resource) ([]kong.Record, error) {
	return kong.Memoize(c.cache, cacheKey(resource), func() ([]kong.Record, error) {
		return c.ListAll(ctx, resource)
	})
}

// Add implements kong.Client.Add.
func (c *Client) Add(ctx context.Context, resource kong.Resource, fields map[string]interface{}) (kong.Record, error) {
	if err := resource.Check(kong.OpAdd); err != nil {
		return nil, err
	}

	record, err := c.postRecord(ctx, resource.Path()+"/", fields)
	if err != nil {
		return nil, kong.WrapContext(err, "adding to %s", resource)
	}

	c.invalidate(resource)

	return record, nil
}

// Retrieve implements kong.Client.Retrieve.
func (c *Client) Retrieve(ctx context.Context, resource kong.Resource, idOrName string) (kong.Record, error) {
	if err := resource.Check(kong.OpRetrieve); err != nil {
		return nil, err
	}

	record, err := c.getRecord(ctx, itemPath(resource, idOrName))
	if err != nil {
		return nil, kong.WrapContext(err, "retrieving %s %s", resource, idOrName)
	}

	return record, nil
}

// Update implements kong.Client.Update.
func (c *Client) Update(ctx context.Context, resource kong.Resource, idOrName string, fields map[string]interface{}) (kong.Record, error) {
	if err := resource.Check(kong.OpUpdate); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Patch(ctx, itemPath(resource, idOrName), fields)
	if err != nil {
		return nil, kong.WrapContext(err, "updating %s %s", resource, idOrName)
	}

	c.invalidate(resource)

	record, err := decodeRecord(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", resource, err)
	}

	return record, nil
}

// Delete implements kong.Client.Delete.
func (c *Client) Delete(ctx context.Context, resource kong.Resource, idOrName string) error {
	if err := resource.Check(kong.OpDelete); err != nil {
		return err
	}

	if _, err := c.httpClient.Delete(ctx, itemPath(resource, idOrName)); err != nil {
		return kong.WrapContext(err, "deleting %s %s", resource, idOrName)
	}

	c.invalidate(resource)

	return nil
}

// GetAssociated implements kong.Client.GetAssociated.
func (c *Client) GetAssociated(ctx context.Context, resource kong.Resource, id, subresource string) ([]kong.Record, error) {
	if err := resource.Check(kong.OpAssociated); err != nil {
		return nil, err
	}

	records, err := c.paginate(ctx, itemPath(resource, id)+"/"+subresource, true)
	if err != nil {
		return nil, kong.WrapContext(err, "listing %s of %s %s", subresource, resource, id)
	}

	return records, nil
}

// Information implements kong.Client.Information.
func (c *Client) Information(ctx context.Context) (kong.Record, error) {
	record, err := c.getRecord(ctx, "/")
	if err != nil {
		return nil, kong.WrapContext(err, "getting node information")
	}

	return record, nil
}

// Status implements kong.Client.Status.
func (c *Client) Status(ctx context.Context) (kong.Record, error) {
	record, err := c.getRecord(ctx, "/status")
	if err != nil {
		return nil, kong.WrapContext(err, "getting node status")
	}

	return record, nil
}

func (c *Client) getRecord(ctx context.Context, path string) (kong.Record, error) {
	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	return decodeRecord(resp.Body)
}

func (c *Client) postRecord(ctx context.Context, path string, body interface{}) (kong.Record, error) {
	if body == nil {
		body = map[string]interface{}{}
	}

	resp, err := c.httpClient.Post(ctx, path, body)
	if err != nil {
		return nil, err
	}

	return decodeRecord(resp.Body)
}

func (c *Client) patchRecord(ctx context.Context, path string, body interface{}) (kong.Record, error) {
	resp, err := c.httpClient.Patch(ctx, path, body)
	if err != nil {
		return nil, err
	}

	return decodeRecord(resp.Body)
}

// invalidate evicts memoized listings a mutation of resource may have changed.
func (c *Client) invalidate(resources ...kong.Resource) {
	for _, resource := range resources {
		c.cache.Forget(cacheKey(resource))
	}
}

func cacheKey(resource kong.Resource) string {
	return "all_of:" + string(resource)
}

func itemPath(resource kong.Resource, idOrName string) string {
	return resource.Path() + "/" + url.PathEscape(idOrName)
}

func decodeRecord(body []byte) (kong.Record, error) {
	record := kong.Record{}
	if len(body) == 0 {
		return record, nil
	}

	if err := json.Unmarshal(body, &record); err != nil {
		return nil, err
	}

	return record, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}
