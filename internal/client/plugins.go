package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

// PluginsClient implements kong.PluginsClient.
type PluginsClient struct {
	gateway *Client
}

// NewPluginsClient creates a new plugins client.
func NewPluginsClient(gateway *Client) *PluginsClient {
	return &PluginsClient{
		gateway: gateway,
	}
}

// Schema implements kong.PluginsClient.Schema.
func (c *PluginsClient) Schema(ctx context.Context, name string) (kong.Record, error) {
	record, err := c.gateway.getRecord(ctx, "/plugins/schema/"+url.PathEscape(name))
	if err != nil {
		return nil, kong.WrapContext(err, "getting schema of plugin %s", name)
	}

	return record, nil
}

// EnableOn implements kong.PluginsClient.EnableOn.
func (c *PluginsClient) EnableOn(ctx context.Context, resource kong.Resource, id, name string, payload map[string]interface{}) (kong.Record, error) {
	switch resource {
	case kong.Consumers, kong.Services, kong.Routes:
	default:
		return nil, fmt.Errorf("%w: %s", kong.ErrUnsupportedPluginTarget, resource)
	}

	record, err := c.gateway.postRecord(ctx, itemPath(resource, id)+"/plugins", withName(payload, name))
	if err != nil {
		return nil, kong.WrapContext(err, "enabling plugin %s on %s %s", name, resource, id)
	}

	c.gateway.invalidate(kong.Plugins)

	return record, nil
}

// EnableGlobal implements kong.PluginsClient.EnableGlobal.
func (c *PluginsClient) EnableGlobal(ctx context.Context, name string, payload map[string]interface{}) (kong.Record, error) {
	return c.gateway.Add(ctx, kong.Plugins, withName(payload, name))
}

// withName returns a copy of payload with "name" set.
func withName(payload map[string]interface{}, name string) map[string]interface{} {
	out := make(map[string]interface{}, len(payload)+1)
	for key, value := range payload {
		out[key] = value
	}

	out["name"] = name

	return out
}
