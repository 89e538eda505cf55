package client

import (
	"context"
	"net/url"

	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

// Consumer credential collections. The nested paths are singular.
const (
	consumerACLs       = "acls"
	consumerBasicAuth  = "basic-auth"
	consumerKeyAuth    = "key-auth"
	consumerPluginsSub = "plugins"
)

// ConsumersClient implements kong.ConsumersClient.
type ConsumersClient struct {
	gateway *Client
}

// NewConsumersClient creates a new consumers client.
func NewConsumersClient(gateway *Client) *ConsumersClient {
	return &ConsumersClient{
		gateway: gateway,
	}
}

func consumerPath(consumer, sub string, id ...string) string {
	path := itemPath(kong.Consumers, consumer) + "/" + sub
	for _, part := range id {
		path += "/" + url.PathEscape(part)
	}

	return path
}

// Groups implements kong.ConsumersClient.Groups.
func (c *ConsumersClient) Groups(ctx context.Context, consumer string) ([]kong.Record, error) {
	return c.gateway.GetAssociated(ctx, kong.Consumers, consumer, consumerACLs)
}

// AddGroup implements kong.ConsumersClient.AddGroup.
func (c *ConsumersClient) AddGroup(ctx context.Context, consumer, group string) (kong.Record, error) {
	record, err := c.gateway.postRecord(ctx, consumerPath(consumer, consumerACLs), map[string]interface{}{"group": group})
	if err != nil {
		return nil, kong.WrapContext(err, "adding group %s to consumer %s", group, consumer)
	}

	c.gateway.invalidate(kong.ACLs)

	return record, nil
}

// DeleteGroup implements kong.ConsumersClient.DeleteGroup.
func (c *ConsumersClient) DeleteGroup(ctx context.Context, consumer, groupID string) error {
	if _, err := c.gateway.httpClient.Delete(ctx, consumerPath(consumer, consumerACLs, groupID)); err != nil {
		return kong.WrapContext(err, "deleting group %s of consumer %s", groupID, consumer)
	}

	c.gateway.invalidate(kong.ACLs)

	return nil
}

// BasicAuths implements kong.ConsumersClient.BasicAuths.
func (c *ConsumersClient) BasicAuths(ctx context.Context, consumer string) ([]kong.Record, error) {
	return c.gateway.GetAssociated(ctx, kong.Consumers, consumer, consumerBasicAuth)
}

// AddBasicAuth implements kong.ConsumersClient.AddBasicAuth.
func (c *ConsumersClient) AddBasicAuth(ctx context.Context, consumer, username, password string) (kong.Record, error) {
	payload := map[string]interface{}{
		"username": username,
		"password": password,
	}

	record, err := c.gateway.postRecord(ctx, consumerPath(consumer, consumerBasicAuth), payload)
	if err != nil {
		return nil, kong.WrapContext(err, "adding basic auth to consumer %s", consumer)
	}

	c.gateway.invalidate(kong.BasicAuths)

	return record, nil
}

// UpdateBasicAuth implements kong.ConsumersClient.UpdateBasicAuth.
// Empty arguments are left unchanged; at least one must be set.
func (c *ConsumersClient) UpdateBasicAuth(ctx context.Context, consumer, id, username, password string) (kong.Record, error) {
	payload := map[string]interface{}{}
	if username != "" {
		payload["username"] = username
	}

	if password != "" {
		payload["password"] = password
	}

	if len(payload) == 0 {
		return nil, kong.ErrMissingCredentialFields
	}

	record, err := c.gateway.patchRecord(ctx, consumerPath(consumer, consumerBasicAuth, id), payload)
	if err != nil {
		return nil, kong.WrapContext(err, "updating basic auth %s of consumer %s", id, consumer)
	}

	c.gateway.invalidate(kong.BasicAuths)

	return record, nil
}

// DeleteBasicAuth implements kong.ConsumersClient.DeleteBasicAuth.
func (c *ConsumersClient) DeleteBasicAuth(ctx context.Context, consumer, id string) error {
	if _, err := c.gateway.httpClient.Delete(ctx, consumerPath(consumer, consumerBasicAuth, id)); err != nil {
		return kong.WrapContext(err, "deleting basic auth %s of consumer %s", id, consumer)
	}

	c.gateway.invalidate(kong.BasicAuths)

	return nil
}

// KeyAuths implements kong.ConsumersClient.KeyAuths.
func (c *ConsumersClient) KeyAuths(ctx context.Context, consumer string) ([]kong.Record, error) {
	return c.gateway.GetAssociated(ctx, kong.Consumers, consumer, consumerKeyAuth)
}

// AddKeyAuth implements kong.ConsumersClient.AddKeyAuth.
// An empty key lets the gateway generate one.
func (c *ConsumersClient) AddKeyAuth(ctx context.Context, consumer, key string) (kong.Record, error) {
	payload := map[string]interface{}{}
	if key != "" {
		payload["key"] = key
	}

	record, err := c.gateway.postRecord(ctx, consumerPath(consumer, consumerKeyAuth), payload)
	if err != nil {
		return nil, kong.WrapContext(err, "adding key auth to consumer %s", consumer)
	}

	c.gateway.invalidate(kong.KeyAuths)

	return record, nil
}

// UpdateKeyAuth implements kong.ConsumersClient.UpdateKeyAuth.
func (c *ConsumersClient) UpdateKeyAuth(ctx context.Context, consumer, id, key string) (kong.Record, error) {
	payload := map[string]interface{}{}
	if key != "" {
		payload["key"] = key
	}

	record, err := c.gateway.patchRecord(ctx, consumerPath(consumer, consumerKeyAuth, id), payload)
	if err != nil {
		return nil, kong.WrapContext(err, "updating key auth %s of consumer %s", id, consumer)
	}

	c.gateway.invalidate(kong.KeyAuths)

	return record, nil
}

// DeleteKeyAuth implements kong.ConsumersClient.DeleteKeyAuth.
func (c *ConsumersClient) DeleteKeyAuth(ctx context.Context, consumer, id string) error {
	if _, err := c.gateway.httpClient.Delete(ctx, consumerPath(consumer, consumerKeyAuth, id)); err != nil {
		return kong.WrapContext(err, "deleting key auth %s of consumer %s", id, consumer)
	}

	c.gateway.invalidate(kong.KeyAuths)

	return nil
}

// Plugins implements kong.ConsumersClient.Plugins.
func (c *ConsumersClient) Plugins(ctx context.Context, consumer string) ([]kong.Record, error) {
	return c.gateway.GetAssociated(ctx, kong.Consumers, consumer, consumerPluginsSub)
}
