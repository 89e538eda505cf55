package kong

import (
	"context"
)

// Client is the resource gateway: generic CRUD over the admin API
// collections plus the consumer and plugin helpers built on top of it.
type Client interface {
	// ListAll fetches every page of a collection.
	ListAll(ctx context.Context, resource Resource) ([]Record, error)
	// AllOf is ListAll memoized per resource for the client's lifetime.
	AllOf(ctx context.Context, resource Resource) ([]Record, error)
	Add(ctx context.Context, resource Resource, fields map[string]interface{}) (Record, error)
	Retrieve(ctx context.Context, resource Resource, idOrName string) (Record, error)
	Update(ctx context.Context, resource Resource, idOrName string, fields map[string]interface{}) (Record, error)
	Delete(ctx context.Context, resource Resource, idOrName string) error
	// GetAssociated lists a nested collection such as /services/{id}/routes.
	GetAssociated(ctx context.Context, resource Resource, id, subresource string) ([]Record, error)

	// Information returns the node information served at "/".
	Information(ctx context.Context) (Record, error)
	// Status returns the node status served at "/status".
	Status(ctx context.Context) (Record, error)

	Consumers() ConsumersClient
	Plugins() PluginsClient

	// ResetCache drops every memoized result.
	ResetCache()
}

// ConsumersClient manages credentials and groups attached to a consumer.
type ConsumersClient interface {
	Groups(ctx context.Context, consumer string) ([]Record, error)
	AddGroup(ctx context.Context, consumer, group string) (Record, error)
	DeleteGroup(ctx context.Context, consumer, groupID string) error

	BasicAuths(ctx context.Context, consumer string) ([]Record, error)
	AddBasicAuth(ctx context.Context, consumer, username, password string) (Record, error)
	UpdateBasicAuth(ctx context.Context, consumer, id, username, password string) (Record, error)
	DeleteBasicAuth(ctx context.Context, consumer, id string) error

	KeyAuths(ctx context.Context, consumer string) ([]Record, error)
	AddKeyAuth(ctx context.Context, consumer, key string) (Record, error)
	UpdateKeyAuth(ctx context.Context, consumer, id, key string) (Record, error)
	DeleteKeyAuth(ctx context.Context, consumer, id string) error

	Plugins(ctx context.Context, consumer string) ([]Record, error)
}

// PluginsClient covers plugin schemas and plugin activation.
type PluginsClient interface {
	Schema(ctx context.Context, name string) (Record, error)
	EnableOn(ctx context.Context, resource Resource, id, name string, payload map[string]interface{}) (Record, error)
	EnableGlobal(ctx context.Context, name string, payload map[string]interface{}) (Record, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}
