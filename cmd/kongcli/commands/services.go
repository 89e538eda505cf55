package commands

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/kongcli/internal/client"
	"github.com/fivetwenty-io/kongcli/internal/constants"
	"github.com/fivetwenty-io/kongcli/internal/view"
	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

// NewServicesCommand creates the services command group.
func NewServicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "services",
		Aliases: []string{"service", "svc"},
		Short:   "Manage services",
		Long:    "List, add, retrieve, update and delete upstream services",
	}

	cmd.AddCommand(newServicesListCommand())
	cmd.AddCommand(newServicesAddCommand())
	cmd.AddCommand(newServicesRetrieveCommand())
	cmd.AddCommand(newUpdateCommand(kong.Services, "NAME_OR_ID"))
	cmd.AddCommand(newDeleteCommand(kong.Services, "NAME_OR_ID"))

	return cmd
}

func newServicesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List services",
		Long:  "List all services with their acl whitelist and plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				services, err := gateway.AllOf(ctx, kong.Services)
				if err != nil {
					return kong.WrapContext(err, "failed to list services")
				}

				plugins, err := gateway.AllOf(ctx, kong.Plugins)
				if err != nil {
					return kong.WrapContext(err, "failed to list plugins")
				}

				rows := view.ServiceRows(services, plugins)

				return render(cmd, rows, view.ServicesTable(rows), "No services found")
			})
		},
	}
}

// serviceOptions are the typed flags of services add.
type serviceOptions struct {
	name           string
	protocol       string
	host           string
	port           int
	path           string
	retries        int
	connectTimeout int
	writeTimeout   int
	readTimeout    int
	url            string
	data           []string
}

// payload validates the options and builds the request body. The url
// shorthand excludes protocol, host, port and path; without it host is
// required.
func (o *serviceOptions) payload() (map[string]interface{}, error) {
	payload := map[string]interface{}{
		"retries":         o.retries,
		"connect_timeout": o.connectTimeout,
		"write_timeout":   o.writeTimeout,
		"read_timeout":    o.readTimeout,
	}

	if o.name != "" {
		payload["name"] = o.name
	}

	if o.url != "" {
		if o.protocol != "" || o.host != "" || o.port != 0 || o.path != "" {
			return nil, constants.ErrServiceURLConflict
		}

		parsed, err := url.Parse(o.url)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("%w: %s", constants.ErrInvalidServiceURL, o.url)
		}

		payload["url"] = o.url

		return mergeData(payload, o.data)
	}

	if o.host == "" {
		return nil, constants.ErrServiceHostRequired
	}

	payload["host"] = o.host

	if o.protocol != "" {
		payload["protocol"] = o.protocol
	}

	if o.port != 0 {
		payload["port"] = o.port
	}

	if o.path != "" {
		payload["path"] = o.path
	}

	return mergeData(payload, o.data)
}

func newServicesAddCommand() *cobra.Command {
	opts := &serviceOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a service",
		Long: `Add a service. Either give --service-url, a shorthand for protocol, host,
port and path, or at least --host.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := opts.payload()
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				service, err := gateway.Add(ctx, kong.Services, payload)
				if err != nil {
					return kong.WrapContext(err, "failed to add service")
				}

				return renderRecord(cmd, service)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.name, "name", "", "the service name")
	flags.StringVar(&opts.protocol, "protocol", "", "protocol used to talk to the upstream, http or https (gateway default "+constants.DefaultServiceProtocol+")")
	flags.StringVar(&opts.host, "host", "", "host of the upstream server")
	flags.IntVar(&opts.port, "port", 0, fmt.Sprintf("upstream server port (gateway default %d)", constants.DefaultServicePort))
	flags.StringVar(&opts.path, "path", "", "path used in requests to the upstream server")
	flags.IntVar(&opts.retries, "retries", constants.DefaultServiceRetries, "number of retries upon failure to proxy")
	flags.IntVar(&opts.connectTimeout, "connect-timeout", constants.DefaultServiceTimeoutMillis, "connect timeout in milliseconds")
	flags.IntVar(&opts.writeTimeout, "write-timeout", constants.DefaultServiceTimeoutMillis, "write timeout in milliseconds")
	flags.IntVar(&opts.readTimeout, "read-timeout", constants.DefaultServiceTimeoutMillis, "read timeout in milliseconds")
	flags.StringVar(&opts.url, "service-url", "", "shorthand to set protocol, host, port and path at once")
	addDataFlag(cmd, &opts.data)

	return cmd
}

func newServicesRetrieveCommand() *cobra.Command {
	var withPlugins, withRoutes bool

	cmd := &cobra.Command{
		Use:   "retrieve NAME_OR_ID",
		Short: "Retrieve a service",
		Long:  "Display a service and optionally its plugins and routes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				service, err := gateway.Retrieve(ctx, kong.Services, args[0])
				if err != nil {
					return kong.WrapContext(err, "failed to retrieve service %s", args[0])
				}

				sections := []section{{
					key:     "service",
					title:   "service",
					data:    service,
					table:   view.PropertiesTable(view.Prepare(service)),
					enabled: true,
				}}

				id := kong.StringField(service, "id")

				if withPlugins {
					s, err := associatedSection(ctx, gateway, kong.Services, id, "plugins", "id", "name", "enabled", "config")
					if err != nil {
						return err
					}

					sections = append(sections, s)
				}

				if withRoutes {
					s, err := associatedSection(ctx, gateway, kong.Services, id, "routes", "id", "name", "protocols", "hosts", "paths")
					if err != nil {
						return err
					}

					sections = append(sections, s)
				}

				return renderSections(cmd, sections...)
			})
		},
	}

	cmd.Flags().BoolVar(&withPlugins, "plugins", false, "also show the plugins of the service")
	cmd.Flags().BoolVar(&withRoutes, "routes", false, "also show the routes of the service")

	return cmd
}

// associatedSection lists a nested collection as an output section.
func associatedSection(ctx context.Context, gateway kong.Client, resource kong.Resource, id, sub string, columns ...string) (section, error) {
	records, err := gateway.GetAssociated(ctx, resource, id, sub)
	if err != nil {
		return section{}, kong.WrapContext(err, "failed to list %s of %s %s", sub, singularNoun(resource), id)
	}

	return section{
		key:     sub,
		title:   sub,
		data:    records,
		table:   view.RecordsTable(view.PrepareAll(records), columns...),
		empty:   "None",
		enabled: true,
	}, nil
}
