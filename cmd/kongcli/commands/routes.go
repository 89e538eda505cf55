package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/kongcli/internal/client"
	"github.com/fivetwenty-io/kongcli/internal/view"
	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

// NewRoutesCommand creates the routes command group.
func NewRoutesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "routes",
		Aliases: []string{"route"},
		Short:   "Manage routes",
		Long:    "List, add, retrieve, update and delete routes",
	}

	cmd.AddCommand(newRoutesListCommand())
	cmd.AddCommand(newRoutesAddCommand())
	cmd.AddCommand(newRoutesRetrieveCommand())
	cmd.AddCommand(newUpdateCommand(kong.Routes, "NAME_OR_ID"))
	cmd.AddCommand(newDeleteCommand(kong.Routes, "NAME_OR_ID"))

	return cmd
}

func newRoutesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List routes",
		Long:  "List all routes with their service, acl whitelist and plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				collections := make(map[kong.Resource][]kong.Record, 3) //nolint:mnd

				for _, resource := range []kong.Resource{kong.Routes, kong.Services, kong.Plugins} {
					records, err := gateway.AllOf(ctx, resource)
					if err != nil {
						return kong.WrapContext(err, "failed to list %s", resource)
					}

					collections[resource] = records
				}

				rows := view.RouteRows(collections[kong.Routes], collections[kong.Services], collections[kong.Plugins])

				return render(cmd, rows, view.RoutesTable(rows), "No routes found")
			})
		},
	}
}

func newRoutesAddCommand() *cobra.Command {
	var (
		service   string
		name      string
		protocols []string
		methods   []string
		hosts     []string
		paths     []string
		stripPath bool
		data      []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a route",
		Long:  "Add a route, optionally bound to a service. At least one of --hosts, --paths or --methods is required by the gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{}

			if name != "" {
				payload["name"] = name
			}

			lists := map[string][]string{"protocols": protocols, "methods": methods, "hosts": hosts, "paths": paths}
			for key, values := range lists {
				if len(values) > 0 {
					payload[key] = values
				}
			}

			if cmd.Flags().Changed("strip-path") {
				payload["strip_path"] = stripPath
			}

			payload, err := mergeData(payload, data)
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				if service != "" {
					// The admin API only accepts ids in the service reference.
					svc, err := gateway.Retrieve(ctx, kong.Services, service)
					if err != nil {
						return kong.WrapContext(err, "failed to resolve service %s", service)
					}

					payload["service"] = map[string]interface{}{"id": kong.StringField(svc, "id")}
				}

				route, err := gateway.Add(ctx, kong.Routes, payload)
				if err != nil {
					return kong.WrapContext(err, "failed to add route")
				}

				return renderRecord(cmd, route)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&service, "service", "", "name or id of the service the route belongs to")
	flags.StringVar(&name, "name", "", "the route name")
	flags.StringSliceVar(&protocols, "protocols", nil, "protocols the route accepts")
	flags.StringSliceVar(&methods, "methods", nil, "HTTP methods that match the route")
	flags.StringSliceVar(&hosts, "hosts", nil, "domain names that match the route")
	flags.StringSliceVar(&paths, "paths", nil, "paths that match the route")
	flags.BoolVar(&stripPath, "strip-path", true, "strip the matching prefix from the upstream request URL")
	addDataFlag(cmd, &data)

	return cmd
}

func newRoutesRetrieveCommand() *cobra.Command {
	var withPlugins bool

	cmd := &cobra.Command{
		Use:   "retrieve NAME_OR_ID",
		Short: "Retrieve a route",
		Long:  "Display a route and optionally its plugins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				route, err := gateway.Retrieve(ctx, kong.Routes, args[0])
				if err != nil {
					return kong.WrapContext(err, "failed to retrieve route %s", args[0])
				}

				sections := []section{{
					key:     "route",
					title:   "route",
					data:    route,
					table:   view.PropertiesTable(view.Prepare(route)),
					enabled: true,
				}}

				if withPlugins {
					s, err := associatedSection(ctx, gateway, kong.Routes, kong.StringField(route, "id"), "plugins", "id", "name", "enabled", "config")
					if err != nil {
						return err
					}

					sections = append(sections, s)
				}

				return renderSections(cmd, sections...)
			})
		},
	}

	cmd.Flags().BoolVar(&withPlugins, "plugins", false, "also show the plugins of the route")

	return cmd
}
