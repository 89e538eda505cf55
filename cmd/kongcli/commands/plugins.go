package commands

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-version"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/kongcli/internal/client"
	"github.com/fivetwenty-io/kongcli/internal/constants"
	"github.com/fivetwenty-io/kongcli/internal/view"
	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

// NewPluginsCommand creates the plugins command group.
func NewPluginsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plugins",
		Aliases: []string{"plugin"},
		Short:   "Manage plugins",
		Long:    "List, inspect, enable, update and delete plugins",
	}

	cmd.AddCommand(newPluginsListCommand())
	cmd.AddCommand(newPluginsListGlobalCommand())
	cmd.AddCommand(newPluginsSchemaCommand())
	cmd.AddCommand(newPluginsRetrieveCommand())
	cmd.AddCommand(newPluginsEnableCommand())
	cmd.AddCommand(newPluginsUpdateCommand())
	cmd.AddCommand(newPluginsDeleteCommand())
	cmd.AddCommand(newEnableBasicAuthCommand())
	cmd.AddCommand(newEnableKeyAuthCommand())
	cmd.AddCommand(newEnableACLCommand())

	return cmd
}

var pluginColumns = []string{"name", "id", "service_name", "route.id", "consumer_name", "consumer_custom_id", "enabled", "config"}

func newPluginsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List plugins",
		Long:  "List all plugins with the service and consumer they are bound to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				collections := make(map[kong.Resource][]kong.Record, 3) //nolint:mnd

				for _, resource := range []kong.Resource{kong.Plugins, kong.Services, kong.Consumers} {
					records, err := gateway.AllOf(ctx, resource)
					if err != nil {
						return kong.WrapContext(err, "failed to list %s", resource)
					}

					collections[resource] = records
				}

				overview := view.PluginsOverview(collections[kong.Plugins], collections[kong.Services], collections[kong.Consumers])

				return render(cmd, overview, view.RecordsTable(overview, pluginColumns...), "No plugins found")
			})
		},
	}
}

func newPluginsListGlobalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-global",
		Short: "List global plugins",
		Long:  "List the plugins that are not bound to a service, route or consumer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				plugins, err := gateway.AllOf(ctx, kong.Plugins)
				if err != nil {
					return kong.WrapContext(err, "failed to list plugins")
				}

				global := view.GlobalPlugins(plugins)

				return render(cmd, global,
					view.RecordsTable(global, "name", "id", "enabled", "config", constants.FieldCreatedAt),
					"No global plugins found")
			})
		},
	}
}

func newPluginsSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema PLUGIN_NAME",
		Short: "Show the configuration schema of a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				schema, err := gateway.Plugins().Schema(ctx, args[0])
				if err != nil {
					return err
				}

				if outputFormat() == constants.FormatYAML {
					return writeYAML(cmd.OutOrStdout(), schema)
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout(), view.PrettyJSON(schema))

				return nil
			})
		},
	}
}

func newPluginsRetrieveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "retrieve PLUGIN_ID",
		Short: "Retrieve a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateUUID("plugin id", args[0]); err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				plugin, err := gateway.Retrieve(ctx, kong.Plugins, args[0])
				if err != nil {
					return kong.WrapContext(err, "failed to retrieve plugin %s", args[0])
				}

				return renderRecord(cmd, plugin)
			})
		},
	}
}

func newPluginsUpdateCommand() *cobra.Command {
	var (
		enabled bool
		data    []string
	)

	cmd := &cobra.Command{
		Use:   "update PLUGIN_ID",
		Short: "Update a plugin",
		Long:  "Update a plugin with --enabled and -d key=value pairs, e.g. -d config.minute=20",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateUUID("plugin id", args[0]); err != nil {
				return err
			}

			payload := map[string]interface{}{}
			if cmd.Flags().Changed("enabled") {
				payload["enabled"] = enabled
			}

			return updateResource(cmd, kong.Plugins, args[0], payload, data)
		},
	}

	cmd.Flags().BoolVar(&enabled, "enabled", true, "whether the plugin is applied")
	addDataFlag(cmd, &data)

	return cmd
}

func newPluginsDeleteCommand() *cobra.Command {
	cmd := newDeleteCommand(kong.Plugins, "PLUGIN_ID")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			if err := validateUUID("plugin id", id); err != nil {
				return err
			}
		}

		return nil
	}

	return cmd
}

// pluginTarget selects where a plugin is enabled. No target means global.
type pluginTarget struct {
	service  string
	route    string
	consumer string
}

func (t *pluginTarget) register(cmd *cobra.Command, withConsumer bool) {
	cmd.Flags().StringVar(&t.service, "service", "", "enable on this service (name or id)")
	cmd.Flags().StringVar(&t.route, "route", "", "enable on this route (name or id)")

	if withConsumer {
		cmd.Flags().StringVar(&t.consumer, "consumer", "", "enable for this consumer (username or id)")
	}
}

// resolve returns the target resource and id. An empty resource means the
// plugin is global.
func (t *pluginTarget) resolve() (kong.Resource, string, error) {
	var (
		resource kong.Resource
		id       string
		count    int
	)

	for _, candidate := range []struct {
		resource kong.Resource
		id       string
	}{
		{kong.Services, t.service},
		{kong.Routes, t.route},
		{kong.Consumers, t.consumer},
	} {
		if candidate.id != "" {
			resource, id = candidate.resource, candidate.id
			count++
		}
	}

	if count > 1 {
		return "", "", constants.ErrMultipleTargets
	}

	return resource, id, nil
}

// enablePlugin enables name on the target, or globally without one.
func enablePlugin(cmd *cobra.Command, target *pluginTarget, name string, build func(ctx context.Context, gateway kong.Client) (map[string]interface{}, error)) error {
	resource, id, err := target.resolve()
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
		payload, err := build(ctx, gateway)
		if err != nil {
			return err
		}

		var plugin kong.Record

		if resource == "" {
			plugin, err = gateway.Plugins().EnableGlobal(ctx, name, payload)
		} else {
			plugin, err = gateway.Plugins().EnableOn(ctx, resource, id, name, payload)
		}

		if err != nil {
			return kong.WrapContext(err, "failed to enable plugin %s", name)
		}

		return renderRecord(cmd, plugin)
	})
}

func staticPayload(payload map[string]interface{}, data []string) func(context.Context, kong.Client) (map[string]interface{}, error) {
	return func(context.Context, kong.Client) (map[string]interface{}, error) {
		return mergeData(payload, data)
	}
}

func newPluginsEnableCommand() *cobra.Command {
	var (
		target   pluginTarget
		disabled bool
		data     []string
	)

	cmd := &cobra.Command{
		Use:   "enable PLUGIN_NAME",
		Short: "Enable a plugin",
		Long: `Enable any plugin globally or on a service, route or consumer. The plugin
configuration is given with -d, e.g.

  kongcli plugins enable rate-limiting --service orders -d config.minute=20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{"enabled": !disabled}

			return enablePlugin(cmd, &target, args[0], staticPayload(payload, data))
		},
	}

	target.register(cmd, true)
	cmd.Flags().BoolVar(&disabled, "disabled", false, "create the plugin without applying it")
	addDataFlag(cmd, &data)

	return cmd
}

func newEnableBasicAuthCommand() *cobra.Command {
	var (
		target          pluginTarget
		disabled        bool
		hideCredentials bool
		anonymous       string
		data            []string
	)

	cmd := &cobra.Command{
		Use:   "enable-basic-auth",
		Short: "Enable the basic-auth plugin",
		Long: `Enable the basic-auth plugin globally or on a service or route.

Once applied, any consumer with a valid credential can access the resource.
To restrict usage to some of the authenticated consumers, also enable the acl
plugin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := map[string]interface{}{"hide_credentials": hideCredentials}

			if anonymous != "" {
				if err := validateUUID("anonymous", anonymous); err != nil {
					return err
				}

				config["anonymous"] = anonymous
			}

			payload := map[string]interface{}{"enabled": !disabled, "config": config}

			return enablePlugin(cmd, &target, "basic-auth", staticPayload(payload, data))
		},
	}

	target.register(cmd, false)
	cmd.Flags().BoolVar(&disabled, "disabled", false, "create the plugin without applying it")
	cmd.Flags().BoolVar(&hideCredentials, "hide-credentials", false, "strip the credential from the request before proxying it")
	cmd.Flags().StringVar(&anonymous, "anonymous", "", "consumer id used as anonymous consumer when authentication fails")
	addDataFlag(cmd, &data)

	return cmd
}

func newEnableKeyAuthCommand() *cobra.Command {
	var (
		target          pluginTarget
		disabled        bool
		keyNames        []string
		keyInBody       bool
		hideCredentials bool
		anonymous       string
		noPreflight     bool
		data            []string
	)

	cmd := &cobra.Command{
		Use:   "enable-key-auth",
		Short: "Enable the key-auth plugin",
		Long: `Enable the key-auth plugin globally or on a service or route.

Once applied, any consumer with a valid key can access the resource. To
restrict usage to some of the authenticated consumers, also enable the acl
plugin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := map[string]interface{}{
				"hide_credentials": hideCredentials,
				"key_in_body":      keyInBody,
				"run_on_preflight": !noPreflight,
			}

			if anonymous != "" {
				if err := validateUUID("anonymous", anonymous); err != nil {
					return err
				}

				config["anonymous"] = anonymous
			}

			if len(keyNames) > 0 {
				config["key_names"] = keyNames
			}

			payload := map[string]interface{}{"enabled": !disabled, "config": config}

			return enablePlugin(cmd, &target, "key-auth", staticPayload(payload, data))
		},
	}

	target.register(cmd, false)
	cmd.Flags().BoolVar(&disabled, "disabled", false, "create the plugin without applying it")
	cmd.Flags().StringSliceVar(&keyNames, "key-names", nil, "header or query parameter names holding the key (gateway default apikey)")
	cmd.Flags().BoolVar(&keyInBody, "key-in-body", false, "also look for the key in the request body")
	cmd.Flags().BoolVar(&hideCredentials, "hide-credentials", false, "strip the credential from the request before proxying it")
	cmd.Flags().StringVar(&anonymous, "anonymous", "", "consumer id used as anonymous consumer when authentication fails")
	cmd.Flags().BoolVar(&noPreflight, "no-preflight", false, "do not authenticate OPTIONS preflight requests")
	addDataFlag(cmd, &data)

	return cmd
}

func newEnableACLCommand() *cobra.Command {
	var (
		target           pluginTarget
		disabled         bool
		allow            []string
		deny             []string
		hideGroupsHeader bool
		data             []string
	)

	cmd := &cobra.Command{
		Use:   "enable-acl",
		Short: "Enable the acl plugin",
		Long: `Enable the acl plugin globally or on a service or route.

Allow and deny lists are mutually exclusive: an allow list admits only the
listed groups, a deny list rejects the listed groups and admits all others.
Gateways before 2.1 receive the lists as whitelist and blacklist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case len(allow) > 0 && len(deny) > 0:
				return constants.ErrACLGroupsConflict
			case len(allow) == 0 && len(deny) == 0:
				return constants.ErrACLGroupsRequired
			}

			build := func(ctx context.Context, gateway kong.Client) (map[string]interface{}, error) {
				info, err := gateway.Information(ctx)
				if err != nil {
					return nil, kong.WrapContext(err, "failed to get gateway version")
				}

				gatewayVersion := kong.StringField(info, "version")
				config := aclConfig(gatewayVersion, allow, deny)

				// 0.13 rejects the field.
				if !versionMatches(gatewayVersion, noGroupsHeaderVersions) {
					config["hide_groups_header"] = hideGroupsHeader
				}

				return mergeData(map[string]interface{}{"enabled": !disabled, "config": config}, data)
			}

			return enablePlugin(cmd, &target, "acl", build)
		},
	}

	target.register(cmd, false)
	cmd.Flags().BoolVar(&disabled, "disabled", false, "create the plugin without applying it")
	cmd.Flags().StringSliceVar(&allow, "allow", nil, "groups allowed to consume the resource")
	cmd.Flags().StringSliceVar(&deny, "deny", nil, "groups not allowed to consume the resource")
	cmd.Flags().BoolVar(&hideGroupsHeader, "hide-groups-header", false, "do not send the X-Consumer-Groups header upstream")
	addDataFlag(cmd, &data)

	return cmd
}

var (
	// aclListsRenamed is the first gateway version taking allow and deny.
	aclListsRenamed = version.Must(version.NewVersion("2.1"))

	noGroupsHeaderVersions = version.MustConstraints(version.NewConstraint("~> 0.13.0"))
)

// aclConfig names the group lists the way the gateway version expects.
func aclConfig(gatewayVersion string, allow, deny []string) map[string]interface{} {
	allowKey, denyKey := "allow", "deny"
	if versionBefore(gatewayVersion, aclListsRenamed) {
		allowKey, denyKey = "whitelist", "blacklist"
	}

	config := map[string]interface{}{}
	if len(allow) > 0 {
		config[allowKey] = allow
	}

	if len(deny) > 0 {
		config[denyKey] = deny
	}

	return config
}

// parseGatewayVersion returns the release part of a reported version, so
// "2.1.0-enterprise-edition" compares as 2.1.0. Unparsable versions give nil.
func parseGatewayVersion(raw string) *version.Version {
	v, err := version.NewVersion(raw)
	if err != nil {
		return nil
	}

	return v.Core()
}

// versionBefore reports whether raw is older than boundary. Unparsable
// versions count as current.
func versionBefore(raw string, boundary *version.Version) bool {
	v := parseGatewayVersion(raw)

	return v != nil && v.LessThan(boundary)
}

func versionMatches(raw string, constraints version.Constraints) bool {
	v := parseGatewayVersion(raw)

	return v != nil && constraints.Check(v)
}
