package view

import (
	"sort"

	"github.com/fivetwenty-io/kongcli/internal/constants"
	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

const aclPlugin = "acl"

// ServiceRow is one line of the services overview.
type ServiceRow struct {
	ServiceID string   `json:"service_id" yaml:"service_id"`
	Name      string   `json:"name"       yaml:"name"`
	Protocol  string   `json:"protocol"   yaml:"protocol"`
	Host      string   `json:"host"       yaml:"host"`
	Port      string   `json:"port"       yaml:"port"`
	Path      string   `json:"path"       yaml:"path"`
	Whitelist []string `json:"whitelist"  yaml:"whitelist"`
	Plugins   []string `json:"plugins"    yaml:"plugins"`
}

// RouteRow is one line of the routes overview.
type RouteRow struct {
	RouteID     string   `json:"route_id"     yaml:"route_id"`
	ServiceName string   `json:"service_name" yaml:"service_name"`
	Protocols   []string `json:"protocols"    yaml:"protocols"`
	Hosts       []string `json:"hosts"        yaml:"hosts"`
	Paths       []string `json:"paths"        yaml:"paths"`
	Whitelist   []string `json:"whitelist"    yaml:"whitelist"`
	Plugins     []string `json:"plugins"      yaml:"plugins"`
}

// ConsumerRow is one line of the consumers overview.
type ConsumerRow struct {
	CustomID  string   `json:"custom_id"  yaml:"custom_id"`
	Username  string   `json:"username"   yaml:"username"`
	ACLGroups []string `json:"acl_groups" yaml:"acl_groups"`
	Plugins   []string `json:"plugins"    yaml:"plugins"`
	BasicAuth []string `json:"basic_auth" yaml:"basic_auth"`
	KeyAuth   []string `json:"key_auth"   yaml:"key_auth"`
}

// attachments collects the plugin names and acl whitelist entries attached
// to one entity.
type attachments struct {
	whitelist map[string]bool
	plugins   map[string]bool
}

func collectAttachments(plugins []kong.Record, refKey, id string) attachments {
	att := attachments{whitelist: map[string]bool{}, plugins: map[string]bool{}}

	for _, plugin := range plugins {
		if RefID(plugin, refKey) != id {
			continue
		}

		name := kong.StringField(plugin, "name")
		if name != aclPlugin {
			att.plugins[name] = true

			continue
		}

		for _, group := range aclGroups(plugin) {
			att.whitelist[group] = true
		}
	}

	return att
}

// aclGroups returns the whitelisted groups of an acl plugin. Newer gateways
// call the field "allow".
func aclGroups(plugin kong.Record) []string {
	config, ok := plugin["config"].(map[string]interface{})
	if !ok {
		return nil
	}

	if groups := stringList(config["whitelist"]); len(groups) > 0 {
		return groups
	}

	return stringList(config["allow"])
}

// ServiceRows joins services with the plugins attached to them, sorted by name.
func ServiceRows(services, plugins []kong.Record) []ServiceRow {
	rows := make([]ServiceRow, 0, len(services))

	for _, service := range services {
		id := kong.StringField(service, "id")
		att := collectAttachments(plugins, "service", id)

		rows = append(rows, ServiceRow{
			ServiceID: id,
			Name:      kong.StringField(service, "name"),
			Protocol:  kong.StringField(service, "protocol"),
			Host:      kong.StringField(service, "host"),
			Port:      FormatValue(service["port"]),
			Path:      FormatValue(service["path"]),
			Whitelist: sortedSet(att.whitelist),
			Plugins:   sortedSet(att.plugins),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	return rows
}

// RouteRows joins routes with their service name and attached plugins,
// sorted by service name.
func RouteRows(routes, services, plugins []kong.Record) []RouteRow {
	serviceNames := make(map[string]string, len(services))
	for _, service := range services {
		serviceNames[kong.StringField(service, "id")] = kong.StringField(service, "name")
	}

	rows := make([]RouteRow, 0, len(routes))

	for _, route := range routes {
		id := kong.StringField(route, "id")
		att := collectAttachments(plugins, "route", id)

		rows = append(rows, RouteRow{
			RouteID:     id,
			ServiceName: serviceNames[RefID(route, "service")],
			Protocols:   stringList(route["protocols"]),
			Hosts:       stringList(route["hosts"]),
			Paths:       stringList(route["paths"]),
			Whitelist:   sortedSet(att.whitelist),
			Plugins:     sortedSet(att.plugins),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ServiceName < rows[j].ServiceName })

	return rows
}

// ConsumerSources are the collections joined into the consumers overview.
type ConsumerSources struct {
	Consumers  []kong.Record
	Plugins    []kong.Record
	ACLs       []kong.Record
	BasicAuths []kong.Record
	KeyAuths   []kong.Record
}

// ConsumerRows joins consumers with their groups, plugins and credentials.
// Passwords are masked; keys are shortened unless fullKeys is set. Rows are
// sorted by custom_id length, then username.
func ConsumerRows(src ConsumerSources, fullKeys bool) []ConsumerRow {
	rows := make([]ConsumerRow, 0, len(src.Consumers))

	for _, consumer := range src.Consumers {
		id := kong.StringField(consumer, "id")

		groups := map[string]bool{}
		for _, acl := range src.ACLs {
			if RefID(acl, "consumer") == id {
				groups[kong.StringField(acl, "group")] = true
			}
		}

		plugins := map[string]bool{}
		for _, plugin := range src.Plugins {
			if RefID(plugin, "consumer") == id {
				plugins[kong.StringField(plugin, "name")] = true
			}
		}

		basic := map[string]bool{}
		for _, cred := range src.BasicAuths {
			if RefID(cred, "consumer") == id {
				basic[kong.StringField(cred, "username")+":"+constants.MaskedPassword] = true
			}
		}

		keys := map[string]bool{}
		for _, cred := range src.KeyAuths {
			if RefID(cred, "consumer") == id {
				keys[MaskKey(kong.StringField(cred, "key"), fullKeys)] = true
			}
		}

		rows = append(rows, ConsumerRow{
			CustomID:  kong.StringField(consumer, "custom_id"),
			Username:  kong.StringField(consumer, "username"),
			ACLGroups: sortedSet(groups),
			Plugins:   sortedSet(plugins),
			BasicAuth: sortedSet(basic),
			KeyAuth:   sortedSet(keys),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if len(rows[i].CustomID) != len(rows[j].CustomID) {
			return len(rows[i].CustomID) < len(rows[j].CustomID)
		}

		return rows[i].Username < rows[j].Username
	})

	return rows
}

// MaskKey shortens a key-auth key to its first characters followed by "...".
func MaskKey(key string, full bool) string {
	if full {
		return key
	}

	runes := []rune(key)
	if len(runes) > constants.KeyPreviewLength {
		runes = runes[:constants.KeyPreviewLength]
	}

	return string(runes) + "..."
}

// GlobalPlugins returns the plugins not bound to a route, service or
// consumer, prepared for display and sorted by name.
func GlobalPlugins(plugins []kong.Record) []kong.Record {
	out := []kong.Record{}

	for _, plugin := range plugins {
		if RefID(plugin, "route") != "" || RefID(plugin, "service") != "" || RefID(plugin, "consumer") != "" {
			continue
		}

		out = append(out, Prepare(plugin))
	}

	SortByName(out)

	return out
}

// PluginsOverview prepares every plugin and adds the name of the service and
// the username and custom_id of the consumer it is bound to.
func PluginsOverview(plugins, services, consumers []kong.Record) []kong.Record {
	serviceNames := make(map[string]string, len(services))
	for _, service := range services {
		serviceNames[kong.StringField(service, "id")] = kong.StringField(service, "name")
	}

	consumerByID := make(map[string]kong.Record, len(consumers))
	for _, consumer := range consumers {
		consumerByID[kong.StringField(consumer, "id")] = consumer
	}

	out := make([]kong.Record, 0, len(plugins))

	for _, plugin := range plugins {
		row := Prepare(plugin)

		if name, ok := serviceNames[RefID(row, "service")]; ok {
			row["service_name"] = name
		}

		if consumer, ok := consumerByID[RefID(row, "consumer")]; ok {
			row["consumer_name"] = consumer["username"]
			row["consumer_custom_id"] = consumer["custom_id"]
		}

		out = append(out, row)
	}

	SortByName(out)

	return out
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for value := range set {
		out = append(out, value)
	}

	sort.Strings(out)

	return out
}
