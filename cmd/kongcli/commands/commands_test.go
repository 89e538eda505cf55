package commands_test

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/kongcli/cmd/kongcli/commands"
	"github.com/fivetwenty-io/kongcli/internal/constants"
	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

const pluginID = "3fa85f64-5717-4562-b3fc-2c963f66afa6"

func TestCommandTree(t *testing.T) {
	tests := []struct {
		name        string
		cmd         func() []string
		subcommands []string
	}{
		{
			name: "consumers",
			cmd:  func() []string { return subcommandNames(commands.NewConsumersCommand()) },
			subcommands: []string{
				"list", "create", "retrieve", "update", "delete",
				"add-groups", "delete-groups", "basic-auth", "key-auth",
			},
		},
		{
			name:        "services",
			cmd:         func() []string { return subcommandNames(commands.NewServicesCommand()) },
			subcommands: []string{"list", "add", "retrieve", "update", "delete"},
		},
		{
			name:        "routes",
			cmd:         func() []string { return subcommandNames(commands.NewRoutesCommand()) },
			subcommands: []string{"list", "add", "retrieve", "update", "delete"},
		},
		{
			name: "plugins",
			cmd:  func() []string { return subcommandNames(commands.NewPluginsCommand()) },
			subcommands: []string{
				"list", "list-global", "schema", "retrieve", "enable", "update", "delete",
				"enable-basic-auth", "enable-key-auth", "enable-acl",
			},
		},
		{
			name:        "config",
			cmd:         func() []string { return subcommandNames(commands.NewConfigCommand()) },
			subcommands: []string{"show", "set", "unset", "path"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.subcommands, tt.cmd())
		})
	}
}

func TestConsumersRetrieveFlags(t *testing.T) {
	retrieve := findSubcommand(commands.NewConsumersCommand(), "retrieve")
	require.NotNil(t, retrieve)
	assert.Equal(t, "retrieve USERNAME_OR_ID", retrieve.Use)

	for _, name := range []string{"acls", "basic-auths", "key-auths", "plugins"} {
		flag := retrieve.Flags().Lookup(name)
		require.NotNil(t, flag, "Flag %s should exist", name)
		assert.Equal(t, "false", flag.DefValue)
	}
}

func TestServicesAddFlags(t *testing.T) {
	add := findSubcommand(commands.NewServicesCommand(), "add")
	require.NotNil(t, add)

	defaults := map[string]string{
		"retries":         "5",
		"connect-timeout": "60000",
		"write-timeout":   "60000",
		"read-timeout":    "60000",
	}

	for name, want := range defaults {
		flag := add.Flags().Lookup(name)
		require.NotNil(t, flag, "Flag %s should exist", name)
		assert.Equal(t, want, flag.DefValue)
	}

	data := add.Flags().Lookup("data")
	require.NotNil(t, data)
	assert.Equal(t, "d", data.Shorthand)
}

func TestServicesList(t *testing.T) {
	api := setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
		switch req.Path {
		case "/services":
			respondJSON(w, http.StatusOK, page(
				map[string]interface{}{"id": "s2", "name": "orders", "protocol": "http", "host": "orders.internal", "port": 80, "path": nil},
				map[string]interface{}{"id": "s1", "name": "billing", "protocol": "https", "host": "billing.internal", "port": 443, "path": "/v1"},
			))
		case "/plugins":
			respondJSON(w, http.StatusOK, page(
				map[string]interface{}{"id": "p1", "name": "acl", "service": map[string]interface{}{"id": "s1"}, "config": map[string]interface{}{"whitelist": []string{"finance"}}},
				map[string]interface{}{"id": "p2", "name": "cors", "service": map[string]interface{}{"id": "s1"}},
			))
		default:
			respondJSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
		}
	})

	stdout, _, err := execute(commands.NewServicesCommand(), "list")
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, "billing", rows[0]["name"])
	assert.Equal(t, "443", rows[0]["port"])
	assert.Equal(t, []interface{}{"finance"}, rows[0]["whitelist"])
	assert.Equal(t, []interface{}{"cors"}, rows[0]["plugins"])
	assert.Equal(t, "orders", rows[1]["name"])

	assert.Len(t, api.Requests(), 2)
}

func TestServicesListEmptyTable(t *testing.T) {
	setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
		respondJSON(w, http.StatusOK, page())
	})
	viper.Set("output", "table")

	stdout, _, err := execute(commands.NewServicesCommand(), "list")
	require.NoError(t, err)
	assert.Equal(t, "No services found\n", stdout)
}

func TestServicesAdd(t *testing.T) {
	api := setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
		body := req.Body
		body["id"] = "s1"
		respondJSON(w, http.StatusCreated, body)
	})

	_, _, err := execute(commands.NewServicesCommand(), "add", "--name", "orders", "--host", "orders.internal", "-d", "tags=[\"shop\"]")
	require.NoError(t, err)

	requests := api.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, requests[0].Method)
	assert.Equal(t, "/services/", requests[0].Path)
	assert.Equal(t, map[string]interface{}{
		"name":            "orders",
		"host":            "orders.internal",
		"retries":         float64(5),
		"connect_timeout": float64(60000),
		"write_timeout":   float64(60000),
		"read_timeout":    float64(60000),
		"tags":            []interface{}{"shop"},
	}, requests[0].Body)
}

func TestServicesAddValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{
			name: "url with host",
			args: []string{"add", "--service-url", "http://orders.internal", "--host", "other"},
			want: constants.ErrServiceURLConflict,
		},
		{
			name: "no url and no host",
			args: []string{"add", "--name", "orders"},
			want: constants.ErrServiceHostRequired,
		},
		{
			name: "relative url",
			args: []string{"add", "--service-url", "orders.internal"},
			want: constants.ErrInvalidServiceURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
				respondJSON(w, http.StatusCreated, map[string]string{})
			})

			_, _, err := execute(commands.NewServicesCommand(), tt.args...)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, api.Requests())
		})
	}
}

func TestConsumersDeleteNotFound(t *testing.T) {
	setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not found"}`))
	})

	_, _, err := execute(commands.NewConsumersCommand(), "delete", "ghost")
	require.Error(t, err)

	var httpErr *kong.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.True(t, kong.IsNotFound(err))
	assert.Equal(t, `404 Not Found: {"message":"Not found"}`, err.Error())
}

func TestConsumersAddGroupsExistingMembership(t *testing.T) {
	api := setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
		if req.Body["group"] == "admins" {
			respondJSON(w, http.StatusConflict, map[string]string{"message": "unique constraint violation"})

			return
		}

		respondJSON(w, http.StatusCreated, map[string]string{"id": "acl-1", "group": "readers"})
	})

	stdout, _, err := execute(commands.NewConsumersCommand(), "add-groups", "alice", "admins", "readers")
	require.NoError(t, err)

	assert.Equal(t, "alice is already in group admins\nAdded alice to group readers\n", stdout)
	assert.Len(t, api.Requests(), 2)
}

func TestConsumersAddGroupsFailure(t *testing.T) {
	api := setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
		respondJSON(w, http.StatusBadRequest, map[string]string{"message": "schema violation"})
	})

	_, _, err := execute(commands.NewConsumersCommand(), "add-groups", "alice", "admins", "readers")
	require.Error(t, err)
	assert.True(t, kong.IsStatus(err, http.StatusBadRequest))
	assert.Len(t, api.Requests(), 1)
}

func TestConsumersList(t *testing.T) {
	setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
		switch req.Path {
		case "/consumers":
			respondJSON(w, http.StatusOK, page(
				map[string]interface{}{"id": "c1", "username": "zed", "custom_id": "7"},
				map[string]interface{}{"id": "c2", "username": "amy", "custom_id": "1234"},
			))
		case "/key-auths":
			respondJSON(w, http.StatusOK, page(
				map[string]interface{}{"consumer": map[string]interface{}{"id": "c2"}, "key": "abcdefghijkl"},
			))
		case "/basic-auths":
			respondJSON(w, http.StatusOK, page(
				map[string]interface{}{"consumer": map[string]interface{}{"id": "c1"}, "username": "zed", "password": "hash"},
			))
		default:
			respondJSON(w, http.StatusOK, page())
		}
	})

	stdout, _, err := execute(commands.NewConsumersCommand(), "list")
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "zed", rows[0]["username"])
	assert.Equal(t, []interface{}{"zed:xxx"}, rows[0]["basic_auth"])
	assert.Equal(t, []interface{}{"abcdef..."}, rows[1]["key_auth"])

	stdout, _, err = execute(commands.NewConsumersCommand(), "list", "--full-keys")
	require.NoError(t, err)
	assert.Contains(t, stdout, "abcdefghijkl")
}

func TestRawDryRun(t *testing.T) {
	api := setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
		respondJSON(w, http.StatusOK, map[string]string{})
	})
	viper.Set("apikey", "secret")

	stdout, stderr, err := execute(commands.NewRawCommand(), "post", "/services",
		"-H", "X-Trace: 1", "-d", "name=orders", "-d", "port=80", "--dry-run")
	require.NoError(t, err)

	assert.Equal(t, "---<<== Done with dry-run. ==>>---\n", stdout)
	assert.Empty(t, api.Requests())

	lines := strings.Split(strings.TrimRight(stderr, "\n"), "\n")
	assert.Equal(t, "> POST "+viper.GetString("url")+"/services", lines[0])
	assert.Contains(t, lines, "> Apikey: secret")
	assert.Contains(t, lines, "> X-Trace: 1")
	assert.Contains(t, lines, ">")
	assert.Equal(t, "> Body:", lines[len(lines)-2])
	assert.Equal(t, `> {"name":"orders","port":80}`, lines[len(lines)-1])
}

func TestRawSendsWithoutValidation(t *testing.T) {
	api := setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	stdout, stderr, err := execute(commands.NewRawCommand(), "GET", "/status")
	require.NoError(t, err)

	assert.Equal(t, "short and stout\n", stdout)
	assert.Contains(t, stderr, "< HTTP/1.1 418 I'm a teapot")
	assert.Contains(t, stderr, "< Content-Type: text/plain")

	requests := api.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/status", requests[0].Path)
}

func TestRawHelpDescribesDataFlag(t *testing.T) {
	cmd := commands.NewRawCommand()

	assert.Contains(t, cmd.Long, "-d foo=bar")
	assert.Contains(t, cmd.Long, "(-d key value) is no longer accepted")
}

func TestRawInvalidInput(t *testing.T) {
	setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
		respondJSON(w, http.StatusOK, map[string]string{})
	})

	_, _, err := execute(commands.NewRawCommand(), "FETCH", "/")
	require.ErrorIs(t, err, constants.ErrInvalidMethod)

	_, _, err = execute(commands.NewRawCommand(), "GET", "/", "-H", "no-colon")
	require.ErrorIs(t, err, constants.ErrInvalidHeader)

	_, _, err = execute(commands.NewRawCommand(), "POST", "/", "-d", "a=1", "-d", "a.b=2", "--dry-run")
	require.ErrorIs(t, err, kong.ErrKeyNotObject)
}

func TestPluginsEnableACL(t *testing.T) {
	tests := []struct {
		name    string
		version string
		args    []string
		path    string
		config  map[string]interface{}
	}{
		{
			name:    "legacy gateway on a service",
			version: "0.13.1",
			args:    []string{"enable-acl", "--service", "orders", "--allow", "finance,admins"},
			path:    "/services/orders/plugins",
			config:  map[string]interface{}{"whitelist": []interface{}{"finance", "admins"}},
		},
		{
			name:    "current gateway globally",
			version: "3.4.2",
			args:    []string{"enable-acl", "--deny", "guests", "--hide-groups-header"},
			path:    "/plugins/",
			config:  map[string]interface{}{"deny": []interface{}{"guests"}, "hide_groups_header": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
				if req.Path == "/" {
					respondJSON(w, http.StatusOK, map[string]interface{}{"version": tt.version})

					return
				}

				respondJSON(w, http.StatusCreated, req.Body)
			})

			_, _, err := execute(commands.NewPluginsCommand(), tt.args...)
			require.NoError(t, err)

			requests := api.Requests()
			require.Len(t, requests, 2)
			assert.Equal(t, tt.path, requests[1].Path)
			assert.Equal(t, "acl", requests[1].Body["name"])
			assert.Equal(t, true, requests[1].Body["enabled"])
			assert.Equal(t, tt.config, requests[1].Body["config"])
		})
	}
}

func TestPluginsEnableACLRequiresOneList(t *testing.T) {
	setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
		respondJSON(w, http.StatusOK, map[string]string{})
	})

	_, _, err := execute(commands.NewPluginsCommand(), "enable-acl")
	require.ErrorIs(t, err, constants.ErrACLGroupsRequired)

	_, _, err = execute(commands.NewPluginsCommand(), "enable-acl", "--allow", "a", "--deny", "b")
	require.ErrorIs(t, err, constants.ErrACLGroupsConflict)
}

func TestPluginsEnableKeyAuth(t *testing.T) {
	api := setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
		respondJSON(w, http.StatusCreated, req.Body)
	})

	_, _, err := execute(commands.NewPluginsCommand(), "enable-key-auth", "--route", "r1",
		"--key-names", "x-api-key", "--anonymous", pluginID, "--no-preflight")
	require.NoError(t, err)

	requests := api.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/routes/r1/plugins", requests[0].Path)
	assert.Equal(t, map[string]interface{}{
		"hide_credentials": false,
		"key_in_body":      false,
		"run_on_preflight": false,
		"anonymous":        pluginID,
		"key_names":        []interface{}{"x-api-key"},
	}, requests[0].Body["config"])
}

func TestPluginsEnableTargets(t *testing.T) {
	api := setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
		respondJSON(w, http.StatusCreated, req.Body)
	})

	_, _, err := execute(commands.NewPluginsCommand(), "enable", "rate-limiting", "--service", "a", "--route", "b")
	require.ErrorIs(t, err, constants.ErrMultipleTargets)

	_, _, err = execute(commands.NewPluginsCommand(), "enable", "rate-limiting", "--consumer", "amy", "-d", "config.minute=20")
	require.NoError(t, err)

	requests := api.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/consumers/amy/plugins", requests[0].Path)
	assert.Equal(t, map[string]interface{}{
		"name":    "rate-limiting",
		"enabled": true,
		"config":  map[string]interface{}{"minute": float64(20)},
	}, requests[0].Body)
}

func TestPluginsRejectInvalidIDs(t *testing.T) {
	api := setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
		w.WriteHeader(http.StatusNoContent)
	})

	_, _, err := execute(commands.NewPluginsCommand(), "delete", "not-a-uuid")
	require.ErrorIs(t, err, constants.ErrInvalidUUID)

	_, _, err = execute(commands.NewPluginsCommand(), "enable-basic-auth", "--anonymous", "nobody")
	require.ErrorIs(t, err, constants.ErrInvalidUUID)

	assert.Empty(t, api.Requests())

	stdout, _, err := execute(commands.NewPluginsCommand(), "delete", pluginID)
	require.NoError(t, err)
	assert.Equal(t, "Deleted plugin "+pluginID+"\n", stdout)
}

func TestUpdateRequiresFields(t *testing.T) {
	api := setupAdminAPI(t, func(w http.ResponseWriter, req recordedRequest) {
		respondJSON(w, http.StatusOK, req.Body)
	})

	_, _, err := execute(commands.NewRoutesCommand(), "update", "r1")
	require.ErrorIs(t, err, constants.ErrNothingToUpdate)
	assert.Empty(t, api.Requests())

	_, _, err = execute(commands.NewRoutesCommand(), "update", "r1", "-d", "paths=[\"/a\",\"/b\"]")
	require.NoError(t, err)

	requests := api.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPatch, requests[0].Method)
	assert.Equal(t, "/routes/r1", requests[0].Path)
	assert.Equal(t, []interface{}{"/a", "/b"}, requests[0].Body["paths"])
}

func TestNoBaseURL(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	_, _, err := execute(commands.NewInfoCommand())
	require.ErrorIs(t, err, constants.ErrNoBaseURL)
}

func TestConfigSetAndUnset(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yml")
	viper.SetConfigFile(path)
	viper.Set("apikey", "from-environment")

	_, _, err := execute(commands.NewConfigCommand(), "set", "url", "http://kong:8001/")
	require.NoError(t, err)

	_, _, err = execute(commands.NewConfigCommand(), "set", "headers.X-Team", "platform")
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "url: http://kong:8001\n")
	assert.Contains(t, string(content), "X-Team: platform")
	assert.NotContains(t, string(content), "from-environment")

	_, _, err = execute(commands.NewConfigCommand(), "unset", "url")
	require.NoError(t, err)

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "url:")

	_, _, err = execute(commands.NewConfigCommand(), "set", "colour", "blue")
	require.ErrorIs(t, err, constants.ErrUnknownConfigKey)

	_, _, err = execute(commands.NewConfigCommand(), "set", "output", "xml")
	require.ErrorIs(t, err, constants.ErrUnsupportedFormat)
}

func TestVersionCommand(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("output", "json")

	stdout, _, err := execute(commands.NewVersionCommand("1.2.3", "abc", "today"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.2.3","commit":"abc","built":"today"}`, stdout)
}
