package commands_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

func subcommandNames(cmd *cobra.Command) []string {
	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}

	return names
}

// recordedRequest is a request seen by the fake admin API.
type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]interface{}
}

type adminAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (a *adminAPI) record(t *testing.T, r *http.Request) recordedRequest {
	t.Helper()

	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone()}

	raw, err := io.ReadAll(r.Body)
	assert.NoError(t, err)

	if len(raw) > 0 {
		assert.NoError(t, json.Unmarshal(raw, &rec.Body))
	}

	a.mu.Lock()
	a.requests = append(a.requests, rec)
	a.mu.Unlock()

	return rec
}

func (a *adminAPI) Requests() []recordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]recordedRequest(nil), a.requests...)
}

// setupAdminAPI starts a fake admin API, points the configuration at it
// and selects JSON output.
func setupAdminAPI(t *testing.T, handler func(w http.ResponseWriter, req recordedRequest)) *adminAPI {
	t.Helper()

	viper.Reset()

	api := &adminAPI{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler(w, api.record(t, r))
	}))

	t.Cleanup(server.Close)
	t.Cleanup(viper.Reset)

	viper.Set("url", server.URL)
	viper.Set("output", "json")

	return api
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func page(records ...map[string]interface{}) map[string]interface{} {
	if records == nil {
		records = []map[string]interface{}{}
	}

	return map[string]interface{}{"data": records, "next": nil}
}

// execute runs cmd with args and returns what it wrote to stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}
