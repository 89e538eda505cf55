package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("requires url", func(t *testing.T) {
		t.Parallel()

		_, err := NewFromConfig(&kong.Config{})
		require.ErrorIs(t, err, kong.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "url is required")
	})

	t.Run("disables cache on request", func(t *testing.T) {
		t.Parallel()

		gateway, err := NewFromConfig(&kong.Config{URL: "http://localhost:8001/", NoCache: true, Timeout: time.Second})
		require.NoError(t, err)
		assert.IsType(t, &kong.NoOpCache{}, gateway.cache)
		assert.Equal(t, "http://localhost:8001", gateway.HTTPClient().BaseURL())
	})

	t.Run("sends credentials", func(t *testing.T) {
		t.Parallel()

		var seen http.Header

		server, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Clone()
			respondJSON(w, http.StatusOK, kong.Record{"version": "0.13.1"})
		})

		configured, err := NewFromConfig(&kong.Config{
			URL:      server.HTTPClient().BaseURL(),
			APIKey:   "key-1",
			Username: "admin",
			Password: "pw",
			Headers:  map[string]string{"X-Team": "edge"},
		})
		require.NoError(t, err)

		info, err := configured.Information(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "0.13.1", info["version"])
		assert.Equal(t, "key-1", seen.Get("apikey"))
		assert.Equal(t, "edge", seen.Get("X-Team"))
		assert.NotEmpty(t, seen.Get("Authorization"))
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_CRUD(t *testing.T) {
	t.Parallel()

	t.Run("add posts to the collection", func(t *testing.T) {
		t.Parallel()

		gateway, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"name": "billing", "port": 8080}`, string(raw))
			respondJSON(w, http.StatusCreated, kong.Record{"id": "svc-1", "name": "billing"})
		})

		record, err := gateway.Add(context.Background(), kong.Services, map[string]interface{}{
			"name": "billing",
			"port": json.Number("8080"),
		})
		require.NoError(t, err)
		assert.Equal(t, "svc-1", record["id"])
		assert.Equal(t, []string{"POST /services/"}, log.all())
	})

	t.Run("retrieve, update and delete address one item", func(t *testing.T) {
		t.Parallel()

		gateway, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodDelete:
				w.WriteHeader(http.StatusNoContent)
			case http.MethodPatch:
				raw, _ := io.ReadAll(r.Body)
				assert.JSONEq(t, `{"custom_id": "42"}`, string(raw))
				respondJSON(w, http.StatusOK, kong.Record{"id": "c-1", "custom_id": "42"})
			default:
				respondJSON(w, http.StatusOK, kong.Record{"id": "c-1", "username": "alice"})
			}
		})

		ctx := context.Background()

		record, err := gateway.Retrieve(ctx, kong.Consumers, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", record["username"])

		record, err = gateway.Update(ctx, kong.Consumers, "alice", map[string]interface{}{"custom_id": "42"})
		require.NoError(t, err)
		assert.Equal(t, "42", record["custom_id"])

		require.NoError(t, gateway.Delete(ctx, kong.Consumers, "alice"))

		assert.Equal(t, []string{
			"GET /consumers/alice",
			"PATCH /consumers/alice",
			"DELETE /consumers/alice",
		}, log.all())
	})

	t.Run("delete of unknown consumer", func(t *testing.T) {
		t.Parallel()

		gateway, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not found"}`))
		})

		err := gateway.Delete(context.Background(), kong.Consumers, "nobody")
		require.Error(t, err)

		var httpErr *kong.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
		assert.Equal(t, `404 Not Found: {"message":"Not found"}`, err.Error())
	})

	t.Run("unsupported operations never reach the network", func(t *testing.T) {
		t.Parallel()

		gateway, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		})

		ctx := context.Background()

		_, err := gateway.Retrieve(ctx, kong.ACLs, "x")
		require.ErrorIs(t, err, kong.ErrUnsupportedOperation)

		_, err = gateway.Update(ctx, kong.KeyAuths, "x", nil)
		require.ErrorIs(t, err, kong.ErrUnsupportedOperation)

		require.ErrorIs(t, gateway.Delete(ctx, kong.ACLs, "x"), kong.ErrUnsupportedOperation)

		_, err = gateway.ListAll(ctx, kong.Resource("apis"))
		require.ErrorIs(t, err, kong.ErrUnknownResource)

		assert.Empty(t, log.all())
	})

	t.Run("non json success", func(t *testing.T) {
		t.Parallel()

		gateway, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("ok"))
		})

		_, err := gateway.Status(context.Background())
		require.ErrorIs(t, err, kong.ErrUnexpectedContentType)
	})

	t.Run("ids are path escaped", func(t *testing.T) {
		t.Parallel()

		gateway, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, kong.Record{})
		})

		_, err := gateway.Retrieve(context.Background(), kong.Routes, "a b/c")
		require.NoError(t, err)
		assert.Equal(t, []string{"GET /routes/a%20b%2Fc"}, log.all())
	})
}

func TestClient_GetAssociated(t *testing.T) {
	t.Parallel()

	gateway, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/services/svc-1/routes":
			respondJSON(w, http.StatusOK, page(nil, kong.Record{"id": "r1"}))
		default:
			respondJSON(w, http.StatusOK, map[string]interface{}{"total": 0})
		}
	})

	routes, err := gateway.GetAssociated(context.Background(), kong.Services, "svc-1", "routes")
	require.NoError(t, err)
	assert.Len(t, routes, 1)

	plugins, err := gateway.GetAssociated(context.Background(), kong.Services, "svc-1", "plugins")
	require.NoError(t, err)
	assert.Empty(t, plugins)

	assert.Equal(t, []string{"GET /services/svc-1/routes", "GET /services/svc-1/plugins"}, log.all())
}

func TestClient_InformationAndStatus(t *testing.T) {
	t.Parallel()

	gateway, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/status" {
			respondJSON(w, http.StatusOK, kong.Record{"database": map[string]interface{}{"reachable": true}})

			return
		}

		respondJSON(w, http.StatusOK, kong.Record{"hostname": "kong-1", "version": "0.13.1"})
	})

	info, err := gateway.Information(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kong-1", info["hostname"])

	status, err := gateway.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"reachable": true}, status["database"])

	assert.Equal(t, []string{"GET /", "GET /status"}, log.all())
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_AllOf(t *testing.T) {
	t.Parallel()

	t.Run("memoizes per resource", func(t *testing.T) {
		t.Parallel()

		gateway, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, page(nil, kong.Record{"id": r.URL.Path}))
		})

		ctx := context.Background()

		for i := 0; i < 3; i++ {
			services, err := gateway.AllOf(ctx, kong.Services)
			require.NoError(t, err)
			assert.Len(t, services, 1)
		}

		_, err := gateway.AllOf(ctx, kong.Routes)
		require.NoError(t, err)

		assert.Equal(t, []string{"GET /services", "GET /routes"}, log.all())
	})

	t.Run("mutations evict the collection", func(t *testing.T) {
		t.Parallel()

		gateway, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				respondJSON(w, http.StatusCreated, kong.Record{"id": "new"})

				return
			}

			respondJSON(w, http.StatusOK, page(nil))
		})

		ctx := context.Background()

		_, err := gateway.AllOf(ctx, kong.Consumers)
		require.NoError(t, err)

		_, err = gateway.Add(ctx, kong.Consumers, map[string]interface{}{"username": "bob"})
		require.NoError(t, err)

		_, err = gateway.AllOf(ctx, kong.Consumers)
		require.NoError(t, err)

		assert.Equal(t, []string{"GET /consumers", "POST /consumers/", "GET /consumers"}, log.all())
	})

	t.Run("failures are not memoized", func(t *testing.T) {
		t.Parallel()

		calls := 0

		gateway, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				respondJSON(w, http.StatusBadGateway, map[string]string{"message": "upstream"})

				return
			}

			respondJSON(w, http.StatusOK, page(nil))
		})

		_, err := gateway.AllOf(context.Background(), kong.Plugins)
		require.Error(t, err)

		records, err := gateway.AllOf(context.Background(), kong.Plugins)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("reset cache", func(t *testing.T) {
		t.Parallel()

		gateway, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, page(nil))
		})

		_, _ = gateway.AllOf(context.Background(), kong.ACLs)
		gateway.ResetCache()
		_, _ = gateway.AllOf(context.Background(), kong.ACLs)

		assert.Len(t, log.all(), 2)
	})
}
