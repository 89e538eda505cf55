package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	internalhttp "github.com/fivetwenty-io/kongcli/internal/http"
	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

// requestLog records the method and request URI of every call a test server sees.
type requestLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *requestLog) add(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls = append(l.calls, r.Method+" "+r.URL.RequestURI())
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.calls...)
}

// newTestClient starts a server for handler and returns a gateway with a
// memory cache pointed at it.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *requestLog) {
	t.Helper()

	log := &requestLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	return New(internalhttp.NewClient(server.URL), kong.NewResultCache(0), nil), log
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func page(next interface{}, records ...kong.Record) map[string]interface{} {
	if records == nil {
		records = []kong.Record{}
	}

	return map[string]interface{}{"data": records, "next": next}
}
