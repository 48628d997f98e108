package csvloader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
)

// request is a call received by fakeCluster.
type request struct {
	Method string
	Path   string
	Query  string
	Body   string
}

func (r request) String() string {
	return r.Method + " " + r.Path
}

// fakeCluster is a minimal stand-in for the Elasticsearch endpoints used by
// the loader. It records every request it receives.
type fakeCluster struct {
	mu       sync.Mutex
	requests []request
	indices  map[string]string // index name -> create body

	// reject, when set, marks a bulk document as failed.
	reject func(doc map[string]string) bool
	// fail, when set, answers a request with the given status instead.
	fail func(r request) int
}

func newFakeCluster(t *testing.T) (*fakeCluster, *elasticsearch.Client) {
	t.Helper()

	fc := &fakeCluster{indices: make(map[string]string)}
	srv := httptest.NewServer(fc)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{srv.URL},
		DisableRetry: true,
	})
	if err != nil {
		t.Fatalf("creating ES client: %v", err)
	}

	return fc, client
}

func (fc *fakeCluster) addIndex(name string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.indices[name] = "{}"
}

func (fc *fakeCluster) hasIndex(name string) bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	_, ok := fc.indices[name]
	return ok
}

func (fc *fakeCluster) createBody(name string) string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.indices[name]
}

func (fc *fakeCluster) calls() []string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	out := make([]string, len(fc.requests))
	for i, r := range fc.requests {
		out[i] = r.String()
	}
	return out
}

func (fc *fakeCluster) last(method string) (request, bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	for i := len(fc.requests) - 1; i >= 0; i-- {
		if fc.requests[i].Method == method {
			return fc.requests[i], true
		}
	}
	return request{}, false
}

func (fc *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	req := request{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)}

	fc.mu.Lock()
	fc.requests = append(fc.requests, req)
	fc.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	if fc.fail != nil {
		if status := fc.fail(req); status != 0 {
			w.WriteHeader(status)
			fmt.Fprintf(w, `{"error":{"type":"test_exception","reason":"injected"},"status":%d}`, status)
			return
		}
	}

	name := strings.TrimPrefix(r.URL.Path, "/")

	fc.mu.Lock()
	defer fc.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && name == "_bulk":
		fc.serveBulk(w, req.Body)
	case r.Method == http.MethodHead:
		if _, ok := fc.indices[name]; ok {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut:
		if _, ok := fc.indices[name]; ok {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"type":"resource_already_exists_exception"},"status":400}`)
			return
		}
		fc.indices[name] = req.Body
		fmt.Fprintf(w, `{"acknowledged":true,"shards_acknowledged":true,"index":%q}`, name)
	case r.Method == http.MethodDelete:
		delete(fc.indices, name)
		fmt.Fprint(w, `{"acknowledged":true}`)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (fc *fakeCluster) serveBulk(w http.ResponseWriter, body string) {
	type item struct {
		Index  string `json:"_index"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	}

	var (
		items  []map[string]item
		errors bool
		action struct {
			Index struct {
				Index string `json:"_index"`
			} `json:"index"`
		}
	)

	sc := bufio.NewScanner(strings.NewReader(body))
	for line := 0; sc.Scan(); line++ {
		if line%2 == 0 {
			if err := json.Unmarshal(sc.Bytes(), &action); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			continue
		}

		var doc map[string]string
		if err := json.Unmarshal(sc.Bytes(), &doc); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		it := item{Index: action.Index.Index, Status: http.StatusCreated}
		if fc.reject != nil && fc.reject(doc) {
			errors = true
			it.Status = http.StatusBadRequest
			it.Error = &struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			}{Type: "mapper_parsing_exception", Reason: "failed to parse"}
		}
		items = append(items, map[string]item{"index": it})
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"took":   1,
		"errors": errors,
		"items":  items,
	})
}
