package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/festakit/internal/config"
	"github.com/diewo77/festakit/internal/models"
)

type recorded struct {
	method string
	path   string
	body   []byte
}

const clusterInfo = `{"name":"test","cluster_name":"festakit","version":{"number":"7.17.10","build_flavor":"default"},"tagline":"You Know, for Search"}`

// fakeElastic answers the client's product check on GET / and replies to
// every other request with status and body. Only those other requests are
// recorded.
func fakeElastic(t *testing.T, status int, body string) (*httptest.Server, func() []recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet && r.URL.Path == "/" {
			_, _ = w.Write([]byte(clusterInfo))
			return
		}
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{r.Method, r.URL.Path, b})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), reqs...)
	}
}

func TestNewIndexer_Disabled(t *testing.T) {
	idx, err := NewIndexer(config.ElasticConfig{Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, idx)
	assert.NoError(t, idx.IndexMaterial(context.Background(), &models.Material{}))
}

func TestElasticIndexer_IndexMaterial(t *testing.T) {
	srv, requests := fakeElastic(t, http.StatusCreated, `{"result":"created"}`)
	idx, err := NewElasticIndexer(config.ElasticConfig{URL: srv.URL, Prefix: "festakit", Index: "materials"})
	require.NoError(t, err)

	m := &models.Material{ID: 7, Title: "Painel Safari", Active: true, Theme: &models.Theme{Name: "Safari"}}
	require.NoError(t, idx.IndexMaterial(context.Background(), m))

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].method)
	assert.Equal(t, "/festakit-materials/_doc/7", reqs[0].path)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].body, &doc))
	assert.Equal(t, "Painel Safari", doc["title"])
	assert.Equal(t, "Safari", doc["theme"])
}

func TestElasticIndexer_RemoveMissingIsOK(t *testing.T) {
	srv, _ := fakeElastic(t, http.StatusNotFound, `{"result":"not_found"}`)
	idx, err := NewElasticIndexer(config.ElasticConfig{URL: srv.URL, Index: "materials"})
	require.NoError(t, err)
	assert.NoError(t, idx.RemoveMaterial(context.Background(), 3))
}

func TestElasticIndexer_ErrorResponse(t *testing.T) {
	srv, _ := fakeElastic(t, http.StatusBadRequest, `{"error":{"type":"mapper_parsing_exception"}}`)
	idx, err := NewElasticIndexer(config.ElasticConfig{URL: srv.URL, Index: "materials"})
	require.NoError(t, err)
	err = idx.IndexMaterial(context.Background(), &models.Material{ID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestElasticIndexer_SearchMaterialIDs(t *testing.T) {
	srv, requests := fakeElastic(t, http.StatusOK,
		`{"hits":{"total":{"value":3},"hits":[{"_id":"4"},{"_id":"9"},{"_id":"not-a-number"}]}}`)
	idx, err := NewElasticIndexer(config.ElasticConfig{URL: srv.URL, Prefix: "festakit", Index: "materials"})
	require.NoError(t, err)

	ids, err := idx.SearchMaterialIDs(context.Background(), " Safari* ")
	require.NoError(t, err)
	assert.Equal(t, []uint{4, 9}, ids)

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/festakit-materials/_search", reqs[0].path)

	var q struct {
		Query struct {
			Bool struct {
				Filter []map[string]map[string]any `json:"filter"`
			} `json:"bool"`
		} `json:"query"`
	}
	require.NoError(t, json.Unmarshal(reqs[0].body, &q))
	require.Len(t, q.Query.Bool.Filter, 2)
	wildcard := q.Query.Bool.Filter[1]["wildcard"]["title.keyword"].(map[string]any)
	assert.Equal(t, `*Safari\**`, wildcard["value"])
	assert.Equal(t, true, wildcard["case_insensitive"])
}

func TestElasticIndexer_SearchError(t *testing.T) {
	srv, _ := fakeElastic(t, http.StatusInternalServerError, `{"error":{"type":"search_phase_execution_exception"}}`)
	idx, err := NewElasticIndexer(config.ElasticConfig{URL: srv.URL, Index: "materials"})
	require.NoError(t, err)
	_, err = idx.SearchMaterialIDs(context.Background(), "safari")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestNoopIsNotASearcher(t *testing.T) {
	var idx Indexer = Noop{}
	_, ok := idx.(Searcher)
	assert.False(t, ok)
}
