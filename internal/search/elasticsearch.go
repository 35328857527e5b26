// Package search keeps an Elasticsearch index of catalog materials.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/diewo77/festakit/internal/config"
	"github.com/diewo77/festakit/internal/models"
)

// Indexer receives catalog changes.
type Indexer interface {
	IndexMaterial(ctx context.Context, m *models.Material) error
	RemoveMaterial(ctx context.Context, id uint) error
}

// Searcher finds material ids by title text.
type Searcher interface {
	SearchMaterialIDs(ctx context.Context, text string) ([]uint, error)
}

// maxSearchHits bounds one title search. The catalog has no pagination.
const maxSearchHits = 1000

// Noop discards every change. It is used when Elasticsearch is disabled.
type Noop struct{}

func (Noop) IndexMaterial(context.Context, *models.Material) error { return nil }
func (Noop) RemoveMaterial(context.Context, uint) error            { return nil }

// ElasticIndexer writes material documents to one index.
type ElasticIndexer struct {
	client *elasticsearch.Client
	index  string
}

// NewIndexer returns Noop when cfg is disabled.
func NewIndexer(cfg config.ElasticConfig) (Indexer, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	return NewElasticIndexer(cfg)
}

func NewElasticIndexer(cfg config.ElasticConfig) (*ElasticIndexer, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}
	return &ElasticIndexer{client: client, index: cfg.IndexName()}, nil
}

type materialDoc struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CategoryID  *uint     `json:"category_id,omitempty"`
	ThemeID     *uint     `json:"theme_id,omitempty"`
	PieceTypeID *uint     `json:"piece_type_id,omitempty"`
	FormatID    *uint     `json:"format_id,omitempty"`
	Theme       string    `json:"theme,omitempty"`
	Premium     bool      `json:"premium"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

func newMaterialDoc(m *models.Material) materialDoc {
	doc := materialDoc{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		CategoryID:  m.CategoryID,
		ThemeID:     m.ThemeID,
		PieceTypeID: m.PieceTypeID,
		FormatID:    m.FormatID,
		Premium:     m.Premium,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
	}
	if m.Theme != nil {
		doc.Theme = m.Theme.Name
	}
	return doc
}

// IndexMaterial upserts the document of m.
func (e *ElasticIndexer) IndexMaterial(ctx context.Context, m *models.Material) error {
	body, err := json.Marshal(newMaterialDoc(m))
	if err != nil {
		return errors.Wrap(err, "failed to marshal material document")
	}
	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: strconv.FormatUint(uint64(m.ID), 10),
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res)
	}
	log.Debug().Uint("material_id", m.ID).Msg("material indexed")
	return nil
}

// RemoveMaterial deletes the document. A missing document is not an error.
func (e *ElasticIndexer) RemoveMaterial(ctx context.Context, id uint) error {
	req := esapi.DeleteRequest{
		Index:      e.index,
		DocumentID: strconv.FormatUint(uint64(id), 10),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch delete request")
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return nil
	}
	if res.IsError() {
		return responseError("delete", res)
	}
	return nil
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`)

// SearchMaterialIDs returns the ids of active materials whose title contains
// text, ignoring case.
func (e *ElasticIndexer) SearchMaterialIDs(ctx context.Context, text string) ([]uint, error) {
	query := map[string]any{
		"size":    maxSearchHits,
		"_source": false,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"term": map[string]any{"active": true}},
					map[string]any{"wildcard": map[string]any{
						"title.keyword": map[string]any{
							"value":            "*" + wildcardEscaper.Replace(strings.TrimSpace(text)) + "*",
							"case_insensitive": true,
						},
					}},
				},
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}
	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search", res)
	}

	var result struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}
	ids := make([]uint, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		n, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(n))
	}
	return ids, nil
}

func responseError(op string, res *esapi.Response) error {
	var e map[string]any
	if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
		return errors.Errorf("Elasticsearch %s error: %s", op, res.Status())
	}
	return errors.Errorf("Elasticsearch %s error: %s %v", op, res.Status(), e["error"])
}
