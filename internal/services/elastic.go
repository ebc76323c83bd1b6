package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"storefront_back_end/internal/models"
)

var ErrSearchUnavailable = errors.New("search index not initialised")

// SearchIndex keeps the product index in Elasticsearch.
type SearchIndex struct {
	Client *elasticsearch.Client
	Index  string
}

func NewSearchIndex(client *elasticsearch.Client, index string) *SearchIndex {
	if index == "" {
		index = "products"
	}
	return &SearchIndex{Client: client, Index: index}
}

func (s *SearchIndex) Enabled() bool {
	return s != nil && s.Client != nil
}

//
// --- INDEXING ---
//

func (s *SearchIndex) IndexProduct(ctx context.Context, p models.Product) error {
	if !s.Enabled() {
		return ErrSearchUnavailable
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode product %s: %w", p.ID, err)
	}
	req := esapi.IndexRequest{
		Index:      s.Index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, s.Client)
	if err != nil {
		return fmt.Errorf("index product %s: %w", p.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index product %s: %s", p.ID, res.String())
	}
	log.Printf("✅ Product indexed in Elasticsearch: %s", p.Name)
	return nil
}

//
// --- SEARCH ---
//

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string         `json:"_id"`
			Source models.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchProducts runs a multi_match over name and description.
func (s *SearchIndex) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	if !s.Enabled() {
		return nil, ErrSearchUnavailable
	}

	var buf bytes.Buffer
	q := map[string]interface{}{
		"size": 50,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.Index},
		Body:  &buf,
	}
	res, err := req.Do(ctx, s.Client)
	if err != nil {
		return nil, fmt.Errorf("elastic request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elastic search: %s", res.Status())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]models.Product, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		p := hit.Source
		if p.ID == "" {
			p.ID = hit.ID
		}
		out = append(out, p)
	}
	return out, nil
}
