// Package seed loads a catalog file into the store and the search index.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Catalog struct {
	Categories []models.Category `yaml:"categories"`
	Products   []models.Product  `yaml:"products"`
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads a catalog YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog and rejects unknown fields.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

// Validate checks category and product ids, slugs and that every product
// names a known category.
func (c *Catalog) Validate() error {
	var errs []error
	names := map[string]bool{}
	slugs := map[string]bool{}
	catIDs := map[string]bool{}
	for i, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" || strings.TrimSpace(cat.Slug) == "" {
			errs = append(errs, fmt.Errorf("category %d: name and slug are required", i))
			continue
		}
		// an empty id would get a fresh document id on every run
		switch {
		case strings.TrimSpace(cat.ID) == "":
			errs = append(errs, fmt.Errorf("category %q: id is required", cat.Slug))
		case catIDs[cat.ID]:
			errs = append(errs, fmt.Errorf("category %q: duplicate id %q", cat.Slug, cat.ID))
		}
		catIDs[cat.ID] = true
		if slugs[cat.Slug] {
			errs = append(errs, fmt.Errorf("category %q: duplicate slug", cat.Slug))
		}
		slugs[cat.Slug] = true
		names[cat.Name] = true
	}

	ids := map[string]bool{}
	for i, p := range c.Products {
		switch {
		case strings.TrimSpace(p.ID) == "":
			errs = append(errs, fmt.Errorf("product %d: id is required", i))
		case ids[p.ID]:
			errs = append(errs, fmt.Errorf("product %q: duplicate id", p.ID))
		}
		ids[p.ID] = true
		if p.Price < 0 || p.Stock < 0 {
			errs = append(errs, fmt.Errorf("product %q: price and stock must not be negative", p.ID))
		}
		if !names[p.Category] {
			errs = append(errs, fmt.Errorf("product %q: unknown category %q", p.ID, p.Category))
		}
	}
	return errors.Join(errs...)
}

// Indexer receives every seeded product.
type Indexer interface {
	IndexProduct(ctx context.Context, p models.Product) error
}

// Invalidator drops cached catalog entries.
type Invalidator interface {
	Invalidate(ctx context.Context, productIDs []string, slugs []string)
}

type Seeder struct {
	Products   store.ProductStore
	Categories store.CategoryStore
	// Index and Cache are optional.
	Index Indexer
	Cache Invalidator
	Now   func() time.Time
}

// Result counts what a run wrote.
type Result struct {
	Categories int
	Products   int
	Indexed    int
}

// Run upserts the catalog. Products get descending creation times so the
// newest-first listing keeps the file order. Index failures are logged and
// counted out; store failures stop the run.
func (s *Seeder) Run(ctx context.Context, c *Catalog) (Result, error) {
	var res Result
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	slugs := make([]string, 0, len(c.Categories))
	for i := range c.Categories {
		cat := c.Categories[i]
		if err := s.Categories.UpsertCategory(ctx, &cat); err != nil {
			return res, fmt.Errorf("seed category %s: %w", cat.Slug, err)
		}
		slugs = append(slugs, cat.Slug)
		res.Categories++
	}

	base := now().UTC()
	ids := make([]string, 0, len(c.Products))
	for i := range c.Products {
		p := c.Products[i]
		p.CreatedAt = base.Add(-time.Duration(i) * time.Second)
		if err := s.Products.UpsertProduct(ctx, &p); err != nil {
			return res, fmt.Errorf("seed product %s: %w", p.ID, err)
		}
		ids = append(ids, p.ID)
		res.Products++

		if s.Index != nil {
			if err := s.Index.IndexProduct(ctx, p); err != nil {
				log.Printf("⚠️ Indexing product %s: %v", p.ID, err)
				continue
			}
			res.Indexed++
		}
	}

	if s.Cache != nil {
		s.Cache.Invalidate(ctx, ids, slugs)
	}
	log.Printf("✅ Seeded %d categories, %d products (%d indexed)", res.Categories, res.Products, res.Indexed)
	return res, nil
}
