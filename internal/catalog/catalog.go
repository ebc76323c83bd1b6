// Package catalog serves products and categories to the storefront.
package catalog

import (
	"context"
	"log"
	"strings"

	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
)

type Searcher interface {
	SearchProducts(ctx context.Context, query string) ([]models.Product, error)
}

type ImageResolver interface {
	ResolveImage(ctx context.Context, image string) string
}

// CategoryPage is a category with its products.
type CategoryPage struct {
	Category models.Category  `json:"category"`
	Products []models.Product `json:"products"`
}

const categoriesKey = "categories:all"

func productKey(id string) string    { return "product:" + id }
func categoryKey(slug string) string { return "category:" + slug }

type Service struct {
	Products   store.ProductStore
	Categories store.CategoryStore
	Cache      *cache.Redis
	Index      Searcher
	Images     ImageResolver
	PageSize   int
}

// ListProducts returns one page of the newest products.
func (s *Service) ListProducts(ctx context.Context, cursor string, limit int) (models.ProductPage, error) {
	if limit <= 0 {
		limit = s.PageSize
	}
	page, err := s.Products.ListProducts(ctx, cursor, limit)
	if err != nil {
		return models.ProductPage{}, err
	}
	page.Products = s.withImages(ctx, page.Products)
	return page, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := cache.Remember(ctx, s.Cache, productKey(id), cache.ProductCacheTTL, func() (models.Product, error) {
		p, err := s.Products.GetProduct(ctx, id)
		if err != nil {
			return models.Product{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}
	p.Image = s.resolve(ctx, p.Image)
	return &p, nil
}

// Product returns the stored product without touching the cache. Used where
// price and stock must be current.
func (s *Service) Product(ctx context.Context, id string) (*models.Product, error) {
	return s.Products.GetProduct(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats, err := cache.Remember(ctx, s.Cache, categoriesKey, cache.CategoryCacheTTL, func() ([]models.Category, error) {
		return s.Categories.ListCategories(ctx)
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Category, len(cats))
	for i, c := range cats {
		c.Image = s.resolve(ctx, c.Image)
		out[i] = c
	}
	return out, nil
}

// GetCategory returns the category with the given slug and its products.
// Products reference categories by name.
func (s *Service) GetCategory(ctx context.Context, slug string) (*CategoryPage, error) {
	page, err := cache.Remember(ctx, s.Cache, categoryKey(slug), cache.CategoryCacheTTL, func() (CategoryPage, error) {
		c, err := s.Categories.GetCategoryBySlug(ctx, slug)
		if err != nil {
			return CategoryPage{}, err
		}
		products, err := s.Products.ListProductsByCategory(ctx, c.Name)
		if err != nil {
			return CategoryPage{}, err
		}
		return CategoryPage{Category: *c, Products: products}, nil
	})
	if err != nil {
		return nil, err
	}
	page.Category.Image = s.resolve(ctx, page.Category.Image)
	page.Products = s.withImages(ctx, page.Products)
	return &page, nil
}

// Search looks the term up in the search index, falling back to a
// case-insensitive substring match over name and description.
func (s *Service) Search(ctx context.Context, term string) ([]models.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.Product{}, nil
	}

	if s.Index != nil {
		hits, err := s.Index.SearchProducts(ctx, term)
		switch {
		case err != nil:
			log.Printf("⚠️ Search index unavailable, scanning products: %v", err)
		case len(hits) > 0:
			return s.withImages(ctx, hits), nil
		}
	}

	all, err := s.Products.AllProducts(ctx)
	if err != nil {
		return nil, err
	}
	return s.withImages(ctx, FilterProducts(all, term)), nil
}

// FilterProducts keeps products whose name or description contains term,
// ignoring case.
func FilterProducts(products []models.Product, term string) []models.Product {
	needle := strings.ToLower(term)
	out := []models.Product{}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			out = append(out, p)
		}
	}
	return out
}

// Invalidate drops cached catalog entries after a write.
func (s *Service) Invalidate(ctx context.Context, productIDs []string, slugs []string) {
	keys := []string{categoriesKey}
	for _, id := range productIDs {
		keys = append(keys, productKey(id))
	}
	for _, slug := range slugs {
		keys = append(keys, categoryKey(slug))
	}
	s.Cache.Delete(ctx, keys...)
}

func (s *Service) resolve(ctx context.Context, image string) string {
	if s.Images == nil {
		return image
	}
	return s.Images.ResolveImage(ctx, image)
}

// CartImages returns items with each stored image key turned into a
// servable URL, the way product responses carry them.
func (s *Service) CartImages(ctx context.Context, items []models.CartItem) []models.CartItem {
	out := models.CloneItems(items)
	for i := range out {
		out[i].Image = s.resolve(ctx, out[i].Image)
	}
	return out
}

func (s *Service) withImages(ctx context.Context, products []models.Product) []models.Product {
	out := make([]models.Product, len(products))
	for i, p := range products {
		p.Image = s.resolve(ctx, p.Image)
		out[i] = p
	}
	return out
}
