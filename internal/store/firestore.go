package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"storefront_back_end/internal/models"
)

// Firestore is the production backend.
type Firestore struct {
	Client *firestore.Client
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{Client: client}
}

func (f *Firestore) Close() error {
	if f == nil || f.Client == nil {
		return nil
	}
	return f.Client.Close()
}

func (f *Firestore) col(name string) *firestore.CollectionRef {
	return f.Client.Collection(name)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (f *Firestore) ready() error {
	if f == nil || f.Client == nil {
		return errors.New("store: firestore client is nil")
	}
	return nil
}

// ============================================================
// products
// ============================================================

func docToProduct(snap *firestore.DocumentSnapshot) (models.Product, error) {
	var p models.Product
	if err := snap.DataTo(&p); err != nil {
		return models.Product{}, fmt.Errorf("decode product %s: %w", snap.Ref.ID, err)
	}
	p.ID = snap.Ref.ID
	return p, nil
}

func collectProducts(it *firestore.DocumentIterator) ([]models.Product, error) {
	defer it.Stop()
	out := []models.Product{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		p, err := docToProduct(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *Firestore) ListProducts(ctx context.Context, cursor string, limit int) (models.ProductPage, error) {
	if err := f.ready(); err != nil {
		return models.ProductPage{}, err
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}

	q := f.col(ProductsCollection).OrderBy("createdAt", firestore.Desc)
	if cursor = strings.TrimSpace(cursor); cursor != "" {
		snap, err := f.col(ProductsCollection).Doc(cursor).Get(ctx)
		if err != nil {
			if isNotFound(err) {
				return models.ProductPage{}, ErrNotFound
			}
			return models.ProductPage{}, fmt.Errorf("load cursor: %w", err)
		}
		q = q.StartAfter(snap)
	}

	// one extra row tells us whether another page exists
	products, err := collectProducts(q.Limit(limit + 1).Documents(ctx))
	if err != nil {
		return models.ProductPage{}, fmt.Errorf("list products: %w", err)
	}

	page := models.ProductPage{Products: products}
	if len(products) > limit {
		page.Products = products[:limit]
		page.NextCursor = page.Products[limit-1].ID
	}
	return page, nil
}

func (f *Firestore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if err := f.ready(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	snap, err := f.col(ProductsCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	p, err := docToProduct(snap)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (f *Firestore) ListProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	if err := f.ready(); err != nil {
		return nil, err
	}
	q := f.col(ProductsCollection).
		Where("category", "==", category).
		OrderBy("createdAt", firestore.Desc)
	products, err := collectProducts(q.Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("list products by category: %w", err)
	}
	return products, nil
}

func (f *Firestore) AllProducts(ctx context.Context) ([]models.Product, error) {
	if err := f.ready(); err != nil {
		return nil, err
	}
	products, err := collectProducts(f.col(ProductsCollection).OrderBy("createdAt", firestore.Desc).Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("list all products: %w", err)
	}
	return products, nil
}

func (f *Firestore) UpsertProduct(ctx context.Context, p *models.Product) error {
	if err := f.ready(); err != nil {
		return err
	}
	ref := f.col(ProductsCollection).NewDoc()
	if id := strings.TrimSpace(p.ID); id != "" {
		ref = f.col(ProductsCollection).Doc(id)
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if _, err := ref.Set(ctx, p); err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	p.ID = ref.ID
	return nil
}

// ============================================================
// categories
// ============================================================

func docToCategory(snap *firestore.DocumentSnapshot) (models.Category, error) {
	var c models.Category
	if err := snap.DataTo(&c); err != nil {
		return models.Category{}, fmt.Errorf("decode category %s: %w", snap.Ref.ID, err)
	}
	c.ID = snap.Ref.ID
	return c, nil
}

func (f *Firestore) ListCategories(ctx context.Context) ([]models.Category, error) {
	if err := f.ready(); err != nil {
		return nil, err
	}
	it := f.col(CategoriesCollection).Documents(ctx)
	defer it.Stop()

	out := []models.Category{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		c, err := docToCategory(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *Firestore) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	if err := f.ready(); err != nil {
		return nil, err
	}
	it := f.col(CategoriesCollection).Where("slug", "==", slug).Limit(1).Documents(ctx)
	defer it.Stop()

	doc, err := it.Next()
	if err == iterator.Done {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	c, err := docToCategory(doc)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (f *Firestore) UpsertCategory(ctx context.Context, c *models.Category) error {
	if err := f.ready(); err != nil {
		return err
	}
	ref := f.col(CategoriesCollection).NewDoc()
	if id := strings.TrimSpace(c.ID); id != "" {
		ref = f.col(CategoriesCollection).Doc(id)
	}
	if _, err := ref.Set(ctx, c); err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	c.ID = ref.ID
	return nil
}
