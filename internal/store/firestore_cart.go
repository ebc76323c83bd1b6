package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"storefront_back_end/internal/models"
)

// ============================================================
// carts (doc id = user uid)
// ============================================================

func (f *Firestore) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	if err := f.ready(); err != nil {
		return nil, err
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, ErrNotFound
	}

	snap, err := f.col(CartsCollection).Doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	var c models.Cart
	if err := snap.DataTo(&c); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", uid, err)
	}
	c.ID = uid
	c.Items = models.CloneItems(c.Items)
	return &c, nil
}

func (f *Firestore) MutateCart(ctx context.Context, userID string, fn CartMutation) ([]models.CartItem, error) {
	if err := f.ready(); err != nil {
		return nil, err
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, fmt.Errorf("mutate cart: empty user id")
	}
	ref := f.col(CartsCollection).Doc(uid)

	var committed []models.CartItem
	err := f.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var current models.Cart
		exists := true

		snap, err := tx.Get(ref)
		switch {
		case isNotFound(err):
			exists = false
		case err != nil:
			return err
		default:
			if err := snap.DataTo(&current); err != nil {
				return fmt.Errorf("decode cart %s: %w", uid, err)
			}
		}

		next, err := fn(models.CloneItems(current.Items))
		if errors.Is(err, ErrNoChange) {
			committed = models.CloneItems(current.Items)
			return nil
		}
		if err != nil {
			return err
		}
		committed = models.CloneItems(next)
		if !exists && len(next) == 0 {
			return nil
		}

		now := time.Now().UTC()
		if !exists {
			current.CreatedAt = now
		}
		current.UserID = uid
		current.Items = committed
		current.UpdatedAt = now
		return tx.Set(ref, current)
	})
	if err != nil {
		return nil, fmt.Errorf("mutate cart: %w", err)
	}
	return committed, nil
}

// ============================================================
// orders
// ============================================================

func docToOrder(snap *firestore.DocumentSnapshot) (models.Order, error) {
	var o models.Order
	if err := snap.DataTo(&o); err != nil {
		return models.Order{}, fmt.Errorf("decode order %s: %w", snap.Ref.ID, err)
	}
	o.ID = snap.Ref.ID
	o.Items = models.CloneItems(o.Items)
	return o, nil
}

func (f *Firestore) CreateOrder(ctx context.Context, o *models.Order) error {
	if err := f.ready(); err != nil {
		return err
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	ref := f.col(OrdersCollection).NewDoc()
	if _, err := ref.Create(ctx, o); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	o.ID = ref.ID
	return nil
}

func (f *Firestore) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	if err := f.ready(); err != nil {
		return nil, err
	}
	it := f.col(OrdersCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer it.Stop()

	out := []models.Order{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		o, err := docToOrder(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (f *Firestore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	if err := f.ready(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	snap, err := f.col(OrdersCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o, err := docToOrder(snap)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (f *Firestore) UpdateOrderStatus(ctx context.Context, id string, st models.OrderStatus) (*models.Order, error) {
	if err := f.ready(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	ref := f.col(OrdersCollection).Doc(id)
	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "status", Value: string(st)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return f.GetOrder(ctx, id)
}

// ============================================================
// user profiles (doc id = user uid)
// ============================================================

func (f *Firestore) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if err := f.ready(); err != nil {
		return nil, err
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, ErrNotFound
	}
	snap, err := f.col(UsersCollection).Doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	var p models.UserProfile
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("decode user profile %s: %w", uid, err)
	}
	p.ID = uid
	return &p, nil
}

func (f *Firestore) UpdateUserProfile(ctx context.Context, userID string, u models.ProfileUpdate) (*models.UserProfile, error) {
	if err := f.ready(); err != nil {
		return nil, err
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, fmt.Errorf("update user profile: empty user id")
	}
	ref := f.col(UsersCollection).Doc(uid)

	var out models.UserProfile
	err := f.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		out = models.UserProfile{}
		now := time.Now().UTC()

		snap, err := tx.Get(ref)
		switch {
		case isNotFound(err):
			out.CreatedAt = now
		case err != nil:
			return err
		default:
			if err := snap.DataTo(&out); err != nil {
				return fmt.Errorf("decode user profile %s: %w", uid, err)
			}
		}

		applyProfileUpdate(&out, u)
		out.UpdatedAt = now

		data := map[string]interface{}{
			"displayName": out.DisplayName,
			"phoneNumber": out.PhoneNumber,
			"createdAt":   out.CreatedAt,
			"updatedAt":   out.UpdatedAt,
		}
		if out.DefaultShipping != nil {
			data["defaultShipping"] = out.DefaultShipping
		}
		return tx.Set(ref, data, firestore.MergeAll)
	})
	if err != nil {
		return nil, fmt.Errorf("update user profile: %w", err)
	}
	out.ID = uid
	return &out, nil
}
