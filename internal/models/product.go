package models

import "time"

// Product is catalog reference data. Category holds the category name, not its slug.
type Product struct {
	ID          string    `json:"id" firestore:"-" yaml:"id"`
	Name        string    `json:"name" firestore:"name" yaml:"name"`
	Description string    `json:"description" firestore:"description" yaml:"description"`
	Price       float64   `json:"price" firestore:"price" yaml:"price"`
	Image       string    `json:"image" firestore:"image" yaml:"image"`
	Category    string    `json:"category" firestore:"category" yaml:"category"`
	Stock       int       `json:"stock" firestore:"stock" yaml:"stock"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt" yaml:"-"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt" yaml:"-"`
}

// ProductPage is one page of the product listing. NextCursor is the id of
// the last returned product, empty when there is nothing more to read.
type ProductPage struct {
	Products   []Product `json:"products"`
	NextCursor string    `json:"nextCursor,omitempty"`
}
