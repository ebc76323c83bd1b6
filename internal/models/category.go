package models

type Category struct {
	ID          string `json:"id" firestore:"-" yaml:"id"`
	Name        string `json:"name" firestore:"name" yaml:"name"`
	Slug        string `json:"slug" firestore:"slug" yaml:"slug"`
	Image       string `json:"image" firestore:"image" yaml:"image"`
	Description string `json:"description" firestore:"description" yaml:"description"`
}
