package models

import "time"

// User is the identity returned by the authentication provider. It is not
// stored by this service.
type User struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	DisplayName   string    `json:"displayName,omitempty"`
	CreationTime  time.Time `json:"creationTime"`
}

// UserProfile is the users/{uid} document.
type UserProfile struct {
	ID              string        `json:"id" firestore:"-"`
	DisplayName     string        `json:"displayName" firestore:"displayName"`
	PhoneNumber     string        `json:"phoneNumber" firestore:"phoneNumber"`
	DefaultShipping *ShippingInfo `json:"defaultShipping,omitempty" firestore:"defaultShipping,omitempty"`
	CreatedAt       time.Time     `json:"createdAt" firestore:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt" firestore:"updatedAt"`
}

// ProfileUpdate is a partial update; nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName     *string       `json:"displayName"`
	PhoneNumber     *string       `json:"phoneNumber"`
	DefaultShipping *ShippingInfo `json:"defaultShipping"`
}
