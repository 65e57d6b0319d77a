package models

import "time"

// Contact is an entry in a user's personal contact list (PostgreSQL).
// Contacts are private to their owner.
type Contact struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OwnerID   string    `json:"ownerId" gorm:"index"` // Firebase UID of the list owner
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContactRequest defines the request body for creating or updating a contact
type ContactRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=80"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}
