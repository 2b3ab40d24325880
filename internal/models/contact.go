package models

import "time"

// Contact is an address book entry owned by exactly one user.
type Contact struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Birthday    Date      `json:"birthday"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      int64     `json:"-"`
}

// ContactInput is the create/update payload.
type ContactInput struct {
	FirstName   string `json:"first_name" validate:"required,max=50"`
	LastName    string `json:"last_name" validate:"required,max=50"`
	Email       string `json:"email" validate:"required,email,max=100"`
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
	Birthday    Date   `json:"birthday"`
	Description string `json:"description" validate:"max=150"`
}

// ContactFilter narrows a contact listing. Empty fields match everything.
type ContactFilter struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
}
