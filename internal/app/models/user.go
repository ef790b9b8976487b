package models

import (
	"time"
)

// User defines the user model based on the 'users' table.
// IsAdmin is the staff flag; it is never writable through the API.
type User struct {
	ID             int64     `json:"id" db:"id" example:"1"`
	Username       string    `json:"username" db:"username" example:"abebe"`
	Email          string    `json:"email" db:"email" example:"abebe@example.com"`
	Password       string    `json:"-" db:"password"` // bcrypt hash, excluded from JSON
	FullName       string    `json:"full_name" db:"full_name" example:"Abebe Kebede"`
	PhoneNumber    *string   `json:"phone_number,omitempty" db:"phone_number" example:"+251911000000"`
	Address        *string   `json:"address,omitempty" db:"address" example:"Kebele 04, Addis Ababa"`
	ProfilePicture *string   `json:"profile_picture,omitempty" db:"profile_picture" example:"profiles/1.jpg"` // storage key
	IsAdmin        bool      `json:"is_admin" db:"is_admin" example:"false"`
	CreatedAt      time.Time `json:"created_at" db:"created_at" example:"2024-01-01T10:00:00Z"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at" example:"2024-01-02T15:30:00Z"`
}
