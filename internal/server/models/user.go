// Package models holds the typed records the server persists.
package models

import "time"

// User is a registered account. Password holds the bcrypt hash and is never
// serialized; only the hash ever reaches the database.
type User struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	Password  string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
