package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"` // Never leaves the server
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisteredUser is the projection returned after registration.
type RegisteredUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// PublicUser is the projection returned after login and for the profile endpoint.
type PublicUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// Registered strips everything but id, name and phone.
func (u *User) Registered() RegisteredUser {
	return RegisteredUser{ID: u.ID, Name: u.Name, Phone: u.Phone}
}

// Public strips the password hash and timestamps.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Phone: u.Phone, Role: u.Role}
}
