package model

import "time"

// User roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	APIToken    string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
