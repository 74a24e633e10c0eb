package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	PasswordHash string    `json:"-"`
	// Role is the user's active role name. Membership is stored
	// many-to-many, but exactly one role is surfaced at a time.
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Role struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions,omitempty"`
}

type Permission struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Role names the system seeds.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)
