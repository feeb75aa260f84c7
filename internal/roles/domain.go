package roles

import (
	"time"

	"github.com/google/uuid"
)

// Role is a named permission group referenced by access rules.
type Role struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserRoles pairs an account with its assigned role set for listings.
type UserRoles struct {
	UserID   uuid.UUID `json:"uuid"`
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Roles    []Role    `json:"roles"`
}
