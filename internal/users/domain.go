package users

import (
	"time"

	"github.com/google/uuid"
)

// User is a directory-backed account. Rows are created and refreshed at
// login from the directory entry; no local password is ever stored.
type User struct {
	ID         uuid.UUID `json:"uuid"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Title      string    `json:"title"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
