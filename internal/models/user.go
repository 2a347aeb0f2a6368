package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a platform user. Read-only here; used to resolve alert
// recipients by role.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}
