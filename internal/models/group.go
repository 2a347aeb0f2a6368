package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is a mentorship group. Group CRUD lives in the platform's main
// service; this service only reads groups to authorize and label joins.
type Group struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
