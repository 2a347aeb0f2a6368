package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationLog records one delivered (or attempted) operational alert.
type NotificationLog struct {
	ID             uuid.UUID `json:"id"`
	RecipientRole  string    `json:"recipient_role"`
	RecipientEmail string    `json:"recipient_email"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	Status         string    `json:"status"` // "sent" or "failed"
	CreatedAt      time.Time `json:"created_at"`
}
