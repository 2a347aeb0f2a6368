package models

import (
	"time"

	"github.com/google/uuid"
)

// MeetingHistory is one observed usage window of a provider meeting by a
// group. Rows are appended at bind time; EndedBefore is tightened once
// reclamation confirms the meeting is over. Rows are never deleted.
type MeetingHistory struct {
	MeetingID   string     `json:"meeting_id"`
	GroupID     uuid.UUID  `json:"group_id"`
	StartedAt   time.Time  `json:"started_at"`
	EndedBefore *time.Time `json:"ended_before,omitempty"`
}
