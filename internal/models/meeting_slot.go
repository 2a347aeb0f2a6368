package models

import (
	"time"

	"github.com/google/uuid"
)

// MeetingSlot is one bookable conferencing room tied to one provider admin
// account. The pool of slots is small and fixed; slots are provisioned
// out-of-band and cycle between free and bound forever.
//
// A slot is free iff GroupID is nil. The (TMUserID, MeetingID, JoinLink)
// triple is unique per row: one room hosts one active provider meeting at a
// time.
type MeetingSlot struct {
	ID        int64      `json:"id"`
	TMUserID  string     `json:"tm_user_id"`
	MeetingID string     `json:"meeting_id"`
	JoinLink  string     `json:"join_link"`
	GroupID   *uuid.UUID `json:"group_id,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Free reports whether the slot is available for allocation.
func (s *MeetingSlot) Free() bool {
	return s.GroupID == nil
}
