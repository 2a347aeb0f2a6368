package meetings

import (
	"strings"

	"github.com/google/uuid"
)

// subjectSeparator splits the human-readable description from the group ID
// in a provider meeting subject.
const subjectSeparator = " | "

// EncodeSubject builds a meeting subject carrying the owning group's ID, so
// remote meeting records can later be attributed to a group without any
// local lookup.
func EncodeSubject(groupID uuid.UUID, description string) string {
	return description + subjectSeparator + groupID.String()
}

// DecodeSubject extracts the group ID from a meeting subject. Some legacy
// subjects are a bare group ID with no description part. Returns false when
// no valid ID can be recovered.
func DecodeSubject(subject string) (uuid.UUID, bool) {
	parts := strings.Split(subject, subjectSeparator)
	candidate := subject
	if len(parts) >= 2 {
		candidate = parts[len(parts)-1]
	}
	id, err := uuid.Parse(candidate)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
