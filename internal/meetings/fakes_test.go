package meetings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/horizon-mentorship/backend/internal/models"
	"github.com/horizon-mentorship/backend/internal/provider"
)

// restorable lets the fake transaction runner roll fake stores back when
// the transactional function fails, mirroring the real store's semantics.
type restorable interface {
	snapshot()
	restore()
}

type fakeDB struct {
	stores    []restorable
	beginErr  error
	commitErr error
	txCount   int
}

func (f *fakeDB) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	f.txCount++
	for _, s := range f.stores {
		s.snapshot()
	}
	if err := fn(nil); err != nil {
		for _, s := range f.stores {
			s.restore()
		}
		return err
	}
	if f.commitErr != nil {
		for _, s := range f.stores {
			s.restore()
		}
		return f.commitErr
	}
	return nil
}

type fakeSlotStore struct {
	slots []models.MeetingSlot
	saved []models.MeetingSlot
}

func (f *fakeSlotStore) snapshot() { f.saved = copySlots(f.slots) }
func (f *fakeSlotStore) restore()  { f.slots = copySlots(f.saved) }

func copySlots(in []models.MeetingSlot) []models.MeetingSlot {
	out := make([]models.MeetingSlot, len(in))
	for i, s := range in {
		out[i] = s
		if s.GroupID != nil {
			gid := *s.GroupID
			out[i].GroupID = &gid
		}
	}
	return out
}

func (f *fakeSlotStore) FindByGroupForUpdate(_ context.Context, _ pgx.Tx, groupID uuid.UUID) (*models.MeetingSlot, error) {
	for i := range f.slots {
		if f.slots[i].GroupID != nil && *f.slots[i].GroupID == groupID {
			s := f.slots[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeSlotStore) FindFreeForUpdate(_ context.Context, _ pgx.Tx) (*models.MeetingSlot, error) {
	for i := range f.slots {
		if f.slots[i].GroupID == nil {
			s := f.slots[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeSlotStore) ListBoundForUpdate(_ context.Context, _ pgx.Tx) ([]models.MeetingSlot, error) {
	var out []models.MeetingSlot
	for i := range f.slots {
		if f.slots[i].GroupID != nil {
			out = append(out, f.slots[i])
		}
	}
	return copySlots(out), nil
}

func (f *fakeSlotStore) Bind(_ context.Context, _ pgx.Tx, slotID int64, groupID uuid.UUID) error {
	for i := range f.slots {
		if f.slots[i].ID == slotID {
			gid := groupID
			f.slots[i].GroupID = &gid
			f.slots[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("slot %d not found", slotID)
}

func (f *fakeSlotStore) Release(_ context.Context, _ pgx.Tx, slotID int64) error {
	for i := range f.slots {
		if f.slots[i].ID == slotID {
			f.slots[i].GroupID = nil
			f.slots[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("slot %d not found", slotID)
}

func (f *fakeSlotStore) UpdateMeeting(_ context.Context, _ pgx.Tx, slotID int64, meetingID, joinLink string) error {
	for i := range f.slots {
		if f.slots[i].ID == slotID {
			f.slots[i].MeetingID = meetingID
			f.slots[i].JoinLink = joinLink
			f.slots[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("slot %d not found", slotID)
}

func (f *fakeSlotStore) get(slotID int64) *models.MeetingSlot {
	for i := range f.slots {
		if f.slots[i].ID == slotID {
			return &f.slots[i]
		}
	}
	return nil
}

type fakeHistoryStore struct {
	records []models.MeetingHistory
	saved   []models.MeetingHistory
}

func (f *fakeHistoryStore) snapshot() { f.saved = append([]models.MeetingHistory(nil), f.records...) }
func (f *fakeHistoryStore) restore()  { f.records = append([]models.MeetingHistory(nil), f.saved...) }

func (f *fakeHistoryStore) Create(_ context.Context, _ pgx.Tx, meetingID string, groupID uuid.UUID, startedAt time.Time) error {
	f.records = append(f.records, models.MeetingHistory{
		MeetingID: meetingID,
		GroupID:   groupID,
		StartedAt: startedAt,
	})
	return nil
}

func (f *fakeHistoryStore) CloseOpen(_ context.Context, _ pgx.Tx, meetingID string, groupID uuid.UUID, endedBefore time.Time) error {
	for i := range f.records {
		if f.records[i].MeetingID == meetingID && f.records[i].GroupID == groupID && f.records[i].EndedBefore == nil {
			t := endedBefore
			f.records[i].EndedBefore = &t
		}
	}
	return nil
}

type createCall struct {
	tmUserID string
	subject  string
}

type fakeProvider struct {
	statuses    map[string]provider.MeetingStatus
	statusErr   error
	statusCalls int
	createErr   error
	createCalls []createCall
	nextMeeting int
}

func (f *fakeProvider) CreateMeeting(_ context.Context, tmUserID, subject string, _, _ int64) (*provider.CreatedMeeting, error) {
	f.createCalls = append(f.createCalls, createCall{tmUserID: tmUserID, subject: subject})
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextMeeting++
	return &provider.CreatedMeeting{
		MeetingID: fmt.Sprintf("m-fresh-%d", f.nextMeeting),
		JoinLink:  fmt.Sprintf("https://meet.example.com/fresh-%d", f.nextMeeting),
	}, nil
}

func (f *fakeProvider) GetMeetingStatus(_ context.Context, meetingID, _ string) (provider.MeetingStatus, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return "", f.statusErr
	}
	if st, ok := f.statuses[meetingID]; ok {
		return st, nil
	}
	return provider.StatusOther, nil
}

type fakeNotifier struct {
	calls  int
	groups []uuid.UUID
}

func (f *fakeNotifier) PoolExhausted(_ context.Context, group *models.Group) {
	f.calls++
	f.groups = append(f.groups, group.ID)
}
