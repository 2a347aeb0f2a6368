// Package meetings implements the meeting slot allocator: admission control
// over a fixed pool of conferencing rooms whose true occupancy lives in the
// provider's systems and is only observable by polling.
package meetings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/horizon-mentorship/backend/internal/models"
	"github.com/horizon-mentorship/backend/internal/provider"
	"github.com/horizon-mentorship/backend/pkg/database"
)

// SlotStore is the durable slot pool. All mutating reads lock the row for
// the rest of the transaction.
type SlotStore interface {
	FindByGroupForUpdate(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) (*models.MeetingSlot, error)
	FindFreeForUpdate(ctx context.Context, tx pgx.Tx) (*models.MeetingSlot, error)
	ListBoundForUpdate(ctx context.Context, tx pgx.Tx) ([]models.MeetingSlot, error)
	Bind(ctx context.Context, tx pgx.Tx, slotID int64, groupID uuid.UUID) error
	Release(ctx context.Context, tx pgx.Tx, slotID int64) error
	UpdateMeeting(ctx context.Context, tx pgx.Tx, slotID int64, meetingID, joinLink string) error
}

// HistoryStore records slot usage windows.
type HistoryStore interface {
	Create(ctx context.Context, tx pgx.Tx, meetingID string, groupID uuid.UUID, startedAt time.Time) error
	CloseOpen(ctx context.Context, tx pgx.Tx, meetingID string, groupID uuid.UUID, endedBefore time.Time) error
}

// Provider is the conferencing provider: an opaque, possibly slow,
// possibly failing remote API.
type Provider interface {
	CreateMeeting(ctx context.Context, tmUserID, subject string, startTimeSec, endTimeSec int64) (*provider.CreatedMeeting, error)
	GetMeetingStatus(ctx context.Context, meetingID, tmUserID string) (provider.MeetingStatus, error)
}

// Notifier raises operational alerts. Implementations must not fail the
// caller; delivery is best effort.
type Notifier interface {
	PoolExhausted(ctx context.Context, group *models.Group)
}

// Service is the allocator and reclaimer over the slot pool.
type Service struct {
	db       database.TxRunner
	slots    SlotStore
	history  HistoryStore
	provider Provider
	notifier Notifier
	logger   *zap.Logger

	// grace is how long after a slot's last state transition reclamation
	// leaves it alone. Closes the window between CreateMeeting returning
	// and the provider reporting the meeting as started, during which a
	// second allocation attempt must not steal the slot.
	grace time.Duration
	// linkTTL is how long a provider join link stays usable before a free
	// slot's meeting must be re-created at claim time.
	linkTTL time.Duration
}

// NewService creates the slot allocation service.
func NewService(db database.TxRunner, slots SlotStore, history HistoryStore, prov Provider, notifier Notifier, grace, linkTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:       db,
		slots:    slots,
		history:  history,
		provider: prov,
		notifier: notifier,
		logger:   logger,
		grace:    grace,
		linkTTL:  linkTTL,
	}
}

// Join returns a link the group can use to enter a call, allocating a slot
// if the group does not already hold one. ok=false with a nil error is the
// pool-exhausted outcome: a capacity condition for the caller to surface as
// "try again shortly", not a failure.
//
// The whole operation runs in one transaction; every slot row it touches is
// read under an exclusive row lock, so concurrent joins for different
// groups cannot claim the same free slot and concurrent joins for the same
// group serialize instead of double-binding.
func (s *Service) Join(ctx context.Context, group *models.Group) (link string, ok bool, err error) {
	err = s.db.WithTx(ctx, func(tx pgx.Tx) error {
		// A group that already holds a slot gets the same link back, even
		// if the underlying meeting has ended: the room is simply reused.
		existing, err := s.slots.FindByGroupForUpdate(ctx, tx, group.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			link, ok = existing.JoinLink, true
			return nil
		}

		link, err = s.claimFree(ctx, tx, group)
		if err != nil {
			return err
		}
		if link == "" {
			// Nothing free: reclaim ended meetings and retry exactly once.
			if _, err := s.reclaim(ctx, tx); err != nil {
				return err
			}
			link, err = s.claimFree(ctx, tx, group)
			if err != nil {
				return err
			}
		}
		ok = link != ""
		return nil
	})
	if err != nil {
		return "", false, err
	}
	if !ok {
		s.logger.Warn("meeting slot pool exhausted",
			zap.String("group_id", group.ID.String()),
			zap.String("group_name", group.Name))
		s.notifier.PoolExhausted(ctx, group)
	}
	return link, ok, nil
}

// claimFree binds one free slot to the group and returns its link, or ""
// when no slot is free. A stale join link is re-created with the provider
// before the bind, inside the same transaction, so a creation failure rolls
// everything back and never leaves a half-bound slot.
func (s *Service) claimFree(ctx context.Context, tx pgx.Tx, group *models.Group) (string, error) {
	slot, err := s.slots.FindFreeForUpdate(ctx, tx)
	if err != nil || slot == nil {
		return "", err
	}

	now := time.Now()
	meetingID, joinLink := slot.MeetingID, slot.JoinLink
	if now.Sub(slot.UpdatedAt) > s.linkTTL {
		created, err := s.provider.CreateMeeting(ctx, slot.TMUserID,
			EncodeSubject(group.ID, group.Name), now.Unix(), now.Add(time.Hour).Unix())
		if err != nil {
			return "", fmt.Errorf("refresh meeting for slot %d: %w", slot.ID, err)
		}
		if err := s.slots.UpdateMeeting(ctx, tx, slot.ID, created.MeetingID, created.JoinLink); err != nil {
			return "", err
		}
		meetingID, joinLink = created.MeetingID, created.JoinLink
	}

	if err := s.slots.Bind(ctx, tx, slot.ID, group.ID); err != nil {
		return "", err
	}
	if err := s.history.Create(ctx, tx, meetingID, group.ID, now); err != nil {
		return "", err
	}

	s.logger.Info("slot bound",
		zap.Int64("slot_id", slot.ID),
		zap.String("group_id", group.ID.String()),
		zap.String("meeting_id", meetingID))
	return joinLink, nil
}

// Reclaim runs one reclamation pass in its own transaction and returns how
// many slots it freed. Triggered by external cron or operators; the
// allocator also reclaims inline when the pool looks empty.
func (s *Service) Reclaim(ctx context.Context) (int, error) {
	var freed int
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		n, err := s.reclaim(ctx, tx)
		freed = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return freed, nil
}

// reclaim frees every bound slot whose remote meeting is confirmed over and
// outside its grace period. A provider failure aborts the pass; the
// enclosing transaction rolls back and all slots keep their prior bound
// state. Under-freeing costs temporary capacity; freeing a room still in
// use would double-allocate it.
func (s *Service) reclaim(ctx context.Context, tx pgx.Tx) (int, error) {
	bound, err := s.slots.ListBoundForUpdate(ctx, tx)
	if err != nil {
		return 0, err
	}

	freed := 0
	for _, slot := range bound {
		if time.Since(slot.UpdatedAt) < s.grace {
			continue
		}

		status, err := s.provider.GetMeetingStatus(ctx, slot.MeetingID, slot.TMUserID)
		if err != nil {
			return freed, fmt.Errorf("get status of meeting %s: %w", slot.MeetingID, err)
		}
		if status == provider.StatusStarted {
			continue
		}

		if err := s.slots.Release(ctx, tx, slot.ID); err != nil {
			return freed, err
		}
		if err := s.history.CloseOpen(ctx, tx, slot.MeetingID, *slot.GroupID, time.Now()); err != nil {
			return freed, err
		}
		freed++
		s.logger.Info("slot reclaimed",
			zap.Int64("slot_id", slot.ID),
			zap.String("group_id", slot.GroupID.String()),
			zap.String("meeting_status", string(status)))
	}
	return freed, nil
}
