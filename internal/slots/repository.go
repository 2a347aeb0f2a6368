package slots

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/horizon-mentorship/backend/internal/models"
)

const slotColumns = `id, tm_user_id, meeting_id, join_link, group_id, updated_at`

// Repository is the durable slot store. Every method that reads a slot for
// mutation takes the row's exclusive lock, so all methods run on a pgx.Tx
// supplied by the caller; the lock is released on commit or rollback.
type Repository struct{}

// NewRepository creates a slot repository.
func NewRepository() *Repository { return &Repository{} }

// FindByGroupForUpdate returns the slot currently bound to the group,
// locking the row. Returns nil when the group holds no slot. There is at
// most one such row; the allocator keeps it that way.
func (r *Repository) FindByGroupForUpdate(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) (*models.MeetingSlot, error) {
	q := `SELECT ` + slotColumns + ` FROM meeting_slots WHERE group_id = $1 FOR UPDATE`
	slot, err := scanSlot(tx.QueryRow(ctx, q, groupID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find slot by group: %w", err)
	}
	return slot, nil
}

// FindFreeForUpdate returns one free slot with its row locked, or nil when
// none is free. SKIP LOCKED lets concurrent allocations claim different
// free rows instead of queueing on the first one.
func (r *Repository) FindFreeForUpdate(ctx context.Context, tx pgx.Tx) (*models.MeetingSlot, error) {
	q := `SELECT ` + slotColumns + ` FROM meeting_slots WHERE group_id IS NULL ORDER BY id LIMIT 1 FOR UPDATE SKIP LOCKED`
	slot, err := scanSlot(tx.QueryRow(ctx, q))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find free slot: %w", err)
	}
	return slot, nil
}

// ListBoundForUpdate returns all bound slots with their rows locked for the
// remainder of the transaction, so a concurrent join cannot observe a
// half-reclaimed slot.
func (r *Repository) ListBoundForUpdate(ctx context.Context, tx pgx.Tx) ([]models.MeetingSlot, error) {
	q := `SELECT ` + slotColumns + ` FROM meeting_slots WHERE group_id IS NOT NULL ORDER BY id FOR UPDATE`
	rows, err := tx.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list bound slots: %w", err)
	}
	defer rows.Close()

	var out []models.MeetingSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bound slot: %w", err)
		}
		out = append(out, *slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bound slots: %w", err)
	}
	return out, nil
}

// Bind assigns the slot to the group and records the state transition time.
func (r *Repository) Bind(ctx context.Context, tx pgx.Tx, slotID int64, groupID uuid.UUID) error {
	const q = `UPDATE meeting_slots SET group_id = $1, updated_at = NOW() WHERE id = $2`
	if _, err := tx.Exec(ctx, q, groupID, slotID); err != nil {
		return fmt.Errorf("bind slot: %w", err)
	}
	return nil
}

// Release frees the slot.
func (r *Repository) Release(ctx context.Context, tx pgx.Tx, slotID int64) error {
	const q = `UPDATE meeting_slots SET group_id = NULL, updated_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(ctx, q, slotID); err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}

// UpdateMeeting replaces the slot's provider meeting after a link refresh.
func (r *Repository) UpdateMeeting(ctx context.Context, tx pgx.Tx, slotID int64, meetingID, joinLink string) error {
	const q = `UPDATE meeting_slots SET meeting_id = $1, join_link = $2, updated_at = NOW() WHERE id = $3`
	if _, err := tx.Exec(ctx, q, meetingID, joinLink, slotID); err != nil {
		return fmt.Errorf("update slot meeting: %w", err)
	}
	return nil
}

func scanSlot(row pgx.Row) (*models.MeetingSlot, error) {
	var s models.MeetingSlot
	if err := row.Scan(&s.ID, &s.TMUserID, &s.MeetingID, &s.JoinLink, &s.GroupID, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
