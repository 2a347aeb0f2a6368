package slots

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/horizon-mentorship/backend/internal/models"
)

// HistoryRepository is the append-only recorder of slot-to-group bindings.
// Writes run on the allocator's transaction; reads go straight to the pool.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a meeting history repository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Create appends a usage record at bind time. ended_before stays NULL until
// reclamation confirms the meeting is over.
func (h *HistoryRepository) Create(ctx context.Context, tx pgx.Tx, meetingID string, groupID uuid.UUID, startedAt time.Time) error {
	const q = `INSERT INTO meeting_histories (meeting_id, group_id, started_at) VALUES ($1, $2, $3)`
	if _, err := tx.Exec(ctx, q, meetingID, groupID, startedAt); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// CloseOpen tightens the open record's end-time upper bound. A no-op when
// the record was already closed.
func (h *HistoryRepository) CloseOpen(ctx context.Context, tx pgx.Tx, meetingID string, groupID uuid.UUID, endedBefore time.Time) error {
	const q = `UPDATE meeting_histories SET ended_before = $3
		WHERE meeting_id = $1 AND group_id = $2 AND ended_before IS NULL`
	if _, err := tx.Exec(ctx, q, meetingID, groupID, endedBefore); err != nil {
		return fmt.Errorf("close history: %w", err)
	}
	return nil
}

// ListByGroup returns a group's usage windows, newest first.
func (h *HistoryRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.MeetingHistory, error) {
	const q = `SELECT meeting_id, group_id, started_at, ended_before
		FROM meeting_histories WHERE group_id = $1 ORDER BY started_at DESC`
	rows, err := h.pool.Query(ctx, q, groupID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := make([]models.MeetingHistory, 0)
	for rows.Next() {
		var rec models.MeetingHistory
		if err := rows.Scan(&rec.MeetingID, &rec.GroupID, &rec.StartedAt, &rec.EndedBefore); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return out, nil
}
