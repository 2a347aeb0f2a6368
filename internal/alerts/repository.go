package alerts

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/horizon-mentorship/backend/internal/models"
)

// Repository resolves alert recipients and records deliveries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an alerts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByRole returns all users holding the given role.
func (r *Repository) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	const q = `SELECT id, name, email, roles, created_at FROM users WHERE $1 = ANY(roles)`
	rows, err := r.pool.Query(ctx, q, role)
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Roles, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return out, nil
}

// LogNotification records one delivery attempt.
func (r *Repository) LogNotification(ctx context.Context, log *models.NotificationLog) error {
	const q = `INSERT INTO notification_logs (recipient_role, recipient_email, subject, body, status)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.pool.Exec(ctx, q, log.RecipientRole, log.RecipientEmail, log.Subject, log.Body, log.Status); err != nil {
		return fmt.Errorf("insert notification log: %w", err)
	}
	return nil
}
