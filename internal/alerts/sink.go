// Package alerts raises operational notifications when the slot pool needs
// human attention.
package alerts

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/horizon-mentorship/backend/internal/models"
	"github.com/horizon-mentorship/backend/pkg/queue"
)

// Sink enqueues pool-exhaustion alerts for the notification worker.
// Delivery is fire-and-forget: enqueue failures are logged and swallowed so
// they never change the allocation outcome. Every exhausted attempt alerts;
// there is deliberately no debounce.
type Sink struct {
	queue  *queue.Queue
	role   string
	logger *zap.Logger
}

// NewSink creates an alert sink addressing the given operational role.
func NewSink(q *queue.Queue, recipientRole string, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{queue: q, role: recipientRole, logger: logger}
}

// PoolExhausted notifies the operational role that a group asked for a call
// and no slot was free or reclaimable.
func (s *Sink) PoolExhausted(ctx context.Context, group *models.Group) {
	payload := queue.NotificationPayload{
		RecipientRole: s.role,
		Subject:       "Meeting slot pool exhausted",
		Body: fmt.Sprintf(
			"Group %q (%s) requested a meeting but every slot is bound and none could be reclaimed. "+
				"Add capacity or resolve a stuck meeting.",
			group.Name, group.ID),
	}
	if err := s.queue.EnqueueNotification(ctx, payload); err != nil {
		s.logger.Error("alert enqueue failed",
			zap.Error(err),
			zap.String("group_id", group.ID.String()))
	}
}
